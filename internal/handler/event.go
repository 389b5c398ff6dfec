package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"villagefund/internal/models"
	"villagefund/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// EventHandler serves the fund calendar.
type EventHandler struct {
	DB *gorm.DB
}

func NewEventHandler(db *gorm.DB) *EventHandler {
	return &EventHandler{DB: db}
}

var eventTypes = map[string]bool{
	"PAYOUT":   true,
	"MEETING":  true,
	"DEADLINE": true,
}

type eventReq struct {
	Title           string `json:"title" binding:"required,max=128"`
	Date            string `json:"date" binding:"required"`
	Type            string `json:"type" binding:"required"`
	Amount          string `json:"amount"` // baht, optional
	Reminder        string `json:"reminder" binding:"max=255"`
	RemindDaysAhead int    `json:"remind_days_ahead"`
}

func (h *EventHandler) Create(c *gin.Context) {
	event, ok := h.bind(c)
	if !ok {
		return
	}
	if err := h.DB.Create(&event).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to create event")
		return
	}
	util.Success(c, util.Response{"event": eventView(event)})
}

func (h *EventHandler) Update(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid event id")
		return
	}

	var existing models.CalendarEvent
	if err := h.DB.First(&existing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "event not found")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load event")
		}
		return
	}

	event, ok := h.bind(c)
	if !ok {
		return
	}
	event.ID = existing.ID
	event.CreatedAt = existing.CreatedAt
	if err := h.DB.Save(&event).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to update event")
		return
	}
	util.Success(c, util.Response{"event": eventView(event)})
}

func (h *EventHandler) Delete(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid event id")
		return
	}
	res := h.DB.Delete(&models.CalendarEvent{}, id)
	if res.Error != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to delete event")
		return
	}
	if res.RowsAffected == 0 {
		util.Error(c, http.StatusNotFound, util.CodeNotFound, "event not found")
		return
	}
	util.Success(c, util.Response{"deleted": id})
}

// List returns events in a date window, defaulting to everything upcoming.
func (h *EventHandler) List(c *gin.Context) {
	q := h.DB.Model(&models.CalendarEvent{})
	if from := c.Query("from"); from != "" {
		d, err := util.ValidateDate(from)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "from must be YYYY-MM-DD")
			return
		}
		q = q.Where("date >= ?", d)
	} else {
		q = q.Where("date >= ?", time.Now().Truncate(24*time.Hour))
	}
	if to := c.Query("to"); to != "" {
		d, err := util.ValidateDate(to)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "to must be YYYY-MM-DD")
			return
		}
		q = q.Where("date <= ?", d)
	}
	if t := c.Query("type"); t != "" {
		q = q.Where("type = ?", strings.ToUpper(t))
	}

	var events []models.CalendarEvent
	if err := q.Order("date ASC, id ASC").Find(&events).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load events")
		return
	}

	views := make([]util.Response, 0, len(events))
	for _, e := range events {
		views = append(views, eventView(e))
	}
	util.Success(c, util.Response{"events": views})
}

func (h *EventHandler) bind(c *gin.Context) (models.CalendarEvent, bool) {
	var req eventReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
		return models.CalendarEvent{}, false
	}

	date, err := util.ValidateDate(req.Date)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, errInvalidDateFormat.Error())
		return models.CalendarEvent{}, false
	}
	eventType := strings.ToUpper(req.Type)
	if !eventTypes[eventType] {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "type must be PAYOUT, MEETING or DEADLINE")
		return models.CalendarEvent{}, false
	}
	var amount int64
	if req.Amount != "" {
		amount, err = util.ParseBahtToSatang(req.Amount)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, errInvalidAmountFormat.Error())
			return models.CalendarEvent{}, false
		}
	}

	return models.CalendarEvent{
		Title:           strings.TrimSpace(req.Title),
		Date:            date,
		Type:            eventType,
		Amount:          amount,
		Reminder:        req.Reminder,
		RemindDaysAhead: req.RemindDaysAhead,
	}, true
}

func eventView(e models.CalendarEvent) util.Response {
	v := util.Response{
		"id":    e.ID,
		"title": e.Title,
		"date":  e.Date.Format("2006-01-02"),
		"type":  e.Type,
	}
	if e.Amount > 0 {
		v["amount"] = util.FormatSatangToBaht(e.Amount)
	}
	if e.Reminder != "" {
		v["reminder"] = e.Reminder
		v["remind_days_ahead"] = e.RemindDaysAhead
	}
	return v
}
