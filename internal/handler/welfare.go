package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"villagefund/internal/fund"
	"villagefund/internal/ledger"
	"villagefund/internal/models"
	"villagefund/internal/registry"
	"villagefund/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// WelfareHandler serves welfare payouts and the claim history.
type WelfareHandler struct {
	DB   *gorm.DB
	Fund *fund.Service
}

func NewWelfareHandler(db *gorm.DB, f *fund.Service) *WelfareHandler {
	return &WelfareHandler{DB: db, Fund: f}
}

type welfarePayoutReq struct {
	MemberCode  string `json:"member_code" binding:"required"`
	Type        string `json:"type" binding:"required"` // BIRTH / DEATH / HOSPITAL / EDUCATION / ELDERLY / FUNERAL
	Amount      string `json:"amount" binding:"required"`
	Date        string `json:"date"`
	Description string `json:"description" binding:"max=255"`
	Force       bool   `json:"force"` // pay despite a failed eligibility check
}

// Payout records a welfare payment. Eligibility rules are advisory: a
// failed check blocks the payout unless force is set, so the committee
// can still honor exceptional cases.
func (h *WelfareHandler) Payout(c *gin.Context) {
	var req welfarePayoutReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
		return
	}

	amount, err := util.ParseBahtToSatang(req.Amount)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, errInvalidAmountFormat.Error())
		return
	}
	date := time.Now().Truncate(24 * time.Hour)
	if req.Date != "" {
		d, err := util.ValidateDate(req.Date)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, errInvalidDateFormat.Error())
			return
		}
		date = d
	}
	welfareType := ledger.WelfareType(strings.ToUpper(req.Type))

	if !req.Force {
		state, err := h.Fund.Snapshot()
		if err != nil {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load fund state")
			return
		}
		member := state.MemberByCode(req.MemberCode)
		if member == nil {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "member not found")
			return
		}
		if err := registry.CheckWelfareEligibility(*member, welfareType, date); err != nil {
			var elig *registry.EligibilityError
			if errors.As(err, &elig) {
				util.Error(c, http.StatusUnprocessableEntity, util.CodeLedgerReject, elig.Reason)
			} else {
				util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "unknown welfare type")
			}
			return
		}
	}

	tx, err := h.Fund.Submit(ledger.WelfarePayout{
		MemberCode:  req.MemberCode,
		Amount:      amount,
		Date:        date,
		Description: req.Description,
		Welfare:     welfareType,
	})
	if err != nil {
		writeLedgerError(c, err)
		return
	}
	util.Success(c, util.Response{"transaction": transactionView(tx)})
}

// List returns welfare claim records, optionally filtered by member or type.
func (h *WelfareHandler) List(c *gin.Context) {
	q := h.DB.Model(&models.WelfareRecord{})
	if code := c.Query("member_code"); code != "" {
		q = q.Where("member_code = ?", code)
	}
	if t := c.Query("type"); t != "" {
		q = q.Where("type = ?", strings.ToUpper(t))
	}

	var records []models.WelfareRecord
	if err := q.Order("date DESC, id DESC").Find(&records).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load welfare records")
		return
	}

	views := make([]util.Response, 0, len(records))
	for _, r := range records {
		views = append(views, util.Response{
			"id":             r.ID,
			"transaction_id": r.TransactionID,
			"member_code":    r.MemberCode,
			"member_name":    r.MemberName,
			"type":           r.Type,
			"amount":         util.FormatSatangToBaht(r.Amount),
			"date":           r.Date.Format("2006-01-02"),
			"note":           r.Note,
		})
	}
	util.Success(c, util.Response{"records": views})
}
