package handler

import (
	"net/http"
	"strconv"

	"villagefund/internal/models"
	"villagefund/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AuditHandler lets the committee review the operation log.
type AuditHandler struct {
	DB       *gorm.DB
	PageSize int
}

func NewAuditHandler(db *gorm.DB, pageSize int) *AuditHandler {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &AuditHandler{DB: db, PageSize: pageSize}
}

// List returns audit entries newest-first, optionally filtered by user.
func (h *AuditHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(h.PageSize)))
	if pageSize < 1 || pageSize > 100 {
		pageSize = h.PageSize
	}

	q := h.DB.Model(&models.AuditLog{})
	if uid := c.Query("user_id"); uid != "" {
		q = q.Where("user_id = ?", uid)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to count audit entries")
		return
	}

	var entries []models.AuditLog
	if err := q.Order("created_at DESC, id DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&entries).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load audit entries")
		return
	}

	views := make([]util.Response, 0, len(entries))
	for _, e := range entries {
		views = append(views, util.Response{
			"id":         e.ID,
			"user_id":    e.UserID,
			"method":     e.Method,
			"path":       e.Path,
			"action":     e.Action,
			"ip":         e.IP,
			"user_agent": e.UserAgent,
			"created_at": e.CreatedAt,
		})
	}
	util.Success(c, util.Response{
		"entries":   views,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}
