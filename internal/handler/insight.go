package handler

import (
	"errors"
	"io"
	"net/http"

	"villagefund/internal/fund"
	"villagefund/internal/insight"
	"villagefund/internal/models"
	"villagefund/internal/report"
	"villagefund/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// slip images larger than this are rejected before the model call
const maxSlipSize = 5 << 20

// InsightHandler fronts the AI advisory features. When the service is
// disabled or down, every endpoint degrades to a canned fallback rather
// than failing the request.
type InsightHandler struct {
	DB      *gorm.DB
	Fund    *fund.Service
	Insight *insight.Service // nil when disabled
}

func NewInsightHandler(db *gorm.DB, f *fund.Service, svc *insight.Service) *InsightHandler {
	return &InsightHandler{DB: db, Fund: f, Insight: svc}
}

// FundInsight returns a short model-written commentary on the fund.
func (h *InsightHandler) FundInsight(c *gin.Context) {
	state, err := h.Fund.Snapshot()
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load fund state")
		return
	}

	var rows []models.Transaction
	if err := h.DB.Order("date ASC, created_at ASC").Find(&rows).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load transactions")
		return
	}
	months := report.MonthlyRollup(toLedgerTransactions(rows))

	text, err := h.Insight.FundInsight(c.Request.Context(), state, months)
	if err != nil {
		if errors.Is(err, insight.ErrUnavailable) {
			util.Success(c, util.Response{
				"insight":   "AI insight is currently unavailable. The fund totals above are computed directly from the ledger.",
				"generated": false,
			})
			return
		}
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "insight failed")
		return
	}
	util.Success(c, util.Response{"insight": text, "generated": true})
}

// Reminder drafts a repayment reminder for one borrower.
func (h *InsightHandler) Reminder(c *gin.Context) {
	code := c.Param("code")

	var member models.Member
	if err := h.DB.Where("code = ?", code).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "member not found")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load member")
		}
		return
	}
	if member.LoanBalance <= 0 {
		util.Error(c, http.StatusUnprocessableEntity, util.CodeLedgerReject, "member has no outstanding loan")
		return
	}

	text, err := h.Insight.LoanReminder(c.Request.Context(), member.Name, member.LoanBalance, member.LastPaymentDate)
	if err != nil {
		if errors.Is(err, insight.ErrUnavailable) {
			// Fixed-template fallback so the committee still gets a message.
			text = "เรียนคุณ" + member.Name + " ขอแจ้งเตือนยอดเงินกู้คงเหลือ " +
				util.FormatSatangToBaht(member.LoanBalance) + " บาท กรุณาชำระงวดถัดไปตามกำหนด ขอบคุณค่ะ"
			util.Success(c, util.Response{"message": text, "generated": false})
			return
		}
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "reminder failed")
		return
	}
	util.Success(c, util.Response{"message": text, "generated": true})
}

// VerifySlip reads an uploaded transfer slip and checks it against the
// expected amount and the member roster.
func (h *InsightHandler) VerifySlip(c *gin.Context) {
	expected, err := util.ParseBahtToSatang(c.PostForm("expected_amount"))
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid expected_amount")
		return
	}

	fileHeader, err := c.FormFile("slip")
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "slip image is required")
		return
	}
	if fileHeader.Size > maxSlipSize {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "slip image too large")
		return
	}
	mimeType := fileHeader.Header.Get("Content-Type")
	if mimeType != "image/jpeg" && mimeType != "image/png" {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "slip must be a JPEG or PNG image")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to read upload")
		return
	}
	defer file.Close()
	image, err := io.ReadAll(file)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to read upload")
		return
	}

	var members []models.Member
	if err := h.DB.Where("status = ?", "ACTIVE").Find(&members).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load members")
		return
	}
	roster := make(map[string]string, len(members))
	for _, m := range members {
		roster[m.Code] = m.Name
	}

	result, err := h.Insight.VerifySlip(c.Request.Context(), image, mimeType, expected, roster)
	if err != nil {
		if errors.Is(err, insight.ErrUnavailable) {
			util.Error(c, http.StatusServiceUnavailable, util.CodeAIUnavailable, "slip verification is currently unavailable, please verify manually")
			return
		}
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "verification failed")
		return
	}

	util.Success(c, util.Response{
		"amount":            result.Amount,
		"date":              result.Date,
		"sender_name":       result.SenderName,
		"matched_member_id": result.MatchedMember,
		"confidence":        result.Confidence,
		"is_verified":       result.IsVerified,
	})
}
