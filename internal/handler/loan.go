package handler

import (
	"errors"
	"net/http"
	"time"

	"villagefund/internal/fund"
	"villagefund/internal/ledger"
	"villagefund/internal/loan"
	"villagefund/internal/models"
	"villagefund/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// LoanHandler serves loan preview, disbursement and repayment.
type LoanHandler struct {
	DB     *gorm.DB
	Fund   *fund.Service
	Policy loan.Policy
}

func NewLoanHandler(db *gorm.DB, f *fund.Service, policy loan.Policy) *LoanHandler {
	return &LoanHandler{DB: db, Fund: f, Policy: policy}
}

type loanPreviewReq struct {
	MemberCode string `json:"member_code" binding:"required"`
	Principal  string `json:"principal" binding:"required"` // baht
	TermMonths int    `json:"term_months" binding:"required"`
	StartDate  string `json:"start_date"` // YYYY-MM-DD, default today
}

// Preview computes the installment plan without touching the ledger.
func (h *LoanHandler) Preview(c *gin.Context) {
	var req loanPreviewReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
		return
	}

	principal, err := util.ParseBahtToSatang(req.Principal)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, errInvalidAmountFormat.Error())
		return
	}

	start := time.Now().Truncate(24 * time.Hour)
	if req.StartDate != "" {
		d, err := util.ValidateDate(req.StartDate)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, errInvalidDateFormat.Error())
			return
		}
		start = d
	}

	var member models.Member
	if err := h.DB.Where("code = ?", req.MemberCode).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "member not found")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load member")
		}
		return
	}

	summary, err := h.Policy.Summarize(principal, req.TermMonths, member.Balance)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "principal must be positive")
		return
	}
	schedule, err := h.Policy.Schedule(principal, req.TermMonths, start)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "principal must be positive")
		return
	}

	util.Success(c, util.Response{
		"summary":  summaryViewLoan(summary),
		"schedule": scheduleViews(schedule),
	})
}

type loanDisburseReq struct {
	MemberCode  string `json:"member_code" binding:"required"`
	Principal   string `json:"principal" binding:"required"` // baht
	TermMonths  int    `json:"term_months" binding:"required"`
	Date        string `json:"date"`
	Description string `json:"description" binding:"max=255"`
}

// Disburse hands out a loan and records it in the ledger.
func (h *LoanHandler) Disburse(c *gin.Context) {
	var req loanDisburseReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
		return
	}

	principal, err := util.ParseBahtToSatang(req.Principal)
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

	tx, err := h.Fund.Submit(ledger.LoanDisbursement{
		MemberCode:  req.MemberCode,
		Amount:      principal,
		Date:        date,
		Description: req.Description,
		TermMonths:  req.TermMonths,
	})
	if err != nil {
		writeLedgerError(c, err)
		return
	}

	// Include the plan the borrower agreed to.
	var member models.Member
	_ = h.DB.Where("code = ?", req.MemberCode).First(&member).Error
	summary, _ := h.Policy.Summarize(principal, req.TermMonths, member.Balance)
	schedule, _ := h.Policy.Schedule(principal, req.TermMonths, date)

	util.Success(c, util.Response{
		"transaction": transactionView(tx),
		"summary":     summaryViewLoan(summary),
		"schedule":    scheduleViews(schedule),
	})
}

type loanRepayReq struct {
	MemberCode  string `json:"member_code" binding:"required"`
	Amount      string `json:"amount" binding:"required"` // baht
	Date        string `json:"date"`
	Description string `json:"description" binding:"max=255"`
}

// Repay records a loan repayment.
func (h *LoanHandler) Repay(c *gin.Context) {
	var req loanRepayReq
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

	tx, err := h.Fund.Submit(ledger.LoanRepayment{
		MemberCode:  req.MemberCode,
		Amount:      amount,
		Date:        date,
		Description: req.Description,
	})
	if err != nil {
		writeLedgerError(c, err)
		return
	}
	util.Success(c, util.Response{"transaction": transactionView(tx)})
}

func summaryViewLoan(s loan.Summary) util.Response {
	return util.Response{
		"principal":           util.FormatSatangToBaht(s.Principal),
		"term_months":         s.TermMonths,
		"monthly_installment": util.FormatSatangToBaht(s.MonthlyInstallment),
		"total_interest":      util.FormatSatangToBaht(s.TotalInterest),
		"total_repayment":     util.FormatSatangToBaht(s.TotalRepayment),
		"risk":                string(s.Risk),
	}
}

func scheduleViews(schedule []loan.Installment) []util.Response {
	out := make([]util.Response, 0, len(schedule))
	for _, in := range schedule {
		out = append(out, util.Response{
			"no":       in.No,
			"due_date": in.DueDate.Format("2006-01-02"),
			"amount":   util.FormatSatangToBaht(in.Amount),
		})
	}
	return out
}
