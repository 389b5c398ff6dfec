package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"villagefund/internal/fund"
	"villagefund/internal/ledger"
	"villagefund/internal/middleware"
	"villagefund/internal/models"
	"villagefund/internal/report"
	"villagefund/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// TransactionHandler serves the transaction log and accepts new
// transactions.
type TransactionHandler struct {
	DB       *gorm.DB
	Fund     *fund.Service
	PageSize int
}

func NewTransactionHandler(db *gorm.DB, f *fund.Service, pageSize int) *TransactionHandler {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &TransactionHandler{DB: db, Fund: f, PageSize: pageSize}
}

type createTransactionReq struct {
	Kind        string `json:"kind" binding:"required"`
	MemberCode  string `json:"member_code"`
	Amount      string `json:"amount" binding:"required"` // baht
	Date        string `json:"date"`                      // YYYY-MM-DD, default today
	Description string `json:"description" binding:"max=255"`
	WelfareType string `json:"welfare_type"` // WELFARE_PAYOUT
	IncomeType  string `json:"income_type"`  // FUND_INCOME
	TermMonths  int    `json:"term_months"`  // LOAN_DISBURSEMENT
}

// Create records one transaction of any kind.
func (h *TransactionHandler) Create(c *gin.Context) {
	var req createTransactionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
		return
	}

	intent, err := intentFromRequest(req)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}

	tx, err := h.Fund.Submit(intent)
	if err != nil {
		writeLedgerError(c, err)
		return
	}
	util.Success(c, util.Response{"transaction": transactionView(tx)})
}

func intentFromRequest(req createTransactionReq) (ledger.Intent, error) {
	amount, err := util.ParseBahtToSatang(req.Amount)
	if err != nil {
		return nil, errInvalidAmountFormat
	}

	date := time.Now().Truncate(24 * time.Hour)
	if req.Date != "" {
		d, err := util.ValidateDate(req.Date)
		if err != nil {
			return nil, errInvalidDateFormat
		}
		date = d
	}

	switch ledger.Kind(strings.ToUpper(req.Kind)) {
	case ledger.KindDeposit:
		return ledger.Deposit{MemberCode: req.MemberCode, Amount: amount, Date: date, Description: req.Description}, nil
	case ledger.KindWithdraw:
		return ledger.Withdraw{MemberCode: req.MemberCode, Amount: amount, Date: date, Description: req.Description}, nil
	case ledger.KindWelfarePayout:
		return ledger.WelfarePayout{
			MemberCode: req.MemberCode, Amount: amount, Date: date, Description: req.Description,
			Welfare: ledger.WelfareType(strings.ToUpper(req.WelfareType)),
		}, nil
	case ledger.KindLoanDisbursement:
		return ledger.LoanDisbursement{
			MemberCode: req.MemberCode, Amount: amount, Date: date, Description: req.Description,
			TermMonths: req.TermMonths,
		}, nil
	case ledger.KindLoanRepayment:
		return ledger.LoanRepayment{MemberCode: req.MemberCode, Amount: amount, Date: date, Description: req.Description}, nil
	case ledger.KindFundIncome:
		return ledger.FundIncome{
			MemberCode: req.MemberCode, Amount: amount, Date: date, Description: req.Description,
			Income: ledger.IncomeType(strings.ToUpper(req.IncomeType)),
		}, nil
	}
	return nil, errUnknownKind
}

// List returns transactions newest-first with optional filters, plus an
// aggregated summary of the filtered set.
func (h *TransactionHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(h.PageSize)))
	if pageSize < 1 || pageSize > 200 {
		pageSize = h.PageSize
	}

	q, ok := h.filtered(c)
	if !ok {
		return
	}

	var total int64
	if err := q.Model(&models.Transaction{}).Count(&total).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to count transactions")
		return
	}

	var rows []models.Transaction
	if err := q.Order("date DESC, created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&rows).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load transactions")
		return
	}

	// Summary covers the whole filtered set, not just this page.
	qAll, _ := h.filtered(c)
	var all []models.Transaction
	if err := qAll.Order("date ASC").Find(&all).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load transactions")
		return
	}
	summary := report.Summarize(toLedgerTransactions(all))

	util.Success(c, util.Response{
		"transactions": transactionViews(rows),
		"total":        total,
		"page":         page,
		"page_size":    pageSize,
		"summary":      summaryView(summary),
	})
}

// filtered builds the query from member_code / kind / from / to params.
// Member-role logins are always confined to their own rows regardless of
// the params. Writes the error response itself when a param is malformed.
func (h *TransactionHandler) filtered(c *gin.Context) (*gorm.DB, bool) {
	q := h.DB.Model(&models.Transaction{})
	if user := middleware.CurrentUser(c); user != nil && user.Role != models.RoleAdmin {
		q = q.Where("member_code = ?", user.MemberCode)
	}
	if code := c.Query("member_code"); code != "" {
		q = q.Where("member_code = ?", code)
	}
	if kind := c.Query("kind"); kind != "" {
		q = q.Where("kind = ?", strings.ToUpper(kind))
	}
	if from := c.Query("from"); from != "" {
		d, err := util.ValidateDate(from)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "from must be YYYY-MM-DD")
			return nil, false
		}
		q = q.Where("date >= ?", d)
	}
	if to := c.Query("to"); to != "" {
		d, err := util.ValidateDate(to)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "to must be YYYY-MM-DD")
			return nil, false
		}
		q = q.Where("date <= ?", d)
	}
	return q, true
}

func toLedgerTransactions(rows []models.Transaction) []ledger.Transaction {
	out := make([]ledger.Transaction, 0, len(rows))
	for _, r := range rows {
		out = append(out, ledger.Transaction{
			ID:          r.ID,
			MemberCode:  r.MemberCode,
			MemberName:  r.MemberName,
			Amount:      r.Amount,
			Kind:        ledger.Kind(r.Kind),
			Date:        r.Date,
			Description: r.Description,
			Welfare:     ledger.WelfareType(r.WelfareType),
			Income:      ledger.IncomeType(r.IncomeType),
			TermMonths:  r.TermMonths,
		})
	}
	return out
}

func summaryView(s report.Summary) util.Response {
	return util.Response{
		"total_income":  util.FormatSatangToBaht(s.TotalIncome),
		"total_expense": util.FormatSatangToBaht(s.TotalExpense),
		"net":           util.FormatSatangToBaht(s.Net),
		"income":        bucketViews(s.Income),
		"expense":       bucketViews(s.Expense),
	}
}

func bucketViews(buckets []report.Bucket) []util.Response {
	out := make([]util.Response, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, util.Response{
			"key":    b.Key,
			"amount": util.FormatSatangToBaht(b.Amount),
			"count":  b.Count,
		})
	}
	return out
}
