package handler

import (
	"net/http"

	"villagefund/internal/fund"
	"villagefund/internal/ledger"
	"villagefund/internal/models"
	"villagefund/internal/report"
	"villagefund/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ReportHandler serves aggregated views over the transaction log and the
// fund snapshot.
type ReportHandler struct {
	DB   *gorm.DB
	Fund *fund.Service
}

func NewReportHandler(db *gorm.DB, f *fund.Service) *ReportHandler {
	return &ReportHandler{DB: db, Fund: f}
}

// Summary aggregates the log into income and expense buckets. A month
// query param (YYYY-MM) narrows it to one month.
func (h *ReportHandler) Summary(c *gin.Context) {
	rows, ok := h.loadLog(c)
	if !ok {
		return
	}
	txs := toLedgerTransactions(rows)
	if month := c.Query("month"); month != "" {
		filtered := make([]ledger.Transaction, 0, len(txs))
		for _, t := range txs {
			if t.Date.Format("2006-01") == month {
				filtered = append(filtered, t)
			}
		}
		txs = filtered
	}
	util.Success(c, util.Response{"summary": summaryView(report.Summarize(txs))})
}

// Monthly returns the per-month income/expense rollup across the whole log.
func (h *ReportHandler) Monthly(c *gin.Context) {
	rows, ok := h.loadLog(c)
	if !ok {
		return
	}
	months := report.MonthlyRollup(toLedgerTransactions(rows))

	views := make([]util.Response, 0, len(months))
	for _, m := range months {
		views = append(views, util.Response{
			"month":   m.Month,
			"income":  util.FormatSatangToBaht(m.Income),
			"expense": util.FormatSatangToBaht(m.Expense),
			"net":     util.FormatSatangToBaht(m.Net),
		})
	}
	util.Success(c, util.Response{"months": views})
}

// Fund returns the live fund snapshot.
func (h *ReportHandler) FundOverview(c *gin.Context) {
	state, err := h.Fund.Snapshot()
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load fund state")
		return
	}

	active := 0
	for _, m := range state.Members {
		if m.Status == "ACTIVE" {
			active++
		}
	}
	util.Success(c, util.Response{
		"total_balance":     util.FormatSatangToBaht(state.Fund.TotalBalance),
		"total_members":     state.Fund.TotalMembers,
		"active_members":    active,
		"outstanding_loans": util.FormatSatangToBaht(state.Fund.ActiveLoans),
	})
}

// Rebuild recomputes balances and totals from the transaction log.
func (h *ReportHandler) Rebuild(c *gin.Context) {
	if err := h.Fund.Rebuild(); err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "rebuild failed")
		return
	}
	h.FundOverview(c)
}

func (h *ReportHandler) loadLog(c *gin.Context) ([]models.Transaction, bool) {
	var rows []models.Transaction
	if err := h.DB.Order("date ASC, created_at ASC").Find(&rows).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load transactions")
		return nil, false
	}
	return rows, true
}
