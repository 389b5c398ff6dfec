package handler

import (
	"errors"
	"net/http"

	"villagefund/internal/ledger"
	"villagefund/internal/models"
	"villagefund/internal/util"

	"github.com/gin-gonic/gin"
)

var (
	errInvalidAmountFormat = errors.New("amount must be a baht value like 500 or 500.50")
	errInvalidDateFormat   = errors.New("date must be YYYY-MM-DD")
	errUnknownKind         = errors.New("unknown transaction kind")
)

// writeLedgerError maps engine rejections to the response envelope. Any
// rejection the engine knows by name is a 422; the rest are server errors.
func writeLedgerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ledger.ErrMemberNotFound):
		util.Error(c, http.StatusNotFound, util.CodeNotFound, "member not found")
	case errors.Is(err, ledger.ErrMemberInactive):
		util.Error(c, http.StatusUnprocessableEntity, util.CodeLedgerReject, "member is inactive")
	case errors.Is(err, ledger.ErrInvalidAmount):
		util.Error(c, http.StatusUnprocessableEntity, util.CodeLedgerReject, "amount must be positive")
	case errors.Is(err, ledger.ErrInsufficientBalance):
		util.Error(c, http.StatusUnprocessableEntity, util.CodeLedgerReject, "insufficient balance")
	case errors.Is(err, ledger.ErrExcessRepayment):
		util.Error(c, http.StatusUnprocessableEntity, util.CodeLedgerReject, "repayment exceeds outstanding loan")
	case errors.Is(err, ledger.ErrUnknownType):
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "unknown transaction type")
	case errors.Is(err, ledger.ErrDuplicateMemberCode):
		util.Error(c, http.StatusUnprocessableEntity, util.CodeLedgerReject, "member code already exists")
	default:
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "operation failed")
	}
}

func transactionView(t models.Transaction) util.Response {
	v := util.Response{
		"id":          t.ID,
		"kind":        t.Kind,
		"amount":      util.FormatSatangToBaht(t.Amount),
		"date":        t.Date.Format("2006-01-02"),
		"description": t.Description,
	}
	if t.MemberCode != "" {
		v["member_code"] = t.MemberCode
		v["member_name"] = t.MemberName
	}
	if t.WelfareType != "" {
		v["welfare_type"] = t.WelfareType
	}
	if t.IncomeType != "" {
		v["income_type"] = t.IncomeType
	}
	if t.TermMonths > 0 {
		v["term_months"] = t.TermMonths
	}
	return v
}

func transactionViews(txs []models.Transaction) []util.Response {
	views := make([]util.Response, 0, len(txs))
	for _, t := range txs {
		views = append(views, transactionView(t))
	}
	return views
}
