// Package registry owns member identity and lifecycle: code allocation,
// registration (folded through the ledger engine so fund totals can never
// drift), status transitions and welfare eligibility checks.
package registry

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"villagefund/internal/ledger"
)

// NextMemberCode allocates the next code of the form M### by scanning the
// existing codes for the highest numeric suffix. Codes whose suffix does
// not parse are skipped rather than treated as an error, so one malformed
// row can never block registration. An empty registry yields M001.
func NextMemberCode(existing []string) string {
	max := 0
	for _, code := range existing {
		suffix := strings.TrimPrefix(code, "M")
		if suffix == code {
			continue
		}
		n, err := strconv.Atoi(suffix)
		if err != nil || n < 0 {
			continue
		}
		if n > max {
			max = n
		}
	}
	return fmt.Sprintf("M%03d", max+1)
}

// Registration is a request to join the fund.
type Registration struct {
	Name            string
	JoinDate        time.Time
	InitialDeposit  int64 // satang, 0 allowed
	RegistrationFee int64 // satang, 0 allowed
}

// Register creates the member and applies its opening money movements:
// a DEPOSIT for any initial savings and a FUND_INCOME (fee) for any
// registration fee. Both go through ledger.Apply — the same path as every
// other transaction — so the fund invariants hold by construction.
func Register(state ledger.State, reg Registration) (ledger.State, ledger.Member, []ledger.Transaction, error) {
	if reg.InitialDeposit < 0 || reg.RegistrationFee < 0 {
		return state, ledger.Member{}, nil, ledger.ErrInvalidAmount
	}

	codes := make([]string, 0, len(state.Members))
	for i := range state.Members {
		codes = append(codes, state.Members[i].Code)
	}
	code := NextMemberCode(codes)
	if state.MemberByCode(code) != nil {
		return state, ledger.Member{}, nil, ledger.ErrDuplicateMemberCode
	}

	next := state
	next.Members = append(append([]ledger.Member(nil), state.Members...), ledger.Member{
		Code:     code,
		Name:     reg.Name,
		JoinDate: reg.JoinDate,
		Status:   ledger.StatusActive,
	})
	next.Fund.TotalMembers++

	var txs []ledger.Transaction
	if reg.InitialDeposit > 0 {
		var tx ledger.Transaction
		var err error
		next, tx, err = ledger.Apply(next, ledger.Deposit{
			MemberCode:  code,
			Amount:      reg.InitialDeposit,
			Date:        reg.JoinDate,
			Description: "opening savings deposit",
		})
		if err != nil {
			return state, ledger.Member{}, nil, err
		}
		txs = append(txs, tx)
	}
	if reg.RegistrationFee > 0 {
		var tx ledger.Transaction
		var err error
		next, tx, err = ledger.Apply(next, ledger.FundIncome{
			MemberCode:  code,
			Amount:      reg.RegistrationFee,
			Date:        reg.JoinDate,
			Description: "new member registration fee",
			Income:      ledger.IncomeFee,
		})
		if err != nil {
			return state, ledger.Member{}, nil, err
		}
		txs = append(txs, tx)
	}

	return next, *next.MemberByCode(code), txs, nil
}

// SetStatus transitions a member between ACTIVE and INACTIVE. Members are
// never hard-deleted; leaving the fund means going INACTIVE. No money moves.
func SetStatus(state ledger.State, code string, status ledger.MemberStatus) (ledger.State, error) {
	next := state
	next.Members = append([]ledger.Member(nil), state.Members...)
	for i := range next.Members {
		if next.Members[i].Code == code {
			next.Members[i].Status = status
			return next, nil
		}
	}
	return state, ledger.ErrMemberNotFound
}
