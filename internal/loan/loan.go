// Package loan computes flat-rate repayment schedules for proposed loans.
// It is advisory only: nothing here mutates ledger state. The summary feeds
// the parameters of a LOAN_DISBURSEMENT intent.
package loan

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// RiskLevel is a leverage-ratio classification of a proposed loan.
type RiskLevel string

const (
	RiskLow  RiskLevel = "LOW"
	RiskHigh RiskLevel = "HIGH"
)

var ErrInvalidPrincipal = errors.New("loan: principal must be positive")

// Policy holds the configurable lending rules. The defaults follow the
// model village-fund regulations: 6% flat per year, and a loan is HIGH
// risk when it exceeds five times the borrower's savings.
type Policy struct {
	YearlyRate   decimal.Decimal
	RiskMultiple int64
}

// DefaultPolicy returns the reference policy.
func DefaultPolicy() Policy {
	return Policy{
		YearlyRate:   decimal.NewFromFloat(0.06),
		RiskMultiple: 5,
	}
}

// NewPolicy builds a policy from configured values, falling back to the
// defaults for zero values.
func NewPolicy(yearlyRate float64, riskMultiple int64) Policy {
	p := DefaultPolicy()
	if yearlyRate > 0 {
		p.YearlyRate = decimal.NewFromFloat(yearlyRate)
	}
	if riskMultiple > 0 {
		p.RiskMultiple = riskMultiple
	}
	return p
}

// Summary is the computed cost of a proposed loan. Amounts in satang.
type Summary struct {
	Principal          int64     `json:"principal"`
	TermMonths         int       `json:"term_months"`
	MonthlyInstallment int64     `json:"monthly_installment"`
	TotalInterest      int64     `json:"total_interest"`
	TotalRepayment     int64     `json:"total_repayment"`
	Risk               RiskLevel `json:"risk_level"`
}

// Summarize computes the flat-rate cost of a loan. Interest is charged once
// on the original principal for the whole term, not on a declining balance:
//
//	totalInterest = principal * yearlyRate * termMonths/12
//
// Non-positive terms clamp to 1. Rounding is to whole satang.
func (p Policy) Summarize(principal int64, termMonths int, borrowerSavings int64) (Summary, error) {
	if principal <= 0 {
		return Summary{}, ErrInvalidPrincipal
	}
	if termMonths < 1 {
		termMonths = 1
	}

	prin := decimal.NewFromInt(principal)
	months := decimal.NewFromInt(int64(termMonths))
	interest := prin.Mul(p.YearlyRate).Mul(months).Div(decimal.NewFromInt(12)).Round(0)
	total := prin.Add(interest)
	monthly := total.Div(months).Round(0)

	risk := RiskLow
	if principal > borrowerSavings*p.RiskMultiple {
		risk = RiskHigh
	}

	return Summary{
		Principal:          principal,
		TermMonths:         termMonths,
		MonthlyInstallment: monthly.IntPart(),
		TotalInterest:      interest.IntPart(),
		TotalRepayment:     total.IntPart(),
		Risk:               risk,
	}, nil
}

// Installment is one planned repayment row.
type Installment struct {
	No      int       `json:"no"`
	DueDate time.Time `json:"due_date"`
	Amount  int64     `json:"amount"`
}

// Schedule expands a summary into per-month installments starting one month
// after the disbursement date. The final installment absorbs the rounding
// remainder so the rows always sum to the total repayment.
func (p Policy) Schedule(principal int64, termMonths int, start time.Time) ([]Installment, error) {
	sum, err := p.Summarize(principal, termMonths, 0)
	if err != nil {
		return nil, err
	}

	rows := make([]Installment, 0, sum.TermMonths)
	paid := int64(0)
	for i := 1; i <= sum.TermMonths; i++ {
		amt := sum.MonthlyInstallment
		if i == sum.TermMonths {
			amt = sum.TotalRepayment - paid
		}
		rows = append(rows, Installment{
			No:      i,
			DueDate: start.AddDate(0, i, 0),
			Amount:  amt,
		})
		paid += amt
	}
	return rows, nil
}
