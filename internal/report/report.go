// Package report derives read-only dashboard projections from the
// transaction log. Everything here is recomputed on demand from the full
// list; there is no incremental state to maintain.
package report

import (
	"sort"

	"villagefund/internal/ledger"
)

// Bucket keys for income. FUND_INCOME subtypes map to their own bucket;
// anything unrecognized lands in OTHER rather than being dropped.
const (
	IncomeSavingsDeposits = "SAVINGS_DEPOSIT"
	IncomeLoanRepayments  = "LOAN_REPAYMENT"
	IncomeOtherBucket     = "OTHER"
)

// Bucket keys for expense.
const (
	ExpenseWithdrawals      = "WITHDRAWAL"
	ExpenseLoanDisbursement = "LOAN_DISBURSEMENT"
	ExpenseWelfareOther     = "WELFARE_OTHER"
)

var knownIncomeTypes = map[ledger.IncomeType]bool{
	ledger.IncomeInterest:     true,
	ledger.IncomeFee:          true,
	ledger.IncomeFine:         true,
	ledger.IncomeDonation:     true,
	ledger.IncomeSubsidy:      true,
	ledger.IncomeUtilityFee:   true,
	ledger.IncomeActivityFund: true,
	ledger.IncomeOther:        true,
}

var knownWelfareTypes = map[ledger.WelfareType]bool{
	ledger.WelfareBirth:     true,
	ledger.WelfareDeath:     true,
	ledger.WelfareHospital:  true,
	ledger.WelfareEducation: true,
	ledger.WelfareElderly:   true,
	ledger.WelfareFuneral:   true,
}

// Bucket is one category total. Amounts in satang.
type Bucket struct {
	Key    string `json:"key"`
	Amount int64  `json:"amount"`
	Count  int    `json:"count"`
}

// Summary is the dashboard category breakdown over a transaction list.
type Summary struct {
	TotalIncome  int64    `json:"total_income"`
	TotalExpense int64    `json:"total_expense"`
	Net          int64    `json:"net"`
	Income       []Bucket `json:"income"`
	Expense      []Bucket `json:"expense"`
}

// Summarize maps every transaction to exactly one display bucket and totals
// them. The mapping is deterministic: deposits and repayments have fixed
// income buckets, FUND_INCOME buckets by its income type, welfare payouts
// bucket by welfare type (prefixed WELFARE_), withdrawals and disbursements
// have fixed expense buckets.
func Summarize(txs []ledger.Transaction) Summary {
	income := map[string]*Bucket{}
	expense := map[string]*Bucket{}

	add := func(m map[string]*Bucket, key string, amount int64) {
		b, ok := m[key]
		if !ok {
			b = &Bucket{Key: key}
			m[key] = b
		}
		b.Amount += amount
		b.Count++
	}

	var s Summary
	for _, t := range txs {
		switch t.Kind {
		case ledger.KindDeposit:
			s.TotalIncome += t.Amount
			add(income, IncomeSavingsDeposits, t.Amount)
		case ledger.KindLoanRepayment:
			s.TotalIncome += t.Amount
			add(income, IncomeLoanRepayments, t.Amount)
		case ledger.KindFundIncome:
			s.TotalIncome += t.Amount
			key := IncomeOtherBucket
			if knownIncomeTypes[t.Income] {
				key = string(t.Income)
			}
			add(income, key, t.Amount)
		case ledger.KindWithdraw:
			s.TotalExpense += t.Amount
			add(expense, ExpenseWithdrawals, t.Amount)
		case ledger.KindLoanDisbursement:
			s.TotalExpense += t.Amount
			add(expense, ExpenseLoanDisbursement, t.Amount)
		case ledger.KindWelfarePayout:
			s.TotalExpense += t.Amount
			key := ExpenseWelfareOther
			if knownWelfareTypes[t.Welfare] {
				key = "WELFARE_" + string(t.Welfare)
			}
			add(expense, key, t.Amount)
		}
	}

	s.Net = s.TotalIncome - s.TotalExpense
	s.Income = sortBuckets(income)
	s.Expense = sortBuckets(expense)
	return s
}

func sortBuckets(m map[string]*Bucket) []Bucket {
	out := make([]Bucket, 0, len(m))
	for _, b := range m {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// MonthTotal is one month's income/expense rollup for charts.
type MonthTotal struct {
	Month   string `json:"month"` // YYYY-MM
	Income  int64  `json:"income"`
	Expense int64  `json:"expense"`
	Net     int64  `json:"net"`
}

// MonthlyRollup groups the log by calendar month, sorted ascending.
func MonthlyRollup(txs []ledger.Transaction) []MonthTotal {
	byMonth := map[string]*MonthTotal{}
	for _, t := range txs {
		key := t.Date.Format("2006-01")
		mt, ok := byMonth[key]
		if !ok {
			mt = &MonthTotal{Month: key}
			byMonth[key] = mt
		}
		if signed := t.SignedAmount(); signed >= 0 {
			mt.Income += signed
		} else {
			mt.Expense += -signed
		}
	}

	out := make([]MonthTotal, 0, len(byMonth))
	for _, mt := range byMonth {
		mt.Net = mt.Income - mt.Expense
		out = append(out, *mt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// Month filters the rollup to a single YYYY-MM key; a zero value is
// returned when the month has no transactions.
func Month(txs []ledger.Transaction, month string) MonthTotal {
	for _, mt := range MonthlyRollup(txs) {
		if mt.Month == month {
			return mt
		}
	}
	return MonthTotal{Month: month}
}
