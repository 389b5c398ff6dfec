package ledger

import "time"

// Intent is a not-yet-applied transaction. Each kind is its own type
// carrying only the fields that kind uses, so a welfare type can never
// ride along on a deposit.
type Intent interface {
	Kind() Kind
	// base returns the fields common to every intent.
	base() intentBase
}

type intentBase struct {
	MemberCode  string
	Amount      int64 // satang
	Date        time.Time
	Description string
}

// Deposit adds to a member's savings.
type Deposit struct {
	MemberCode  string
	Amount      int64
	Date        time.Time
	Description string
}

// Withdraw takes from a member's savings.
type Withdraw struct {
	MemberCode  string
	Amount      int64
	Date        time.Time
	Description string
}

// WelfarePayout pays a benefit out of the member's savings under a
// named welfare category.
type WelfarePayout struct {
	MemberCode  string
	Amount      int64
	Date        time.Time
	Description string
	Welfare     WelfareType
}

// LoanDisbursement hands loan principal to a member.
type LoanDisbursement struct {
	MemberCode  string
	Amount      int64
	Date        time.Time
	Description string
	TermMonths  int
}

// LoanRepayment returns loan principal to the fund.
type LoanRepayment struct {
	MemberCode  string
	Amount      int64
	Date        time.Time
	Description string
}

// FundIncome is fund-level income, optionally attributed to a member
// (e.g. interest or a registration fee they paid).
type FundIncome struct {
	MemberCode  string // optional
	Amount      int64
	Date        time.Time
	Description string
	Income      IncomeType
}

func (i Deposit) Kind() Kind          { return KindDeposit }
func (i Withdraw) Kind() Kind         { return KindWithdraw }
func (i WelfarePayout) Kind() Kind    { return KindWelfarePayout }
func (i LoanDisbursement) Kind() Kind { return KindLoanDisbursement }
func (i LoanRepayment) Kind() Kind    { return KindLoanRepayment }
func (i FundIncome) Kind() Kind       { return KindFundIncome }

func (i Deposit) base() intentBase {
	return intentBase{i.MemberCode, i.Amount, i.Date, i.Description}
}
func (i Withdraw) base() intentBase {
	return intentBase{i.MemberCode, i.Amount, i.Date, i.Description}
}
func (i WelfarePayout) base() intentBase {
	return intentBase{i.MemberCode, i.Amount, i.Date, i.Description}
}
func (i LoanDisbursement) base() intentBase {
	return intentBase{i.MemberCode, i.Amount, i.Date, i.Description}
}
func (i LoanRepayment) base() intentBase {
	return intentBase{i.MemberCode, i.Amount, i.Date, i.Description}
}
func (i FundIncome) base() intentBase {
	return intentBase{i.MemberCode, i.Amount, i.Date, i.Description}
}

// IntentFromTransaction rebuilds the intent a stored transaction was
// applied from. Used when replaying the log to rebuild projections.
func IntentFromTransaction(t Transaction) (Intent, error) {
	switch t.Kind {
	case KindDeposit:
		return Deposit{t.MemberCode, t.Amount, t.Date, t.Description}, nil
	case KindWithdraw:
		return Withdraw{t.MemberCode, t.Amount, t.Date, t.Description}, nil
	case KindWelfarePayout:
		return WelfarePayout{t.MemberCode, t.Amount, t.Date, t.Description, t.Welfare}, nil
	case KindLoanDisbursement:
		return LoanDisbursement{t.MemberCode, t.Amount, t.Date, t.Description, t.TermMonths}, nil
	case KindLoanRepayment:
		return LoanRepayment{t.MemberCode, t.Amount, t.Date, t.Description}, nil
	case KindFundIncome:
		return FundIncome{t.MemberCode, t.Amount, t.Date, t.Description, t.Income}, nil
	}
	return nil, ErrUnknownType
}
