package ledger

import "time"

// Kind identifies a transaction type in the fund ledger.
type Kind string

const (
	KindDeposit          Kind = "DEPOSIT"
	KindWithdraw         Kind = "WITHDRAW"
	KindWelfarePayout    Kind = "WELFARE_PAYOUT"
	KindLoanDisbursement Kind = "LOAN_DISBURSEMENT"
	KindLoanRepayment    Kind = "LOAN_REPAYMENT"
	KindFundIncome       Kind = "FUND_INCOME"
)

// WelfareType names the benefit category of a welfare payout.
type WelfareType string

const (
	WelfareBirth     WelfareType = "BIRTH"
	WelfareDeath     WelfareType = "DEATH"
	WelfareHospital  WelfareType = "HOSPITAL"
	WelfareEducation WelfareType = "EDUCATION"
	WelfareElderly   WelfareType = "ELDERLY"
	WelfareFuneral   WelfareType = "FUNERAL"
)

// IncomeType names the source category of fund-level income.
type IncomeType string

const (
	IncomeInterest     IncomeType = "INTEREST"
	IncomeFee          IncomeType = "FEE"
	IncomeFine         IncomeType = "FINE"
	IncomeDonation     IncomeType = "DONATION"
	IncomeSubsidy      IncomeType = "SUBSIDY"
	IncomeUtilityFee   IncomeType = "UTILITY_FEE"
	IncomeActivityFund IncomeType = "ACTIVITY_FUND"
	IncomeOther        IncomeType = "OTHER"
)

// MemberStatus is the lifecycle state of a member.
type MemberStatus string

const (
	StatusActive   MemberStatus = "ACTIVE"
	StatusInactive MemberStatus = "INACTIVE"
)

// Member is the ledger's view of one fund member.
// Amounts are in satang to avoid float error.
type Member struct {
	Code            string
	Name            string
	JoinDate        time.Time
	Status          MemberStatus
	Balance         int64 // savings, satang
	LoanBalance     int64 // outstanding loan principal, satang
	LastPaymentDate *time.Time
}

// Totals is the materialized fund aggregate. It is derived from the
// transaction log; on any discrepancy the log wins.
type Totals struct {
	TotalBalance int64 // fund cash on hand, satang
	TotalMembers int
	ActiveLoans  int64 // sum of member loan balances, satang
}

// State is the full snapshot the engine operates on. Apply never mutates
// its input; callers get a fresh copy back.
type State struct {
	Fund    Totals
	Members []Member
}

// Transaction is one immutable ledger entry. Once appended it is never
// changed or removed; corrections are new offsetting transactions.
type Transaction struct {
	ID          string
	MemberCode  string // empty for fund-level income not tied to a member
	MemberName  string
	Amount      int64 // satang, always positive; sign comes from Kind
	Kind        Kind
	Date        time.Time
	Description string

	// Set only for the kinds they belong to.
	Welfare    WelfareType
	Income     IncomeType
	TermMonths int
}

// clone deep-copies the state so Apply can reject without side effects.
func (s State) clone() State {
	out := State{Fund: s.Fund, Members: make([]Member, len(s.Members))}
	copy(out.Members, s.Members)
	for i := range out.Members {
		if lp := out.Members[i].LastPaymentDate; lp != nil {
			d := *lp
			out.Members[i].LastPaymentDate = &d
		}
	}
	return out
}

// MemberByCode returns a pointer into s.Members, or nil.
func (s *State) MemberByCode(code string) *Member {
	for i := range s.Members {
		if s.Members[i].Code == code {
			return &s.Members[i]
		}
	}
	return nil
}

// SignedAmount returns the cash effect of a transaction on the fund:
// positive for money flowing in, negative for money flowing out.
func (t Transaction) SignedAmount() int64 {
	switch t.Kind {
	case KindDeposit, KindLoanRepayment, KindFundIncome:
		return t.Amount
	case KindWithdraw, KindWelfarePayout, KindLoanDisbursement:
		return -t.Amount
	}
	return 0
}
