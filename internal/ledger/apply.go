package ledger

import (
	"github.com/google/uuid"
)

// Apply validates an intent against the current state and returns the new
// state plus the transaction record it appended. It is a pure function:
// the input state is never mutated, and on error it is returned unchanged.
//
// Per-kind effect (member balance / member loan / fund balance / active loans):
//
//	DEPOSIT            +a   —    +a   —
//	WITHDRAW           -a   —    -a   —
//	WELFARE_PAYOUT     -a   —    -a   —
//	LOAN_DISBURSEMENT  —    +a   -a   +a
//	LOAN_REPAYMENT     —    -a   +a   -a
//	FUND_INCOME        —    —    +a   —
//
// LOAN_REPAYMENT additionally stamps the member's LastPaymentDate.
func Apply(state State, in Intent) (State, Transaction, error) {
	if in == nil {
		return state, Transaction{}, ErrUnknownType
	}
	b := in.base()
	if b.Amount <= 0 {
		return state, Transaction{}, ErrInvalidAmount
	}

	next := state.clone()

	var member *Member
	if memberScoped(in.Kind()) {
		member = next.MemberByCode(b.MemberCode)
		if member == nil {
			return state, Transaction{}, ErrMemberNotFound
		}
		if member.Status != StatusActive {
			return state, Transaction{}, ErrMemberInactive
		}
	} else if b.MemberCode != "" {
		// FUND_INCOME may reference a member for attribution; it still
		// must reference a real one if it does.
		member = next.MemberByCode(b.MemberCode)
		if member == nil {
			return state, Transaction{}, ErrMemberNotFound
		}
	}

	tx := Transaction{
		ID:          uuid.NewString(),
		MemberCode:  b.MemberCode,
		Amount:      b.Amount,
		Kind:        in.Kind(),
		Date:        b.Date,
		Description: b.Description,
	}
	if member != nil {
		tx.MemberName = member.Name
	}

	switch it := in.(type) {
	case Deposit:
		member.Balance += b.Amount
		next.Fund.TotalBalance += b.Amount

	case Withdraw:
		if member.Balance < b.Amount {
			return state, Transaction{}, ErrInsufficientBalance
		}
		member.Balance -= b.Amount
		next.Fund.TotalBalance -= b.Amount

	case WelfarePayout:
		if member.Balance < b.Amount {
			return state, Transaction{}, ErrInsufficientBalance
		}
		member.Balance -= b.Amount
		next.Fund.TotalBalance -= b.Amount
		tx.Welfare = it.Welfare

	case LoanDisbursement:
		member.LoanBalance += b.Amount
		next.Fund.TotalBalance -= b.Amount
		next.Fund.ActiveLoans += b.Amount
		tx.TermMonths = it.TermMonths

	case LoanRepayment:
		if b.Amount > member.LoanBalance {
			return state, Transaction{}, ErrExcessRepayment
		}
		member.LoanBalance -= b.Amount
		next.Fund.TotalBalance += b.Amount
		next.Fund.ActiveLoans -= b.Amount
		d := b.Date
		member.LastPaymentDate = &d

	case FundIncome:
		next.Fund.TotalBalance += b.Amount
		tx.Income = it.Income

	default:
		return state, Transaction{}, ErrUnknownType
	}

	return next, tx, nil
}

// memberScoped reports whether the kind requires an existing ACTIVE member.
func memberScoped(k Kind) bool {
	switch k {
	case KindDeposit, KindWithdraw, KindWelfarePayout, KindLoanDisbursement, KindLoanRepayment:
		return true
	}
	return false
}

// Replay folds a transaction log over an initial state, re-deriving member
// balances and fund totals. The log is the source of truth; Replay is how
// projections are rebuilt after a discrepancy.
func Replay(initial State, txs []Transaction) (State, error) {
	state := initial
	for _, t := range txs {
		in, err := IntentFromTransaction(t)
		if err != nil {
			return initial, err
		}
		next, _, err := Apply(state, in)
		if err != nil {
			return initial, err
		}
		state = next
	}
	return state, nil
}

// CheckInvariants verifies the two book-balancing properties:
// fund total equals seed plus the signed sum of the log, and active loans
// equal the sum of member loan balances. It returns false when the
// materialized totals have drifted from the log.
func CheckInvariants(s State, seedBalance int64, txs []Transaction) bool {
	sum := seedBalance
	for _, t := range txs {
		sum += t.SignedAmount()
	}
	if s.Fund.TotalBalance != sum {
		return false
	}
	var loans int64
	for i := range s.Members {
		loans += s.Members[i].LoanBalance
	}
	return s.Fund.ActiveLoans == loans
}
