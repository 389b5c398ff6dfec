package ledger

import "errors"

// Validation failures returned by Apply. An intent that fails validation
// leaves the input state untouched.
var (
	ErrInvalidAmount       = errors.New("ledger: amount must be a positive number")
	ErrUnknownType         = errors.New("ledger: unknown transaction type")
	ErrMemberNotFound      = errors.New("ledger: member not found")
	ErrMemberInactive      = errors.New("ledger: member is inactive")
	ErrInsufficientBalance = errors.New("ledger: insufficient savings balance")
	ErrExcessRepayment     = errors.New("ledger: repayment exceeds outstanding loan balance")
	ErrDuplicateMemberCode = errors.New("ledger: member code already exists")
)
