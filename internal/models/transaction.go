package models

import "time"

// Transaction is one row of the append-only ledger. Rows are inserted by
// the fund service and never updated or deleted; corrections are new
// offsetting transactions. The log is the canonical store — member
// balances and the fund row are projections rebuildable from it.
type Transaction struct {
	ID          string    `gorm:"primaryKey;size:64"` // uuid
	MemberCode  string    `gorm:"size:16;index"`      // empty for fund-level income
	MemberName  string    `gorm:"size:128"`
	Amount      int64     `gorm:"not null"` // satang, positive; sign comes from Kind
	Kind        string    `gorm:"size:32;index;not null"`
	Date        time.Time `gorm:"index;not null"`
	Description string    `gorm:"size:255"`

	WelfareType string `gorm:"size:32"` // WELFARE_PAYOUT only
	IncomeType  string `gorm:"size:32"` // FUND_INCOME only
	TermMonths  int    // LOAN_DISBURSEMENT only

	CreatedAt time.Time
}
