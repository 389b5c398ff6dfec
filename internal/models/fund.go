package models

import "time"

// FundState is the materialized fund aggregate, kept as a single row.
// It is maintained in lockstep with the transaction log and can always
// be rebuilt from it (the log wins on discrepancy).
type FundState struct {
	ID           uint  `gorm:"primaryKey"`
	SeedBalance  int64 `gorm:"not null;default:0"` // opening cash before the first recorded transaction, satang
	TotalBalance int64 `gorm:"not null;default:0"` // satang
	TotalMembers int   `gorm:"not null;default:0"`
	ActiveLoans  int64 `gorm:"not null;default:0"` // satang
	UpdatedAt    time.Time
}
