package models

import "time"

// WelfareRecord is the audit record of a paid welfare claim, written
// alongside the WELFARE_PAYOUT transaction.
type WelfareRecord struct {
	ID            uint      `gorm:"primaryKey"`
	TransactionID string    `gorm:"size:64;index"`
	MemberCode    string    `gorm:"size:16;index;not null"`
	MemberName    string    `gorm:"size:128"`
	Type          string    `gorm:"size:32;not null"`
	Amount        int64     `gorm:"not null"` // satang
	Date          time.Time `gorm:"index;not null"`
	Note          string    `gorm:"size:255"`
	CreatedAt     time.Time
}
