package models

import "time"

// Member is a fund member. Money columns are satang (int64) to avoid
// float error. Members are never hard-deleted; leaving the fund flips
// Status to INACTIVE so their transaction history stays attributable.
//
// PII columns (IDNumberEnc, PhoneEnc, AddressEnc, BeneficiaryEnc) hold
// AES-encrypted base64 strings, handled by the member handler.
type Member struct {
	ID              uint       `gorm:"primaryKey"`
	Code            string     `gorm:"size:16;uniqueIndex;not null"` // M001, M002, ...
	Name            string     `gorm:"size:128;not null"`
	JoinDate        time.Time  `gorm:"index;not null"`
	Status          string     `gorm:"size:16;index;not null;default:ACTIVE"`
	Balance         int64      `gorm:"not null;default:0"` // savings, satang
	LoanBalance     int64      `gorm:"not null;default:0"` // outstanding principal, satang
	LastPaymentDate *time.Time `gorm:"index"`

	BirthDate      *time.Time
	IDNumberEnc    string `gorm:"size:512"`
	PhoneEnc       string `gorm:"size:512"`
	AddressEnc     string `gorm:"size:1024"`
	BeneficiaryEnc string `gorm:"size:512"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
