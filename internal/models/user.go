package models

import "time"

// User roles.
const (
	RoleAdmin  = "ADMIN"
	RoleMember = "MEMBER"
)

// User is an application login. Member logins carry the member code they
// belong to; admin logins have none.
type User struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"size:64;uniqueIndex;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	DisplayName  string `gorm:"size:128"`
	Role         string `gorm:"size:16;index;not null;default:MEMBER"`
	MemberCode   string `gorm:"size:16;index"` // empty for admins

	FailedLoginAttempts int        `gorm:"default:0"`
	LockedUntil         *time.Time `gorm:"index"`
	LastLoginAt         *time.Time
	LastLoginIP         string `gorm:"size:64"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
