package models

import "time"

// CalendarEvent is a fund calendar entry: a scheduled payout, a meeting
// or a savings deadline.
type CalendarEvent struct {
	ID              uint      `gorm:"primaryKey"`
	Title           string    `gorm:"size:128;not null"`
	Date            time.Time `gorm:"index;not null"`
	Type            string    `gorm:"size:16;not null"` // PAYOUT / MEETING / DEADLINE
	Amount          int64     // satang, optional
	Reminder        string    `gorm:"size:255"`
	RemindDaysAhead int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
