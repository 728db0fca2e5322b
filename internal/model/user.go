package model

import "time"

// User stores Telegram user metadata and notification preferences.
type User struct {
	ID         uint  `gorm:"primaryKey"`
	TelegramID int64 `gorm:"uniqueIndex"`
	Username   string
	FirstName  string
	LastName   string
	// NotificationLeadHours is how many hours before a due date a reminder
	// fires. Valid range is 1..24, enforced at the dialog layer.
	NotificationLeadHours int `gorm:"default:24"`
	CreatedAt             time.Time
	UpdatedAt             time.Time
	Categories            []Category `gorm:"many2many:user_categories"`
}
