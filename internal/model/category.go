package model

import "time"

// Category groups tasks by area. Names are unique across all users; the
// user_categories join table tracks which users picked up which categories.
type Category struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"uniqueIndex"`
	Color     string
	CreatedAt time.Time
	UpdatedAt time.Time
	Tasks     []Task `gorm:"foreignKey:CategoryID"`
}
