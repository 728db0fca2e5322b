package model

import "time"

// Task represents a single to-do item.
type Task struct {
	ID          uint  `gorm:"primaryKey"`
	UserID      uint  `gorm:"index"`
	CategoryID  *uint `gorm:"index"`
	Title       string
	Description string
	IsCompleted bool `gorm:"default:false"`
	DueDate     *time.Time
	Priority    Priority `gorm:"default:medium"`
	// LastNotified is set once a deadline reminder has been delivered.
	// Nil means the task has never been notified.
	LastNotified *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DueWithin reports whether the task's deadline is at most lead away from
// now. The comparison is inclusive, so a task due in exactly lead hours is
// picked up by the next sweep. Overdue tasks are included as well.
func (t Task) DueWithin(now time.Time, lead time.Duration) bool {
	if t.DueDate == nil {
		return false
	}
	return t.DueDate.Sub(now) <= lead
}
