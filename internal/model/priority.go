package model

// Priority is the importance level of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Icon returns the emoji shown next to the priority in lists.
func (p Priority) Icon() string {
	switch p {
	case PriorityHigh:
		return "⬆️"
	case PriorityLow:
		return "⬇️"
	default:
		return "➡️"
	}
}
