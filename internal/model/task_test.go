package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDueWithin(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	lead := 24 * time.Hour

	at := func(offset time.Duration) Task {
		due := now.Add(offset)
		return Task{DueDate: &due}
	}

	assert.True(t, at(time.Hour).DueWithin(now, lead))
	assert.True(t, at(24*time.Hour).DueWithin(now, lead), "the boundary itself is included")
	assert.True(t, at(-time.Hour).DueWithin(now, lead), "overdue still qualifies")
	assert.False(t, at(24*time.Hour+time.Second).DueWithin(now, lead))
	assert.False(t, Task{}.DueWithin(now, lead), "no deadline, no reminder")
}

func TestPriority(t *testing.T) {
	assert.True(t, PriorityLow.Valid())
	assert.True(t, PriorityMedium.Valid())
	assert.True(t, PriorityHigh.Valid())
	assert.False(t, Priority("urgent").Valid())
	assert.False(t, Priority("").Valid())

	assert.Equal(t, "⬆️", PriorityHigh.Icon())
	assert.Equal(t, "➡️", PriorityMedium.Icon())
	assert.Equal(t, "⬇️", PriorityLow.Icon())
}
