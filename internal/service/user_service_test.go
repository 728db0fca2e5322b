package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrMeowMurk/ToDoBot/internal/repository"
)

func TestSetNotificationLeadHours(t *testing.T) {
	db := newTestDB(t)
	userRepo := repository.NewUserRepository(db)
	svc := NewUserService(userRepo)
	ctx := context.Background()

	user := newTestUser(t, db, 100)
	assert.Equal(t, 24, user.NotificationLeadHours, "new users default to a full day")

	require.NoError(t, svc.SetNotificationLeadHours(ctx, user, 6))

	reloaded, err := userRepo.FindByTelegramID(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 6, reloaded.NotificationLeadHours)

	assert.Error(t, svc.SetNotificationLeadHours(ctx, user, 0))
	assert.Error(t, svc.SetNotificationLeadHours(ctx, user, 25))

	reloaded, err = userRepo.FindByTelegramID(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 6, reloaded.NotificationLeadHours, "rejected values must not persist")
}
