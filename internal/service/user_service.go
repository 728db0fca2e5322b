package service

import (
	"context"
	"fmt"

	"github.com/mrMeowMurk/ToDoBot/internal/model"
	"github.com/mrMeowMurk/ToDoBot/internal/repository"
)

// UserService covers user preference mutations.
type UserService struct {
	repo *repository.UserRepository
}

func NewUserService(repo *repository.UserRepository) *UserService {
	return &UserService{repo: repo}
}

// SetNotificationLeadHours updates how far ahead of a deadline the user is
// reminded. Range checking happens in the dialog; this guards the invariant.
func (s *UserService) SetNotificationLeadHours(ctx context.Context, user *model.User, hours int) error {
	if hours < 1 || hours > 24 {
		return fmt.Errorf("lead hours out of range: %d", hours)
	}
	user.NotificationLeadHours = hours
	return s.repo.Update(ctx, user)
}
