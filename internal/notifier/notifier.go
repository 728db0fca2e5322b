package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrMeowMurk/ToDoBot/internal/metrics"
	"github.com/mrMeowMurk/ToDoBot/internal/model"
	"github.com/mrMeowMurk/ToDoBot/internal/repository"
)

// Sender delivers one reminder text to a user. The Telegram adapter
// implements it.
type Sender interface {
	SendMessage(userID int64, text string) error
}

// UserSource lists every known user for a sweep.
type UserSource interface {
	ListAll(ctx context.Context) ([]model.User, error)
}

// TaskSource reads reminder candidates and stamps delivered ones.
type TaskSource interface {
	ListByUser(ctx context.Context, userID uint, filter repository.TaskFilter) ([]model.Task, error)
	Update(ctx context.Context, task *model.Task) error
}

// Notifier scans pending tasks and pushes a reminder once per task as its
// deadline comes within the owner's configured lead time.
type Notifier struct {
	users  UserSource
	tasks  TaskSource
	sender Sender
	log    zerolog.Logger
}

func New(users UserSource, tasks TaskSource, sender Sender, log zerolog.Logger) *Notifier {
	return &Notifier{
		users:  users,
		tasks:  tasks,
		sender: sender,
		log:    log.With().Str("component", "notifier").Logger(),
	}
}

// Sweep runs one scan over all users. Per-task failures are logged and
// skipped so one broken delivery never blocks the rest of the sweep; the
// task stays unstamped and is retried next time.
func (n *Notifier) Sweep(ctx context.Context, now time.Time) error {
	users, err := n.users.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	for _, user := range users {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := n.sweepUser(ctx, &user, now); err != nil {
			n.log.Error().Err(err).Int64("user", user.TelegramID).Msg("sweep user failed")
		}
	}
	return nil
}

func (n *Notifier) sweepUser(ctx context.Context, user *model.User, now time.Time) error {
	pending := false
	hasDue := true
	never := false
	tasks, err := n.tasks.ListByUser(ctx, user.ID, repository.TaskFilter{
		Completed:  &pending,
		HasDueDate: &hasDue,
		Notified:   &never,
	})
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}

	lead := time.Duration(user.NotificationLeadHours) * time.Hour
	for i := range tasks {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		task := &tasks[i]
		if !task.DueWithin(now, lead) {
			continue
		}

		text := fmt.Sprintf("🔔 Напоминание!\nЗадача «%s» должна быть выполнена до %s!",
			task.Title, task.DueDate.Format("02.01.2006 15:04"))
		if err := n.sender.SendMessage(user.TelegramID, text); err != nil {
			// Leave LastNotified unset so the next sweep retries.
			metrics.IncReminderFailed()
			n.log.Error().Err(err).Int64("user", user.TelegramID).Uint("task", task.ID).Msg("reminder delivery failed")
			continue
		}

		// Stamp and commit this task right away: a failure later in the
		// sweep must not forget reminders already delivered.
		task.LastNotified = &now
		if err := n.tasks.Update(ctx, task); err != nil {
			// Delivered but unstamped; the next sweep may send a duplicate.
			n.log.Error().Err(err).Uint("task", task.ID).Msg("stamp last_notified failed")
			continue
		}

		metrics.IncReminderSent()
		n.log.Info().Int64("user", user.TelegramID).Uint("task", task.ID).Msg("reminder sent")
	}
	return nil
}
