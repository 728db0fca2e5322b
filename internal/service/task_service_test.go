package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mrMeowMurk/ToDoBot/internal/model"
	"github.com/mrMeowMurk/ToDoBot/internal/repository"
)

// newTestDB opens a fresh in-memory database named after the test so parallel
// tests never share state.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := repository.NewDB(dsn)
	require.NoError(t, err)
	return db
}

func newTestUser(t *testing.T, db *gorm.DB, telegramID int64) *model.User {
	t.Helper()
	user, err := repository.NewUserRepository(db).UpsertFromTelegram(context.Background(), telegramID, "Тест", "Тестов", "tester")
	require.NoError(t, err)
	return user
}

func TestCreateTaskDefaults(t *testing.T) {
	db := newTestDB(t)
	svc := NewTaskService(repository.NewTaskRepository(db))
	user := newTestUser(t, db, 100)

	task, err := svc.CreateTask(context.Background(), user, "Купить хлеб", "", nil)
	require.NoError(t, err)

	assert.Equal(t, model.PriorityMedium, task.Priority)
	assert.False(t, task.IsCompleted)
	assert.Nil(t, task.LastNotified)

	_, err = svc.CreateTask(context.Background(), user, "", "", nil)
	assert.Error(t, err, "empty title must be rejected")
}

func TestCompleteTaskIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	svc := NewTaskService(repository.NewTaskRepository(db))
	user := newTestUser(t, db, 100)
	ctx := context.Background()

	task, err := svc.CreateTask(ctx, user, "Разобрать почту", "", nil)
	require.NoError(t, err)

	first, err := svc.CompleteTask(ctx, user, task.ID)
	require.NoError(t, err)
	assert.True(t, first.IsCompleted)

	again, err := svc.CompleteTask(ctx, user, task.ID)
	require.NoError(t, err)
	assert.True(t, again.IsCompleted)
}

func TestTasksAreScopedToOwner(t *testing.T) {
	db := newTestDB(t)
	svc := NewTaskService(repository.NewTaskRepository(db))
	owner := newTestUser(t, db, 100)
	stranger := newTestUser(t, db, 200)
	ctx := context.Background()

	task, err := svc.CreateTask(ctx, owner, "Личная задача", "", nil)
	require.NoError(t, err)

	_, err = svc.GetTask(ctx, stranger, task.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = svc.DeleteTask(ctx, stranger, task.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// The owner still sees it.
	_, err = svc.GetTask(ctx, owner, task.ID)
	assert.NoError(t, err)
}

func TestSetDueDateResetsNotification(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewTaskRepository(db)
	svc := NewTaskService(repo)
	user := newTestUser(t, db, 100)
	ctx := context.Background()

	due := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	task, err := svc.CreateTask(ctx, user, "Со сроком", "", &due)
	require.NoError(t, err)

	// Simulate a delivered reminder.
	notified := time.Now()
	task.LastNotified = &notified
	require.NoError(t, repo.Update(ctx, task))

	newDue := due.AddDate(0, 0, 7)
	require.NoError(t, svc.SetDueDate(ctx, user, task.ID, &newDue))

	got, err := svc.GetTask(ctx, user, task.ID)
	require.NoError(t, err)
	assert.Nil(t, got.LastNotified, "moving the deadline must rearm the reminder")
	require.NotNil(t, got.DueDate)
	assert.Equal(t, newDue.Unix(), got.DueDate.Unix())
}

func TestSetPriorityRejectsUnknownValue(t *testing.T) {
	db := newTestDB(t)
	svc := NewTaskService(repository.NewTaskRepository(db))
	user := newTestUser(t, db, 100)
	ctx := context.Background()

	task, err := svc.CreateTask(ctx, user, "Задача", "", nil)
	require.NoError(t, err)

	assert.Error(t, svc.SetPriority(ctx, user, task.ID, model.Priority("urgent")))
	require.NoError(t, svc.SetPriority(ctx, user, task.ID, model.PriorityHigh))

	got, err := svc.GetTask(ctx, user, task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PriorityHigh, got.Priority)
}

func TestListTasksOnlyPending(t *testing.T) {
	db := newTestDB(t)
	svc := NewTaskService(repository.NewTaskRepository(db))
	user := newTestUser(t, db, 100)
	ctx := context.Background()

	done, err := svc.CreateTask(ctx, user, "Сделана", "", nil)
	require.NoError(t, err)
	_, err = svc.CreateTask(ctx, user, "В работе", "", nil)
	require.NoError(t, err)
	_, err = svc.CompleteTask(ctx, user, done.ID)
	require.NoError(t, err)

	all, err := svc.ListTasks(ctx, user, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	pending, err := svc.ListTasks(ctx, user, true)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "В работе", pending[0].Title)

	completed, err := svc.ListCompleted(ctx, user)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, "Сделана", completed[0].Title)
}

func TestUserStats(t *testing.T) {
	db := newTestDB(t)
	svc := NewTaskService(repository.NewTaskRepository(db))
	user := newTestUser(t, db, 100)
	ctx := context.Background()

	stats, err := svc.UserStats(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats, "no tasks means all zeroes, not division by zero")

	var firstID uint
	for i := 0; i < 4; i++ {
		task, err := svc.CreateTask(ctx, user, fmt.Sprintf("Задача %d", i+1), "", nil)
		require.NoError(t, err)
		if i == 0 {
			firstID = task.ID
		}
	}
	_, err = svc.CompleteTask(ctx, user, firstID)
	require.NoError(t, err)

	stats, err = svc.UserStats(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, Stats{Total: 4, Completed: 1, Pending: 3, Progress: 25}, stats)
}
