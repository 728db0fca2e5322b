package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrMeowMurk/ToDoBot/internal/model"
	"github.com/mrMeowMurk/ToDoBot/internal/repository"
)

func TestExportImportRoundTrip(t *testing.T) {
	db := newTestDB(t)
	taskRepo := repository.NewTaskRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	taskSvc := NewTaskService(taskRepo)
	categorySvc := NewCategoryService(categoryRepo)
	transfer := NewTransferService(taskRepo, categorySvc)
	ctx := context.Background()

	source := newTestUser(t, db, 100)
	target := newTestUser(t, db, 200)

	category, err := categorySvc.CreateCategory(ctx, source, "Работа", "#00FF00")
	require.NoError(t, err)

	due := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	withCategory, err := taskSvc.CreateTask(ctx, source, "Сдать отчёт", "Квартальный", &due)
	require.NoError(t, err)
	require.NoError(t, taskSvc.SetCategory(ctx, source, withCategory.ID, category.ID))
	require.NoError(t, taskSvc.SetPriority(ctx, source, withCategory.ID, model.PriorityHigh))

	plain, err := taskSvc.CreateTask(ctx, source, "Без всего", "", nil)
	require.NoError(t, err)
	_, err = taskSvc.CompleteTask(ctx, source, plain.ID)
	require.NoError(t, err)

	payload, err := transfer.Export(ctx, source)
	require.NoError(t, err)
	require.NotNil(t, payload)

	count, err := transfer.Import(ctx, target, payload)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	restored, err := taskSvc.ListTasks(ctx, target, false)
	require.NoError(t, err)
	require.Len(t, restored, 2)

	byTitle := make(map[string]model.Task, len(restored))
	for _, task := range restored {
		byTitle[task.Title] = task
	}

	report := byTitle["Сдать отчёт"]
	assert.Equal(t, "Квартальный", report.Description)
	assert.Equal(t, model.PriorityHigh, report.Priority)
	require.NotNil(t, report.DueDate)
	assert.Equal(t, due.Unix(), report.DueDate.Unix())
	require.NotNil(t, report.CategoryID)
	assert.Equal(t, category.ID, *report.CategoryID, "category must resolve to the existing name")

	done := byTitle["Без всего"]
	assert.True(t, done.IsCompleted)
	assert.Nil(t, done.DueDate)

	// Importing attaches the category to the importing user, like creating
	// one through the dialog does.
	var reloaded model.User
	require.NoError(t, db.Preload("Categories").First(&reloaded, target.ID).Error)
	require.Len(t, reloaded.Categories, 1)
	assert.Equal(t, "Работа", reloaded.Categories[0].Name)

	// Source tasks are untouched.
	original, err := taskSvc.ListTasks(ctx, source, false)
	require.NoError(t, err)
	assert.Len(t, original, 2)
}

func TestImportRejectsMalformedPayloadBeforeAnyWrite(t *testing.T) {
	db := newTestDB(t)
	taskRepo := repository.NewTaskRepository(db)
	transfer := NewTransferService(taskRepo, NewCategoryService(repository.NewCategoryRepository(db)))
	taskSvc := NewTaskService(taskRepo)
	ctx := context.Background()
	user := newTestUser(t, db, 100)

	cases := map[string]string{
		"not json":         `{{{`,
		"missing title":    `[{"title":"ok","priority":"low"},{"title":"","priority":"low"}]`,
		"unknown priority": `[{"title":"ok","priority":"urgent"}]`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			count, err := transfer.Import(ctx, user, []byte(payload))
			assert.Error(t, err)
			assert.Zero(t, count)

			tasks, err := taskSvc.ListTasks(ctx, user, false)
			require.NoError(t, err)
			assert.Empty(t, tasks, "a rejected import must leave no rows behind")
		})
	}
}

func TestExportWithNoTasks(t *testing.T) {
	db := newTestDB(t)
	transfer := NewTransferService(repository.NewTaskRepository(db), NewCategoryService(repository.NewCategoryRepository(db)))
	user := newTestUser(t, db, 100)

	payload, err := transfer.Export(context.Background(), user)
	require.NoError(t, err)
	assert.Nil(t, payload)
}

func TestExportOmitsEmptyOptionalFields(t *testing.T) {
	db := newTestDB(t)
	taskRepo := repository.NewTaskRepository(db)
	transfer := NewTransferService(taskRepo, NewCategoryService(repository.NewCategoryRepository(db)))
	taskSvc := NewTaskService(taskRepo)
	ctx := context.Background()
	user := newTestUser(t, db, 100)

	_, err := taskSvc.CreateTask(ctx, user, "Минимальная", "", nil)
	require.NoError(t, err)

	payload, err := transfer.Export(ctx, user)
	require.NoError(t, err)

	var records []map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(payload, &records))
	require.Len(t, records, 1)
	assert.Equal(t, "null", string(records[0]["description"]))
	assert.Equal(t, "null", string(records[0]["due_date"]))
	assert.Equal(t, "null", string(records[0]["category"]))
	assert.Equal(t, `"medium"`, string(records[0]["priority"]))
}

func TestExportFilename(t *testing.T) {
	transfer := NewTransferService(nil, nil)
	now := time.Date(2026, 8, 28, 15, 4, 5, 0, time.UTC)

	first := transfer.ExportFilename(now)
	second := transfer.ExportFilename(now)

	assert.Contains(t, first, "tasks_export_20260828_150405_")
	assert.NotEqual(t, first, second, "two exports in the same second must not collide")
}
