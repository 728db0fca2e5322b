package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mrMeowMurk/ToDoBot/internal/metrics"
	"github.com/mrMeowMurk/ToDoBot/internal/model"
	"github.com/mrMeowMurk/ToDoBot/internal/repository"
)

// taskRecord is the wire shape of one exported task. Timestamps are RFC 3339,
// priority is the lowercase enum, category is referenced by name.
type taskRecord struct {
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	IsCompleted bool       `json:"is_completed"`
	CreatedAt   time.Time  `json:"created_at"`
	DueDate     *time.Time `json:"due_date"`
	Priority    string     `json:"priority"`
	Category    *string    `json:"category"`
}

// TransferService serializes a user's tasks to JSON and restores them.
type TransferService struct {
	taskRepo   *repository.TaskRepository
	categories *CategoryService
}

func NewTransferService(taskRepo *repository.TaskRepository, categories *CategoryService) *TransferService {
	return &TransferService{taskRepo: taskRepo, categories: categories}
}

// Export serializes all of the user's tasks. Returns nil payload when the
// user has nothing to export.
func (s *TransferService) Export(ctx context.Context, user *model.User) ([]byte, error) {
	tasks, err := s.taskRepo.ListByUser(ctx, user.ID, repository.TaskFilter{})
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, nil
	}

	categories, err := s.categories.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	catNames := make(map[uint]string, len(categories))
	for _, cat := range categories {
		catNames[cat.ID] = cat.Name
	}

	records := make([]taskRecord, 0, len(tasks))
	for _, task := range tasks {
		rec := taskRecord{
			Title:       task.Title,
			IsCompleted: task.IsCompleted,
			CreatedAt:   task.CreatedAt,
			DueDate:     task.DueDate,
			Priority:    string(task.Priority),
		}
		if task.Description != "" {
			desc := task.Description
			rec.Description = &desc
		}
		if task.CategoryID != nil {
			if name, ok := catNames[*task.CategoryID]; ok {
				rec.Category = &name
			}
		}
		records = append(records, rec)
	}

	payload, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}
	return payload, nil
}

// ExportFilename builds a unique name for the export document.
func (s *TransferService) ExportFilename(now time.Time) string {
	return fmt.Sprintf("tasks_export_%s_%s.json", now.Format("20060102_150405"), uuid.NewString())
}

// Import re-creates tasks for the user from an export payload. The whole
// import is rejected before any write if a single record is malformed, and
// task rows are inserted in one transaction.
func (s *TransferService) Import(ctx context.Context, user *model.User, payload []byte) (int, error) {
	var records []taskRecord
	if err := json.Unmarshal(payload, &records); err != nil {
		return 0, fmt.Errorf("decode import: %w", err)
	}

	for i, rec := range records {
		if rec.Title == "" {
			return 0, fmt.Errorf("record %d: title is required", i)
		}
		if !model.Priority(rec.Priority).Valid() {
			return 0, fmt.Errorf("record %d: unknown priority %q", i, rec.Priority)
		}
	}

	tasks := make([]model.Task, 0, len(records))
	for _, rec := range records {
		task := model.Task{
			UserID:      user.ID,
			Title:       rec.Title,
			IsCompleted: rec.IsCompleted,
			CreatedAt:   rec.CreatedAt,
			DueDate:     rec.DueDate,
			Priority:    model.Priority(rec.Priority),
		}
		if rec.Description != nil {
			task.Description = *rec.Description
		}
		if rec.Category != nil && *rec.Category != "" {
			// Attaches the category to the importing user, same as creating
			// one through the dialog.
			category, err := s.categories.ResolveByName(ctx, user, *rec.Category)
			if err != nil {
				return 0, err
			}
			if category != nil {
				task.CategoryID = &category.ID
			}
		}
		tasks = append(tasks, task)
	}

	if err := s.taskRepo.CreateAll(ctx, tasks); err != nil {
		return 0, err
	}

	for range tasks {
		metrics.IncTaskCreated("import")
	}
	return len(tasks), nil
}
