package service

import (
	"context"
	"fmt"
	"time"

	"github.com/mrMeowMurk/ToDoBot/internal/metrics"
	"github.com/mrMeowMurk/ToDoBot/internal/model"
	"github.com/mrMeowMurk/ToDoBot/internal/repository"
)

// TaskService wraps task-related business logic.
type TaskService struct {
	taskRepo *repository.TaskRepository
}

func NewTaskService(taskRepo *repository.TaskRepository) *TaskService {
	return &TaskService{taskRepo: taskRepo}
}

// CreateTask stores a new task collected by the add-task dialog.
// Priority defaults to medium; category is assigned later via editing.
func (s *TaskService) CreateTask(ctx context.Context, user *model.User, title, description string, due *time.Time) (*model.Task, error) {
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}

	task := model.Task{
		UserID:      user.ID,
		Title:       title,
		Description: description,
		DueDate:     due,
		Priority:    model.PriorityMedium,
	}

	if err := s.taskRepo.Create(ctx, &task); err != nil {
		return nil, err
	}

	metrics.IncTaskCreated("dialog")
	return &task, nil
}

// ListTasks returns the user's tasks; with onlyPending set, completed ones
// are filtered out (the complete-task dialog offers only those).
func (s *TaskService) ListTasks(ctx context.Context, user *model.User, onlyPending bool) ([]model.Task, error) {
	var filter repository.TaskFilter
	if onlyPending {
		pending := false
		filter.Completed = &pending
	}
	return s.taskRepo.ListByUser(ctx, user.ID, filter)
}

// ListCompleted returns only the user's finished tasks.
func (s *TaskService) ListCompleted(ctx context.Context, user *model.User) ([]model.Task, error) {
	done := true
	return s.taskRepo.ListByUser(ctx, user.ID, repository.TaskFilter{Completed: &done})
}

func (s *TaskService) GetTask(ctx context.Context, user *model.User, taskID uint) (*model.Task, error) {
	return s.taskRepo.FindByID(ctx, user.ID, taskID)
}

// CompleteTask marks a task as done. Completing an already-completed task is
// a no-op, not an error.
func (s *TaskService) CompleteTask(ctx context.Context, user *model.User, taskID uint) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, user.ID, taskID)
	if err != nil {
		return nil, err
	}
	if task.IsCompleted {
		return task, nil
	}

	task.IsCompleted = true
	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, err
	}
	metrics.IncTaskCompleted()
	return task, nil
}

// DeleteTask removes a task and returns the deleted row for confirmation text.
func (s *TaskService) DeleteTask(ctx context.Context, user *model.User, taskID uint) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, user.ID, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.taskRepo.Delete(ctx, user.ID, taskID); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskService) SetTitle(ctx context.Context, user *model.User, taskID uint, title string) error {
	if title == "" {
		return fmt.Errorf("title is required")
	}
	return s.mutate(ctx, user, taskID, func(task *model.Task) {
		task.Title = title
	})
}

func (s *TaskService) SetDescription(ctx context.Context, user *model.User, taskID uint, description string) error {
	return s.mutate(ctx, user, taskID, func(task *model.Task) {
		task.Description = description
	})
}

// SetDueDate changes the deadline and clears LastNotified so the reminder
// fires again for the new date.
func (s *TaskService) SetDueDate(ctx context.Context, user *model.User, taskID uint, due *time.Time) error {
	return s.mutate(ctx, user, taskID, func(task *model.Task) {
		task.DueDate = due
		task.LastNotified = nil
	})
}

func (s *TaskService) SetPriority(ctx context.Context, user *model.User, taskID uint, priority model.Priority) error {
	if !priority.Valid() {
		return fmt.Errorf("unknown priority %q", priority)
	}
	return s.mutate(ctx, user, taskID, func(task *model.Task) {
		task.Priority = priority
	})
}

func (s *TaskService) SetCategory(ctx context.Context, user *model.User, taskID, categoryID uint) error {
	return s.mutate(ctx, user, taskID, func(task *model.Task) {
		task.CategoryID = &categoryID
	})
}

func (s *TaskService) mutate(ctx context.Context, user *model.User, taskID uint, apply func(*model.Task)) error {
	task, err := s.taskRepo.FindByID(ctx, user.ID, taskID)
	if err != nil {
		return err
	}
	apply(task)
	return s.taskRepo.Update(ctx, task)
}

// Stats summarizes a user's tasks for the statistics view.
type Stats struct {
	Total     int64
	Completed int64
	Pending   int64
	Progress  int
}

func (s *TaskService) UserStats(ctx context.Context, user *model.User) (Stats, error) {
	total, completed, err := s.taskRepo.Counts(ctx, user.ID)
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{Total: total, Completed: completed, Pending: total - completed}
	if total > 0 {
		stats.Progress = int(completed * 100 / total)
	}
	return stats, nil
}
