package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/mrMeowMurk/ToDoBot/internal/model"
)

// TaskFilter narrows ListByUser results. Nil fields are not applied.
type TaskFilter struct {
	Completed  *bool
	HasDueDate *bool
	Notified   *bool
}

// TaskRepository handles CRUD for tasks.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// CreateAll inserts all tasks in a single transaction. Used by import so a
// mid-batch failure leaves no partial rows behind.
func (r *TaskRepository) CreateAll(ctx context.Context, tasks []model.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range tasks {
			if err := tx.Create(&tasks[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("import tasks: %w", err)
	}
	return nil
}

func (r *TaskRepository) ListByUser(ctx context.Context, userID uint, filter TaskFilter) ([]model.Task, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if filter.Completed != nil {
		q = q.Where("is_completed = ?", *filter.Completed)
	}
	if filter.HasDueDate != nil {
		if *filter.HasDueDate {
			q = q.Where("due_date IS NOT NULL")
		} else {
			q = q.Where("due_date IS NULL")
		}
	}
	if filter.Notified != nil {
		if *filter.Notified {
			q = q.Where("last_notified IS NOT NULL")
		} else {
			q = q.Where("last_notified IS NULL")
		}
	}

	var tasks []model.Task
	if err := q.Order("due_date NULLS LAST, created_at DESC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *TaskRepository) FindByID(ctx context.Context, userID, taskID uint) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, taskID).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *TaskRepository) Update(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Save(task).Error; err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, userID, taskID uint) error {
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, taskID).
		Delete(&model.Task{}).Error; err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

// Counts returns the total and completed task counts for a user.
func (r *TaskRepository) Counts(ctx context.Context, userID uint) (total, completed int64, err error) {
	db := r.db.WithContext(ctx).Model(&model.Task{})
	if err = db.Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return 0, 0, fmt.Errorf("count tasks: %w", err)
	}
	if err = r.db.WithContext(ctx).Model(&model.Task{}).
		Where("user_id = ? AND is_completed = ?", userID, true).Count(&completed).Error; err != nil {
		return 0, 0, fmt.Errorf("count completed tasks: %w", err)
	}
	return total, completed, nil
}
