package service

import (
	"context"

	"github.com/mrMeowMurk/ToDoBot/internal/model"
	"github.com/mrMeowMurk/ToDoBot/internal/repository"
)

// CategoryService provides helpers around categories.
type CategoryService struct {
	repo *repository.CategoryRepository
}

func NewCategoryService(repo *repository.CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

func (s *CategoryService) ListCategories(ctx context.Context) ([]model.Category, error) {
	return s.repo.ListAll(ctx)
}

func (s *CategoryService) GetCategory(ctx context.Context, id uint) (*model.Category, error) {
	return s.repo.GetByID(ctx, id)
}

// CreateCategory stores a new category and associates it with its creator.
func (s *CategoryService) CreateCategory(ctx context.Context, user *model.User, name, color string) (*model.Category, error) {
	category := model.Category{Name: name, Color: color}
	if err := s.repo.Create(ctx, &category); err != nil {
		return nil, err
	}
	if err := s.repo.AttachToUser(ctx, user, &category); err != nil {
		return nil, err
	}
	return &category, nil
}

// ResolveByName finds or creates a category, attaching it to the user.
// Import uses it to rebuild category links from exported names.
func (s *CategoryService) ResolveByName(ctx context.Context, user *model.User, name string) (*model.Category, error) {
	category, err := s.repo.GetOrCreate(ctx, name)
	if err != nil || category == nil {
		return nil, err
	}
	if err := s.repo.AttachToUser(ctx, user, category); err != nil {
		return nil, err
	}
	return category, nil
}
