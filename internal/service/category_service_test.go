package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrMeowMurk/ToDoBot/internal/model"
	"github.com/mrMeowMurk/ToDoBot/internal/repository"
)

func TestCreateCategoryAttachesToCreator(t *testing.T) {
	db := newTestDB(t)
	svc := NewCategoryService(repository.NewCategoryRepository(db))
	user := newTestUser(t, db, 100)
	ctx := context.Background()

	created, err := svc.CreateCategory(ctx, user, "Работа", "#FF0000")
	require.NoError(t, err)
	assert.Equal(t, "#FF0000", created.Color)

	var reloaded model.User
	require.NoError(t, db.Preload("Categories").First(&reloaded, user.ID).Error)
	require.Len(t, reloaded.Categories, 1)
	assert.Equal(t, "Работа", reloaded.Categories[0].Name)
}

func TestResolveByName(t *testing.T) {
	db := newTestDB(t)
	svc := NewCategoryService(repository.NewCategoryRepository(db))
	owner := newTestUser(t, db, 100)
	importer := newTestUser(t, db, 200)
	ctx := context.Background()

	existing, err := svc.CreateCategory(ctx, owner, "Дом", "#00FF00")
	require.NoError(t, err)

	// An existing name resolves to the same row and attaches the new user.
	resolved, err := svc.ResolveByName(ctx, importer, "Дом")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, resolved.ID)

	var reloaded model.User
	require.NoError(t, db.Preload("Categories").First(&reloaded, importer.ID).Error)
	require.Len(t, reloaded.Categories, 1)
	assert.Equal(t, "Дом", reloaded.Categories[0].Name)

	// An unknown name is created on the fly.
	fresh, err := svc.ResolveByName(ctx, importer, "Хобби")
	require.NoError(t, err)
	assert.NotEqual(t, existing.ID, fresh.ID)

	// An empty name resolves to nothing.
	none, err := svc.ResolveByName(ctx, importer, "")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestGetCategory(t *testing.T) {
	db := newTestDB(t)
	svc := NewCategoryService(repository.NewCategoryRepository(db))
	user := newTestUser(t, db, 100)
	ctx := context.Background()

	created, err := svc.CreateCategory(ctx, user, "Спорт", "#0000FF")
	require.NoError(t, err)

	got, err := svc.GetCategory(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Спорт", got.Name)

	_, err = svc.GetCategory(ctx, 999)
	assert.Error(t, err)
}
