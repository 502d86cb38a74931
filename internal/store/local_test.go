package store

import (
	"context"
	"errors"
	"testing"

	"github.com/laflotawines-debug/presupuestadorpro/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	assert.NoError(t, err)

	ctx := context.Background()
	err = s.UpsertBatch(ctx, []models.Product{
		{ID: "B2", Name: "zinfandel", Stock: 1},
		{ID: "A1", Name: "Malbec", Stock: 3},
		{ID: "C3", Name: "gin", Stock: 2},
	})
	assert.NoError(t, err)

	// Listing orders by name case-insensitively.
	products, err := s.List(ctx, 0, 10)
	assert.NoError(t, err)
	assert.Len(t, products, 3)
	assert.Equal(t, "C3", products[0].ID)
	assert.Equal(t, "A1", products[1].ID)
	assert.Equal(t, "B2", products[2].ID)
}

func TestLocalStorePaging(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	assert.NoError(t, err)

	ctx := context.Background()
	assert.NoError(t, s.UpsertBatch(ctx, []models.Product{
		{ID: "A1", Name: "a"},
		{ID: "B2", Name: "b"},
		{ID: "C3", Name: "c"},
	}))

	page, err := s.List(ctx, 1, 1)
	assert.NoError(t, err)
	assert.Len(t, page, 1)
	assert.Equal(t, "B2", page[0].ID)

	beyond, err := s.List(ctx, 10, 5)
	assert.NoError(t, err)
	assert.Empty(t, beyond)
}

func TestLocalStoreUpsertOverwritesByID(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	assert.NoError(t, err)

	ctx := context.Background()
	assert.NoError(t, s.UpsertBatch(ctx, []models.Product{{ID: "A1", Name: "old", Stock: 1}}))
	assert.NoError(t, s.UpsertBatch(ctx, []models.Product{{ID: "A1", Name: "new", Stock: 9}}))

	products, err := s.List(ctx, 0, 10)
	assert.NoError(t, err)
	assert.Len(t, products, 1)
	assert.Equal(t, "new", products[0].Name)
	assert.Equal(t, 9, products[0].Stock)
}

func TestLocalStoreUpdate(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	assert.NoError(t, err)

	ctx := context.Background()
	assert.NoError(t, s.UpsertBatch(ctx, []models.Product{{ID: "A1", Name: "Malbec"}}))

	assert.NoError(t, s.Update(ctx, models.Product{ID: "A1", Name: "Malbec Reserva"}))

	err = s.Update(ctx, models.Product{ID: "missing"})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestLocalStoreDeleteAll(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	assert.NoError(t, err)

	ctx := context.Background()
	assert.NoError(t, s.UpsertBatch(ctx, []models.Product{{ID: "A1"}, {ID: "B2"}}))
	assert.NoError(t, s.DeleteAll(ctx))

	products, err := s.List(ctx, 0, 10)
	assert.NoError(t, err)
	assert.Empty(t, products)
}
