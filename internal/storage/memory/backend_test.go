package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/ayurveda-storefront/internal/model"
)

func TestBackend_SaveVersions(t *testing.T) {
	ctx := context.Background()
	b := New()

	rec, err := b.Save(ctx, "k", "a", "o1", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.Version)

	_, err = b.Save(ctx, "k", "b", "o1", 0)
	assert.ErrorIs(t, err, model.ErrVersionConflict)

	rec, err = b.Save(ctx, "k", "b", "o2", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rec.Version)
	assert.Equal(t, "o2", rec.Origin)

	_, err = b.Save(ctx, "k", "c", "o1", 1)
	assert.ErrorIs(t, err, model.ErrVersionConflict)
}

func TestBackend_DeleteKeepsVersionMonotonic(t *testing.T) {
	ctx := context.Background()
	b := New()

	_, err := b.Save(ctx, "k", "a", "o1", model.AnyVersion)
	require.NoError(t, err)
	require.NoError(t, b.Delete(ctx, "k", "o1"))

	_, err = b.Load(ctx, "k")
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = b.Save(ctx, "k", "stale", "o2", 1)
	assert.ErrorIs(t, err, model.ErrVersionConflict)

	rec, err := b.Save(ctx, "k", "fresh", "o2", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), rec.Version)

	keys, err := b.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"k"}, keys)
}

func TestBackend_Watch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	b := New()

	ch, err := b.Watch(ctx)
	require.NoError(t, err)

	_, err = b.Save(context.Background(), "cartItems", "[]", "tab", model.AnyVersion)
	require.NoError(t, err)
	require.NoError(t, b.Delete(context.Background(), "cartItems", "tab"))

	assert.Equal(t, model.Change{Key: "cartItems", Origin: "tab"}, <-ch)
	assert.Equal(t, model.Change{Key: "cartItems", Origin: "tab"}, <-ch)

	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("watch channel not closed")
	}
}
