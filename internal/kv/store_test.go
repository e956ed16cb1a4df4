package kv

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/ayurveda-storefront/internal/model"
	"github.com/dtroode/ayurveda-storefront/internal/storage/memory"
	"github.com/dtroode/ayurveda-storefront/internal/testutil"
)

func newStore(t *testing.T, b model.Backend) *Store {
	t.Helper()
	s := New(b, testutil.MakeNoopLogger())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_GetSetRemove(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, memory.New())

	_, err := s.Get(ctx, model.KeyToken)
	assert.ErrorIs(t, err, model.ErrNotFound)

	require.NoError(t, s.Set(ctx, model.KeyToken, "tok"))
	got, err := s.Get(ctx, model.KeyToken)
	require.NoError(t, err)
	assert.Equal(t, "tok", got)

	require.NoError(t, s.Remove(ctx, model.KeyToken, "never-written"))
	_, err = s.Get(ctx, model.KeyToken)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestGetJSON(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, memory.New())

	t.Run("valid", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, model.KeyCartItems, `[{"_id":"p1","name":"Tulsi","price":100,"quantity":2}]`))
		items, err := GetJSON[model.CartItems](ctx, s, model.KeyCartItems)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, 2, items[0].Quantity)
	})

	t.Run("unparsable", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, model.KeyCartItems, `{not json`))
		_, err := GetJSON[model.CartItems](ctx, s, model.KeyCartItems)
		assert.ErrorIs(t, err, model.ErrMalformedRecord)
	})

	t.Run("fails validation", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, model.KeyCartItems, `[{"_id":"p1","price":10,"quantity":0}]`))
		_, err := GetJSON[model.CartItems](ctx, s, model.KeyCartItems)
		assert.ErrorIs(t, err, model.ErrMalformedRecord)
	})

	t.Run("absent", func(t *testing.T) {
		_, err := GetJSON[model.Profile](ctx, s, model.KeyUserProfile)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}

func TestUpdateJSON_MalformedStartsFromZero(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, memory.New())
	require.NoError(t, s.Set(ctx, model.KeyCartItems, `garbage`))

	items, err := UpdateJSON(ctx, s, model.KeyCartItems, func(cur model.CartItems) (model.CartItems, error) {
		assert.Empty(t, cur)
		return append(cur, model.CartItem{ID: "p1", Price: 5, Quantity: 1}), nil
	})
	require.NoError(t, err)
	assert.Len(t, items, 1)

	stored, err := GetJSON[model.CartItems](ctx, s, model.KeyCartItems)
	require.NoError(t, err)
	assert.Equal(t, items, stored)
}

func TestUpdateJSON_RejectsInvalidResult(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, memory.New())

	_, err := UpdateJSON(ctx, s, model.KeyCartItems, func(cur model.CartItems) (model.CartItems, error) {
		return model.CartItems{{ID: "p1", Quantity: 0}}, nil
	})
	require.Error(t, err)

	_, err = s.Get(ctx, model.KeyCartItems)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

// racingBackend lets another origin write between a Load and the following Save.
type racingBackend struct {
	*memory.Backend
	races int
}

func (r *racingBackend) Load(ctx context.Context, key string) (model.Record, error) {
	rec, err := r.Backend.Load(ctx, key)
	if r.races > 0 {
		r.races--
		_, _ = r.Backend.Save(ctx, key, "theirs", "other-tab", model.AnyVersion)
	}
	return rec, err
}

func TestUpdate_RetriesOnConflict(t *testing.T) {
	ctx := context.Background()
	rb := &racingBackend{Backend: memory.New(), races: 2}
	s := newStore(t, rb)

	calls := 0
	err := s.Update(ctx, "counter", func(cur string, exists bool) (string, error) {
		calls++
		return "mine", nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	got, err := s.Get(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, "mine", got)
}

func TestUpdate_GivesUpAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	rb := &racingBackend{Backend: memory.New(), races: maxUpdateAttempts}
	s := newStore(t, rb)

	err := s.Update(ctx, "counter", func(string, bool) (string, error) { return "mine", nil })
	assert.ErrorIs(t, err, model.ErrVersionConflict)
}

func TestUpdate_NoLostUpdatesAcrossStores(t *testing.T) {
	ctx := context.Background()
	shared := memory.New()
	tabs := []*Store{newStore(t, shared), newStore(t, shared), newStore(t, shared)}

	var wg sync.WaitGroup
	for _, tab := range tabs {
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(s *Store) {
				defer wg.Done()
				for {
					_, err := UpdateJSON(ctx, s, "n", func(cur int) (int, error) { return cur + 1, nil })
					if err == nil {
						return
					}
				}
			}(tab)
		}
	}
	wg.Wait()

	n, err := GetJSON[int](ctx, tabs[0], "n")
	require.NoError(t, err)
	assert.Equal(t, 60, n)
}

func TestWatch_SkipsOwnWrites(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shared := memory.New()
	tabA := newStore(t, shared)
	tabB := newStore(t, shared)

	changes, err := tabA.Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, tabA.Set(ctx, model.KeyCartItems, "[]"))
	require.NoError(t, tabB.Set(ctx, model.KeyToken, "tok"))

	select {
	case c := <-changes:
		assert.Equal(t, model.KeyToken, c.Key)
		assert.Equal(t, tabB.Origin(), c.Origin)
	case <-time.After(time.Second):
		t.Fatal("no change received")
	}
}

type plainBackend struct{ model.Backend }

func TestWatch_Unsupported(t *testing.T) {
	s := newStore(t, plainBackend{memory.New()})
	_, err := s.Watch(context.Background())
	assert.ErrorIs(t, err, ErrWatchUnsupported)
}
