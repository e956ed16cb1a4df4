package file

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/ayurveda-storefront/internal/model"
	"github.com/dtroode/ayurveda-storefront/internal/testutil"
)

func newBackend(t *testing.T, dir string) *Backend {
	t.Helper()
	b, err := New(dir, "default", 10*time.Millisecond, testutil.MakeNoopLogger())
	require.NoError(t, err)
	return b
}

func TestNew_Validation(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name      string
		namespace string
		poll      time.Duration
	}{
		{name: "empty namespace", namespace: "", poll: time.Second},
		{name: "path traversal", namespace: "../x", poll: time.Second},
		{name: "zero poll interval", namespace: "ok", poll: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(dir, tt.namespace, tt.poll, testutil.MakeNoopLogger())
			assert.Error(t, err)
		})
	}
}

func TestBackend_Roundtrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	b := newBackend(t, dir)

	_, err := b.Load(ctx, "token")
	assert.ErrorIs(t, err, model.ErrNotFound)

	rec, err := b.Save(ctx, "token", "tok", "tab-1", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.Version)

	reopened := newBackend(t, dir)
	got, err := reopened.Load(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, model.Record{Value: "tok", Version: 1, Origin: "tab-1"}, got)

	_, err = reopened.Save(ctx, "token", "other", "tab-2", 0)
	assert.ErrorIs(t, err, model.ErrVersionConflict)

	require.NoError(t, reopened.Delete(ctx, "token", "tab-2"))
	keys, err := b.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)

	_, err = b.Save(ctx, "token", "stale", "tab-1", 1)
	assert.ErrorIs(t, err, model.ErrVersionConflict)
}

func TestBackend_ConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	a := newBackend(t, dir)
	b := newBackend(t, dir)

	var wg sync.WaitGroup
	for i, be := range []*Backend{a, b} {
		wg.Add(1)
		go func(be *Backend, origin string) {
			defer wg.Done()
			for n := 0; n < 25; n++ {
				_, err := be.Save(ctx, "k", origin, origin, model.AnyVersion)
				assert.NoError(t, err)
			}
		}(be, []string{"a", "b"}[i])
	}
	wg.Wait()

	rec, err := a.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, int64(50), rec.Version)
}

func TestBackend_CorruptDocumentStartsEmpty(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	b := newBackend(t, dir)
	require.NoError(t, os.WriteFile(b.Path(), []byte("{broken"), 0o600))

	_, err := b.Load(ctx, "token")
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = os.Stat(filepath.Join(dir, "default.json.corrupt"))
	assert.NoError(t, err)
}

func TestBackend_Watch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	dir := t.TempDir()
	watcher := newBackend(t, dir)
	writer := newBackend(t, dir)

	ch, err := watcher.Watch(ctx)
	require.NoError(t, err)

	_, err = writer.Save(context.Background(), "cartItems", "[]", "tab-2", model.AnyVersion)
	require.NoError(t, err)

	select {
	case c := <-ch:
		assert.Equal(t, model.Change{Key: "cartItems", Origin: "tab-2"}, c)
	case <-time.After(2 * time.Second):
		t.Fatal("no change observed")
	}
}
