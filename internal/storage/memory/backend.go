// Package memory is an in-process backend. One Backend shared by several
// kv.Store instances behaves like several tabs over the same origin.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/dtroode/ayurveda-storefront/internal/model"
)

const watchBuffer = 64

var (
	_ model.Backend       = (*Backend)(nil)
	_ model.ChangeWatcher = (*Backend)(nil)
)

type entry struct {
	rec     model.Record
	deleted bool
}

// Backend keeps records in a map. Versions survive deletes so a stale
// compare-and-swap never matches a re-created key.
type Backend struct {
	mu       sync.Mutex
	entries  map[string]entry
	watchers map[int]chan model.Change
	nextID   int
}

// New creates an empty Backend.
func New() *Backend {
	return &Backend{
		entries:  make(map[string]entry),
		watchers: make(map[int]chan model.Change),
	}
}

func (b *Backend) Load(_ context.Context, key string) (model.Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.entries[key]
	if !ok || e.deleted {
		return model.Record{}, model.ErrNotFound
	}
	return e.rec, nil
}

func (b *Backend) Save(_ context.Context, key, value, origin string, expected int64) (model.Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.entries[key]
	present := ok && !e.deleted
	if !model.VersionMatches(present, e.rec.Version, expected) {
		return model.Record{}, model.ErrVersionConflict
	}

	rec := model.Record{Value: value, Version: e.rec.Version + 1, Origin: origin}
	b.entries[key] = entry{rec: rec}
	b.notify(model.Change{Key: key, Origin: origin})
	return rec, nil
}

func (b *Backend) Delete(_ context.Context, key, origin string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.entries[key]
	if !ok || e.deleted {
		return nil
	}
	e.deleted = true
	e.rec = model.Record{Version: e.rec.Version + 1, Origin: origin}
	b.entries[key] = e
	b.notify(model.Change{Key: key, Origin: origin})
	return nil
}

func (b *Backend) Keys(_ context.Context) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	keys := make([]string, 0, len(b.entries))
	for k, e := range b.entries {
		if !e.deleted {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Watch reports every write and delete until ctx ends. Slow readers lose changes.
func (b *Backend) Watch(ctx context.Context) (<-chan model.Change, error) {
	ch := make(chan model.Change, watchBuffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.watchers[id] = ch
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.watchers, id)
		close(ch)
		b.mu.Unlock()
	}()
	return ch, nil
}

func (b *Backend) Close() error {
	return nil
}

func (b *Backend) notify(c model.Change) {
	for _, ch := range b.watchers {
		select {
		case ch <- c:
		default:
		}
	}
}
