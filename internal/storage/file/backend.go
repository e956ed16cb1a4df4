// Package file keeps one namespace of client state in a JSON document on disk.
// Processes sharing the directory share the state; writers serialize on an
// advisory lock file and replace the document atomically.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dtroode/ayurveda-storefront/internal/logger"
	"github.com/dtroode/ayurveda-storefront/internal/model"
)

var (
	_ model.Backend       = (*Backend)(nil)
	_ model.ChangeWatcher = (*Backend)(nil)
)

type entry struct {
	Value   string `json:"value,omitempty"`
	Version int64  `json:"version"`
	Origin  string `json:"origin,omitempty"`
	Deleted bool   `json:"deleted,omitempty"`
}

type document struct {
	Entries map[string]entry `json:"entries"`
}

// Backend stores a namespace in {dir}/{namespace}.json.
type Backend struct {
	path         string
	lockPath     string
	pollInterval time.Duration
	logger       *logger.Logger
}

// New creates the directory if needed and returns a Backend for namespace.
func New(dir, namespace string, pollInterval time.Duration, logger *logger.Logger) (*Backend, error) {
	if namespace == "" || strings.ContainsAny(namespace, `/\`) || namespace == "." || namespace == ".." {
		return nil, fmt.Errorf("invalid namespace %q", namespace)
	}
	if pollInterval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive, got %s", pollInterval)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	return &Backend{
		path:         filepath.Join(dir, namespace+".json"),
		lockPath:     filepath.Join(dir, namespace+".lock"),
		pollInterval: pollInterval,
		logger:       logger,
	}, nil
}

// Path returns the location of the state document.
func (b *Backend) Path() string {
	return b.path
}

func (b *Backend) Load(_ context.Context, key string) (model.Record, error) {
	doc, err := b.read()
	if err != nil {
		return model.Record{}, err
	}
	e, ok := doc.Entries[key]
	if !ok || e.Deleted {
		return model.Record{}, model.ErrNotFound
	}
	return model.Record{Value: e.Value, Version: e.Version, Origin: e.Origin}, nil
}

func (b *Backend) Save(_ context.Context, key, value, origin string, expected int64) (model.Record, error) {
	var rec model.Record
	err := b.mutate(func(doc *document) (bool, error) {
		e, ok := doc.Entries[key]
		present := ok && !e.Deleted
		if !model.VersionMatches(present, e.Version, expected) {
			return false, model.ErrVersionConflict
		}
		e = entry{Value: value, Version: e.Version + 1, Origin: origin}
		doc.Entries[key] = e
		rec = model.Record{Value: e.Value, Version: e.Version, Origin: e.Origin}
		return true, nil
	})
	if err != nil {
		return model.Record{}, err
	}
	return rec, nil
}

func (b *Backend) Delete(_ context.Context, key, origin string) error {
	return b.mutate(func(doc *document) (bool, error) {
		e, ok := doc.Entries[key]
		if !ok || e.Deleted {
			return false, nil
		}
		doc.Entries[key] = entry{Version: e.Version + 1, Origin: origin, Deleted: true}
		return true, nil
	})
}

func (b *Backend) Keys(_ context.Context) ([]string, error) {
	doc, err := b.read()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(doc.Entries))
	for k, e := range doc.Entries {
		if !e.Deleted {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Watch polls the document and reports keys whose version moved since the last poll.
func (b *Backend) Watch(ctx context.Context) (<-chan model.Change, error) {
	doc, err := b.read()
	if err != nil {
		return nil, err
	}
	seen := versions(doc)

	ch := make(chan model.Change)
	go func() {
		defer close(ch)
		ticker := time.NewTicker(b.pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			doc, err := b.read()
			if err != nil {
				b.logger.Warn("File store: poll failed", "path", b.path, "error", err)
				continue
			}
			for _, c := range diff(seen, doc) {
				select {
				case ch <- c:
				case <-ctx.Done():
					return
				}
			}
			seen = versions(doc)
		}
	}()
	return ch, nil
}

func (b *Backend) Close() error {
	return nil
}

func (b *Backend) mutate(fn func(doc *document) (bool, error)) (err error) {
	lock, err := acquireFileLock(b.lockPath)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := releaseFileLock(lock); rerr != nil && err == nil {
			err = rerr
		}
	}()

	doc, err := b.read()
	if err != nil {
		return err
	}
	changed, err := fn(doc)
	if err != nil || !changed {
		return err
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state document: %w", err)
	}
	if err := atomicWriteFile(b.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write state document: %w", err)
	}
	return nil
}

// read returns the current document. A corrupt document is moved aside and
// replaced by an empty one so a single bad write cannot wedge the client.
func (b *Backend) read() (*document, error) {
	doc := &document{Entries: map[string]entry{}}
	data, err := os.ReadFile(b.path)
	if errors.Is(err, os.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state document: %w", err)
	}
	if err := json.Unmarshal(data, doc); err != nil {
		aside := b.path + ".corrupt"
		b.logger.Warn("File store: state document is corrupt, starting empty", "path", b.path, "moved_to", aside, "error", err)
		_ = os.Rename(b.path, aside)
		return &document{Entries: map[string]entry{}}, nil
	}
	if doc.Entries == nil {
		doc.Entries = map[string]entry{}
	}
	return doc, nil
}

func versions(doc *document) map[string]int64 {
	out := make(map[string]int64, len(doc.Entries))
	for k, e := range doc.Entries {
		out[k] = e.Version
	}
	return out
}

func diff(seen map[string]int64, doc *document) []model.Change {
	var changes []model.Change
	for k, e := range doc.Entries {
		if seen[k] != e.Version {
			changes = append(changes, model.Change{Key: k, Origin: e.Origin})
		}
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Key < changes[j].Key })
	return changes
}
