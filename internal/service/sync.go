package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/dtroode/ayurveda-storefront/internal/bus"
	"github.com/dtroode/ayurveda-storefront/internal/kv"
	"github.com/dtroode/ayurveda-storefront/internal/logger"
)

// StorageSync forwards writes made by other processes sharing the store to the
// bus as storage events.
type StorageSync struct {
	store  *kv.Store
	bus    *bus.Bus
	logger *logger.Logger
}

func NewStorageSync(store *kv.Store, bus *bus.Bus, logger *logger.Logger) *StorageSync {
	return &StorageSync{store: store, bus: bus, logger: logger}
}

// Run blocks until ctx ends. It returns nil at once when the backend cannot
// report foreign writes.
func (s *StorageSync) Run(ctx context.Context) error {
	changes, err := s.store.Watch(ctx)
	if errors.Is(err, kv.ErrWatchUnsupported) {
		s.logger.Debug("Storage sync: backend cannot watch, cross-process changes will not be announced")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to watch store: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case c, ok := <-changes:
			if !ok {
				return nil
			}
			s.bus.PublishStorage(c)
		}
	}
}
