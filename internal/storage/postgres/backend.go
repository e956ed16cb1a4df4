// Package postgres shares client state through a PostgreSQL table, so clients
// on different machines can act as tabs of the same storefront origin.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/stdlib"

	"github.com/dtroode/ayurveda-storefront/database"
	"github.com/dtroode/ayurveda-storefront/internal/logger"
	"github.com/dtroode/ayurveda-storefront/internal/model"
)

// changeChannel is the LISTEN channel fed by the kv_entries trigger.
const changeChannel = "kv_changes"

var (
	_ model.Backend       = (*Backend)(nil)
	_ model.ChangeWatcher = (*Backend)(nil)
)

// Backend stores one namespace of kv_entries. Deleted keys keep their row with a
// NULL value so versions never restart.
type Backend struct {
	db        *sql.DB
	namespace string
	logger    *logger.Logger
}

// Open connects through the pgx driver and applies migrations.
func Open(ctx context.Context, dsn, namespace string, logger *logger.Logger) (*Backend, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	if err := database.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return New(db, namespace, logger), nil
}

// New wraps an already migrated database.
func New(db *sql.DB, namespace string, logger *logger.Logger) *Backend {
	return &Backend{db: db, namespace: namespace, logger: logger}
}

func (b *Backend) Load(ctx context.Context, key string) (model.Record, error) {
	query := `SELECT value, version, origin FROM kv_entries
			  WHERE namespace = $1 AND key = $2 AND value IS NOT NULL`

	var rec model.Record
	err := b.db.QueryRowContext(ctx, query, b.namespace, key).Scan(&rec.Value, &rec.Version, &rec.Origin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Record{}, model.ErrNotFound
		}
		return model.Record{}, fmt.Errorf("failed to load %s: %w", key, err)
	}
	return rec, nil
}

func (b *Backend) Save(ctx context.Context, key, value, origin string, expected int64) (model.Record, error) {
	var query string
	args := []any{b.namespace, key, value, origin}

	switch {
	case expected == model.AnyVersion:
		query = `INSERT INTO kv_entries (namespace, key, value, version, origin, updated_at)
				 VALUES ($1, $2, $3, 1, $4, now())
				 ON CONFLICT (namespace, key) DO UPDATE
				 SET value = EXCLUDED.value, version = kv_entries.version + 1, origin = EXCLUDED.origin, updated_at = now()
				 RETURNING version`
	case expected == 0:
		query = `INSERT INTO kv_entries (namespace, key, value, version, origin, updated_at)
				 VALUES ($1, $2, $3, 1, $4, now())
				 ON CONFLICT (namespace, key) DO UPDATE
				 SET value = EXCLUDED.value, version = kv_entries.version + 1, origin = EXCLUDED.origin, updated_at = now()
				 WHERE kv_entries.value IS NULL
				 RETURNING version`
	default:
		query = `UPDATE kv_entries
				 SET value = $3, version = version + 1, origin = $4, updated_at = now()
				 WHERE namespace = $1 AND key = $2 AND version = $5 AND value IS NOT NULL
				 RETURNING version`
		args = append(args, expected)
	}

	rec := model.Record{Value: value, Origin: origin}
	err := b.db.QueryRowContext(ctx, query, args...).Scan(&rec.Version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Record{}, model.ErrVersionConflict
		}
		return model.Record{}, fmt.Errorf("failed to save %s: %w", key, err)
	}
	return rec, nil
}

func (b *Backend) Delete(ctx context.Context, key, origin string) error {
	query := `UPDATE kv_entries
			  SET value = NULL, version = version + 1, origin = $3, updated_at = now()
			  WHERE namespace = $1 AND key = $2 AND value IS NOT NULL`

	if _, err := b.db.ExecContext(ctx, query, b.namespace, key, origin); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (b *Backend) Keys(ctx context.Context) ([]string, error) {
	query := `SELECT key FROM kv_entries WHERE namespace = $1 AND value IS NOT NULL ORDER BY key`

	rows, err := b.db.QueryContext(ctx, query, b.namespace)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate keys: %w", err)
	}
	return keys, nil
}

type notification struct {
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Origin    string `json:"origin"`
}

// Watch holds a dedicated connection listening on the change channel until ctx ends.
func (b *Backend) Watch(ctx context.Context) (<-chan model.Change, error) {
	conn, err := b.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire listen connection: %w", err)
	}
	if _, err := conn.ExecContext(ctx, "LISTEN "+changeChannel); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to listen for changes: %w", err)
	}

	ch := make(chan model.Change)
	go func() {
		defer close(ch)
		defer conn.Close()

		err := conn.Raw(func(driverConn any) error {
			pc, ok := driverConn.(*stdlib.Conn)
			if !ok {
				return fmt.Errorf("unexpected driver connection %T", driverConn)
			}
			for {
				n, err := pc.Conn().WaitForNotification(ctx)
				if err != nil {
					return err
				}
				var p notification
				if err := json.Unmarshal([]byte(n.Payload), &p); err != nil {
					b.logger.Warn("Postgres store: bad notification payload", "payload", n.Payload, "error", err)
					continue
				}
				if p.Namespace != b.namespace {
					continue
				}
				select {
				case ch <- model.Change{Key: p.Key, Origin: p.Origin}:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		})
		if err != nil && ctx.Err() == nil {
			b.logger.Error("Postgres store: listen loop stopped", "error", err)
		}
	}()
	return ch, nil
}

func (b *Backend) Close() error {
	return b.db.Close()
}
