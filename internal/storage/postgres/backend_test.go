package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/ayurveda-storefront/internal/model"
	"github.com/dtroode/ayurveda-storefront/internal/testutil"
)

func newMockBackend(t *testing.T) (*Backend, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db, "default", testutil.MakeNoopLogger()), mock
}

func TestBackend_Load(t *testing.T) {
	query := regexp.QuoteMeta(`SELECT value, version, origin FROM kv_entries WHERE namespace = $1 AND key = $2 AND value IS NOT NULL`)

	tests := []struct {
		name    string
		setup   func(mock sqlmock.Sqlmock)
		want    model.Record
		wantErr error
	}{
		{
			name: "present",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(query).WithArgs("default", "token").
					WillReturnRows(sqlmock.NewRows([]string{"value", "version", "origin"}).AddRow("tok", int64(3), "tab-1"))
			},
			want: model.Record{Value: "tok", Version: 3, Origin: "tab-1"},
		},
		{
			name: "absent",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(query).WithArgs("default", "token").
					WillReturnRows(sqlmock.NewRows([]string{"value", "version", "origin"}))
			},
			wantErr: model.ErrNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, mock := newMockBackend(t)
			tt.setup(mock)

			got, err := b.Load(context.Background(), "token")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestBackend_Save(t *testing.T) {
	tests := []struct {
		name     string
		expected int64
		query    string
		args     []driver.Value
		rows     *sqlmock.Rows
		want     int64
		wantErr  error
	}{
		{
			name:     "unconditional upsert",
			expected: model.AnyVersion,
			query:    `ON CONFLICT (namespace, key) DO UPDATE SET value = EXCLUDED.value, version = kv_entries.version + 1, origin = EXCLUDED.origin, updated_at = now() RETURNING version`,
			args:     []driver.Value{"default", "cartItems", "[]", "tab-1"},
			rows:     sqlmock.NewRows([]string{"version"}).AddRow(int64(4)),
			want:     4,
		},
		{
			name:     "create when absent",
			expected: 0,
			query:    `WHERE kv_entries.value IS NULL RETURNING version`,
			args:     []driver.Value{"default", "cartItems", "[]", "tab-1"},
			rows:     sqlmock.NewRows([]string{"version"}).AddRow(int64(1)),
			want:     1,
		},
		{
			name:     "create conflicts with live row",
			expected: 0,
			query:    `WHERE kv_entries.value IS NULL RETURNING version`,
			args:     []driver.Value{"default", "cartItems", "[]", "tab-1"},
			rows:     sqlmock.NewRows([]string{"version"}),
			wantErr:  model.ErrVersionConflict,
		},
		{
			name:     "matching version",
			expected: 2,
			query:    `WHERE namespace = $1 AND key = $2 AND version = $5 AND value IS NOT NULL`,
			args:     []driver.Value{"default", "cartItems", "[]", "tab-1", int64(2)},
			rows:     sqlmock.NewRows([]string{"version"}).AddRow(int64(3)),
			want:     3,
		},
		{
			name:     "stale version",
			expected: 2,
			query:    `WHERE namespace = $1 AND key = $2 AND version = $5 AND value IS NOT NULL`,
			args:     []driver.Value{"default", "cartItems", "[]", "tab-1", int64(2)},
			rows:     sqlmock.NewRows([]string{"version"}),
			wantErr:  model.ErrVersionConflict,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, mock := newMockBackend(t)
			mock.ExpectQuery(regexp.QuoteMeta(tt.query)).WithArgs(tt.args...).WillReturnRows(tt.rows)

			rec, err := b.Save(context.Background(), "cartItems", "[]", "tab-1", tt.expected)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, model.Record{Value: "[]", Version: tt.want, Origin: "tab-1"}, rec)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestBackend_Save_DatabaseError(t *testing.T) {
	b, mock := newMockBackend(t)
	mock.ExpectQuery("RETURNING version").WillReturnError(errors.New("connection reset"))

	_, err := b.Save(context.Background(), "token", "tok", "tab-1", model.AnyVersion)
	require.Error(t, err)
	assert.NotErrorIs(t, err, model.ErrVersionConflict)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestBackend_Delete(t *testing.T) {
	b, mock := newMockBackend(t)
	mock.ExpectExec(regexp.QuoteMeta(`SET value = NULL, version = version + 1, origin = $3`)).
		WithArgs("default", "token", "tab-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, b.Delete(context.Background(), "token", "tab-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBackend_Keys(t *testing.T) {
	b, mock := newMockBackend(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT key FROM kv_entries WHERE namespace = $1 AND value IS NOT NULL ORDER BY key`)).
		WithArgs("default").
		WillReturnRows(sqlmock.NewRows([]string{"key"}).AddRow("cartItems").AddRow("token"))

	keys, err := b.Keys(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"cartItems", "token"}, keys)
	assert.NoError(t, mock.ExpectationsWereMet())
}
