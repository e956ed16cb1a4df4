package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/ayurveda-storefront/internal/model"
	"github.com/dtroode/ayurveda-storefront/internal/testutil"
)

func TestBackend_KeyLayout(t *testing.T) {
	b := New(nil, "shop", testutil.MakeNoopLogger())

	assert.Equal(t, "storefront:shop:kv:cartItems", b.entryKey(model.KeyCartItems))
	assert.Equal(t, "storefront:shop:keys", b.keySet())
	assert.Equal(t, "storefront:shop:changes", b.channel())
}

func TestRecordFromHash(t *testing.T) {
	tests := []struct {
		name    string
		fields  map[string]string
		want    model.Record
		wantErr error
	}{
		{
			name:    "missing hash",
			fields:  map[string]string{},
			wantErr: model.ErrNotFound,
		},
		{
			name:    "tombstone",
			fields:  map[string]string{"ver": "4", "origin": "tab-1", "del": "1"},
			wantErr: model.ErrNotFound,
		},
		{
			name:   "live entry",
			fields: map[string]string{"val": "tok", "ver": "2", "origin": "tab-1", "del": "0"},
			want:   model.Record{Value: "tok", Version: 2, Origin: "tab-1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := recordFromHash("token", tt.fields)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRecordFromHash_BadVersion(t *testing.T) {
	_, err := recordFromHash("token", map[string]string{"val": "tok", "ver": "x", "del": "0"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, model.ErrNotFound)
}

func TestChangePayload(t *testing.T) {
	p, err := changePayload("cartItems", "tab-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"key":"cartItems","origin":"tab-1"}`, p)
}
