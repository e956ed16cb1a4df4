package server

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/ayurveda-storefront/internal/testutil"
)

func TestLoopbackListener_Listen(t *testing.T) {
	tests := []struct {
		name    string
		addr    string
		wantErr bool
	}{
		{name: "ipv4 loopback", addr: "127.0.0.1:0"},
		{name: "localhost", addr: "localhost:0"},
		{name: "all interfaces", addr: ":0", wantErr: true},
		{name: "public address", addr: "0.0.0.0:0", wantErr: true},
		{name: "hostname", addr: "example.com:0", wantErr: true},
		{name: "missing port", addr: "127.0.0.1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := NewLoopbackListener().Listen("tcp", tt.addr)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, l)
			assert.NoError(t, l.Close())
		})
	}
}

func TestHTTPServer_Lifecycle(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("pong"))
	})
	s := NewHTTPServer(handler, "127.0.0.1:0", testutil.MakeNoopLogger())
	assert.Equal(t, "127.0.0.1:0", s.Address())

	require.NoError(t, s.Start(NewLoopbackListener()))
	assert.NotEqual(t, "127.0.0.1:0", s.Address())

	resp, err := http.Get("http://" + s.Address())
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, "pong", string(body))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))

	_, err = http.Get("http://" + s.Address())
	assert.Error(t, err)
}

func TestHTTPServer_StartRejectedAddress(t *testing.T) {
	s := NewHTTPServer(http.NotFoundHandler(), "0.0.0.0:0", testutil.MakeNoopLogger())
	assert.Error(t, s.Start(NewLoopbackListener()))
}
