//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/dtroode/ayurveda-storefront/internal/kv"
	"github.com/dtroode/ayurveda-storefront/internal/model"
	"github.com/dtroode/ayurveda-storefront/internal/storage/postgres"
	"github.com/dtroode/ayurveda-storefront/internal/testutil"
)

var dsn string

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:15-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "password",
				"POSTGRES_DB":       "storefront_test",
			},
			WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		panic(err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		panic(err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		panic(err)
	}
	dsn = fmt.Sprintf("postgres://postgres:password@%s:%s/storefront_test?sslmode=disable", host, port.Port())

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func open(t *testing.T, namespace string) *postgres.Backend {
	t.Helper()
	b, err := postgres.Open(context.Background(), dsn, namespace, testutil.MakeNoopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestBackend_VersionedWrites(t *testing.T) {
	ctx := context.Background()
	b := open(t, "versions")

	rec, err := b.Save(ctx, "token", "tok", "tab-1", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.Version)

	_, err = b.Save(ctx, "token", "again", "tab-2", 0)
	assert.ErrorIs(t, err, model.ErrVersionConflict)

	rec, err = b.Save(ctx, "token", "tok-2", "tab-2", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rec.Version)

	require.NoError(t, b.Delete(ctx, "token", "tab-2"))
	_, err = b.Load(ctx, "token")
	assert.ErrorIs(t, err, model.ErrNotFound)

	rec, err = b.Save(ctx, "token", "tok-3", "tab-1", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(4), rec.Version)

	keys, err := b.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"token"}, keys)
}

func TestBackend_NamespacesAreIsolated(t *testing.T) {
	ctx := context.Background()
	a := open(t, "shop-a")
	b := open(t, "shop-b")

	_, err := a.Save(ctx, "cartItems", "[]", "tab-1", model.AnyVersion)
	require.NoError(t, err)

	_, err = b.Load(ctx, "cartItems")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestBackend_WatchAcrossConnections(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watcherStore := kv.New(open(t, "watch"), testutil.MakeNoopLogger())
	writerStore := kv.New(open(t, "watch"), testutil.MakeNoopLogger())

	changes, err := watcherStore.Watch(ctx)
	require.NoError(t, err)

	// LISTEN is registered before Watch returns.
	require.NoError(t, writerStore.Set(context.Background(), model.KeyCartItems, "[]"))

	select {
	case c := <-changes:
		assert.Equal(t, model.KeyCartItems, c.Key)
		assert.Equal(t, writerStore.Origin(), c.Origin)
	case <-time.After(5 * time.Second):
		t.Fatal("no change observed")
	}
}
