package configstore

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableName(t *testing.T) {
	assert.Equal(t, "system_config", SystemConfig{}.TableName())
}

func TestGormStoreRoundTrip(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN is not set")
	}
	ctx := context.Background()
	store, err := Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.db.Exec(`DELETE FROM system_config WHERE key = ?`, "test_key").Error)

	_, ok, err := store.Get(ctx, "test_key")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "test_key", "1", "first"))
	require.NoError(t, store.Set(ctx, "test_key", "2", ""))

	value, ok, err := store.Get(ctx, "test_key")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "2", value)

	var row SystemConfig
	require.NoError(t, store.db.Where("key = ?", "test_key").Take(&row).Error)
	assert.Equal(t, "first", row.Description)
}
