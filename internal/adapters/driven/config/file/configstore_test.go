package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConfigStore(t *testing.T) *ConfigStore {
	t.Helper()

	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestConfigStore_SetAndGet(t *testing.T) {
	store := newTestConfigStore(t)

	require.NoError(t, store.Set("ingestion.chunk_size", 512))
	require.NoError(t, store.Set("llm.model", "gpt-4o-mini"))
	require.NoError(t, store.Set("evaluation.threshold", 0.8))

	assert.Equal(t, "gpt-4o-mini", store.GetString("llm.model"))
	assert.Equal(t, 512, store.GetInt("ingestion.chunk_size"))
	assert.InDelta(t, 0.8, store.GetFloat("evaluation.threshold"), 0.001)
}

func TestConfigStore_MissingKeys(t *testing.T) {
	store := newTestConfigStore(t)

	_, ok := store.Get("nope")
	assert.False(t, ok)
	assert.Empty(t, store.GetString("nope"))
	assert.Zero(t, store.GetInt("nope"))
	assert.Zero(t, store.GetFloat("nope"))
	assert.False(t, store.GetBool("nope"))
}

func TestConfigStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set("scheduler.sweep_interval", "5m"))
	require.NoError(t, store.Set("scheduler.stuck_threshold_minutes", 30))

	reopened, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, "5m", reopened.GetString("scheduler.sweep_interval"))
	assert.Equal(t, 30, reopened.GetInt("scheduler.stuck_threshold_minutes"))
}

func TestConfigStore_FlattensNestedTables(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := "[scheduler]\nsweep_interval = \"5m\"\n\n[scheduler.gc]\ninterval = \"1h\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, "5m", store.GetString("scheduler.sweep_interval"))
	assert.Equal(t, "1h", store.GetString("scheduler.gc.interval"))
}

func TestConfigStore_GetIntCoercesTOMLInt64(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("retries = 3\nratio = 0.5\n"), 0600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, 3, store.GetInt("retries"))
	assert.InDelta(t, 3.0, store.GetFloat("retries"), 0.001)
	assert.InDelta(t, 0.5, store.GetFloat("ratio"), 0.001)
}

func TestConfigStore_WatchReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set("evaluation.threshold", 0.8))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan error, 1)
	go func() {
		_ = store.Watch(ctx, func(err error) {
			select {
			case reloaded <- err:
			default:
			}
		})
	}()

	// Give the watcher a moment to register before rewriting the file.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(store.Path(), []byte("[evaluation]\nthreshold = 0.9\n"), 0600))

	select {
	case err := <-reloaded:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not observe the config rewrite")
	}

	assert.InDelta(t, 0.9, store.GetFloat("evaluation.threshold"), 0.001)
}
