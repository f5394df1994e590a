package embedder

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fairsearch/internal/config"
)

func testEmbedderConfig() config.EmbedderConfig {
	return config.EmbedderConfig{Provider: "local", CacheSize: 100}
}

func TestSQLiteStoreRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	hash := ComputeHash("some searchable text")
	vector := []float32{0.1, -0.5, 1.25}

	require.NoError(t, store.Put(hash, "model-a", vector))

	got, ok, err := store.Get(hash, "model-a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, vector, got)
}

func TestSQLiteStoreMissAndModelIsolation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	hash := ComputeHash("text")
	require.NoError(t, store.Put(hash, "model-a", []float32{1}))

	_, ok, err := store.Get(hash, "model-b")
	require.NoError(t, err)
	assert.False(t, ok, "entries are keyed by model too")

	_, ok, err = store.Get(ComputeHash("other"), "model-a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteStoreOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	hash := ComputeHash("text")
	require.NoError(t, store.Put(hash, "m", []float32{1, 2}))
	require.NoError(t, store.Put(hash, "m", []float32{3, 4}))

	got, ok, err := store.Get(hash, "m")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []float32{3, 4}, got)

	n, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCacheFallsThroughToStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	store, err := NewSQLiteStore(path)
	require.NoError(t, err)

	cache := NewCache(10, store)
	defer func() { _ = cache.Close() }()

	hash := ComputeHash("persisted")
	cache.Set(hash, &Embedding{Vector: []float32{7}, Dimension: 1, Model: "m", Hash: hash})

	// a fresh in-memory cache over the same store still hits
	store2, err := NewSQLiteStore(path)
	require.NoError(t, err)
	cache2 := NewCache(10, store2)
	defer func() { _ = cache2.Close() }()

	got, ok := cache2.Get(hash, "m")
	require.True(t, ok)
	assert.Equal(t, []float32{7}, got.Vector)
}

func TestSerializeVectorRoundtrip(t *testing.T) {
	vector := []float32{0, 1.5, -2.25, 3e7}
	blob, err := serializeVector(vector)
	require.NoError(t, err)

	got, err := deserializeVector(blob)
	require.NoError(t, err)
	assert.Equal(t, vector, got)

	_, err = deserializeVector([]byte{1, 2, 3})
	assert.Error(t, err)
}
