package embedder

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeHash(t *testing.T) {
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		ComputeHash(""))
	assert.Equal(t, ComputeHash("ocean"), ComputeHash("ocean"))
	assert.NotEqual(t, ComputeHash("ocean"), ComputeHash("atmosphere"))
}

func TestLocalProviderDeterministic(t *testing.T) {
	l := NewLocalProvider(nil)
	ctx := context.Background()

	first, err := l.Embed(ctx, "sea surface temperature")
	require.NoError(t, err)
	second, err := l.Embed(ctx, "sea surface temperature")
	require.NoError(t, err)

	assert.Equal(t, first.Vector, second.Vector)
	assert.Equal(t, LocalDimension, first.Dimension)
	assert.Len(t, first.Vector, LocalDimension)
}

func TestLocalProviderDistinctTexts(t *testing.T) {
	l := NewLocalProvider(nil)
	ctx := context.Background()

	a, err := l.Embed(ctx, "ocean temperature")
	require.NoError(t, err)
	b, err := l.Embed(ctx, "stellar spectra")
	require.NoError(t, err)

	assert.NotEqual(t, a.Vector, b.Vector)
}

func TestLocalProviderNormalized(t *testing.T) {
	l := NewLocalProvider(nil)

	emb, err := l.Embed(context.Background(), "anything")
	require.NoError(t, err)

	var sum float64
	for _, v := range emb.Vector {
		sum += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-5)
}

func TestEmbedEmptyText(t *testing.T) {
	l := NewLocalProvider(nil)
	_, err := l.Embed(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestNormalizeVector(t *testing.T) {
	v := NormalizeVector([]float32{3, 4})
	assert.InDelta(t, 0.6, float64(v[0]), 1e-6)
	assert.InDelta(t, 0.8, float64(v[1]), 1e-6)

	zero := NormalizeVector([]float32{0, 0})
	assert.Equal(t, []float32{0, 0}, zero)
}

func TestCacheGetSet(t *testing.T) {
	c := NewCache(10, nil)

	hash := ComputeHash("text")
	c.Set(hash, &Embedding{Vector: []float32{1, 2}, Dimension: 2, Model: "m", Hash: hash})

	got, ok := c.Get(hash, "m")
	require.True(t, ok)
	assert.Equal(t, []float32{1, 2}, got.Vector)

	// returned copy must not alias the cached vector
	got.Vector[0] = 99
	again, ok := c.Get(hash, "m")
	require.True(t, ok)
	assert.Equal(t, float32(1), again.Vector[0])
}

func TestCacheModelMismatch(t *testing.T) {
	c := NewCache(10, nil)
	hash := ComputeHash("text")
	c.Set(hash, &Embedding{Vector: []float32{1}, Dimension: 1, Model: "old", Hash: hash})

	_, ok := c.Get(hash, "new")
	assert.False(t, ok, "a model change must not serve stale vectors")
}

func TestCacheEviction(t *testing.T) {
	c := NewCache(2, nil)

	for _, text := range []string{"a", "b", "c"} {
		h := ComputeHash(text)
		c.Set(h, &Embedding{Vector: []float32{1}, Dimension: 1, Model: "m", Hash: h})
	}

	assert.Equal(t, 2, c.Size())
	_, ok := c.Get(ComputeHash("a"), "m")
	assert.False(t, ok, "oldest entry evicted")
}

func ollamaStub(t *testing.T, vector []float32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := json.NewEncoder(w).Encode(map[string]interface{}{"embedding": vector})
		require.NoError(t, err)
	}))
}

func TestOllamaProviderRejectsWrongDimension(t *testing.T) {
	srv := ollamaStub(t, []float32{1, 2, 3})
	defer srv.Close()

	p := NewOllamaProvider("test-model", srv.URL, time.Second, nil)
	defer func() { _ = p.Close() }()

	_, err := p.Embed(context.Background(), "some text")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProviderFailed)
	assert.Contains(t, err.Error(), "dimensions")
}

func TestOllamaProviderAcceptsExpectedDimension(t *testing.T) {
	vector := make([]float32, OllamaDimension)
	vector[0] = 1
	srv := ollamaStub(t, vector)
	defer srv.Close()

	p := NewOllamaProvider("test-model", srv.URL, time.Second, nil)
	defer func() { _ = p.Close() }()

	emb, err := p.Embed(context.Background(), "some text")
	require.NoError(t, err)
	assert.Len(t, emb.Vector, OllamaDimension)
	assert.Equal(t, ProviderOllama, emb.Provider)
}

func TestFactoryUnknownProvider(t *testing.T) {
	cfg := testEmbedderConfig()
	cfg.Provider = "quantum"
	_, err := New(cfg)
	assert.ErrorIs(t, err, ErrUnsupportedModel)
}

func TestFactoryLocalProvider(t *testing.T) {
	cfg := testEmbedderConfig()
	cfg.Provider = "local"
	emb, err := New(cfg)
	require.NoError(t, err)
	defer func() { _ = emb.Close() }()

	assert.Equal(t, ProviderLocal, emb.Provider())
	assert.Equal(t, LocalDimension, emb.Dimension())
}
