// Package embedder turns searchable text into fixed-dimension vectors.
//
// Providers share an LRU cache keyed by content hash, optionally backed
// by a persistent SQLite store so re-indexing unchanged files never
// re-embeds their text.
package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

var (
	ErrEmptyText         = errors.New("text cannot be empty")
	ErrProviderFailed    = errors.New("embedding provider failed")
	ErrNoProviderEnabled = errors.New("no embedding provider configured")
	ErrUnsupportedModel  = errors.New("unsupported model")
)

// Embedding is one vector with its provenance.
type Embedding struct {
	Vector    []float32
	Dimension int
	Provider  string
	Model     string
	Hash      string
}

// Embedder generates embeddings for text.
type Embedder interface {
	// Embed generates the embedding for one text.
	Embed(ctx context.Context, text string) (*Embedding, error)

	// Dimension returns the embedding dimension for this provider.
	Dimension() int

	// Provider returns the provider name.
	Provider() string

	// Model returns the model name.
	Model() string

	// Close releases resources held by the embedder.
	Close() error
}

// Store is an optional persistent embedding cache behind the in-memory
// LRU. Lookups are keyed by content hash plus model name so a model
// change never serves stale vectors.
type Store interface {
	Get(hash, model string) ([]float32, bool, error)
	Put(hash, model string, vector []float32) error
	Close() error
}

// Cache provides in-memory LRU caching of embeddings by content hash,
// write-through to an optional persistent store.
type Cache struct {
	cache *lru.Cache[string, *Embedding]
	store Store
}

// NewCache creates a cache with LRU eviction. store may be nil.
func NewCache(maxLen int, store Store) *Cache {
	if maxLen <= 0 {
		maxLen = 10000
	}
	cache, err := lru.New[string, *Embedding](maxLen)
	if err != nil {
		cache, _ = lru.New[string, *Embedding](10000)
	}
	return &Cache{cache: cache, store: store}
}

// Get retrieves a deep copy of a cached embedding, falling through to
// the persistent store on a memory miss.
func (c *Cache) Get(hash, model string) (*Embedding, bool) {
	if emb, ok := c.cache.Get(hash); ok && emb.Model == model {
		return copyEmbedding(emb), true
	}

	if c.store != nil {
		vector, ok, err := c.store.Get(hash, model)
		if err == nil && ok {
			emb := &Embedding{
				Vector:    vector,
				Dimension: len(vector),
				Model:     model,
				Hash:      hash,
			}
			c.cache.Add(hash, emb)
			return copyEmbedding(emb), true
		}
	}
	return nil, false
}

// Set stores an embedding in memory and, when configured, persistently.
func (c *Cache) Set(hash string, emb *Embedding) {
	c.cache.Add(hash, emb)
	if c.store != nil {
		// store errors are non-fatal; the memory cache still works
		_ = c.store.Put(hash, emb.Model, emb.Vector)
	}
}

// Size returns the current in-memory cache size.
func (c *Cache) Size() int {
	return c.cache.Len()
}

// Clear empties the in-memory cache. The persistent store is untouched.
func (c *Cache) Clear() {
	c.cache.Purge()
}

// Close closes the persistent store if one is attached.
func (c *Cache) Close() error {
	if c.store != nil {
		return c.store.Close()
	}
	return nil
}

// copyEmbedding returns a deep copy so caller mutations cannot pollute
// the cache.
func copyEmbedding(emb *Embedding) *Embedding {
	vector := make([]float32, len(emb.Vector))
	copy(vector, emb.Vector)
	return &Embedding{
		Vector:    vector,
		Dimension: emb.Dimension,
		Provider:  emb.Provider,
		Model:     emb.Model,
		Hash:      emb.Hash,
	}
}

// ComputeHash computes the SHA-256 hash of text for cache keying.
func ComputeHash(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}

func validateText(text string) error {
	if text == "" {
		return ErrEmptyText
	}
	return nil
}

func validateDimension(vector []float32, want int) error {
	if len(vector) != want {
		return fmt.Errorf("%w: got %d dimensions, want %d", ErrProviderFailed, len(vector), want)
	}
	return nil
}
