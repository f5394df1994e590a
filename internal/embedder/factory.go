package embedder

import (
	"fmt"
	"os"
	"strings"
	"time"

	"fairsearch/internal/config"
	"fairsearch/internal/logger"
)

// New creates an embedder from configuration. The API key for remote
// providers is read from the environment variable named in the config.
func New(cfg config.EmbedderConfig) (Embedder, error) {
	var store Store
	if cfg.CachePath != "" {
		s, err := NewSQLiteStore(cfg.CachePath)
		if err != nil {
			logger.Warn("persistent embedding cache unavailable: %v", err)
		} else {
			store = s
		}
	}
	cache := NewCache(cfg.CacheSize, store)

	timeout := time.Duration(cfg.TimeoutSecs) * time.Second

	switch strings.ToLower(cfg.Provider) {
	case ProviderOllama:
		return NewOllamaProvider(cfg.Model, cfg.BaseURL, timeout, cache), nil
	case ProviderOpenAI:
		keyEnv := cfg.APIKeyEnv
		if keyEnv == "" {
			keyEnv = "OPENAI_API_KEY"
		}
		return NewOpenAIProvider(os.Getenv(keyEnv), cfg.Model, timeout, cache)
	case ProviderLocal, "":
		return NewLocalProvider(cache), nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %s", ErrUnsupportedModel, cfg.Provider)
	}
}

// NewFromEnv creates an embedder from environment variables.
// FAIRSEARCH_EMBEDDING_PROVIDER selects the provider explicitly; absent
// that, an OPENAI_API_KEY selects openai, otherwise local is used.
func NewFromEnv() (Embedder, error) {
	cfg := config.Default().Embedder
	if provider := os.Getenv("FAIRSEARCH_EMBEDDING_PROVIDER"); provider != "" {
		cfg.Provider = provider
	} else if os.Getenv("OPENAI_API_KEY") != "" {
		cfg.Provider = ProviderOpenAI
	}
	if model := os.Getenv("FAIRSEARCH_EMBEDDING_MODEL"); model != "" {
		cfg.Model = model
	}
	if url := os.Getenv("FAIRSEARCH_OLLAMA_URL"); url != "" {
		cfg.BaseURL = url
	}
	return New(cfg)
}
