// Package embeddings provides text embedding generation for the semantic
// memory indexes and document retrieval.
package embeddings

import (
	"context"
	"fmt"
	"sync"
)

// EmbeddingService is the main interface for generating text embeddings.
type EmbeddingService interface {
	// Embed generates an embedding for a single text
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the dimension size of the embeddings
	Dimensions() int

	// ModelName returns the name of the embedding model
	ModelName() string

	// Close closes any resources held by the service
	Close() error
}

// Config holds configuration for embedding providers.
type Config struct {
	// Provider specifies which embedding service to use, e.g. "huggingface".
	Provider string `yaml:"provider"`

	// HuggingFace-specific configuration
	HuggingFace *HuggingFaceConfig `yaml:"huggingface,omitempty"`
}

// HuggingFaceConfig contains HuggingFace Inference API settings.
type HuggingFaceConfig struct {
	// APIKey for authentication (optional for public models)
	APIKey string `yaml:"api_key,omitempty"`

	// Model specifies which HuggingFace model to use, e.g.
	// "sentence-transformers/all-MiniLM-L6-v2" (384 dims).
	Model string `yaml:"model"`

	// Endpoint is the API endpoint (default: https://api-inference.huggingface.co)
	Endpoint string `yaml:"endpoint,omitempty"`

	// WaitForModel waits if the model is still loading
	WaitForModel bool `yaml:"wait_for_model"`
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Provider == "" {
		return fmt.Errorf("provider must be specified")
	}
	if c.Provider == "huggingface" {
		if c.HuggingFace == nil {
			return fmt.Errorf("huggingface configuration is required when provider is 'huggingface'")
		}
		if c.HuggingFace.Model == "" {
			return fmt.Errorf("huggingface model is required")
		}
	}
	return nil
}

// ProviderFactory is a function that creates an EmbeddingService from a Config.
type ProviderFactory func(config Config) (EmbeddingService, error)

var (
	registry = make(map[string]ProviderFactory)
	mu       sync.RWMutex
)

// Register adds a new embedding provider to the registry.
func Register(name string, factory ProviderFactory) {
	mu.Lock()
	defer mu.Unlock()

	if factory == nil {
		panic("embeddings: Register factory is nil")
	}
	if _, dup := registry[name]; dup {
		panic("embeddings: Register called twice for provider " + name)
	}
	registry[name] = factory
}

// New creates a new EmbeddingService based on the provider in the config.
func New(config Config) (EmbeddingService, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	mu.RLock()
	factory, ok := registry[config.Provider]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown embedding provider: %s", config.Provider)
	}

	return factory(config)
}
