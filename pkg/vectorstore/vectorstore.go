// Package vectorstore provides the semantic index abstraction used by the
// long-term memory store, the conversation history index, and the document
// retrieval gateway.
package vectorstore

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// VectorStore is the interface for similarity-searchable document storage.
// Implementations must be safe for concurrent use.
type VectorStore interface {
	// Upsert inserts or updates documents with embeddings.
	// Upserting an existing ID replaces the stored document, which makes
	// content-addressed adds idempotent.
	Upsert(ctx context.Context, documents []Document) error

	// Search performs similarity search and returns the most similar documents
	// in descending score order.
	Search(ctx context.Context, query SearchQuery) ([]SearchResult, error)

	// Delete removes documents by their IDs
	Delete(ctx context.Context, ids []string) error

	// Get retrieves documents by their IDs
	Get(ctx context.Context, ids []string) ([]Document, error)

	// List returns up to limit documents matching the filter, newest first.
	// A nil filter matches everything; limit <= 0 means no limit.
	List(ctx context.Context, filter *MetadataFilter, limit int) ([]Document, error)

	// Close closes the connection to the vector database
	Close() error
}

// Document represents a document with an embedding and metadata.
type Document struct {
	// ID is the unique identifier for the document
	ID string `json:"id"`

	// Content is the text content of the document
	Content string `json:"content"`

	// Embedding is the vector representation of the content
	Embedding []float32 `json:"embedding"`

	// Metadata carries scoping fields such as user_id, session_id, role.
	Metadata map[string]any `json:"metadata,omitempty"`

	// CreatedAt is when the document was first created
	CreatedAt time.Time `json:"created_at"`
}

// SearchQuery defines the parameters for a similarity search.
type SearchQuery struct {
	// Embedding is the query vector to search for
	Embedding []float32

	// TopK is the number of results to return
	TopK int

	// Filter is optional metadata filtering
	Filter *MetadataFilter

	// MinScore excludes results below this cosine similarity
	MinScore float32
}

// SearchResult represents a single search result with similarity score.
type SearchResult struct {
	Document Document

	// Score is the cosine similarity: 0.0 (opposite) to 1.0 (identical)
	Score float32
}

// MetadataFilter defines equality conditions for filtering documents.
type MetadataFilter struct {
	// Must contains conditions that all must be true (AND)
	Must map[string]any
}

// Config holds configuration common to vector store providers.
type Config struct {
	// Provider selects the registered implementation, e.g. "memory".
	Provider string `yaml:"provider"`

	// EmbeddingDimensions must match the embedding service in use.
	EmbeddingDimensions int `yaml:"embedding_dimensions"`

	// DefaultTopK is used when a query does not set TopK.
	DefaultTopK int `yaml:"default_top_k"`

	// MaxDocuments bounds in-memory providers (0 = provider default).
	MaxDocuments int `yaml:"max_documents"`
}

// ValidateDocument checks if a document is valid before storage.
func ValidateDocument(doc *Document) error {
	if doc.ID == "" {
		return fmt.Errorf("document ID cannot be empty")
	}
	if doc.Content == "" {
		return fmt.Errorf("document content cannot be empty")
	}
	if len(doc.Embedding) == 0 {
		return fmt.Errorf("document embedding cannot be empty")
	}
	for i, val := range doc.Embedding {
		if val != val {
			return fmt.Errorf("embedding contains NaN at index %d", i)
		}
	}
	return nil
}

// ValidateSearchQuery checks if a search query is valid.
func ValidateSearchQuery(query *SearchQuery) error {
	if len(query.Embedding) == 0 {
		return fmt.Errorf("query embedding cannot be empty")
	}
	if query.TopK < 1 {
		return fmt.Errorf("TopK must be at least 1, got %d", query.TopK)
	}
	if query.MinScore < 0 || query.MinScore > 1 {
		return fmt.Errorf("MinScore must be between 0 and 1, got %f", query.MinScore)
	}
	return nil
}

// ProviderFactory is a function that creates a VectorStore from a Config.
type ProviderFactory func(config Config) (VectorStore, error)

var (
	registry   = make(map[string]ProviderFactory)
	registryMu sync.RWMutex
)

// Register adds a new vector store provider to the registry.
func Register(name string, factory ProviderFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if factory == nil {
		panic("vectorstore: Register factory is nil")
	}
	if _, dup := registry[name]; dup {
		panic("vectorstore: Register called twice for provider " + name)
	}
	registry[name] = factory
}

// New creates a VectorStore for the provider named in the config.
func New(config Config) (VectorStore, error) {
	registryMu.RLock()
	factory, ok := registry[config.Provider]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown vector store provider: %s", config.Provider)
	}

	return factory(config)
}
