// Package memory provides an in-memory brute-force vector store, suitable for
// development, tests, and single-node deployments with modest index sizes.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/ashishjangde/gen-ai-bot/pkg/vectorstore"
)

// Store implements vectorstore.VectorStore with brute-force cosine search.
type Store struct {
	documents    map[string]vectorstore.Document
	maxDocuments int
	defaultTopK  int
	dims         int
	mu           sync.RWMutex
}

func init() {
	vectorstore.Register("memory", New)
}

// New creates a Store from the provided configuration.
func New(config vectorstore.Config) (vectorstore.VectorStore, error) {
	if config.EmbeddingDimensions <= 0 {
		return nil, fmt.Errorf("embedding dimensions must be greater than 0, got %d", config.EmbeddingDimensions)
	}

	maxDocs := config.MaxDocuments
	if maxDocs <= 0 {
		maxDocs = 100000
	}
	topK := config.DefaultTopK
	if topK <= 0 {
		topK = 5
	}

	return &Store{
		documents:    make(map[string]vectorstore.Document),
		maxDocuments: maxDocs,
		defaultTopK:  topK,
		dims:         config.EmbeddingDimensions,
	}, nil
}

// Upsert inserts or updates documents.
func (s *Store) Upsert(ctx context.Context, documents []vectorstore.Document) error {
	if len(documents) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range documents {
		if err := vectorstore.ValidateDocument(&documents[i]); err != nil {
			return fmt.Errorf("invalid document at index %d: %w", i, err)
		}
		if len(documents[i].Embedding) != s.dims {
			return fmt.Errorf("document %s embedding dimension mismatch: expected %d, got %d",
				documents[i].ID, s.dims, len(documents[i].Embedding))
		}
	}

	newDocs := 0
	for _, doc := range documents {
		if _, exists := s.documents[doc.ID]; !exists {
			newDocs++
		}
	}
	if len(s.documents)+newDocs > s.maxDocuments {
		return fmt.Errorf("would exceed max documents limit: %d", s.maxDocuments)
	}

	for _, doc := range documents {
		s.documents[doc.ID] = copyDocument(doc)
	}

	return nil
}

// Search performs brute-force cosine similarity search.
func (s *Store) Search(ctx context.Context, query vectorstore.SearchQuery) ([]vectorstore.SearchResult, error) {
	if query.TopK == 0 {
		query.TopK = s.defaultTopK
	}
	if err := vectorstore.ValidateSearchQuery(&query); err != nil {
		return nil, fmt.Errorf("invalid search query: %w", err)
	}
	if len(query.Embedding) != s.dims {
		return nil, fmt.Errorf("query embedding dimension mismatch: expected %d, got %d",
			s.dims, len(query.Embedding))
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var candidates []vectorstore.SearchResult
	for _, doc := range s.documents {
		if !matchesFilter(doc, query.Filter) {
			continue
		}
		score := cosineSimilarity(query.Embedding, doc.Embedding)
		if score < query.MinScore {
			continue
		}
		candidates = append(candidates, vectorstore.SearchResult{
			Document: copyDocument(doc),
			Score:    score,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	if len(candidates) > query.TopK {
		candidates = candidates[:query.TopK]
	}
	return candidates, nil
}

// Delete removes documents by IDs. Missing IDs are ignored.
func (s *Store) Delete(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		delete(s.documents, id)
	}
	return nil
}

// Get retrieves documents by IDs. Missing IDs are skipped.
func (s *Store) Get(ctx context.Context, ids []string) ([]vectorstore.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]vectorstore.Document, 0, len(ids))
	for _, id := range ids {
		if doc, ok := s.documents[id]; ok {
			docs = append(docs, copyDocument(doc))
		}
	}
	return docs, nil
}

// List returns documents matching the filter, newest first.
func (s *Store) List(ctx context.Context, filter *vectorstore.MetadataFilter, limit int) ([]vectorstore.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var docs []vectorstore.Document
	for _, doc := range s.documents {
		if !matchesFilter(doc, filter) {
			continue
		}
		docs = append(docs, copyDocument(doc))
	}

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})

	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

// Close releases the index.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents = make(map[string]vectorstore.Document)
	return nil
}

// Count returns the number of stored documents.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.documents)
}

func matchesFilter(doc vectorstore.Document, filter *vectorstore.MetadataFilter) bool {
	if filter == nil {
		return true
	}
	for key, want := range filter.Must {
		got, ok := doc.Metadata[key]
		if !ok || got != want {
			return false
		}
	}
	return true
}

func cosineSimilarity(a, b []float32) float32 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

func copyDocument(doc vectorstore.Document) vectorstore.Document {
	out := doc
	out.Embedding = append([]float32(nil), doc.Embedding...)
	if doc.Metadata != nil {
		out.Metadata = make(map[string]any, len(doc.Metadata))
		for k, v := range doc.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}
