package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ashishjangde/gen-ai-bot/pkg/embeddings"
	"github.com/ashishjangde/gen-ai-bot/pkg/vectorstore"
)

const defaultDocumentLimit = 3

// DocumentGateway retrieves chunks from the user's uploaded documents.
type DocumentGateway struct {
	store    vectorstore.VectorStore
	embedder embeddings.EmbeddingService
	limit    int
}

// NewDocumentGateway builds a DocumentGateway over the given index.
func NewDocumentGateway(store vectorstore.VectorStore, embedder embeddings.EmbeddingService) *DocumentGateway {
	return &DocumentGateway{store: store, embedder: embedder, limit: defaultDocumentLimit}
}

// AddTexts indexes document chunks for a user's session.
func (d *DocumentGateway) AddTexts(ctx context.Context, userID, sessionID string, texts []string) error {
	if len(texts) == 0 {
		return nil
	}

	embs, err := d.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed documents: %w", err)
	}
	if len(embs) != len(texts) {
		return fmt.Errorf("embedding count mismatch: %d texts, %d embeddings", len(texts), len(embs))
	}

	docs := make([]vectorstore.Document, len(texts))
	for i, text := range texts {
		docs[i] = vectorstore.Document{
			ID:        uuid.NewString(),
			Content:   text,
			Embedding: embs[i],
			Metadata: map[string]any{
				"user_id":    userID,
				"session_id": sessionID,
			},
			CreatedAt: time.Now(),
		}
	}
	if err := d.store.Upsert(ctx, docs); err != nil {
		return fmt.Errorf("failed to index documents: %w", err)
	}
	return nil
}

// Search retrieves the most relevant chunks for a user. When sessionID is
// non-empty, results are restricted to that session's uploads.
func (d *DocumentGateway) Search(ctx context.Context, userID, sessionID, query string) ([]Result, error) {
	if query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}

	emb, err := d.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	must := map[string]any{"user_id": userID}
	if sessionID != "" {
		must["session_id"] = sessionID
	}

	hits, err := d.store.Search(ctx, vectorstore.SearchQuery{
		Embedding: emb,
		TopK:      d.limit,
		Filter:    &vectorstore.MetadataFilter{Must: must},
	})
	if err != nil {
		return nil, fmt.Errorf("document search failed: %w", err)
	}

	results := make([]Result, 0, len(hits))
	for _, h := range hits {
		title := "Document"
		if name, ok := h.Document.Metadata["filename"].(string); ok {
			title = name
		}
		results = append(results, Result{
			Content: h.Document.Content,
			Source:  "document",
			Title:   title,
			Score:   h.Score,
		})
	}
	return results, nil
}
