package memory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ashishjangde/gen-ai-bot/pkg/embeddings"
	"github.com/ashishjangde/gen-ai-bot/pkg/vectorstore"
)

const (
	kindFact    = "fact"
	kindHistory = "history"
)

// rememberTriggers gates which user messages are worth persisting as facts.
// The model never sees these; it is a cheap pre-filter before embedding.
var rememberTriggers = []string{
	"i prefer",
	"i like",
	"remember that",
	"my name is",
	"i am",
}

// WorthRemembering reports whether a user message looks like a durable
// personal fact rather than a transient question.
func WorthRemembering(text string) bool {
	lower := strings.ToLower(text)
	for _, trigger := range rememberTriggers {
		if strings.Contains(lower, trigger) {
			return true
		}
	}
	return false
}

// Fact is a stored user fact with its retrieval score.
type Fact struct {
	Content string
	Score   float32
}

// Match is a past exchange retrieved from the history index.
type Match struct {
	Role      string
	SessionID string
	Content   string
	Score     float32
}

// LongTermStore persists user facts and conversation history as embeddings,
// scoped by user so recall works across sessions.
type LongTermStore struct {
	store    vectorstore.VectorStore
	embedder embeddings.EmbeddingService
}

// NewLongTermStore builds a LongTermStore over the given index and embedder.
func NewLongTermStore(store vectorstore.VectorStore, embedder embeddings.EmbeddingService) *LongTermStore {
	return &LongTermStore{store: store, embedder: embedder}
}

// AddFact stores a user fact. The document ID is derived from the user and
// content, so re-stating the same fact overwrites instead of duplicating.
func (l *LongTermStore) AddFact(ctx context.Context, userID, content string) error {
	if content == "" {
		return fmt.Errorf("fact content cannot be empty")
	}

	emb, err := l.embedder.Embed(ctx, content)
	if err != nil {
		return fmt.Errorf("failed to embed fact: %w", err)
	}

	doc := vectorstore.Document{
		ID:        factID(userID, content),
		Content:   content,
		Embedding: emb,
		Metadata: map[string]any{
			"user_id": userID,
			"kind":    kindFact,
		},
		CreatedAt: time.Now(),
	}
	if err := l.store.Upsert(ctx, []vectorstore.Document{doc}); err != nil {
		return fmt.Errorf("failed to store fact: %w", err)
	}
	return nil
}

// SearchFacts returns the facts most relevant to the query for one user.
func (l *LongTermStore) SearchFacts(ctx context.Context, userID, query string, limit int) ([]Fact, error) {
	if limit <= 0 {
		limit = 3
	}

	emb, err := l.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	results, err := l.store.Search(ctx, vectorstore.SearchQuery{
		Embedding: emb,
		TopK:      limit,
		Filter: &vectorstore.MetadataFilter{Must: map[string]any{
			"user_id": userID,
			"kind":    kindFact,
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("fact search failed: %w", err)
	}

	facts := make([]Fact, 0, len(results))
	for _, r := range results {
		facts = append(facts, Fact{Content: r.Document.Content, Score: r.Score})
	}
	return facts, nil
}

// GetAllFacts lists every stored fact for a user, newest first.
func (l *LongTermStore) GetAllFacts(ctx context.Context, userID string) ([]string, error) {
	docs, err := l.store.List(ctx, &vectorstore.MetadataFilter{Must: map[string]any{
		"user_id": userID,
		"kind":    kindFact,
	}}, 0)
	if err != nil {
		return nil, fmt.Errorf("fact listing failed: %w", err)
	}

	facts := make([]string, 0, len(docs))
	for _, d := range docs {
		facts = append(facts, d.Content)
	}
	return facts, nil
}

// AddHistory indexes one message from a conversation turn. extra metadata
// (such as serialized sources for assistant messages) is merged in.
func (l *LongTermStore) AddHistory(ctx context.Context, userID, sessionID, role, content string, extra map[string]any) error {
	if content == "" {
		return fmt.Errorf("history content cannot be empty")
	}

	emb, err := l.embedder.Embed(ctx, content)
	if err != nil {
		return fmt.Errorf("failed to embed history: %w", err)
	}

	metadata := map[string]any{
		"user_id":    userID,
		"session_id": sessionID,
		"role":       role,
		"kind":       kindHistory,
	}
	for k, v := range extra {
		metadata[k] = v
	}

	doc := vectorstore.Document{
		ID:        uuid.NewString(),
		Content:   content,
		Embedding: emb,
		Metadata:  metadata,
		CreatedAt: time.Now(),
	}
	if err := l.store.Upsert(ctx, []vectorstore.Document{doc}); err != nil {
		return fmt.Errorf("failed to store history: %w", err)
	}
	return nil
}

// SearchHistory returns past exchanges most relevant to the query across all
// of a user's sessions.
func (l *LongTermStore) SearchHistory(ctx context.Context, userID, query string, limit int) ([]Match, error) {
	if limit <= 0 {
		limit = 3
	}

	emb, err := l.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	results, err := l.store.Search(ctx, vectorstore.SearchQuery{
		Embedding: emb,
		TopK:      limit,
		Filter: &vectorstore.MetadataFilter{Must: map[string]any{
			"user_id": userID,
			"kind":    kindHistory,
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("history search failed: %w", err)
	}

	matches := make([]Match, 0, len(results))
	for _, r := range results {
		m := Match{Content: r.Document.Content, Score: r.Score}
		if role, ok := r.Document.Metadata["role"].(string); ok {
			m.Role = role
		}
		if sid, ok := r.Document.Metadata["session_id"].(string); ok {
			m.SessionID = sid
		}
		matches = append(matches, m)
	}
	return matches, nil
}

func factID(userID, content string) string {
	sum := sha256.Sum256([]byte(userID + "\x00" + content))
	return hex.EncodeToString(sum[:])
}
