package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	stmKeyPrefix     = "stm:"
	summaryKeyPrefix = "stm:summary:"
)

// ShortTermStore keeps the recent conversation window per session in Redis.
// The window is capped at maxMessages and expires ttl after the last write,
// so idle sessions clean themselves up.
type ShortTermStore struct {
	client      *redis.Client
	maxMessages int
	ttl         time.Duration

	mu     sync.RWMutex
	closed bool
}

// ShortTermOptions configures a ShortTermStore.
type ShortTermOptions struct {
	// Addr is the Redis server address, e.g. "localhost:6379".
	Addr string

	// Password for Redis AUTH (optional).
	Password string

	// DB is the Redis database number.
	DB int

	// MaxMessages caps the window length (default 20).
	MaxMessages int

	// TTL is the sliding expiry applied on every write (default 1h).
	TTL time.Duration
}

// NewShortTermStore connects to Redis and verifies the connection.
func NewShortTermStore(ctx context.Context, opts ShortTermOptions) (*ShortTermStore, error) {
	if opts.MaxMessages <= 0 {
		opts.MaxMessages = 20
	}
	if opts.TTL <= 0 {
		opts.TTL = time.Hour
	}

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &ShortTermStore{
		client:      client,
		maxMessages: opts.MaxMessages,
		ttl:         opts.TTL,
	}, nil
}

// NewShortTermStoreWithClient wraps an existing Redis client. Used in tests.
func NewShortTermStoreWithClient(client *redis.Client, maxMessages int, ttl time.Duration) *ShortTermStore {
	if maxMessages <= 0 {
		maxMessages = 20
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ShortTermStore{client: client, maxMessages: maxMessages, ttl: ttl}
}

// Append adds entries to the session window, trims it to the cap, and
// refreshes the TTL. All three steps run in one pipeline round trip.
func (s *ShortTermStore) Append(ctx context.Context, sessionID string, entries ...Entry) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	if len(entries) == 0 {
		return nil
	}

	values := make([]interface{}, 0, len(entries))
	for _, e := range entries {
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("failed to marshal entry: %w", err)
		}
		values = append(values, data)
	}

	key := stmKeyPrefix + sessionID
	pipe := s.client.Pipeline()
	pipe.RPush(ctx, key, values...)
	pipe.LTrim(ctx, key, int64(-s.maxMessages), -1)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append to session %s: %w", sessionID, err)
	}
	return nil
}

// Recent returns the last limit entries in chronological order.
// limit <= 0 returns the whole window. A missing session yields an empty slice.
func (s *ShortTermStore) Recent(ctx context.Context, sessionID string, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	start := int64(0)
	if limit > 0 {
		start = int64(-limit)
	}

	raw, err := s.client.LRange(ctx, stmKeyPrefix+sessionID, start, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read session %s: %w", sessionID, err)
	}

	entries := make([]Entry, 0, len(raw))
	for _, item := range raw {
		var e Entry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			return nil, fmt.Errorf("corrupt entry in session %s: %w", sessionID, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Len returns the current window length for a session.
func (s *ShortTermStore) Len(ctx context.Context, sessionID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, ErrStoreClosed
	}

	n, err := s.client.LLen(ctx, stmKeyPrefix+sessionID).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get length of session %s: %w", sessionID, err)
	}
	return int(n), nil
}

// Clear removes the window and summary for a session.
func (s *ShortTermStore) Clear(ctx context.Context, sessionID string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}

	if err := s.client.Del(ctx, stmKeyPrefix+sessionID, summaryKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("failed to clear session %s: %w", sessionID, err)
	}
	return nil
}

// Summary returns the rolling summary for a session, or "" if none exists.
func (s *ShortTermStore) Summary(ctx context.Context, sessionID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return "", ErrStoreClosed
	}

	val, err := s.client.Get(ctx, summaryKeyPrefix+sessionID).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get summary for session %s: %w", sessionID, err)
	}
	return val, nil
}

// SetSummary overwrites the rolling summary for a session.
func (s *ShortTermStore) SetSummary(ctx context.Context, sessionID, summary string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}

	if err := s.client.Set(ctx, summaryKeyPrefix+sessionID, summary, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set summary for session %s: %w", sessionID, err)
	}
	return nil
}

// Close closes the underlying Redis connection.
func (s *ShortTermStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.client.Close()
}
