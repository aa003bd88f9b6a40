package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepositorySessionLifecycle(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	sess := repo.CreateSession("alice", "my chat")
	got, err := repo.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.UserID)
	assert.Equal(t, "my chat", got.Title)

	_, err = repo.GetSession(ctx, "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRepositoryMessageBookkeeping(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	sess := repo.CreateSession("alice", "chat")

	require.NoError(t, repo.CreateMessage(ctx, sess.ID, "user", "hi", ""))
	require.NoError(t, repo.CreateMessage(ctx, sess.ID, "assistant", "hello", "[]"))

	got, err := repo.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.MessageCount)
	assert.False(t, got.UpdatedAt.Before(got.CreatedAt))

	err = repo.CreateMessage(ctx, "nope", "user", "hi", "")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRepositoryHasFiles(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	sess := repo.CreateSession("alice", "chat")

	has, err := repo.SessionHasFiles(ctx, sess.ID)
	require.NoError(t, err)
	assert.False(t, has)

	repo.MarkHasFiles(sess.ID)
	has, _ = repo.SessionHasFiles(ctx, sess.ID)
	assert.True(t, has)
}

func TestJobQueueRunsJobs(t *testing.T) {
	var mu sync.Mutex
	var ran []string
	done := make(chan struct{}, 3)

	q := NewInMemoryJobQueue(func(ctx context.Context, task string, payload []byte) error {
		mu.Lock()
		ran = append(ran, task+":"+string(payload))
		mu.Unlock()
		done <- struct{}{}
		if task == "bad" {
			return errors.New("boom")
		}
		return nil
	})
	defer q.Close()

	ctx := context.Background()
	okID, err := q.Enqueue(ctx, "ingest", []byte("file.txt"), 0)
	require.NoError(t, err)
	badID, err := q.Enqueue(ctx, "bad", []byte("x"), 0)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("jobs did not run")
		}
	}

	require.Eventually(t, func() bool {
		st, err := q.GetStatus(ctx, okID)
		return err == nil && st.State == JobDone
	}, 2*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		st, err := q.GetStatus(ctx, badID)
		return err == nil && st.State == JobFailed && st.Error == "boom"
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, ran, "ingest:file.txt")

	_, err = q.GetStatus(ctx, "nope")
	assert.Error(t, err)
}

func TestJobQueueClosedRejectsEnqueue(t *testing.T) {
	q := NewInMemoryJobQueue(func(ctx context.Context, task string, payload []byte) error { return nil })
	q.Close()
	_, err := q.Enqueue(context.Background(), "t", nil, 0)
	assert.Error(t, err)
}
