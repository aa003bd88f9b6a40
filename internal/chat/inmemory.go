package chat

import (
	"container/heap"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryRepository implements Repository for tests and single-process use.
type InMemoryRepository struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	hasFiles map[string]bool
}

// NewInMemoryRepository creates an empty repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		sessions: make(map[string]*Session),
		hasFiles: make(map[string]bool),
	}
}

// CreateSession registers a session for a user and returns it.
func (r *InMemoryRepository) CreateSession(userID, title string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	s := &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.sessions[s.ID] = s
	return s
}

func (r *InMemoryRepository) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	out := *s
	return &out, nil
}

func (r *InMemoryRepository) CreateMessage(ctx context.Context, sessionID, role, content, sources string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	s.MessageCount++
	s.UpdatedAt = time.Now()
	return nil
}

func (r *InMemoryRepository) SessionHasFiles(ctx context.Context, sessionID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.sessions[sessionID]; !ok {
		return false, ErrSessionNotFound
	}
	return r.hasFiles[sessionID], nil
}

// MarkHasFiles records that documents were uploaded in a session.
func (r *InMemoryRepository) MarkHasFiles(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hasFiles[sessionID] = true
}

// InMemoryJobQueue is a priority-ordered job queue processed by a single
// worker goroutine.
type InMemoryJobQueue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   jobHeap
	status  map[string]*JobStatus
	handler func(ctx context.Context, task string, payload []byte) error
	closed  bool
}

type queuedJob struct {
	id       string
	task     string
	payload  []byte
	priority int
	seq      int
}

type jobHeap []*queuedJob

func (h jobHeap) Len() int { return len(h) }
func (h jobHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority > h[j].priority
	}
	return h[i].seq < h[j].seq
}
func (h jobHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *jobHeap) Push(x any)   { *h = append(*h, x.(*queuedJob)) }
func (h *jobHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// NewInMemoryJobQueue starts a queue whose jobs are executed by handler.
func NewInMemoryJobQueue(handler func(ctx context.Context, task string, payload []byte) error) *InMemoryJobQueue {
	q := &InMemoryJobQueue{
		status:  make(map[string]*JobStatus),
		handler: handler,
	}
	q.cond = sync.NewCond(&q.mu)
	go q.worker()
	return q
}

func (q *InMemoryJobQueue) Enqueue(ctx context.Context, task string, payload []byte, priority int) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return "", fmt.Errorf("job queue is closed")
	}

	id := uuid.NewString()
	now := time.Now()
	q.status[id] = &JobStatus{ID: id, Task: task, State: JobPending, CreatedAt: now, UpdatedAt: now}
	heap.Push(&q.queue, &queuedJob{id: id, task: task, payload: payload, priority: priority, seq: len(q.status)})
	q.cond.Signal()
	return id, nil
}

func (q *InMemoryJobQueue) GetStatus(ctx context.Context, jobID string) (*JobStatus, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	st, ok := q.status[jobID]
	if !ok {
		return nil, fmt.Errorf("unknown job %s", jobID)
	}
	out := *st
	return &out, nil
}

// Close stops the worker after the current job.
func (q *InMemoryJobQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.cond.Broadcast()
	q.mu.Unlock()
}

func (q *InMemoryJobQueue) worker() {
	for {
		q.mu.Lock()
		for q.queue.Len() == 0 && !q.closed {
			q.cond.Wait()
		}
		if q.queue.Len() == 0 && q.closed {
			q.mu.Unlock()
			return
		}
		job := heap.Pop(&q.queue).(*queuedJob)
		st := q.status[job.id]
		st.State = JobRunning
		st.UpdatedAt = time.Now()
		q.mu.Unlock()

		err := q.handler(context.Background(), job.task, job.payload)

		q.mu.Lock()
		if err != nil {
			st.State = JobFailed
			st.Error = err.Error()
		} else {
			st.State = JobDone
		}
		st.UpdatedAt = time.Now()
		q.mu.Unlock()
	}
}
