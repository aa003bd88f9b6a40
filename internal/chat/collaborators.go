package chat

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for session access.
var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionForbidden = errors.New("session belongs to another user")
)

// Session is the relational record for one conversation.
type Session struct {
	ID           string
	UserID       string
	Title        string
	MessageCount int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Repository is the relational message store, owned by the surrounding
// application. The pipeline only needs ownership checks and message writes.
type Repository interface {
	// GetSession returns the session or ErrSessionNotFound.
	GetSession(ctx context.Context, sessionID string) (*Session, error)

	// CreateMessage appends a message to a session's transcript. sources is
	// the serialized source attribution for assistant messages, "" otherwise.
	CreateMessage(ctx context.Context, sessionID, role, content, sources string) error

	// SessionHasFiles reports whether documents were uploaded in the session.
	SessionHasFiles(ctx context.Context, sessionID string) (bool, error)
}

// JobStatus describes one background job.
type JobStatus struct {
	ID        string
	Task      string
	State     string
	Error     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Job states.
const (
	JobPending = "pending"
	JobRunning = "running"
	JobDone    = "done"
	JobFailed  = "failed"
)

// JobQueue runs deferred work such as document ingestion.
type JobQueue interface {
	Enqueue(ctx context.Context, task string, payload []byte, priority int) (string, error)
	GetStatus(ctx context.Context, jobID string) (*JobStatus, error)
}

// ObjectStore hands uploaded files to the document pipeline.
type ObjectStore interface {
	IngestFile(ctx context.Context, key string) error
}
