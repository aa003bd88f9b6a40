// Package memory implements the two memory tiers of the assistant:
// a Redis-backed short-term window of recent turns with a rolling summary,
// and a vector-indexed long-term store of user facts and past exchanges.
package memory

import "errors"

// Entry is a single message in the short-term conversation window.
type Entry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ErrStoreClosed is returned when operations are attempted on a closed store.
var ErrStoreClosed = errors.New("memory store is closed")
