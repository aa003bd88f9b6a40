// Package gateway contains the clients for external retrieval backends:
// web search, the document index, and market data.
package gateway

// Result is a single retrieved item, normalized across backends.
type Result struct {
	Content string
	Source  string
	Title   string
	Score   float32
}
