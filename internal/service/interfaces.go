// Package service defines the interfaces shared between application components.
package service

import (
	"context"
	"log/slog"
	"time"
)

// Document is a unit of text held by the retrieval index.
type Document struct {
	CreatedAt time.Time
	Source    string
	Content   string
	ID        int64
}

// HistoryEntry is one question/answer exchange.
type HistoryEntry struct {
	AskedAt  time.Time
	ID       string
	Question string
	Answer   string
}

// Answerer produces an answer for a question given retrieved context.
type Answerer interface {
	Answer(ctx context.Context, question, contextText string) (string, error)
}

// DocumentIndex stores report documents and retrieves the ones most relevant
// to a query.
type DocumentIndex interface {
	// Index replaces the indexed documents with docs.
	Index(ctx context.Context, docs []Document) error
	Retrieve(ctx context.Context, query string, k int) ([]Document, error)
	CountDocuments(ctx context.Context) (int, error)
}

// HistoryStore persists the conversation history.
type HistoryStore interface {
	Append(ctx context.Context, question, answer string) error
	// Read returns the full history rendered as text, empty when there is none.
	Read(ctx context.Context) (string, error)
	Entries(ctx context.Context) ([]HistoryEntry, error)
	Clear(ctx context.Context) error
}

// RetryOptions configures retry behavior for operations. Retry warnings go
// to Logger, or to slog.Default when it is nil.
type RetryOptions struct {
	OnRetry      func(attempt int, err error)
	Logger       *slog.Logger
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
