package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/GuilhermeLVL/Onfly-RPA/internal/service"
)

// historySeparator closes every rendered history entry.
var historySeparator = strings.Repeat("-", 40)

// Append records one question and its answer.
func (s *SQLiteStorage) Append(ctx context.Context, question, answer string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(question, "question"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_history (id, question, answer, asked_at) VALUES (?, ?, ?, ?)`,
		uuid.NewString(), question, answer, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save chat history: %w", err)
	}
	return nil
}

// Entries returns the history oldest first.
func (s *SQLiteStorage) Entries(ctx context.Context) ([]service.HistoryEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, question, answer, asked_at FROM chat_history ORDER BY asked_at ASC, rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query chat history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := []service.HistoryEntry{}
	for rows.Next() {
		var e service.HistoryEntry
		if err := rows.Scan(&e.ID, &e.Question, &e.Answer, &e.AskedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat history: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Read renders the whole history as text, one block per exchange.
func (s *SQLiteStorage) Read(ctx context.Context) (string, error) {
	entries, err := s.Entries(ctx)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "[%s]\nPergunta: %s\nResposta: %s\n%s\n",
			e.AskedAt.Local().Format(time.RFC3339), e.Question, e.Answer, historySeparator)
	}
	return b.String(), nil
}

// Clear removes every history entry.
func (s *SQLiteStorage) Clear(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chat_history`); err != nil {
		return fmt.Errorf("failed to clear chat history: %w", err)
	}
	return nil
}
