package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/GuilhermeLVL/Onfly-RPA/internal/service"
)

// Index replaces every stored document with docs and rebuilds the term index.
func (s *SQLiteStorage) Index(ctx context.Context, docs []service.Document) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateDocuments(docs); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, query := range []string{`DELETE FROM document_terms`, `DELETE FROM documents`} {
		if _, err := tx.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to clear index: %w", err)
		}
	}

	docStmt, err := tx.PrepareContext(ctx, `INSERT INTO documents (source, content) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare document insert: %w", err)
	}
	defer func() { _ = docStmt.Close() }()

	termStmt, err := tx.PrepareContext(ctx, `INSERT INTO document_terms (document_id, term, frequency) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare term insert: %w", err)
	}
	defer func() { _ = termStmt.Close() }()

	for _, doc := range docs {
		res, err := docStmt.ExecContext(ctx, doc.Source, doc.Content)
		if err != nil {
			return fmt.Errorf("failed to insert document: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read document id: %w", err)
		}
		for term, freq := range Terms(doc.Content) {
			if _, err := termStmt.ExecContext(ctx, id, term, freq); err != nil {
				return fmt.Errorf("failed to insert term: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit index: %w", err)
	}
	return nil
}

// Retrieve returns up to k documents ranked by how many distinct query terms
// they contain, then by total term frequency. When fewer than k documents
// match, the remainder is filled with other documents in insertion order.
func (s *SQLiteStorage) Retrieve(ctx context.Context, query string, k int) ([]service.Document, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, ErrInvalidLimit
	}

	docs := []service.Document{}
	seen := map[int64]bool{}

	terms := Terms(query)
	if len(terms) > 0 {
		placeholders := make([]string, 0, len(terms))
		args := make([]any, 0, len(terms)+1)
		for term := range terms {
			placeholders = append(placeholders, "?")
			args = append(args, term)
		}
		args = append(args, k)

		rows, err := s.db.QueryContext(ctx, `
			SELECT d.id, d.source, d.content, d.created_at
			FROM document_terms t
			JOIN documents d ON d.id = t.document_id
			WHERE t.term IN (`+strings.Join(placeholders, ",")+`)
			GROUP BY d.id
			ORDER BY COUNT(*) DESC, SUM(t.frequency) DESC, d.id ASC
			LIMIT ?`, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to query documents: %w", err)
		}
		matched, err := scanDocuments(rows)
		if err != nil {
			return nil, err
		}
		for _, d := range matched {
			seen[d.ID] = true
			docs = append(docs, d)
		}
	}

	if len(docs) >= k {
		return docs, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, content, created_at FROM documents ORDER BY id ASC LIMIT ?`, k+len(seen))
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	rest, err := scanDocuments(rows)
	if err != nil {
		return nil, err
	}
	for _, d := range rest {
		if len(docs) >= k {
			break
		}
		if !seen[d.ID] {
			docs = append(docs, d)
		}
	}
	return docs, nil
}

// CountDocuments returns the number of indexed documents.
func (s *SQLiteStorage) CountDocuments(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return n, nil
}

func scanDocuments(rows *sql.Rows) ([]service.Document, error) {
	defer func() { _ = rows.Close() }()

	var docs []service.Document
	for rows.Next() {
		var d service.Document
		if err := rows.Scan(&d.ID, &d.Source, &d.Content, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}
	return docs, nil
}
