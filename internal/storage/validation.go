// Package storage provides the SQLite persistence layer: the report document
// index used for retrieval and the chat history.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/GuilhermeLVL/Onfly-RPA/internal/service"
)

// Validation errors.
var (
	ErrNilContext      = errors.New("context cannot be nil")
	ErrEmptyString     = errors.New("string parameter cannot be empty")
	ErrInvalidDocument = errors.New("invalid document")
	ErrInvalidLimit    = errors.New("limit must be positive")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateDocuments(docs []service.Document) error {
	for i, doc := range docs {
		if strings.TrimSpace(doc.Content) == "" {
			return fmt.Errorf("%w: document at index %d has no content", ErrInvalidDocument, i)
		}
		if strings.TrimSpace(doc.Source) == "" {
			return fmt.Errorf("%w: document at index %d has no source", ErrInvalidDocument, i)
		}
	}
	return nil
}
