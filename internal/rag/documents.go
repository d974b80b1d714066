// Package rag answers questions about the generated report. It builds the
// retrieval documents, assembles the answer context from the index and the
// conversation history, and keeps the structured data found in answers.
package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/GuilhermeLVL/Onfly-RPA/internal/report"
	"github.com/GuilhermeLVL/Onfly-RPA/internal/service"
)

// Document sources.
const (
	SourceCSV    = "csv"
	SourceReport = "report"
)

// ChunkOptions sizes the report chunks.
type ChunkOptions struct {
	Size    int
	Overlap int
}

// DocumentsFromTable builds one document per report row.
func DocumentsFromTable(t report.Table) []service.Document {
	cols := []struct {
		label   string
		aliases []string
	}{
		{"Nome", []string{report.ColName}},
		{"Tipos", []string{report.ColTypes}},
		{"Experiencia", []string{report.ColExperience}},
		{"HP", []string{report.ColHP}},
		{"Ataque", []string{report.ColAttack}},
		{"Defesa", []string{report.ColDefense}},
		{"Categoria", []string{report.ColCategory}},
	}

	idx := make([]int, len(cols))
	for i, c := range cols {
		idx[i], _ = t.Index(c.aliases...)
	}

	docs := make([]service.Document, 0, len(t.Rows))
	for _, row := range t.Rows {
		parts := make([]string, len(cols))
		for i, c := range cols {
			value := ""
			if idx[i] >= 0 && idx[i] < len(row) {
				value = row[idx[i]]
			}
			parts[i] = c.label + ": " + value
		}
		docs = append(docs, service.Document{Source: SourceCSV, Content: strings.Join(parts, ", ")})
	}
	return docs
}

// DocumentsFromCSV reads the exported CSV report and converts its rows.
// A missing or empty file yields no documents.
func DocumentsFromCSV(path string) ([]service.Document, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) || (err == nil && info.Size() == 0) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	t, err := report.ReadCSV(path)
	if err != nil {
		return nil, err
	}
	return DocumentsFromTable(t), nil
}

// ChunkReport splits the consolidated report text into overlapping chunks.
func ChunkReport(text string, opts ChunkOptions) ([]service.Document, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(opts.Size),
		textsplitter.WithChunkOverlap(opts.Overlap),
	)
	chunks, err := splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("failed to split report: %w", err)
	}

	docs := make([]service.Document, 0, len(chunks))
	for _, chunk := range chunks {
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		docs = append(docs, service.Document{Source: SourceReport, Content: chunk})
	}
	return docs, nil
}

// Indexer rebuilds the document index from the pipeline artifacts.
type Indexer struct {
	index  service.DocumentIndex
	logger *slog.Logger
	chunks ChunkOptions
}

// NewIndexer creates an Indexer writing into index.
func NewIndexer(index service.DocumentIndex, chunks ChunkOptions, logger *slog.Logger) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	if chunks.Size <= 0 {
		chunks.Size = 1000
	}
	if chunks.Overlap < 0 || chunks.Overlap >= chunks.Size {
		chunks.Overlap = 0
	}
	return &Indexer{index: index, chunks: chunks, logger: logger}
}

// Build indexes the CSV rows and the report chunks and returns how many
// documents were stored. With nothing to index the previous index is kept.
func (ix *Indexer) Build(ctx context.Context, csvPath, reportPath string) (int, error) {
	docs, err := DocumentsFromCSV(csvPath)
	if err != nil {
		return 0, err
	}

	if reportPath != "" {
		raw, err := os.ReadFile(reportPath) //nolint:gosec // path comes from config
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return 0, fmt.Errorf("failed to read report: %w", err)
		default:
			chunks, err := ChunkReport(string(raw), ix.chunks)
			if err != nil {
				return 0, err
			}
			docs = append(docs, chunks...)
		}
	}

	if len(docs) == 0 {
		ix.logger.Warn("No documents to index", "csv", csvPath)
		return 0, nil
	}

	if err := ix.index.Index(ctx, docs); err != nil {
		return 0, fmt.Errorf("failed to index documents: %w", err)
	}

	ix.logger.Info("Indexed report documents", "count", len(docs))
	return len(docs), nil
}
