package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/GuilhermeLVL/Onfly-RPA/internal/metrics"
	"github.com/GuilhermeLVL/Onfly-RPA/internal/report"
	"github.com/GuilhermeLVL/Onfly-RPA/internal/service"
)

var (
	// ErrEmptyQuestion is returned when Ask receives a blank question.
	ErrEmptyQuestion = errors.New("question is empty")
	// ErrUnavailable is returned when there is no answer service or nothing
	// has been indexed yet.
	ErrUnavailable = errors.New("assistant unavailable")
)

// DefaultTopK is the number of documents retrieved per question.
const DefaultTopK = 25

// Context section headers.
const (
	previousHeader = "=== CONTEXTO ANTERIOR ==="
	currentHeader  = "=== DADOS ATUAIS ==="
	historyHeader  = "=== HISTÓRICO DE CONVERSAS ==="
	dataHeader     = "=== DADOS ESTRUTURADOS ANTERIORES ==="
)

// Options configures an Assistant.
type Options struct {
	DataDir  string
	ChartDir string
	TopK     int
}

// Reply is an answer plus the files its structured data was saved to.
type Reply struct {
	Answer    string
	DataFiles []string
}

// Assistant answers questions against the indexed report.
type Assistant struct {
	index    service.DocumentIndex
	history  service.HistoryStore
	answerer service.Answerer
	logger   *slog.Logger
	now      func() time.Time
	opts     Options
}

// NewAssistant wires an Assistant to its collaborators. A nil answerer
// leaves history and chat data usable while Ask reports ErrUnavailable.
func NewAssistant(index service.DocumentIndex, history service.HistoryStore, answerer service.Answerer, opts Options, logger *slog.Logger) *Assistant {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	return &Assistant{
		index:    index,
		history:  history,
		answerer: answerer,
		logger:   logger,
		now:      time.Now,
		opts:     opts,
	}
}

// Ask retrieves the documents relevant to question, asks the answer service,
// records the exchange and saves any structured data in the answer.
func (a *Assistant) Ask(ctx context.Context, question string) (Reply, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Reply{}, ErrEmptyQuestion
	}
	if a.answerer == nil {
		return Reply{}, fmt.Errorf("%w: no answer service configured", ErrUnavailable)
	}

	indexed, err := a.index.CountDocuments(ctx)
	if err != nil {
		return Reply{}, fmt.Errorf("failed to count documents: %w", err)
	}
	if indexed == 0 {
		return Reply{}, fmt.Errorf("%w: no documents indexed", ErrUnavailable)
	}

	docs, err := a.index.Retrieve(ctx, question, a.opts.TopK)
	if err != nil {
		metrics.Answers.WithLabelValues(metrics.OutcomeFailure).Inc()
		return Reply{}, fmt.Errorf("failed to retrieve documents: %w", err)
	}
	a.logger.Debug("Retrieved documents", "count", len(docs))

	answer, err := a.answerer.Answer(ctx, question, a.buildContext(ctx, docs))
	if err != nil {
		metrics.Answers.WithLabelValues(metrics.OutcomeFailure).Inc()
		return Reply{}, err
	}
	metrics.Answers.WithLabelValues(metrics.OutcomeSuccess).Inc()

	if err := a.history.Append(ctx, question, answer); err != nil {
		a.logger.Warn("Failed to save chat history", "error", err)
	}

	reply := Reply{Answer: answer}
	if data := ExtractStructured(answer); !data.Empty() {
		paths, err := SaveStructured(a.opts.DataDir, data, a.now())
		if err != nil {
			a.logger.Warn("Failed to save structured data", "error", err)
		}
		for _, p := range paths {
			a.logger.Info("Saved structured data from answer", "path", p)
		}
		reply.DataFiles = paths
	}
	return reply, nil
}

func (a *Assistant) buildContext(ctx context.Context, docs []service.Document) string {
	contents := make([]string, 0, len(docs))
	for _, d := range docs {
		contents = append(contents, d.Content)
	}

	var b strings.Builder
	if previous := a.previousContext(ctx); previous != "" {
		b.WriteString(previousHeader + "\n")
		b.WriteString(previous)
		b.WriteString("\n\n")
	}
	b.WriteString(currentHeader + "\n")
	b.WriteString(strings.Join(contents, "\n"))
	return b.String()
}

// previousContext renders the conversation history and the structured data
// saved from earlier answers. Unreadable parts are skipped.
func (a *Assistant) previousContext(ctx context.Context) string {
	var parts []string

	history, err := a.history.Read(ctx)
	if err != nil {
		a.logger.Warn("Failed to read chat history", "error", err)
	} else if strings.TrimSpace(history) != "" {
		parts = append(parts, historyHeader+"\n"+history)
	}

	files, err := a.ListChatData()
	if err != nil {
		a.logger.Warn("Failed to list chat data", "error", err)
	}

	var data []string
	for _, name := range files {
		path := filepath.Join(a.opts.DataDir, name)
		switch strings.ToLower(filepath.Ext(name)) {
		case ".csv":
			t, err := report.ReadCSV(path)
			if err != nil {
				a.logger.Warn("Skipping unreadable chat data", "path", path, "error", err)
				continue
			}
			data = append(data, fmt.Sprintf("CSV (%s):\n%s", name, report.RenderTable(t.Columns, t.Rows)))
		case ".json":
			raw, err := os.ReadFile(path) //nolint:gosec // file lives in the chat data directory
			if err != nil {
				a.logger.Warn("Skipping unreadable chat data", "path", path, "error", err)
				continue
			}
			var buf bytes.Buffer
			if err := json.Indent(&buf, raw, "", "  "); err != nil {
				a.logger.Warn("Skipping invalid JSON chat data", "path", path, "error", err)
				continue
			}
			data = append(data, fmt.Sprintf("JSON (%s):\n%s", name, buf.String()))
		}
	}
	if len(data) > 0 {
		parts = append(parts, dataHeader+"\n"+strings.Join(data, "\n\n"))
	}

	return strings.Join(parts, "\n\n")
}

// ListChatData returns the names of the saved data files, sorted. A missing
// directory yields an empty list.
func (a *Assistant) ListChatData() ([]string, error) {
	entries, err := os.ReadDir(a.opts.DataDir)
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read chat data directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// History returns the recorded exchanges, oldest first.
func (a *Assistant) History(ctx context.Context) ([]service.HistoryEntry, error) {
	return a.history.Entries(ctx)
}

// HistoryText returns the history rendered as text.
func (a *Assistant) HistoryText(ctx context.Context) (string, error) {
	return a.history.Read(ctx)
}

// ChatFile is a saved data file with its decoded content.
type ChatFile struct {
	Content  any    `json:"content"`
	Filename string `json:"filename"`
	Type     string `json:"type"`
}

// ChatData loads every saved data file. CSV files become a list of
// column-keyed records and JSON files keep their document. Unreadable files
// are skipped.
func (a *Assistant) ChatData() ([]ChatFile, error) {
	names, err := a.ListChatData()
	if err != nil {
		return nil, err
	}

	files := make([]ChatFile, 0, len(names))
	for _, name := range names {
		path := filepath.Join(a.opts.DataDir, name)
		switch strings.ToLower(filepath.Ext(name)) {
		case ".csv":
			t, err := report.ReadCSV(path)
			if err != nil {
				a.logger.Warn("Skipping unreadable chat data", "path", path, "error", err)
				continue
			}
			files = append(files, ChatFile{Filename: name, Type: "csv", Content: t.Records()})
		case ".json":
			raw, err := os.ReadFile(path) //nolint:gosec // file lives in the chat data directory
			if err != nil || !json.Valid(raw) {
				a.logger.Warn("Skipping unreadable chat data", "path", path, "error", err)
				continue
			}
			files = append(files, ChatFile{Filename: name, Type: "json", Content: json.RawMessage(raw)})
		}
	}
	return files, nil
}

// ClearContext forgets the conversation: it clears the history and removes
// the saved chat data and generated charts.
func (a *Assistant) ClearContext(ctx context.Context) error {
	var errs []error
	if err := a.history.Clear(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to clear history: %w", err))
	}
	for _, dir := range []string{a.opts.DataDir, a.opts.ChartDir} {
		if dir == "" {
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			errs = append(errs, fmt.Errorf("failed to remove %s: %w", dir, err))
			continue
		}
		a.logger.Info("Removed chat outputs", "dir", dir)
	}
	return errors.Join(errs...)
}
