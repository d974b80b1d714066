package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/GuilhermeLVL/Onfly-RPA/internal/cache"
	"github.com/GuilhermeLVL/Onfly-RPA/internal/cli"
	"github.com/GuilhermeLVL/Onfly-RPA/internal/extract"
	"github.com/GuilhermeLVL/Onfly-RPA/internal/llm"
	"github.com/GuilhermeLVL/Onfly-RPA/internal/pipeline"
	"github.com/GuilhermeLVL/Onfly-RPA/internal/rag"
	"github.com/GuilhermeLVL/Onfly-RPA/internal/report"
	"github.com/GuilhermeLVL/Onfly-RPA/internal/service"
	"github.com/GuilhermeLVL/Onfly-RPA/internal/storage"
)

// initStorage opens the database and brings its schema up to date.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

func newRenderer() report.Renderer {
	return report.NewRenderer(cfg.Chart.WidthIn, cfg.Chart.HeightIn, cfg.Chart.DPI)
}

func newChartMaker() *report.ChartMaker {
	return report.NewChartMaker(newRenderer(), cfg.Chart.Dir, slog.Default())
}

func newIndexer(store *storage.SQLiteStorage) *rag.Indexer {
	return rag.NewIndexer(store, rag.ChunkOptions{Size: cfg.Chat.ChunkSize, Overlap: cfg.Chat.ChunkOverlap}, slog.Default())
}

// newRunner wires the pipeline. progress may be nil to draw no bar.
func newRunner(store *storage.SQLiteStorage, progress io.Writer) *pipeline.Runner {
	var cacheStore *cache.Store
	if cfg.Cache.Enabled {
		cacheStore = cache.NewStore(cfg.Cache.Path, slog.Default())
	}

	fetcher := extract.New(extract.Options{
		BaseURL:        cfg.API.BaseURL,
		Count:          cfg.API.Count,
		Timeout:        cfg.API.Timeout,
		MaxRetries:     cfg.API.MaxRetries,
		Backoff:        cfg.API.Backoff,
		Workers:        cfg.API.Workers,
		UseCache:       cfg.Cache.Enabled,
		SampleFallback: cfg.API.SampleFallback,
	}, cacheStore, slog.Default())
	if progress != nil {
		fetcher.WithProgress(cli.FetchProgress(progress))
	}

	var indexer pipeline.Indexer
	if store != nil {
		indexer = newIndexer(store)
	}

	return pipeline.NewRunner(fetcher, indexer, newRenderer(), pipeline.Outputs{
		CSVPath:    cfg.Output.CSVPath,
		ChartPath:  cfg.Output.ChartPath,
		ReportPath: cfg.Output.ReportPath,
		TopN:       cfg.Output.TopN,
	}, slog.Default())
}

// newAnswerer builds the answer client. Without an API key it returns nil
// and the assistant reports itself unavailable.
func newAnswerer() (*llm.Answerer, error) {
	resolved, err := llm.Resolve(llm.Config{
		Provider:    cfg.LLM.Provider,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		BaseURL:     cfg.LLM.BaseURL,
		MaxRetries:  cfg.LLM.MaxRetries,
		RetryDelay:  cfg.LLM.RetryDelay,
		RateLimit:   cfg.LLM.RateLimit,
		Temperature: float32(cfg.LLM.Temperature),
	}, os.Getenv)
	if err != nil {
		slog.Warn("Answer service not configured", "error", err)
		return nil, nil //nolint:nilerr // a missing key disables chat only
	}
	return llm.NewAnswerer(resolved, slog.Default())
}

// newAssistant wires the assistant and the answerer; the returned func
// releases the answerer.
func newAssistant(store *storage.SQLiteStorage) (*rag.Assistant, func(), error) {
	answerer, err := newAnswerer()
	if err != nil {
		return nil, nil, err
	}

	var a service.Answerer
	release := func() {}
	if answerer != nil {
		a = answerer
		release = answerer.Close
	}

	assistant := rag.NewAssistant(store, store, a, rag.Options{
		DataDir:  cfg.Chat.DataDir,
		ChartDir: cfg.Chart.Dir,
		TopK:     cfg.Chat.TopK,
	}, slog.Default())
	return assistant, release, nil
}

// ensureIndex indexes the existing report when the index is empty, so chat
// works after a pipeline run that predates the database.
func ensureIndex(ctx context.Context, store *storage.SQLiteStorage) {
	n, err := store.CountDocuments(ctx)
	if err != nil {
		slog.Warn("Failed to count indexed documents", "error", err)
		return
	}
	if n > 0 {
		slog.Info("Index loaded", "documents", n)
		return
	}

	slog.Info("Index not found, building it from the report")
	if _, err := newIndexer(store).Build(ctx, cfg.Output.CSVPath, cfg.Output.ReportPath); err != nil {
		slog.Warn("Failed to build index", "error", err)
	}
}
