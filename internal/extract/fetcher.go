// Package extract downloads creature records from the upstream API with
// retries, bounded parallelism, a file cache and a synthetic fallback.
package extract

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/GuilhermeLVL/Onfly-RPA/internal/cache"
	"github.com/GuilhermeLVL/Onfly-RPA/internal/metrics"
	"github.com/GuilhermeLVL/Onfly-RPA/internal/model"
)

// DefaultWorkers is the width of the download pool.
const DefaultWorkers = 10

// Options configures a Fetcher.
type Options struct {
	BaseURL        string
	Count          int
	Timeout        time.Duration
	MaxRetries     int
	Backoff        time.Duration
	Workers        int
	UseCache       bool
	SampleFallback bool
}

// ProgressFunc receives the number of finished requests and the total.
type ProgressFunc func(done, total int)

// Fetcher retrieves the record catalog.
type Fetcher struct {
	client   *http.Client
	cache    *cache.Store
	logger   *slog.Logger
	progress ProgressFunc
	opts     Options
}

// New creates a Fetcher. store may be nil when caching is disabled.
func New(opts Options, store *cache.Store, logger *slog.Logger) *Fetcher {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.Count < 0 {
		opts.Count = 0
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Fetcher{
		client: &http.Client{Timeout: opts.Timeout},
		cache:  store,
		logger: logger,
		opts:   opts,
	}
}

// WithProgress registers a callback invoked after every record request.
func (f *Fetcher) WithProgress(fn ProgressFunc) *Fetcher {
	f.progress = fn
	return f
}

// WithHTTPClient replaces the HTTP client.
func (f *Fetcher) WithHTTPClient(client *http.Client) *Fetcher {
	f.client = client
	return f
}

// Probe checks that the upstream API answers for the first record.
func (f *Fetcher) Probe(ctx context.Context) error {
	if _, err := f.getRecord(ctx, 1); err != nil {
		return err
	}
	f.logger.Info("Upstream API reachable", "url", f.recordURL(1))
	return nil
}

// Fetch returns the catalog sorted by id. It never fails: degraded paths are
// logged and end in cached, synthetic or empty results.
func (f *Fetcher) Fetch(ctx context.Context) []model.RawRecord {
	if f.opts.UseCache && f.cache != nil {
		var cached []model.RawRecord
		if f.cache.Load(&cached) && len(cached) > 0 {
			f.logger.Info("Records loaded from cache", "count", len(cached), "path", f.cache.Path())
			metrics.FetchSource.WithLabelValues("cache").Inc()
			return cached
		}
	}

	if err := f.Probe(ctx); err != nil {
		f.logger.Error("Upstream API unreachable",
			"attempts", f.opts.MaxRetries+1,
			"error", err)
		return f.fallback("upstream unreachable")
	}

	records := f.fetchAll(ctx)
	if len(records) == 0 {
		f.logger.Error("No records were downloaded")
		return f.fallback("no records downloaded")
	}

	if f.opts.UseCache && f.cache != nil {
		if err := f.cache.Save(records); err != nil {
			f.logger.Warn("Failed to save cache", "path", f.cache.Path(), "error", err)
		}
	}

	f.logger.Info("Records downloaded", "count", len(records), "requested", f.opts.Count)
	metrics.FetchSource.WithLabelValues("network").Inc()
	return records
}

func (f *Fetcher) fallback(reason string) []model.RawRecord {
	if !f.opts.SampleFallback {
		metrics.FetchSource.WithLabelValues("none").Inc()
		return []model.RawRecord{}
	}

	f.logger.Warn("Using synthetic records", "reason", reason, "count", f.opts.Count)
	metrics.FetchSource.WithLabelValues("synthetic").Inc()
	return SampleRecords(f.opts.Count)
}

// fetchAll downloads ids 1..Count through a bounded worker pool. A failed id
// is logged and skipped.
func (f *Fetcher) fetchAll(ctx context.Context) []model.RawRecord {
	var (
		mu      sync.Mutex
		records = make([]model.RawRecord, 0, f.opts.Count)
		done    atomic.Int64
	)

	g := new(errgroup.Group)
	g.SetLimit(f.opts.Workers)

	for id := 1; id <= f.opts.Count; id++ {
		g.Go(func() error {
			rec, err := f.getRecord(ctx, id)
			if err != nil {
				f.logger.Error("Failed to download record", "id", id, "error", err)
			} else {
				mu.Lock()
				records = append(records, rec)
				mu.Unlock()
			}

			if f.progress != nil {
				f.progress(int(done.Add(1)), f.opts.Count)
			}
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(records, func(i, j int) bool {
		return records[i].ID < records[j].ID
	})
	return records
}
