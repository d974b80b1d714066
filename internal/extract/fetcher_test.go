package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GuilhermeLVL/Onfly-RPA/internal/cache"
	"github.com/GuilhermeLVL/Onfly-RPA/internal/model"
)

func recordJSON(id int) string {
	return fmt.Sprintf(`{"id": %d, "name": "mon%d", "base_experience": %d,
		"types": [{"slot": 1, "type": {"name": "fire"}}],
		"stats": [{"base_stat": 10, "stat": {"name": "hp"}}]}`, id, id, id*10)
}

func idFromPath(path string) int {
	id, _ := strconv.Atoi(strings.TrimPrefix(path, "/pokemon/"))
	return id
}

func testOptions(baseURL string, count int) Options {
	return Options{
		BaseURL:        baseURL + "/pokemon/",
		Count:          count,
		Timeout:        2 * time.Second,
		MaxRetries:     2,
		Backoff:        time.Millisecond,
		Workers:        DefaultWorkers,
		UseCache:       true,
		SampleFallback: true,
	}
}

func newTestStore(t *testing.T) *cache.Store {
	t.Helper()
	return cache.NewStore(filepath.Join(t.TempDir(), "cache.json"), nil)
}

func ids(records []model.RawRecord) []int {
	out := make([]int, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func TestFetcher_FetchSortedAndCached(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(recordJSON(idFromPath(r.URL.Path))))
	}))
	defer server.Close()

	store := newTestStore(t)
	records := New(testOptions(server.URL, 15), store, nil).Fetch(context.Background())

	require.Len(t, records, 15)
	for i, rec := range records {
		assert.Equal(t, i+1, rec.ID)
	}

	var cached []model.RawRecord
	require.True(t, store.Load(&cached))
	assert.Equal(t, ids(records), ids(cached))
}

func TestFetcher_CacheShortCircuit(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	store := newTestStore(t)
	require.NoError(t, store.Save([]model.RawRecord{{ID: 3, Name: "venusaur"}}))

	records := New(testOptions(server.URL, 10), store, nil).Fetch(context.Background())

	require.Len(t, records, 1)
	assert.Equal(t, "venusaur", records[0].Name)
	assert.Zero(t, hits.Load())
}

func TestFetcher_EmptyCacheIsIgnored(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(recordJSON(idFromPath(r.URL.Path))))
	}))
	defer server.Close()

	store := newTestStore(t)
	require.NoError(t, store.Save([]model.RawRecord{}))

	records := New(testOptions(server.URL, 3), store, nil).Fetch(context.Background())
	assert.Equal(t, []int{1, 2, 3}, ids(records))
}

func TestFetcher_ProbeFailure(t *testing.T) {
	tests := []struct {
		name      string
		fallback  bool
		wantCount int
	}{
		{name: "synthetic fallback", fallback: true, wantCount: 5},
		{name: "no fallback", fallback: false, wantCount: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				hits.Add(1)
				w.WriteHeader(http.StatusServiceUnavailable)
			}))
			defer server.Close()

			opts := testOptions(server.URL, 5)
			opts.SampleFallback = tt.fallback
			opts.UseCache = false

			records := New(opts, nil, nil).Fetch(context.Background())

			require.NotNil(t, records)
			assert.Len(t, records, tt.wantCount)
			// probe is attempted once plus MaxRetries retries
			assert.Equal(t, int32(3), hits.Load())
			if tt.fallback {
				assert.Equal(t, "pokemon_1", records[0].Name)
				assert.Equal(t, 5, records[4].ID)
				assert.Nil(t, records[0].BaseExperience)
			}
		})
	}
}

func TestFetcher_NonRetryableStatusIsNotRetried(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	opts := testOptions(server.URL, 4)
	opts.UseCache = false
	opts.SampleFallback = false

	records := New(opts, nil, nil).Fetch(context.Background())

	assert.Empty(t, records)
	assert.Equal(t, int32(1), hits.Load())
}

func TestFetcher_PartialFailureSkipsRecord(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := idFromPath(r.URL.Path)
		if id == 7 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(recordJSON(id)))
	}))
	defer server.Close()

	opts := testOptions(server.URL, 10)
	opts.UseCache = false

	records := New(opts, nil, nil).Fetch(context.Background())

	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 8, 9, 10}, ids(records))
}

func TestFetcher_TransientFailureRecovers(t *testing.T) {
	var mu sync.Mutex
	failed := map[int]bool{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := idFromPath(r.URL.Path)
		mu.Lock()
		first := !failed[id]
		failed[id] = true
		mu.Unlock()
		if id == 3 && first {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(recordJSON(id)))
	}))
	defer server.Close()

	opts := testOptions(server.URL, 5)
	opts.UseCache = false

	records := New(opts, nil, nil).Fetch(context.Background())
	assert.Equal(t, []int{1, 2, 3, 4, 5}, ids(records))
}

func TestFetcher_ZeroRecordsAfterProbeFallsBack(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			_, _ = w.Write([]byte(recordJSON(idFromPath(r.URL.Path))))
			return
		}
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	opts := testOptions(server.URL, 6)
	store := newTestStore(t)

	records := New(opts, store, nil).Fetch(context.Background())

	require.Len(t, records, 6)
	assert.Equal(t, "pokemon_6", records[5].Name)

	var cached []model.RawRecord
	assert.False(t, store.Load(&cached), "synthetic records must not be cached")
}

func TestFetcher_BoundedParallelism(t *testing.T) {
	var inFlight, peak atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		now := inFlight.Add(1)
		for {
			old := peak.Load()
			if now <= old || peak.CompareAndSwap(old, now) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		_, _ = w.Write([]byte(recordJSON(idFromPath(r.URL.Path))))
	}))
	defer server.Close()

	opts := testOptions(server.URL, 40)
	opts.UseCache = false
	opts.Workers = 4

	var progressCalls atomic.Int32
	records := New(opts, nil, nil).
		WithProgress(func(_, total int) {
			assert.Equal(t, 40, total)
			progressCalls.Add(1)
		}).
		Fetch(context.Background())

	assert.Len(t, records, 40)
	assert.LessOrEqual(t, peak.Load(), int32(4))
	assert.Equal(t, int32(40), progressCalls.Load())
}

func TestSampleRecords(t *testing.T) {
	records := SampleRecords(3)
	require.Len(t, records, 3)

	encoded, err := json.Marshal(records[1])
	require.NoError(t, err)
	assert.Contains(t, string(encoded), `"name":"pokemon_2"`)

	hp, ok := records[2].Stat(model.StatHP)
	assert.True(t, ok)
	assert.Equal(t, 45, hp)
	assert.Equal(t, []string{"grass", "poison"}, records[0].TypeNames())

	assert.Empty(t, SampleRecords(0))
}

func TestFetcher_NegativeCountFetchesNothing(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		_, _ = w.Write([]byte(recordJSON(idFromPath(r.URL.Path))))
	}))
	defer server.Close()

	opts := testOptions(server.URL, -5)
	opts.UseCache = false
	opts.SampleFallback = false

	var records []model.RawRecord
	require.NotPanics(t, func() {
		records = New(opts, nil, nil).Fetch(context.Background())
	})
	assert.Empty(t, records)
	assert.Equal(t, int32(1), requests.Load())
}
