package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/GuilhermeLVL/Onfly-RPA/internal/common"
	"github.com/GuilhermeLVL/Onfly-RPA/internal/metrics"
	"github.com/GuilhermeLVL/Onfly-RPA/internal/model"
	"github.com/GuilhermeLVL/Onfly-RPA/internal/service"
)

// maxBodySize bounds a single record response.
const maxBodySize = 4 << 20

// Error describes a failed upstream request.
type Error struct {
	Cause      error
	URL        string
	Message    string
	StatusCode int
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// retryableStatus lists the server errors worth another attempt.
var retryableStatus = map[int]bool{
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

func (f *Fetcher) recordURL(id int) string {
	return strings.TrimSuffix(f.opts.BaseURL, "/") + "/" + strconv.Itoa(id)
}

func (f *Fetcher) retryOptions() service.RetryOptions {
	return service.RetryOptions{
		MaxAttempts:  f.opts.MaxRetries + 1,
		InitialDelay: f.opts.Backoff,
		Multiplier:   2,
		Logger:       f.logger,
		OnRetry: func(int, error) {
			metrics.FetchRetries.Inc()
		},
	}
}

// getRecord performs a GET for one record id, retrying transient failures.
func (f *Fetcher) getRecord(ctx context.Context, id int) (model.RawRecord, error) {
	url := f.recordURL(id)

	var rec model.RawRecord
	err := common.WithRetry(ctx, func() error {
		var attemptErr error
		rec, attemptErr = f.getOnce(ctx, url)
		return attemptErr
	}, f.retryOptions())
	if err != nil {
		metrics.FetchRequests.WithLabelValues(metrics.OutcomeFailure).Inc()
		return model.RawRecord{}, err
	}

	metrics.FetchRequests.WithLabelValues(metrics.OutcomeSuccess).Inc()
	return rec, nil
}

func (f *Fetcher) getOnce(ctx context.Context, url string) (model.RawRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return model.RawRecord{}, common.Terminal(&Error{URL: url, Message: "failed to create request", Cause: err})
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return model.RawRecord{}, common.Transient(&Error{URL: url, Message: "HTTP request failed", Cause: err})
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		statusErr := &Error{
			URL:        url,
			Message:    fmt.Sprintf("HTTP %d", resp.StatusCode),
			StatusCode: resp.StatusCode,
			Cause:      common.ErrUpstreamStatus,
		}
		if retryableStatus[resp.StatusCode] {
			return model.RawRecord{}, common.Transient(statusErr)
		}
		return model.RawRecord{}, common.Terminal(statusErr)
	}

	var rec model.RawRecord
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(&rec); err != nil {
		return model.RawRecord{}, common.Terminal(&Error{URL: url, Message: "invalid JSON body", Cause: err})
	}
	return rec, nil
}
