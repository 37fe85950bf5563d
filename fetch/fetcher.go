package fetch

import (
	"context"
	"errors"
	"time"

	"github.com/justapithecus/adit/log"
	"github.com/justapithecus/adit/metrics"
)

// MaxAttempts is the number of read attempts per Fetch call.
const MaxAttempts = 10

// Fetcher wraps a Source with retry and exponential backoff.
//
// Permanent errors (wrapping ErrNotFound) surface immediately.
// Transient errors back off 2^attempt seconds (1, 2, 4, ..., 512) and
// retry; after MaxAttempts transient failures the error escalates to a
// *RetriesExhaustedError, which also matches ErrNotFound.
type Fetcher struct {
	source    Source
	logger    *log.Logger
	collector *metrics.Collector

	// sleep is injectable so tests can skip real backoff.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Fetcher. logger is required; collector may be nil.
func New(source Source, logger *log.Logger, collector *metrics.Collector) *Fetcher {
	return &Fetcher{
		source:    source,
		logger:    logger,
		collector: collector,
		sleep:     sleepContext,
	}
}

// Fetch reads the named resource from offset, retrying transient
// failures. Offset 0 reads the whole resource.
func (f *Fetcher) Fetch(ctx context.Context, name string, offset int64) (string, error) {
	var lastErr error

	for attempt := 0; attempt < MaxAttempts; attempt++ {
		text, err := f.source.Read(ctx, name, offset)
		if err == nil {
			return text, nil
		}

		if errors.Is(err, ErrNotFound) {
			// Completed response, non-success status: permanent.
			return "", err
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		lastErr = err
		f.collector.IncFetchRetry()

		backoff := time.Duration(1<<uint(attempt)) * time.Second
		f.logger.Warn("fetch failed, retrying", map[string]any{
			"resource": name,
			"offset":   offset,
			"attempt":  attempt + 1,
			"backoff":  backoff.String(),
			"error":    err.Error(),
		})

		if err := f.sleep(ctx, backoff); err != nil {
			return "", err
		}
	}

	f.collector.IncFetchFailure()
	f.logger.Error("fetch giving up", map[string]any{
		"resource": name,
		"offset":   offset,
		"attempts": MaxAttempts,
		"error":    lastErr.Error(),
	})

	return "", &RetriesExhaustedError{
		Resource: name,
		Attempts: MaxAttempts,
		Err:      lastErr,
	}
}

// sleepContext sleeps for d or until ctx is canceled.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
