package sink

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/justapithecus/adit/types"
)

// FlushMode controls when snapshots are persisted.
type FlushMode string

const (
	// FlushFinal persists only the final snapshot, at session end.
	FlushFinal FlushMode = "final"
	// FlushEveryPoll persists every snapshot as it is parsed.
	FlushEveryPoll FlushMode = "every_poll"
)

// Config holds sink configuration. All partition keys are required.
type Config struct {
	// Dataset is the Lode dataset ID (DefaultDataset by convention).
	Dataset string
	// Source is the partition key for origin system or test suite.
	Source string
	// Day is the partition key derived from session start (YYYY-MM-DD UTC).
	Day string
	// JobID is the partition key for the CI job identifier.
	JobID string
	// Mode selects the flush behavior. Empty means FlushFinal.
	Mode FlushMode
}

// Sink persists TestRun snapshots through a Client. It implements the
// follow loop's Notifier; Flush must be called once after the session
// ends to persist the outcome-bearing final record.
type Sink struct {
	config Config
	client Client

	// now is injectable for deterministic record timestamps in tests.
	now func() time.Time

	mu     sync.Mutex
	latest *types.TestRun
}

// NewSink creates a sink over the given client.
func NewSink(config Config, client Client) *Sink {
	return &Sink{
		config: config,
		client: client,
		now:    time.Now,
	}
}

// Notify implements follow.Notifier. In every-poll mode the snapshot is
// written immediately; in final mode it is only retained.
func (s *Sink) Notify(ctx context.Context, run *types.TestRun) error {
	s.mu.Lock()
	s.latest = run
	s.mu.Unlock()

	if s.config.Mode != FlushEveryPoll {
		return nil
	}
	return s.client.WriteRecords(ctx, buildRecords(s.config, run, nil, s.now()))
}

// Flush persists the final snapshot together with the session outcome.
// It is a no-op when no snapshot was ever notified.
func (s *Sink) Flush(ctx context.Context, outcome *types.FollowOutcome) error {
	s.mu.Lock()
	run := s.latest
	s.mu.Unlock()

	if run == nil {
		return nil
	}
	return s.client.WriteRecords(ctx, buildRecords(s.config, run, outcome, s.now()))
}

// Close releases the underlying client.
func (s *Sink) Close() error {
	return s.client.Close()
}

// Validate checks required sink configuration.
func (c *Config) Validate() error {
	if c.Dataset == "" {
		return errors.New("sink dataset is required")
	}
	if c.Source == "" {
		return errors.New("sink source partition key is required")
	}
	if c.Day == "" {
		return errors.New("sink day partition key is required")
	}
	return nil
}

// StubClient is a test client that records writes without persisting.
type StubClient struct {
	mu      sync.Mutex
	Batches [][]any
	Closed  bool
	Err     error
}

// NewStubClient creates a new stub client.
func NewStubClient() *StubClient {
	return &StubClient{}
}

// WriteRecords implements Client.
func (c *StubClient) WriteRecords(_ context.Context, records []any) error {
	if c.Err != nil {
		return c.Err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Batches = append(c.Batches, records)
	return nil
}

// Close implements Client.
func (c *StubClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Closed = true
	return nil
}

// Verify StubClient implements Client.
var _ Client = (*StubClient)(nil)
