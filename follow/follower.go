package follow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/justapithecus/adit/fetch"
	"github.com/justapithecus/adit/links"
	"github.com/justapithecus/adit/log"
	"github.com/justapithecus/adit/metrics"
	"github.com/justapithecus/adit/tap"
	"github.com/justapithecus/adit/types"
)

// DefaultPollInterval is the sleep between manifest polls.
const DefaultPollInterval = 30 * time.Second

// Notifier receives each freshly parsed TestRun snapshot. Runs are
// immutable once handed over; the notifier may retain them. A notifier
// error is fatal to the session.
type Notifier interface {
	Notify(ctx context.Context, run *types.TestRun) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, run *types.TestRun) error

// Notify implements Notifier.
func (f NotifierFunc) Notify(ctx context.Context, run *types.TestRun) error {
	return f(ctx, run)
}

// Config configures a follow session.
type Config struct {
	// Meta is the session identity. Required; Meta.Log names the
	// followed resource.
	Meta *types.FollowMeta
	// Fetcher reads resources from the log store.
	Fetcher *fetch.Fetcher
	// Notifier receives every parsed snapshot. May be nil.
	Notifier Notifier
	// Collector records session metrics. May be nil.
	Collector *metrics.Collector
	// PollInterval overrides the inter-poll sleep. Zero means
	// DefaultPollInterval.
	PollInterval time.Duration
	// Annotator overrides link extraction. When nil the session fetches
	// the sibling link-patterns.json override, falling back to the
	// default patterns.
	Annotator *links.Annotator
}

// Result is the terminal outcome of a follow session.
type Result struct {
	Meta      *types.FollowMeta
	Outcome   *types.FollowOutcome
	Run       *types.TestRun
	BytesRead int64
	Duration  time.Duration
}

// Follower owns one follow session.
type Follower struct {
	config *Config
	logger *log.Logger

	// sleep is injectable so tests can skip the poll interval.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewFollower creates a follower. Returns an error when the session
// metadata is invalid.
func NewFollower(config *Config) (*Follower, error) {
	if err := config.Meta.Validate(); err != nil {
		return nil, fmt.Errorf("invalid follow metadata: %w", err)
	}
	if config.Fetcher == nil {
		return nil, errors.New("fetcher is required")
	}
	return &Follower{
		config: config,
		logger: log.NewLogger(config.Meta),
		sleep:  sleepContext,
	}, nil
}

// Execute runs the session end-to-end.
//
// Loop per iteration:
//  1. Fetch the chunk manifest.
//  2. Fetch every chunk whose end offset exceeds bytesRead, resuming
//     partially consumed chunks mid-range.
//  3. Re-parse the full buffer and notify.
//  4. Sleep the poll interval.
//
// A manifest fetch reporting not-found switches to the terminal
// raw-fallback: one range read of the raw resource, one final
// parse-and-notify, then the session ends. Any other error is fatal
// and propagates without a final notify.
func (f *Follower) Execute(ctx context.Context) (*Result, error) {
	start := time.Now()

	annotator := f.config.Annotator
	if annotator == nil {
		a, err := links.FetchOverride(ctx, f.config.Fetcher)
		if err != nil {
			return nil, fmt.Errorf("link patterns: %w", err)
		}
		annotator = a
	}
	parser := tap.New(annotator)

	acc := NewAccumulator()
	manifestName := types.ManifestResource(f.config.Meta.Log)

	f.logger.Info("starting follow", map[string]any{
		"log":      f.config.Meta.Log,
		"manifest": manifestName,
		"interval": f.interval().String(),
	})

	var run *types.TestRun
	for {
		f.config.Collector.IncManifestPoll()

		text, err := f.config.Fetcher.Fetch(ctx, manifestName, 0)
		if errors.Is(err, fetch.ErrNotFound) {
			run, err = f.fallback(ctx, parser, acc)
			if err != nil {
				return nil, err
			}
			break
		}
		if err != nil {
			return nil, fmt.Errorf("manifest fetch: %w", err)
		}

		manifest, err := types.ParseChunkManifest([]byte(text))
		if err != nil {
			return nil, err
		}
		if total := manifest.TotalBytes(); total < acc.BytesRead() {
			return nil, fmt.Errorf("manifest shrank: declares %d bytes, already read %d",
				total, acc.BytesRead())
		}

		for _, r := range manifest.Ranges() {
			if r.End <= acc.BytesRead() {
				continue
			}
			offset := acc.BytesRead() - r.Start
			content, err := f.config.Fetcher.Fetch(ctx, r.Resource(f.config.Meta.Log), offset)
			if err != nil {
				return nil, fmt.Errorf("chunk %s: %w", r.Resource(f.config.Meta.Log), err)
			}
			acc.Advance(content, r.End)
			f.config.Collector.IncChunkFetched()
			f.config.Collector.AddBytesRead(int64(len(content)))
		}

		run, err = f.parseAndNotify(ctx, parser, acc)
		if err != nil {
			return nil, err
		}

		if err := f.sleep(ctx, f.interval()); err != nil {
			return nil, err
		}
	}

	outcome := deriveOutcome(run)
	f.logger.Info("follow finished", map[string]any{
		"outcome":    outcome.Status,
		"bytes_read": acc.BytesRead(),
		"duration":   time.Since(start).String(),
	})

	return &Result{
		Meta:      f.config.Meta,
		Outcome:   outcome,
		Run:       run,
		BytesRead: acc.BytesRead(),
		Duration:  time.Since(start),
	}, nil
}

// fallback performs the terminal raw-resource read: the manifest is
// gone, so the log is finalized or was never chunked.
func (f *Follower) fallback(ctx context.Context, parser *tap.Parser, acc *Accumulator) (*types.TestRun, error) {
	f.config.Collector.IncFallback()
	f.logger.Info("manifest gone, falling back to raw resource", map[string]any{
		"offset": acc.BytesRead(),
	})

	content, err := f.config.Fetcher.Fetch(ctx, f.config.Meta.Log, acc.BytesRead())
	if err != nil {
		return nil, fmt.Errorf("raw fallback: %w", err)
	}
	acc.Advance(content, acc.BytesRead()+int64(len(content)))
	f.config.Collector.AddBytesRead(int64(len(content)))

	return f.parseAndNotify(ctx, parser, acc)
}

// parseAndNotify re-parses the full buffer and hands the snapshot to
// the notifier.
func (f *Follower) parseAndNotify(ctx context.Context, parser *tap.Parser, acc *Accumulator) (*types.TestRun, error) {
	run := parser.Parse(acc.Text())
	f.config.Collector.IncParse()

	var groups int64
	for _, e := range run.Entries {
		groups += int64(len(e.Links))
	}
	f.config.Collector.AddLinkGroups(groups)

	if f.config.Notifier != nil {
		if err := f.config.Notifier.Notify(ctx, run); err != nil {
			return nil, fmt.Errorf("notify: %w", err)
		}
		f.config.Collector.IncNotify()
	}
	return run, nil
}

func (f *Follower) interval() time.Duration {
	if f.config.PollInterval > 0 {
		return f.config.PollInterval
	}
	return DefaultPollInterval
}

// deriveOutcome classifies the final snapshot of a finished session.
func deriveOutcome(run *types.TestRun) *types.FollowOutcome {
	switch {
	case run == nil || !run.Planned:
		return &types.FollowOutcome{
			Status:  types.OutcomeIncomplete,
			Message: "no test plan detected",
		}
	case !run.Complete():
		return &types.FollowOutcome{
			Status: types.OutcomeIncomplete,
			Message: fmt.Sprintf("log finalized with %d of %d tests unfinished",
				run.Left, run.Total),
		}
	case run.HasFailures():
		return &types.FollowOutcome{
			Status:  types.OutcomeTestFailure,
			Message: fmt.Sprintf("%d of %d tests failed", run.Failed, run.Total),
		}
	default:
		return &types.FollowOutcome{
			Status:  types.OutcomeSuccess,
			Message: fmt.Sprintf("all %d tests finished", run.Total),
		}
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
