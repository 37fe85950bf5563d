package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	aditadapter "github.com/justapithecus/adit/adapter"
	"github.com/justapithecus/adit/adapter/redis"
	"github.com/justapithecus/adit/adapter/webhook"
	"github.com/justapithecus/adit/cli/config"
	"github.com/justapithecus/adit/cli/render"
	"github.com/justapithecus/adit/cli/tui"
	"github.com/justapithecus/adit/fetch"
	"github.com/justapithecus/adit/follow"
	"github.com/justapithecus/adit/ipc"
	"github.com/justapithecus/adit/log"
	"github.com/justapithecus/adit/metrics"
	"github.com/justapithecus/adit/sink"
	"github.com/justapithecus/adit/types"
)

// Exit codes for the follow command.
const (
	exitSuccess     = 0
	exitTestFailure = 1
	exitIncomplete  = 2
	exitUsage       = 3
)

// FollowCommand returns the follow command: the long-running session
// that polls a growing CI log until it finalizes.
func FollowCommand() *cli.Command {
	return &cli.Command{
		Name:  "follow",
		Usage: "Follow a CI log until it finalizes, parsing test results incrementally",
		Flags: append([]cli.Flag{
			ConfigFlag,
			// Session identity
			&cli.StringFlag{
				Name:  "log",
				Usage: "Base resource name of the followed log",
				Value: "log",
			},
			&cli.StringFlag{
				Name:  "source",
				Usage: "Source identifier (origin system or test suite)",
			},
			&cli.StringFlag{
				Name:  "job-id",
				Usage: "CI job identifier",
			},
			// Fetch source
			&cli.StringFlag{
				Name:  "backend",
				Usage: "Fetch backend: http or s3",
			},
			&cli.StringFlag{
				Name:  "base-url",
				Usage: "Base URL log resources resolve against (http backend)",
			},
			&cli.StringFlag{
				Name:  "bucket",
				Usage: "S3 bucket holding log resources (s3 backend)",
			},
			&cli.StringFlag{
				Name:  "prefix",
				Usage: "S3 key prefix for log resources",
			},
			&cli.StringFlag{
				Name:  "region",
				Usage: "AWS region (s3 backend, optional)",
			},
			&cli.StringFlag{
				Name:  "endpoint",
				Usage: "Custom S3 endpoint URL (S3-compatible providers)",
			},
			&cli.BoolFlag{
				Name:  "s3-path-style",
				Usage: "Force path-style S3 addressing",
			},
			// Follow loop
			&cli.DurationFlag{
				Name:  "poll-interval",
				Usage: "Sleep between manifest polls (default 30s)",
			},
			// Outputs
			&cli.BoolFlag{
				Name:  "emit",
				Usage: "Emit length-prefixed msgpack snapshot frames on stdout",
			},
			&cli.StringFlag{
				Name:  "sink-backend",
				Usage: "Result sink backend: fs or s3 (disabled when empty)",
			},
			&cli.StringFlag{
				Name:  "sink-path",
				Usage: "Sink storage path (fs: directory, s3: bucket/prefix)",
			},
			&cli.StringFlag{
				Name:  "sink-dataset",
				Usage: "Sink dataset ID",
			},
			&cli.StringFlag{
				Name:  "sink-flush-mode",
				Usage: "Sink flush mode: final or every_poll",
			},
			&cli.StringFlag{
				Name:  "adapter",
				Usage: "Finish notification adapter: webhook or redis",
			},
			&cli.StringFlag{
				Name:  "adapter-url",
				Usage: "Adapter endpoint URL",
			},
			&cli.StringFlag{
				Name:  "adapter-channel",
				Usage: "Redis pub/sub channel for the redis adapter",
			},
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "Suppress result output",
			},
		}, OutputFlags()...),
		Action: followAction,
	}
}

// followChoice is the merged follow configuration: CLI flags override
// config file values.
type followChoice struct {
	meta         *types.FollowMeta
	backend      string
	baseURL      string
	s3           fetch.S3Config
	pollInterval time.Duration
	emit         bool
	sink         sinkChoice
	adapter      adapterChoice
	quiet        bool
}

type sinkChoice struct {
	backend   string
	path      string
	dataset   string
	flushMode string
	region    string
	endpoint  string
	pathStyle bool
}

type adapterChoice struct {
	kind    string
	url     string
	channel string
	headers map[string]string
	timeout time.Duration
	retries *int
}

func followAction(c *cli.Context) error {
	tuiMode := c.Bool("tui")
	if tuiMode && c.Bool("emit") {
		return cli.Exit("--tui cannot be combined with --emit", exitUsage)
	}

	cfg, err := config.LoadOptional(c.String("config"))
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}

	choice, err := mergeFollowConfig(c, cfg)
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	source, err := buildSource(ctx, choice)
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}

	collector := metrics.NewCollector(choice.meta.Log, choice.backend)
	fetcher := fetch.New(source, log.NewLogger(choice.meta), collector)

	var notifiers []follow.Notifier

	var encoder *ipc.FrameEncoder
	if choice.emit {
		encoder = ipc.NewFrameEncoder(os.Stdout)
		notifiers = append(notifiers, follow.NotifierFunc(
			func(_ context.Context, run *types.TestRun) error {
				return encoder.WriteSnapshot(run)
			}))
	}

	resultSink, err := buildSink(ctx, choice)
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}
	if resultSink != nil {
		defer func() { _ = resultSink.Close() }()
		notifiers = append(notifiers, resultSink)
	}

	var program *tui.FollowProgram
	if tuiMode {
		program = tui.NewFollowProgram(choice.meta.Log)
		notifiers = append(notifiers, follow.NotifierFunc(program.Notify))
	}

	follower, err := follow.NewFollower(&follow.Config{
		Meta:         choice.meta,
		Fetcher:      fetcher,
		Notifier:     fanOut(notifiers),
		Collector:    collector,
		PollInterval: choice.pollInterval,
	})
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}

	result, err := runSession(ctx, cancel, follower, program)
	if err != nil {
		return cli.Exit(fmt.Sprintf("follow failed: %v", err), exitIncomplete)
	}

	if resultSink != nil {
		if err := resultSink.Flush(ctx, result.Outcome); err != nil {
			return cli.Exit(fmt.Sprintf("sink flush failed: %v", err), exitIncomplete)
		}
	}
	if encoder != nil {
		if err := encoder.WriteDone(result.Outcome); err != nil {
			return cli.Exit(fmt.Sprintf("emit failed: %v", err), exitIncomplete)
		}
	}
	if err := publishFinished(ctx, choice, result); err != nil {
		return cli.Exit(fmt.Sprintf("adapter publish failed: %v", err), exitIncomplete)
	}

	if !choice.quiet && !choice.emit && !tuiMode {
		r, err := render.NewRenderer(c)
		if err != nil {
			return err
		}
		if err := r.Render(buildResponse(result, collector.Snapshot())); err != nil {
			return err
		}
	}

	return cli.Exit("", outcomeToExitCode(result.Outcome.Status))
}

// runSession executes the follow loop, driving the live view when one
// is attached. Quitting the view cancels an unfinished session.
func runSession(ctx context.Context, cancel context.CancelFunc, follower *follow.Follower, program *tui.FollowProgram) (*follow.Result, error) {
	if program == nil {
		return follower.Execute(ctx)
	}

	var result *follow.Result
	var execErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		result, execErr = follower.Execute(ctx)
		if execErr != nil {
			program.Quit()
			return
		}
		program.Done(result.Outcome)
	}()

	runErr := program.Run()
	cancel()
	<-done

	if execErr != nil {
		return nil, execErr
	}
	if runErr != nil {
		return nil, runErr
	}
	return result, nil
}

// mergeFollowConfig resolves every setting: flag when set, config file
// value otherwise.
func mergeFollowConfig(c *cli.Context, cfg *config.Config) (*followChoice, error) {
	pick := func(flag, fromConfig string) string {
		if flag != "" {
			return flag
		}
		return fromConfig
	}

	choice := &followChoice{
		meta: &types.FollowMeta{
			Log:    c.String("log"),
			Source: pick(c.String("source"), cfg.Source),
			JobID:  pick(c.String("job-id"), cfg.JobID),
		},
		backend: pick(c.String("backend"), cfg.Fetch.Backend),
		baseURL: pick(c.String("base-url"), cfg.Fetch.BaseURL),
		s3: fetch.S3Config{
			Bucket:       pick(c.String("bucket"), cfg.Fetch.Bucket),
			Prefix:       pick(c.String("prefix"), cfg.Fetch.Prefix),
			Region:       pick(c.String("region"), cfg.Fetch.Region),
			Endpoint:     pick(c.String("endpoint"), cfg.Fetch.Endpoint),
			UsePathStyle: c.Bool("s3-path-style") || cfg.Fetch.S3PathStyle,
		},
		pollInterval: c.Duration("poll-interval"),
		emit:         c.Bool("emit"),
		sink: sinkChoice{
			backend:   pick(c.String("sink-backend"), cfg.Sink.Backend),
			path:      pick(c.String("sink-path"), cfg.Sink.Path),
			dataset:   pick(c.String("sink-dataset"), cfg.Sink.Dataset),
			flushMode: pick(c.String("sink-flush-mode"), cfg.Sink.FlushMode),
			region:    cfg.Sink.Region,
			endpoint:  cfg.Sink.Endpoint,
			pathStyle: cfg.Sink.S3PathStyle,
		},
		adapter: adapterChoice{
			kind:    pick(c.String("adapter"), cfg.Adapter.Type),
			url:     pick(c.String("adapter-url"), cfg.Adapter.URL),
			channel: pick(c.String("adapter-channel"), cfg.Adapter.Channel),
			headers: cfg.Adapter.Headers,
			timeout: cfg.Adapter.Timeout.Duration,
			retries: cfg.Adapter.Retries,
		},
		quiet: c.Bool("quiet"),
	}

	if choice.backend == "" {
		choice.backend = "http"
	}
	if choice.pollInterval == 0 {
		choice.pollInterval = cfg.Follow.PollInterval.Duration
	}
	if choice.sink.dataset == "" {
		choice.sink.dataset = sink.DefaultDataset
	}

	switch choice.backend {
	case "http":
		if choice.baseURL == "" {
			return nil, fmt.Errorf("--base-url is required for the http backend")
		}
	case "s3":
		if err := choice.s3.Validate(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown backend: %s (must be http or s3)", choice.backend)
	}

	switch choice.sink.backend {
	case "", "fs", "s3":
	default:
		return nil, fmt.Errorf("unknown sink-backend: %s (must be fs or s3)", choice.sink.backend)
	}
	if choice.sink.backend != "" && choice.sink.path == "" {
		return nil, fmt.Errorf("--sink-path is required when the sink is enabled")
	}

	switch choice.adapter.kind {
	case "", "webhook", "redis":
	default:
		return nil, fmt.Errorf("unknown adapter: %s (must be webhook or redis)", choice.adapter.kind)
	}
	if choice.adapter.kind != "" && choice.adapter.url == "" {
		return nil, fmt.Errorf("--adapter-url is required when an adapter is configured")
	}

	return choice, nil
}

// buildSource creates the fetch source for the chosen backend.
func buildSource(ctx context.Context, choice *followChoice) (fetch.Source, error) {
	switch choice.backend {
	case "http":
		return fetch.NewHTTPSource(choice.baseURL)
	case "s3":
		return fetch.NewS3Source(ctx, choice.s3)
	default:
		return nil, fmt.Errorf("unknown backend: %s", choice.backend)
	}
}

// buildSink creates the result sink, or nil when no backend is
// configured.
func buildSink(ctx context.Context, choice *followChoice) (*sink.Sink, error) {
	if choice.sink.backend == "" {
		return nil, nil
	}

	cfg := sink.Config{
		Dataset: choice.sink.dataset,
		Source:  choice.meta.Source,
		Day:     sink.DeriveDay(time.Now()),
		JobID:   choice.meta.JobID,
		Mode:    sink.FlushMode(choice.sink.flushMode),
	}
	if cfg.Source == "" {
		return nil, fmt.Errorf("--source is required when the sink is enabled")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var client sink.Client
	var err error
	switch choice.sink.backend {
	case "fs":
		client, err = sink.NewLodeClient(cfg.Dataset, choice.sink.path)
	case "s3":
		bucket, prefix := sink.ParseS3Path(choice.sink.path)
		client, err = sink.NewLodeS3Client(ctx, cfg.Dataset, sink.S3Config{
			Bucket:       bucket,
			Prefix:       prefix,
			Region:       choice.sink.region,
			Endpoint:     choice.sink.endpoint,
			UsePathStyle: choice.sink.pathStyle,
		})
	}
	if err != nil {
		return nil, err
	}

	return sink.NewSink(cfg, client), nil
}

// publishFinished sends the terminal event through the configured
// adapter, if any.
func publishFinished(ctx context.Context, choice *followChoice, result *follow.Result) error {
	if choice.adapter.kind == "" {
		return nil
	}

	event := aditadapter.NewFollowFinishedEvent(
		result.Meta, result.Outcome, result.Run, result.BytesRead, result.Duration)

	retries := func(fallback int) int {
		if choice.adapter.retries != nil {
			return *choice.adapter.retries
		}
		return fallback
	}

	var a aditadapter.Adapter
	var err error
	switch choice.adapter.kind {
	case "webhook":
		a, err = webhook.New(webhook.Config{
			URL:     choice.adapter.url,
			Headers: choice.adapter.headers,
			Timeout: choice.adapter.timeout,
			Retries: retries(webhook.DefaultRetries),
		})
	case "redis":
		a, err = redis.New(redis.Config{
			URL:     choice.adapter.url,
			Channel: choice.adapter.channel,
			Timeout: choice.adapter.timeout,
			Retries: retries(redis.DefaultRetries),
		})
	}
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	return a.Publish(ctx, event)
}

// fanOut composes notifiers; the first error stops delivery.
func fanOut(notifiers []follow.Notifier) follow.Notifier {
	switch len(notifiers) {
	case 0:
		return nil
	case 1:
		return notifiers[0]
	}
	return follow.NotifierFunc(func(ctx context.Context, run *types.TestRun) error {
		for _, n := range notifiers {
			if err := n.Notify(ctx, run); err != nil {
				return err
			}
		}
		return nil
	})
}

// FollowResponse is the rendered summary of a finished session.
type FollowResponse struct {
	Log        string `json:"log"`
	Source     string `json:"source,omitempty"`
	JobID      string `json:"job_id,omitempty"`
	Outcome    string `json:"outcome"`
	Message    string `json:"message,omitempty"`
	Total      int    `json:"total"`
	Passed     int    `json:"passed"`
	Failed     int    `json:"failed"`
	Skipped    int    `json:"skipped"`
	Retries    int    `json:"retries"`
	Polls      int64  `json:"polls"`
	BytesRead  int64  `json:"bytes_read"`
	DurationMs int64  `json:"duration_ms"`
}

func buildResponse(result *follow.Result, m metrics.Snapshot) *FollowResponse {
	resp := &FollowResponse{
		Log:        result.Meta.Log,
		Source:     result.Meta.Source,
		JobID:      result.Meta.JobID,
		Outcome:    string(result.Outcome.Status),
		Message:    result.Outcome.Message,
		Polls:      m.ManifestPolls,
		BytesRead:  result.BytesRead,
		DurationMs: result.Duration.Milliseconds(),
	}
	if result.Run != nil {
		resp.Total = result.Run.Total
		resp.Passed = result.Run.Passed
		resp.Failed = result.Run.Failed
		resp.Skipped = result.Run.Skipped
		resp.Retries = result.Run.Retries
	}
	return resp
}

func outcomeToExitCode(status types.FollowStatus) int {
	switch status {
	case types.OutcomeSuccess:
		return exitSuccess
	case types.OutcomeTestFailure:
		return exitTestFailure
	case types.OutcomeIncomplete:
		return exitIncomplete
	default:
		return exitIncomplete
	}
}
