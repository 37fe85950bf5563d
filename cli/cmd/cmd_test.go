package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/adit/cli/config"
	"github.com/justapithecus/adit/follow"
	"github.com/justapithecus/adit/links"
	"github.com/justapithecus/adit/metrics"
	"github.com/justapithecus/adit/types"
)

func TestOutputFlags_IncludesTUI(t *testing.T) {
	hasTUI := false
	for _, f := range OutputFlags() {
		if f.Names()[0] == "tui" {
			hasTUI = true
			break
		}
	}

	if !hasTUI {
		t.Error("OutputFlags should include --tui flag for explicit error handling")
	}
}

func TestOutcomeToExitCode(t *testing.T) {
	tests := []struct {
		status types.FollowStatus
		want   int
	}{
		{types.OutcomeSuccess, 0},
		{types.OutcomeTestFailure, 1},
		{types.OutcomeIncomplete, 2},
		{types.FollowStatus("bogus"), 2},
	}

	for _, tt := range tests {
		if got := outcomeToExitCode(tt.status); got != tt.want {
			t.Errorf("outcomeToExitCode(%q) = %d, want %d", tt.status, got, tt.want)
		}
	}
}

func TestFanOut(t *testing.T) {
	var order []string
	record := func(name string) follow.Notifier {
		return follow.NotifierFunc(func(context.Context, *types.TestRun) error {
			order = append(order, name)
			return nil
		})
	}

	if fanOut(nil) != nil {
		t.Error("empty notifier list should fan out to nil")
	}

	n := fanOut([]follow.Notifier{record("first"), record("second")})
	if err := n.Notify(context.Background(), &types.TestRun{}); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("delivery order = %v", order)
	}
}

func TestFanOut_FirstErrorStopsDelivery(t *testing.T) {
	boom := errors.New("boom")
	called := false

	n := fanOut([]follow.Notifier{
		follow.NotifierFunc(func(context.Context, *types.TestRun) error { return boom }),
		follow.NotifierFunc(func(context.Context, *types.TestRun) error {
			called = true
			return nil
		}),
	})

	if err := n.Notify(context.Background(), &types.TestRun{}); !errors.Is(err, boom) {
		t.Errorf("error = %v, want %v", err, boom)
	}
	if called {
		t.Error("later notifiers must not run after an error")
	}
}

// mergeWith runs mergeFollowConfig against parsed follow flags.
func mergeWith(t *testing.T, cfg *config.Config, args ...string) (*followChoice, error) {
	t.Helper()

	var choice *followChoice
	var mergeErr error
	app := &cli.App{
		Commands: []*cli.Command{{
			Name:  "follow",
			Flags: FollowCommand().Flags,
			Action: func(c *cli.Context) error {
				choice, mergeErr = mergeFollowConfig(c, cfg)
				return nil
			},
		}},
	}

	if err := app.Run(append([]string{"adit", "follow"}, args...)); err != nil {
		t.Fatalf("app.Run failed: %v", err)
	}
	return choice, mergeErr
}

func TestMergeFollowConfig_FlagsOverrideConfig(t *testing.T) {
	cfg := &config.Config{Source: "from-config", JobID: "cfg-job"}
	cfg.Fetch.Backend = "http"
	cfg.Fetch.BaseURL = "https://config.example.com/logs"

	choice, err := mergeWith(t, cfg,
		"--source", "from-flag",
		"--base-url", "https://flag.example.com/logs",
	)
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}

	if choice.meta.Source != "from-flag" {
		t.Errorf("source = %q, want flag value", choice.meta.Source)
	}
	if choice.meta.JobID != "cfg-job" {
		t.Errorf("job id = %q, want config value", choice.meta.JobID)
	}
	if choice.baseURL != "https://flag.example.com/logs" {
		t.Errorf("base url = %q, want flag value", choice.baseURL)
	}
}

func TestMergeFollowConfig_HTTPRequiresBaseURL(t *testing.T) {
	_, err := mergeWith(t, &config.Config{})
	if err == nil || !strings.Contains(err.Error(), "--base-url") {
		t.Errorf("error = %v, want base-url requirement", err)
	}
}

func TestMergeFollowConfig_S3RequiresBucket(t *testing.T) {
	_, err := mergeWith(t, &config.Config{}, "--backend", "s3")
	if err == nil || !strings.Contains(err.Error(), "bucket") {
		t.Errorf("error = %v, want bucket requirement", err)
	}
}

func TestMergeFollowConfig_UnknownBackend(t *testing.T) {
	_, err := mergeWith(t, &config.Config{}, "--backend", "ftp")
	if err == nil || !strings.Contains(err.Error(), "unknown backend") {
		t.Errorf("error = %v, want unknown backend", err)
	}
}

func TestMergeFollowConfig_SinkRequiresPath(t *testing.T) {
	_, err := mergeWith(t, &config.Config{},
		"--base-url", "https://example.com/",
		"--sink-backend", "fs",
	)
	if err == nil || !strings.Contains(err.Error(), "--sink-path") {
		t.Errorf("error = %v, want sink-path requirement", err)
	}
}

func TestMergeFollowConfig_AdapterRequiresURL(t *testing.T) {
	_, err := mergeWith(t, &config.Config{},
		"--base-url", "https://example.com/",
		"--adapter", "webhook",
	)
	if err == nil || !strings.Contains(err.Error(), "--adapter-url") {
		t.Errorf("error = %v, want adapter-url requirement", err)
	}
}

func TestMergeFollowConfig_Defaults(t *testing.T) {
	choice, err := mergeWith(t, &config.Config{},
		"--base-url", "https://example.com/logs",
	)
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}

	if choice.backend != "http" {
		t.Errorf("backend = %q, want http default", choice.backend)
	}
	if choice.meta.Log != "log" {
		t.Errorf("log = %q, want default resource name", choice.meta.Log)
	}
	if choice.sink.dataset != "adit" {
		t.Errorf("sink dataset = %q, want default", choice.sink.dataset)
	}
	if choice.pollInterval != 0 {
		t.Errorf("poll interval = %v, want 0 (follower applies its default)", choice.pollInterval)
	}
}

func TestMergeFollowConfig_PollIntervalFromConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Follow.PollInterval.Duration = 10 * time.Second

	choice, err := mergeWith(t, cfg, "--base-url", "https://example.com/")
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	if choice.pollInterval != 10*time.Second {
		t.Errorf("poll interval = %v, want config value", choice.pollInterval)
	}
}

func TestReadInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log")
	if err := os.WriteFile(path, []byte("1..1\nok 1 t\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	text, err := readInput(path)
	if err != nil {
		t.Fatalf("readInput failed: %v", err)
	}
	if text != "1..1\nok 1 t\n" {
		t.Errorf("text = %q", text)
	}

	if _, err := readInput(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadPatterns(t *testing.T) {
	defaults, err := loadPatterns("")
	if err != nil {
		t.Fatalf("loadPatterns failed: %v", err)
	}
	if len(defaults) != len(links.DefaultPatterns()) {
		t.Errorf("empty path should yield the built-in patterns")
	}

	path := filepath.Join(t.TempDir(), "link-patterns.json")
	data := `[{"pattern": "artifact: (\\S+)", "label": "artifacts", "url": "$1", "title": "$1"}]`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	patterns, err := loadPatterns(path)
	if err != nil {
		t.Fatalf("loadPatterns failed: %v", err)
	}
	if len(patterns) != 1 || patterns[0].Label != "artifacts" {
		t.Errorf("patterns = %+v", patterns)
	}
}

func TestBuildResponse_NilRun(t *testing.T) {
	result := &follow.Result{
		Meta:      &types.FollowMeta{Log: "log", Source: "unit"},
		Outcome:   &types.FollowOutcome{Status: types.OutcomeIncomplete, Message: "no test plan detected"},
		BytesRead: 42,
		Duration:  1500 * time.Millisecond,
	}

	resp := buildResponse(result, metrics.Snapshot{ManifestPolls: 3})
	if resp.Outcome != "incomplete" {
		t.Errorf("outcome = %q", resp.Outcome)
	}
	if resp.Total != 0 || resp.Passed != 0 {
		t.Error("nil run must leave counters at zero")
	}
	if resp.Polls != 3 || resp.BytesRead != 42 || resp.DurationMs != 1500 {
		t.Errorf("response = %+v", resp)
	}
}

func TestBuildResponse_CopiesRunCounters(t *testing.T) {
	result := &follow.Result{
		Meta:    &types.FollowMeta{Log: "log"},
		Outcome: &types.FollowOutcome{Status: types.OutcomeTestFailure},
		Run: &types.TestRun{
			Planned: true, Total: 8, Passed: 5, Failed: 2, Skipped: 1, Retries: 1,
		},
	}

	resp := buildResponse(result, metrics.Snapshot{})
	if resp.Total != 8 || resp.Passed != 5 || resp.Failed != 2 || resp.Skipped != 1 || resp.Retries != 1 {
		t.Errorf("response counters = %+v", resp)
	}
}
