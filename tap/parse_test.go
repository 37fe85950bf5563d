package tap

import (
	"reflect"
	"strings"
	"testing"

	"github.com/justapithecus/adit/types"
)

func findEntry(t *testing.T, run *types.TestRun, id string) types.TestEntry {
	t.Helper()
	for _, e := range run.Entries {
		if e.ID == id {
			return e
		}
	}
	t.Fatalf("no entry with id %q in %+v", id, run.Entries)
	return types.TestEntry{}
}

func TestParse_NoPlanIsRawPassthrough(t *testing.T) {
	text := "make: *** [all] Error 2\nsome build noise\n"
	run := New(nil).Parse(text)

	if run.Planned {
		t.Fatal("text without a plan line must not be planned")
	}
	if run.Raw != text {
		t.Errorf("raw text must pass through verbatim, got %q", run.Raw)
	}
	if len(run.Entries) != 0 {
		t.Errorf("unplanned run must have no entries, got %+v", run.Entries)
	}
}

func TestParse_BasicRun(t *testing.T) {
	text := "1..2\nBuilding images\nStarting machines\n" +
		"# testOne starting\nok 1 test-one # duration: 12s\n" +
		"# testTwo starting\nnot ok 2 test-two # SKIP flaky\n"
	run := New(nil).Parse(text)

	if !run.Planned || run.Total != 2 {
		t.Fatalf("planned=%v total=%d", run.Planned, run.Total)
	}
	if run.Passed != 1 || run.Skipped != 1 || run.Failed != 0 {
		t.Errorf("counters: passed=%d skipped=%d failed=%d",
			run.Passed, run.Skipped, run.Failed)
	}
	if run.Finished != 2 || run.Left != 0 || run.Percent != 100 {
		t.Errorf("progress: finished=%d left=%d percent=%d",
			run.Finished, run.Left, run.Percent)
	}
	if !run.Complete() {
		t.Error("run with left == 0 must report complete")
	}

	if len(run.Entries) != 3 {
		t.Fatalf("expected init + 2 entries, got %d", len(run.Entries))
	}

	init := run.Entries[0]
	if init.ID != InitID || init.Idx != types.IdxInit {
		t.Errorf("first entry must be initialization, got %+v", init)
	}
	if !strings.Contains(init.Text, "Building images") ||
		!strings.Contains(init.Text, "1..2") {
		t.Errorf("init text must carry plan and preamble, got %q", init.Text)
	}

	one := findEntry(t, run, "1")
	if one.State != types.StatePassed || one.Title != "test-one" {
		t.Errorf("entry 1: %+v", one)
	}
	if one.Duration != 12 {
		t.Errorf("entry 1 duration = %d", one.Duration)
	}
	if !strings.HasSuffix(one.Text, "ok 1 test-one # duration: 12s\n") {
		t.Errorf("entry 1 text = %q", one.Text)
	}

	two := findEntry(t, run, "2")
	if two.State != types.StateSkipped || two.Reason != "flaky" {
		t.Errorf("entry 2: %+v", two)
	}
	if two.Title != "test-two" {
		t.Errorf("entry 2 title = %q", two.Title)
	}
}

func TestParse_Idempotent(t *testing.T) {
	text := "1..3\nok 1 a\nnot ok 2 b\nok 3 c # SKIP later\n"
	p := New(nil)

	first := p.Parse(text)
	second := p.Parse(text)
	if !reflect.DeepEqual(first, second) {
		t.Error("re-parsing identical text must yield an identical run")
	}
}

func TestParse_Failure(t *testing.T) {
	text := "1..2\nok 1 good\nnot ok 2 bad # duration: 3s\n"
	run := New(nil).Parse(text)

	if run.Failed != 1 || !run.HasFailures() {
		t.Fatalf("failed=%d", run.Failed)
	}
	bad := findEntry(t, run, "2")
	if bad.State != types.StateFailed || !bad.Interesting {
		t.Errorf("failed entry: %+v", bad)
	}
	if bad.Duration != 3 || bad.Title != "bad" {
		t.Errorf("failed entry title/duration: %+v", bad)
	}
}

func TestParse_TodoIsExpectedFailure(t *testing.T) {
	text := "1..1\nnot ok 1 known-broken # TODO fix upstream\n"
	run := New(nil).Parse(text)

	if run.Skipped != 1 || run.Failed != 0 {
		t.Fatalf("skipped=%d failed=%d", run.Skipped, run.Failed)
	}
	e := findEntry(t, run, "1")
	if e.State != types.StateSkipped || e.Reason != "fix upstream" {
		t.Errorf("todo entry: %+v", e)
	}
}

func TestParse_RetryMergesIntoOneEntry(t *testing.T) {
	text := "1..3\nok 1 a\nok 2 b\nnot ok 3 foo\n# RETRY\nok 3 foo\n"
	run := New(nil).Parse(text)

	if run.Retries != 1 || run.AffectedRetries != 0 {
		t.Fatalf("retries=%d affected=%d", run.Retries, run.AffectedRetries)
	}
	if run.Passed != 3 || run.Failed != 0 {
		t.Errorf("passed=%d failed=%d", run.Passed, run.Failed)
	}

	// init + three tests; the failed attempt is absorbed.
	if len(run.Entries) != 4 {
		t.Fatalf("expected 4 entries, got %d: %+v", len(run.Entries), run.Entries)
	}
	foo := findEntry(t, run, "3")
	if foo.State != types.StateRetried || !foo.Retried || !foo.Interesting {
		t.Errorf("retried entry: %+v", foo)
	}
	if !strings.Contains(foo.Text, "not ok 3 foo") ||
		!strings.HasSuffix(foo.Text, "ok 3 foo\n") {
		t.Errorf("merged segment text = %q", foo.Text)
	}
}

func TestParse_AffectedRetryNotFlagged(t *testing.T) {
	text := "1..1\nnot ok 1 foo\n# RETRY 2 (test affected tests 3 times)\nok 1 foo\n"
	run := New(nil).Parse(text)

	if run.AffectedRetries != 1 || run.Retries != 0 {
		t.Fatalf("affected=%d retries=%d", run.AffectedRetries, run.Retries)
	}
	e := findEntry(t, run, "1")
	if e.State != types.StatePassed || e.Retried {
		t.Errorf("affected retry must stay plain passed: %+v", e)
	}
}

func TestParse_DuplicateIDsDisambiguated(t *testing.T) {
	text := "1..2\nok 7 first\nok 7 second\nok 7 third\n"
	run := New(nil).Parse(text)

	first := findEntry(t, run, "7")
	second := findEntry(t, run, "7-1")
	third := findEntry(t, run, "7-2")
	for _, e := range []types.TestEntry{first, second, third} {
		if e.Idx != 7 {
			t.Errorf("idx must keep the numeric id, got %d for %q", e.Idx, e.ID)
		}
	}
	if first.Title != "first" || second.Title != "second" || third.Title != "third" {
		t.Errorf("disambiguation must follow encounter order: %+v", run.Entries)
	}

	if !run.CountMismatch || run.Left != 0 {
		t.Errorf("3 finished of 2 planned: mismatch=%v left=%d",
			run.CountMismatch, run.Left)
	}
}

func TestParse_TrailingTextIsInProgress(t *testing.T) {
	text := "1..2\nok 1 a\n# testTwo starting\npartial output"
	run := New(nil).Parse(text)

	if run.Finished != 1 || run.Left != 1 || run.Percent != 50 {
		t.Errorf("progress: finished=%d left=%d percent=%d",
			run.Finished, run.Left, run.Percent)
	}

	last := run.Entries[len(run.Entries)-1]
	if last.ID != InProgressID || last.State != types.StateInProgress {
		t.Fatalf("last entry must be in-progress, got %+v", last)
	}
	if last.Idx != types.IdxInProgress {
		t.Errorf("in-progress idx = %d", last.Idx)
	}
	if !strings.Contains(last.Text, "partial output") {
		t.Errorf("in-progress text = %q", last.Text)
	}
}

func TestParse_CrashedSegmentsBeforeInProgress(t *testing.T) {
	text := "1..3\nok 1 a\n" +
		"# testCrashy starting\nsegfault, no result line\n" +
		"# testLast starting\nstill running"
	run := New(nil).Parse(text)

	if run.Failed != 1 {
		t.Fatalf("crashed segment must count as failed, failed=%d", run.Failed)
	}

	crashed := findEntry(t, run, "testCrashy")
	if crashed.State != types.StateFailed || !crashed.Crashed || !crashed.Interesting {
		t.Errorf("crashed entry: %+v", crashed)
	}
	if !strings.Contains(crashed.Text, "segfault") {
		t.Errorf("crashed text = %q", crashed.Text)
	}

	last := run.Entries[len(run.Entries)-1]
	if last.ID != InProgressID {
		t.Fatalf("in-progress must sort last, got %+v", last)
	}
	if !strings.Contains(last.Text, "still running") {
		t.Errorf("in-progress text = %q", last.Text)
	}
}

func TestParse_DocumentAndOverviewOrdering(t *testing.T) {
	text := "1..4\nok 2 b\nnot ok 1 a\nok 4 d # SKIP slow\nnot ok 3 c\n"
	run := New(nil).Parse(text)

	var ids []string
	for _, e := range run.Entries {
		ids = append(ids, e.ID)
	}
	want := []string{InitID, "1", "2", "3", "4"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("document order = %v, want %v", ids, want)
	}

	var overview []string
	for _, e := range run.Overview {
		overview = append(overview, e.ID)
	}
	// Failures by idx first, then skips by idx.
	wantOverview := []string{"1", "3", "4"}
	if !reflect.DeepEqual(overview, wantOverview) {
		t.Errorf("overview order = %v, want %v", overview, wantOverview)
	}
}

func TestParse_LinksOnTestSegmentsOnly(t *testing.T) {
	text := "1..2\nWrote screenshot to init-shot.png\nok 1 fine\n" +
		"Wrote screenshot to fail-shot.png\nnot ok 2 broken\n"
	run := New(nil).Parse(text)

	init := run.Entries[0]
	if len(init.Links) != 0 {
		t.Errorf("initialization entry must not carry links, got %+v", init.Links)
	}

	broken := findEntry(t, run, "2")
	if len(broken.Links) != 1 || broken.Links[0].Label != "Screenshots" {
		t.Fatalf("links: %+v", broken.Links)
	}
	if broken.Links[0].Links[0].URL != "fail-shot.png" {
		t.Errorf("link url = %q", broken.Links[0].Links[0].URL)
	}
}

func TestParse_PlanWithoutResultsIsAllInit(t *testing.T) {
	text := "1..50\nBuilding images\n"
	run := New(nil).Parse(text)

	if run.Total != 50 || run.Finished != 0 || run.Left != 50 || run.Percent != 0 {
		t.Errorf("progress: %+v", run)
	}
	if len(run.Entries) != 1 || run.Entries[0].ID != InitID {
		t.Errorf("entries: %+v", run.Entries)
	}
	if run.Complete() {
		t.Error("nothing finished, run must not be complete")
	}
}

func TestParse_PlanOffsetRange(t *testing.T) {
	run := New(nil).Parse("5..8\nok 5 a\nok 6 b\n")
	if run.Total != 4 || run.Finished != 2 || run.Left != 2 {
		t.Errorf("total=%d finished=%d left=%d", run.Total, run.Finished, run.Left)
	}
}
