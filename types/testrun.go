// Package types defines the shared value objects of adit: parsed test
// runs and entries, link descriptors, chunk manifests, and follow
// metadata. Everything here is a plain data definition; construction and
// mutation live in the packages that own the respective lifecycle.
package types

// TestState is the reported state of a single test entry.
type TestState string

// Test entry states.
const (
	StatePassed     TestState = "passed"
	StateFailed     TestState = "failed"
	StateSkipped    TestState = "skipped"
	StateRetried    TestState = "retried"
	StateInProgress TestState = "in-progress"
)

// Entry idx sentinels. The initialization entry sorts first, the
// synthetic in-progress entry sorts after every numeric test id.
const (
	IdxInit       = 0
	IdxInProgress = int(^uint32(0) >> 1)
)

// TestEntry is one parsed segment of the log: a single test result, the
// initialization preamble, or the synthetic in-progress placeholder.
// Entries are immutable once built; every re-parse supersedes the whole
// set wholesale.
type TestEntry struct {
	// ID is the entry identifier, unique within a run. Repeated numeric
	// ids are disambiguated as "7", "7-1", "7-2", ... in encounter order.
	ID string `json:"id" msgpack:"id"`
	// Idx is the sort key: the original numeric test id, IdxInit for the
	// initialization entry, IdxInProgress for the trailing placeholder.
	Idx int `json:"idx" msgpack:"idx"`
	// Title is the test description from the result line, with duration
	// and SKIP/TODO directives stripped.
	Title string `json:"title" msgpack:"title"`
	// State is the classified entry state.
	State TestState `json:"state" msgpack:"state"`
	// Reason carries the SKIP/TODO reason, when present.
	Reason string `json:"reason,omitempty" msgpack:"reason,omitempty"`
	// Duration is the reported test duration in seconds, 0 if absent.
	Duration int `json:"duration,omitempty" msgpack:"duration,omitempty"`
	// Text is the verbatim log segment this entry was parsed from.
	Text string `json:"text" msgpack:"text"`
	// Retried marks a test that passed only after an automatic re-run.
	Retried bool `json:"retried,omitempty" msgpack:"retried,omitempty"`
	// Interesting marks entries worth operator attention (failures and
	// genuine retries).
	Interesting bool `json:"interesting,omitempty" msgpack:"interesting,omitempty"`
	// Crashed marks a failed entry synthesized from a segment that never
	// reported a result line.
	Crashed bool `json:"crashed,omitempty" msgpack:"crashed,omitempty"`
	// Links are artifact links extracted from Text, grouped per pattern.
	Links []LinkGroup `json:"links,omitempty" msgpack:"links,omitempty"`
}

// TestRun is the immutable result of one full parse of the accumulated
// log text. Callers receive a fresh TestRun on every poll iteration.
type TestRun struct {
	// Planned reports whether a plan line was found. When false the text
	// is not TAP; Raw carries it verbatim and no entries are produced.
	Planned bool   `json:"planned" msgpack:"planned"`
	Raw     string `json:"raw,omitempty" msgpack:"raw,omitempty"`

	// Total is the number of tests declared by the plan line.
	Total int `json:"total" msgpack:"total"`

	// Aggregate counters. Finished = Passed + Failed + Skipped.
	Passed          int `json:"passed" msgpack:"passed"`
	Failed          int `json:"failed" msgpack:"failed"`
	Skipped         int `json:"skipped" msgpack:"skipped"`
	Retries         int `json:"retries" msgpack:"retries"`
	AffectedRetries int `json:"affected_retries" msgpack:"affected_retries"`
	Finished        int `json:"finished" msgpack:"finished"`
	Left            int `json:"left" msgpack:"left"`
	Percent         int `json:"percent" msgpack:"percent"`

	// CountMismatch is set when more terminators finished than the plan
	// declared; Left is clamped to zero in that case.
	CountMismatch bool `json:"count_mismatch,omitempty" msgpack:"count_mismatch,omitempty"`

	// Entries in document order: initialization first, numeric idx
	// ascending, in-progress placeholder last.
	Entries []TestEntry `json:"entries,omitempty" msgpack:"entries,omitempty"`
	// Overview surfaces problems first: failed entries by idx, then
	// skipped entries by idx.
	Overview []TestEntry `json:"overview,omitempty" msgpack:"overview,omitempty"`
}

// HasFailures reports whether any entry failed.
func (r *TestRun) HasFailures() bool {
	return r.Failed > 0
}

// Complete reports whether every planned test has finished.
func (r *TestRun) Complete() bool {
	return r.Planned && r.Left == 0
}
