package sink

import (
	"time"

	"github.com/justapithecus/adit/types"
)

// RecordKind discriminator values.
const (
	RecordKindRun   = "run"
	RecordKindEntry = "entry"
)

// RunRecord is the storage format for one TestRun snapshot's aggregate
// counters and outcome.
type RunRecord struct {
	// Record discriminator
	RecordKind string `json:"record_kind"`

	// Run counters
	Planned         bool `json:"planned"`
	Total           int  `json:"total"`
	Passed          int  `json:"passed"`
	Failed          int  `json:"failed"`
	Skipped         int  `json:"skipped"`
	Retries         int  `json:"retries"`
	AffectedRetries int  `json:"affected_retries"`
	Finished        int  `json:"finished"`
	Left            int  `json:"left"`
	CountMismatch   bool `json:"count_mismatch,omitempty"`

	// Outcome, present only on the final flush
	Outcome        string `json:"outcome,omitempty"`
	OutcomeMessage string `json:"outcome_message,omitempty"`

	// Snapshot timestamp, RFC 3339 UTC
	Ts string `json:"ts"`

	// Partition keys (used by Lode HiveLayout)
	Source string `json:"source"`
	Day    string `json:"day"`
	JobID  string `json:"job_id"`
	Kind   string `json:"kind"`
}

// EntryRecord is the storage format for one test entry.
type EntryRecord struct {
	// Record discriminator
	RecordKind string `json:"record_kind"`

	// Entry fields
	ID       string `json:"id"`
	Idx      int    `json:"idx"`
	Title    string `json:"title"`
	State    string `json:"state"`
	Reason   string `json:"reason,omitempty"`
	Duration int    `json:"duration,omitempty"`
	Retried  bool   `json:"retried,omitempty"`
	Crashed  bool   `json:"crashed,omitempty"`

	// Links are flattened to URLs, grouped order preserved.
	LinkURLs []string `json:"link_urls,omitempty"`

	Ts string `json:"ts"`

	// Partition keys
	Source string `json:"source"`
	Day    string `json:"day"`
	JobID  string `json:"job_id"`
	Kind   string `json:"kind"`
}

// DeriveDay computes the partition day from session start time.
// Format: YYYY-MM-DD in UTC.
func DeriveDay(startTime time.Time) string {
	return startTime.UTC().Format("2006-01-02")
}

// toRunRecordMap converts a snapshot's aggregates to a map for Lode
// storage. Lode HiveLayout requires records as map[string]any.
func toRunRecordMap(cfg Config, run *types.TestRun, outcome *types.FollowOutcome, ts string) map[string]any {
	m := map[string]any{
		"record_kind":      RecordKindRun,
		"planned":          run.Planned,
		"total":            run.Total,
		"passed":           run.Passed,
		"failed":           run.Failed,
		"skipped":          run.Skipped,
		"retries":          run.Retries,
		"affected_retries": run.AffectedRetries,
		"finished":         run.Finished,
		"left":             run.Left,
		"count_mismatch":   run.CountMismatch,
		"ts":               ts,
		"source":           cfg.Source,
		"day":              cfg.Day,
		"job_id":           cfg.JobID,
		"kind":             RecordKindRun, // partition key
	}
	if outcome != nil {
		m["outcome"] = string(outcome.Status)
		m["outcome_message"] = outcome.Message
	}
	return m
}

// toEntryRecordMap converts one test entry to a map for Lode storage.
func toEntryRecordMap(cfg Config, e *types.TestEntry, ts string) map[string]any {
	var linkURLs []string
	for _, group := range e.Links {
		for _, link := range group.Links {
			linkURLs = append(linkURLs, link.URL)
		}
	}

	m := map[string]any{
		"record_kind": RecordKindEntry,
		"id":          e.ID,
		"idx":         e.Idx,
		"title":       e.Title,
		"state":       string(e.State),
		"ts":          ts,
		"source":      cfg.Source,
		"day":         cfg.Day,
		"job_id":      cfg.JobID,
		"kind":        RecordKindEntry, // partition key
	}
	if e.Reason != "" {
		m["reason"] = e.Reason
	}
	if e.Duration > 0 {
		m["duration"] = e.Duration
	}
	if e.Retried {
		m["retried"] = true
	}
	if e.Crashed {
		m["crashed"] = true
	}
	if len(linkURLs) > 0 {
		m["link_urls"] = linkURLs
	}
	return m
}

// buildRecords converts a snapshot into one run record plus one entry
// record per test entry. The initialization and in-progress
// placeholders are not persisted.
func buildRecords(cfg Config, run *types.TestRun, outcome *types.FollowOutcome, now time.Time) []any {
	ts := now.UTC().Format(time.RFC3339)

	records := []any{toRunRecordMap(cfg, run, outcome, ts)}
	for i := range run.Entries {
		e := &run.Entries[i]
		if e.Idx == types.IdxInit || e.State == types.StateInProgress {
			continue
		}
		records = append(records, toEntryRecordMap(cfg, e, ts))
	}
	return records
}
