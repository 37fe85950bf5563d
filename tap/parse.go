package tap

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/justapithecus/adit/links"
	"github.com/justapithecus/adit/types"
)

// InitID is the entry id of the initialization preamble.
const InitID = "initialization"

// InProgressID is the entry id of the trailing placeholder for the test
// currently running.
const InProgressID = "in-progress"

// Parser classifies tokenized segments into test entries. A nil
// annotator falls back to the default artifact patterns.
type Parser struct {
	annotator *links.Annotator
}

// New returns a Parser annotating entries with the given pattern set.
func New(annotator *links.Annotator) *Parser {
	if annotator == nil {
		annotator = links.Default()
	}
	return &Parser{annotator: annotator}
}

// Parse re-parses the full accumulated log text and returns a fresh
// TestRun. Text without a plan line is reported as unplanned raw
// output; everything else always yields a well-formed run, however
// truncated or interleaved the log is.
func (p *Parser) Parse(text string) *types.TestRun {
	toks := tokenize(text)
	if !toks.planned {
		return &types.TestRun{Raw: text}
	}

	run := &types.TestRun{
		Planned: true,
		Total:   toks.last - toks.first + 1,
	}
	if run.Total < 0 {
		run.Total = 0
	}

	run.Entries = append(run.Entries, types.TestEntry{
		ID:    InitID,
		Idx:   types.IdxInit,
		Title: "initialization",
		State: types.StatePassed,
		Text:  toks.init,
	})

	seen := make(map[int]int)
	for _, seg := range toks.segs {
		run.Entries = append(run.Entries, p.classify(run, seg, seen))
	}

	if toks.tail != "" {
		crashed, inProgress := splitTail(toks.tail)
		for _, seg := range crashed {
			run.Failed++
			run.Entries = append(run.Entries, types.TestEntry{
				ID:          markerID(seg),
				Idx:         types.IdxInProgress,
				Title:       markerID(seg),
				State:       types.StateFailed,
				Text:        seg,
				Interesting: true,
				Crashed:     true,
				Links:       p.annotator.Annotate(seg),
			})
		}
		run.Entries = append(run.Entries, types.TestEntry{
			ID:    InProgressID,
			Idx:   types.IdxInProgress,
			Title: "in progress",
			State: types.StateInProgress,
			Text:  inProgress,
			Links: p.annotator.Annotate(inProgress),
		})
	}

	finalize(run)
	return run
}

// classify builds the entry for one terminator-bearing segment. The
// segment text alone determines the outcome; no state carries over
// between segments.
func (p *Parser) classify(run *types.TestRun, seg segment, seen map[int]int) types.TestEntry {
	res := seg.res
	entry := types.TestEntry{
		ID:    assignID(seen, res.id),
		Idx:   res.id,
		Title: title(res.desc),
		Text:  seg.text,
		Links: p.annotator.Annotate(seg.text),
	}

	if m := durationPattern.FindStringSubmatch(res.line); m != nil {
		entry.Duration = mustAtoi(m[1])
	}

	switch {
	case retryPattern.MatchString(seg.text):
		if strings.Contains(seg.text, affectedPhrase) {
			run.AffectedRetries++
			entry.State = types.StatePassed
		} else {
			run.Retries++
			entry.State = types.StateRetried
			entry.Retried = true
			entry.Interesting = true
		}
		run.Passed++
	case skipPattern.MatchString(res.line):
		entry.State = types.StateSkipped
		entry.Reason = skipPattern.FindStringSubmatch(res.line)[1]
		run.Skipped++
	case !res.ok && todoPattern.MatchString(res.line):
		entry.State = types.StateSkipped
		entry.Reason = todoPattern.FindStringSubmatch(res.line)[1]
		run.Skipped++
	case res.ok:
		entry.State = types.StatePassed
		run.Passed++
	default:
		entry.State = types.StateFailed
		entry.Interesting = true
		run.Failed++
	}

	return entry
}

// finalize computes the derived counters and orderings.
func finalize(run *types.TestRun) {
	run.Finished = run.Passed + run.Failed + run.Skipped

	run.Left = run.Total - run.Finished
	if run.Left < 0 {
		run.Left = 0
		run.CountMismatch = true
	}
	if run.Total > 0 {
		run.Percent = run.Finished * 100 / run.Total
		if run.Percent > 100 {
			run.Percent = 100
		}
	}

	sort.SliceStable(run.Entries, func(i, j int) bool {
		return run.Entries[i].Idx < run.Entries[j].Idx
	})

	for _, e := range run.Entries {
		if e.State == types.StateFailed {
			run.Overview = append(run.Overview, e)
		}
	}
	for _, e := range run.Entries {
		if e.State == types.StateSkipped {
			run.Overview = append(run.Overview, e)
		}
	}
}

// assignID disambiguates repeated numeric ids as "7", "7-1", "7-2" in
// encounter order.
func assignID(seen map[int]int, id int) string {
	n := seen[id]
	seen[id]++
	if n == 0 {
		return fmt.Sprintf("%d", id)
	}
	return fmt.Sprintf("%d-%d", id, n)
}

// title strips the duration and SKIP/TODO suffixes from a result
// description.
func title(desc string) string {
	cut := len(desc)
	for _, re := range []*regexp.Regexp{durationPattern, skipPattern, todoPattern} {
		if loc := re.FindStringIndex(desc); loc != nil && loc[0] < cut {
			cut = loc[0]
		}
	}
	return strings.TrimSpace(desc[:cut])
}
