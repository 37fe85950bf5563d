// Package tap parses the line-oriented test-result grammar embedded in
// CI log text: a plan line declaring the test-id range, ok / not ok
// result terminators with optional duration and SKIP/TODO directives,
// and free-standing RETRY annotations.
//
// Parsing is a pure function over the full accumulated text. Every
// invocation re-tokenizes and re-classifies from scratch, which keeps
// the parser idempotent and immune to drift from earlier partial
// parses. Tokenizing first splits the text into an immutable sequence
// of segment records; classification then treats each segment
// independently and statelessly.
package tap

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// planPattern matches the plan line, e.g. "1..42".
	planPattern = regexp.MustCompile(`(?m)^(\d+)\.\.(\d+)[ \t]*$`)

	// resultPattern matches a result terminator line.
	resultPattern = regexp.MustCompile(`(?m)^(ok|not ok) (\d+) (.*)$`)

	// retryPattern matches the free-standing retry annotation.
	retryPattern = regexp.MustCompile(`(?m)^# RETRY\b`)

	// markerPattern matches a test-start marker line inside a segment
	// that never reached a terminator (crash detection).
	markerPattern = regexp.MustCompile(`(?m)^# (test\S+.*)$`)

	durationPattern = regexp.MustCompile(` # duration: (\d+)s`)
	skipPattern     = regexp.MustCompile(` # SKIP (.*)$`)
	todoPattern     = regexp.MustCompile(` # TODO (.*)$`)
)

// affectedPhrase marks a retry that the harness attributes to test
// cross-contamination rather than flakiness of the test itself.
const affectedPhrase = "(test affected tests 3 times)"

// result is a parsed terminator line.
type result struct {
	ok   bool
	id   int
	desc string
	line string // the full terminator line
}

// segment is one tokenized slice of the log: everything since the
// previous terminator through and including its own terminator. The
// trailing tail segment has res == nil.
type segment struct {
	text string
	res  *result
}

// tokens is the immutable tokenization of one full log text.
type tokens struct {
	planned bool
	first   int
	last    int
	init    string    // pre-plan text, plan line, and post-plan text up to the first terminator
	segs    []segment // terminator-bearing segments in document order
	tail    string    // trailing text with no terminator
}

// tokenize splits text into plan, initialization, terminator segments,
// and trailing tail. Malformed input never fails: text without a plan
// line simply reports planned == false.
func tokenize(text string) tokens {
	plan := planPattern.FindStringSubmatchIndex(text)
	if plan == nil {
		return tokens{}
	}

	first, _ := strconv.Atoi(text[plan[2]:plan[3]])
	last, _ := strconv.Atoi(text[plan[4]:plan[5]])

	t := tokens{planned: true, first: first, last: last}

	// Terminators are only meaningful after the plan line.
	matches := resultPattern.FindAllStringSubmatchIndex(text, -1)
	var spans [][]int
	for _, m := range matches {
		if m[0] >= plan[1] {
			spans = append(spans, m)
		}
	}

	if len(spans) == 0 {
		t.init = text
		return t
	}

	t.init = text[:spans[0][0]]

	prev := spans[0][0]
	for _, m := range spans {
		end := m[1]
		if end < len(text) && text[end] == '\n' {
			end++
		}
		seg := segment{
			text: text[prev:end],
			res: &result{
				ok:   text[m[2]:m[3]] == "ok",
				id:   mustAtoi(text[m[4]:m[5]]),
				desc: text[m[6]:m[7]],
				line: text[m[0]:m[1]],
			},
		}
		prev = end

		// A retry re-reports the same test id: the earlier terminator is
		// demoted to ordinary text and the whole exchange becomes one
		// segment ending at the re-run's terminator.
		if n := len(t.segs); n > 0 &&
			t.segs[n-1].res.id == seg.res.id &&
			retryPattern.MatchString(seg.text) {
			t.segs[n-1].text += seg.text
			t.segs[n-1].res = seg.res
			continue
		}
		t.segs = append(t.segs, seg)
	}

	if tail := text[prev:]; strings.TrimSpace(tail) != "" {
		t.tail = tail
	}

	return t
}

// splitTail splits the trailing unterminated text at test-start
// markers. All sub-segments except the last belong to tests that died
// without reporting; the last is the one still in progress.
func splitTail(tail string) (crashed []string, inProgress string) {
	markers := markerPattern.FindAllStringIndex(tail, -1)
	if len(markers) < 2 {
		return nil, tail
	}

	start := 0
	for _, m := range markers[1:] {
		crashed = append(crashed, tail[start:m[0]])
		start = m[0]
	}
	return crashed, tail[start:]
}

// markerID derives an entry id from the first recognizable marker line
// of a crashed segment.
func markerID(seg string) string {
	m := markerPattern.FindStringSubmatch(seg)
	if m == nil {
		return "crashed"
	}
	fields := strings.Fields(m[1])
	if len(fields) == 0 {
		return "crashed"
	}
	return fields[0]
}

func mustAtoi(s string) int {
	n, _ := strconv.Atoi(s) // guarded by \d+ in the pattern
	return n
}
