// Package follow drives the accumulation loop of one follow session:
// poll the chunk manifest, fetch newly available byte ranges, grow the
// text buffer, re-parse, and hand each fresh TestRun snapshot to the
// configured notifier. The loop ends when the manifest disappears (log
// finalized, one terminal raw fetch) or on a fatal error.
package follow

import "strings"

// Accumulator is the session's accumulation state: the monotonically
// growing text buffer and the absolute byte offset consumed so far.
// It is exclusively owned by the follow loop; snapshots handed
// downstream are immutable copies of the text.
type Accumulator struct {
	buffer    strings.Builder
	bytesRead int64
}

// NewAccumulator returns an empty accumulation session.
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Advance appends text to the buffer and moves bytesRead to end.
// end never moves backwards.
func (a *Accumulator) Advance(text string, end int64) {
	a.buffer.WriteString(text)
	if end > a.bytesRead {
		a.bytesRead = end
	}
}

// Text returns the full accumulated text.
func (a *Accumulator) Text() string {
	return a.buffer.String()
}

// BytesRead returns the absolute byte offset consumed so far.
func (a *Accumulator) BytesRead() int64 {
	return a.bytesRead
}
