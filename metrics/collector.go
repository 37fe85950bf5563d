// Package metrics provides per-session metrics collection.
//
// The Collector accumulates counters during a single follow session. It
// is a leaf package with no internal dependencies. All increment methods
// are nil-receiver safe so callers never need to guard instrumentation.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of the session counters.
// Returned by Collector.Snapshot(). Safe to read concurrently after
// creation.
type Snapshot struct {
	// Manifest polling
	ManifestPolls int64
	Fallbacks     int64

	// Chunk fetching
	ChunksFetched int64
	BytesRead     int64
	FetchRetries  int64
	FetchFailures int64

	// Parsing
	Parses      int64
	LinkGroups  int64
	Notifies    int64

	// Dimensions (informational, set at construction)
	Log     string
	Backend string
}

// Collector accumulates metrics during a single follow session.
// Thread-safe via sync.Mutex.
type Collector struct {
	mu sync.Mutex

	manifestPolls int64
	fallbacks     int64

	chunksFetched int64
	bytesRead     int64
	fetchRetries  int64
	fetchFailures int64

	parses     int64
	linkGroups int64
	notifies   int64

	// Dimensions
	log     string
	backend string
}

// NewCollector creates a Collector with dimension labels. The backend
// label names the fetch source ("http", "s3").
func NewCollector(logName, backend string) *Collector {
	return &Collector{
		log:     logName,
		backend: backend,
	}
}

// IncManifestPoll records one manifest fetch iteration.
func (c *Collector) IncManifestPoll() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.manifestPolls++
	c.mu.Unlock()
}

// IncFallback records a chunked-to-raw fallback transition.
func (c *Collector) IncFallback() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.fallbacks++
	c.mu.Unlock()
}

// IncChunkFetched records one successfully fetched chunk.
func (c *Collector) IncChunkFetched() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.chunksFetched++
	c.mu.Unlock()
}

// AddBytesRead records n bytes appended to the accumulation buffer.
func (c *Collector) AddBytesRead(n int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.bytesRead += n
	c.mu.Unlock()
}

// IncFetchRetry records a transient fetch failure that will be retried.
func (c *Collector) IncFetchRetry() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.fetchRetries++
	c.mu.Unlock()
}

// IncFetchFailure records a fetch that gave up permanently.
func (c *Collector) IncFetchFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.fetchFailures++
	c.mu.Unlock()
}

// IncParse records one full re-parse of the accumulated buffer.
func (c *Collector) IncParse() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.parses++
	c.mu.Unlock()
}

// AddLinkGroups records link groups produced by a parse.
func (c *Collector) AddLinkGroups(n int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.linkGroups += n
	c.mu.Unlock()
}

// IncNotify records one snapshot handed to the notification hook.
func (c *Collector) IncNotify() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.notifies++
	c.mu.Unlock()
}

// Snapshot returns an immutable view of the current counters.
// Nil-receiver safe: returns a zero snapshot.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		ManifestPolls: c.manifestPolls,
		Fallbacks:     c.fallbacks,
		ChunksFetched: c.chunksFetched,
		BytesRead:     c.bytesRead,
		FetchRetries:  c.fetchRetries,
		FetchFailures: c.fetchFailures,
		Parses:        c.parses,
		LinkGroups:    c.linkGroups,
		Notifies:      c.notifies,
		Log:           c.log,
		Backend:       c.backend,
	}
}
