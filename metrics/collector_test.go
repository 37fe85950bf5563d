package metrics

import (
	"sync"
	"testing"
)

func TestCollector_NilSafe(t *testing.T) {
	var c *Collector

	// None of these may panic.
	c.IncManifestPoll()
	c.IncFallback()
	c.IncChunkFetched()
	c.AddBytesRead(42)
	c.IncFetchRetry()
	c.IncFetchFailure()
	c.IncParse()
	c.AddLinkGroups(3)
	c.IncNotify()

	snap := c.Snapshot()
	if snap.BytesRead != 0 {
		t.Errorf("nil collector snapshot should be zero, got %+v", snap)
	}
}

func TestCollector_Counters(t *testing.T) {
	c := NewCollector("log", "http")

	c.IncManifestPoll()
	c.IncManifestPoll()
	c.IncChunkFetched()
	c.AddBytesRead(100)
	c.AddBytesRead(50)
	c.IncFetchRetry()
	c.IncParse()
	c.IncNotify()
	c.IncFallback()

	snap := c.Snapshot()
	if snap.ManifestPolls != 2 {
		t.Errorf("manifest polls = %d, want 2", snap.ManifestPolls)
	}
	if snap.BytesRead != 150 {
		t.Errorf("bytes read = %d, want 150", snap.BytesRead)
	}
	if snap.ChunksFetched != 1 || snap.FetchRetries != 1 || snap.Parses != 1 {
		t.Errorf("unexpected snapshot %+v", snap)
	}
	if snap.Log != "log" || snap.Backend != "http" {
		t.Errorf("dimensions not carried: %+v", snap)
	}
}

func TestCollector_ConcurrentIncrements(t *testing.T) {
	c := NewCollector("log", "s3")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.IncChunkFetched()
			c.AddBytesRead(10)
		}()
	}
	wg.Wait()

	snap := c.Snapshot()
	if snap.ChunksFetched != 50 {
		t.Errorf("chunks fetched = %d, want 50", snap.ChunksFetched)
	}
	if snap.BytesRead != 500 {
		t.Errorf("bytes read = %d, want 500", snap.BytesRead)
	}
}
