package types

import (
	"encoding/json"
	"fmt"
)

// ChunkManifest is the ordered list of chunk byte lengths published as
// the `<name>.chunks` resource. The producer only ever appends; lengths
// already reported never change.
type ChunkManifest []int64

// ParseChunkManifest decodes a manifest from its JSON wire form and
// validates the length invariant.
func ParseChunkManifest(data []byte) (ChunkManifest, error) {
	var m ChunkManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("invalid chunk manifest: %w", err)
	}
	for i, n := range m {
		if n < 0 {
			return nil, fmt.Errorf("invalid chunk manifest: negative length %d at index %d", n, i)
		}
	}
	return m, nil
}

// ChunkRange is the absolute byte range of one declared chunk.
type ChunkRange struct {
	Index int
	Start int64
	End   int64 // exclusive
}

// Resource returns the chunk's resource name, e.g. "log.100-150".
func (r ChunkRange) Resource(name string) string {
	return fmt.Sprintf("%s.%d-%d", name, r.Start, r.End)
}

// Ranges expands the manifest into absolute byte ranges by running sum.
func (m ChunkManifest) Ranges() []ChunkRange {
	ranges := make([]ChunkRange, 0, len(m))
	var offset int64
	for i, n := range m {
		ranges = append(ranges, ChunkRange{Index: i, Start: offset, End: offset + n})
		offset += n
	}
	return ranges
}

// TotalBytes returns the total declared log size in bytes.
func (m ChunkManifest) TotalBytes() int64 {
	var total int64
	for _, n := range m {
		total += n
	}
	return total
}

// ManifestResource returns the manifest resource name for a log,
// e.g. "log.chunks".
func ManifestResource(name string) string {
	return name + ".chunks"
}
