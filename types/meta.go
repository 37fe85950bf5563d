package types

import "errors"

// FollowMeta identifies one follow session. It seeds logger context and
// sink partition keys.
type FollowMeta struct {
	// Log is the base resource name of the log being followed ("log" by
	// convention; chunk and manifest resources derive from it).
	Log string
	// Source identifies the origin system or test suite, used as a
	// partition key by the results sink.
	Source string
	// JobID is the CI job identifier, when known.
	JobID string
}

// Validate checks required follow metadata.
func (m *FollowMeta) Validate() error {
	if m == nil {
		return errors.New("follow metadata is required")
	}
	if m.Log == "" {
		return errors.New("log resource name is required")
	}
	return nil
}
