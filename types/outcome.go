package types

// FollowStatus classifies how a follow session ended.
type FollowStatus string

const (
	// OutcomeSuccess: the log finalized with every planned test passed
	// or skipped.
	OutcomeSuccess FollowStatus = "success"
	// OutcomeTestFailure: the log finalized with at least one failure.
	OutcomeTestFailure FollowStatus = "test_failure"
	// OutcomeIncomplete: the follow loop stopped before the run reported
	// all planned tests (fatal fetch error, cancellation, or a finalized
	// log with tests left).
	OutcomeIncomplete FollowStatus = "incomplete"
)

// FollowOutcome is the terminal outcome of a follow session.
type FollowOutcome struct {
	Status  FollowStatus `json:"status" msgpack:"status"`
	Message string       `json:"message,omitempty" msgpack:"message,omitempty"`
}
