package worker

import "github.com/roach88/sluicewatch/internal/telemetry"

// State is a phase of a decision cycle.
type State int32

const (
	StateIdle State = iota
	StateFetch
	StateDedupCheck
	StateClassify
	StateCommit
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetch:
		return "fetch"
	case StateDedupCheck:
		return "dedup_check"
	case StateClassify:
		return "classify"
	case StateCommit:
		return "commit"
	default:
		return "unknown"
	}
}

// Outcome is how a cycle ended. Values double as the worker_cycles_total
// metric label.
type Outcome string

const (
	OutcomeEmpty        Outcome = "empty"
	OutcomeDuplicate    Outcome = "duplicate"
	OutcomeCommitted    Outcome = "committed"
	OutcomeFetchFailed  Outcome = "fetch_failed"
	OutcomeCommitFailed Outcome = "commit_failed"

	// OutcomeCancelled means the context ended mid-cycle. It is not
	// counted in metrics.
	OutcomeCancelled Outcome = "cancelled"
)

// countedOutcomes are the outcomes exported as worker_cycles_total labels.
var countedOutcomes = []Outcome{
	OutcomeEmpty,
	OutcomeDuplicate,
	OutcomeCommitted,
	OutcomeFetchFailed,
	OutcomeCommitFailed,
}

// CycleResult reports a single Step.
type CycleResult struct {
	Outcome Outcome

	// ReadingID is the fetched reading's id. Zero for empty or failed fetches.
	ReadingID int64

	// Verdict is the classification result. Set for committed and
	// commit_failed outcomes; its ID is always zero.
	Verdict telemetry.Verdict

	Err error
}
