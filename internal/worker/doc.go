// Package worker implements the decision worker: a polling loop that reads
// the newest raw reading, classifies it and writes back one verdict.
//
// The worker coordinates with the rest of the pipeline through the store
// alone. Each cycle moves through the states
//
//	Idle -> Fetch -> DedupCheck -> Classify -> Commit -> Idle
//
// and may return to Idle early from Fetch (empty store or fetch failure),
// DedupCheck (reading already processed) or Commit (write failure).
//
// Deduplication is by reading id only. The worker remembers the id of the
// last reading it committed a verdict for, and advances that marker only
// after the commit succeeds. A failed commit is retried on the next tick.
// Readings that arrive and are superseded between two ticks are never
// classified; only the latest reading matters.
//
// The marker lives in memory. A restarted worker starts from NoneProcessed
// and re-classifies whatever reading is latest at that moment.
package worker
