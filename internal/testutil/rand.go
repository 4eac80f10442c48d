package testutil

import "sync"

// ScriptedRand replays a fixed list of values from Float64, wrapping around
// when the list is exhausted.
//
// It stands in for *math/rand.Rand wherever code only needs Float64, which
// lets sensor feed tests choose the exact branch and value drawn.
type ScriptedRand struct {
	mu     sync.Mutex
	values []float64
	idx    int
}

// NewScriptedRand creates a source that returns values in order.
// Panics if values is empty.
func NewScriptedRand(values ...float64) *ScriptedRand {
	if len(values) == 0 {
		panic("testutil: NewScriptedRand needs at least one value")
	}
	return &ScriptedRand{values: values}
}

// Float64 returns the next scripted value.
func (r *ScriptedRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	v := r.values[r.idx%len(r.values)]
	r.idx++
	return v
}

// Calls returns how many values have been drawn.
func (r *ScriptedRand) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.idx
}
