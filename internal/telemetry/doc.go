// Package telemetry defines the records that flow through the pipeline:
// raw sensor readings, the verdicts the decision worker derives from them,
// and the flattened dashboard snapshot that joins the two.
//
// This package contains types and pure functions only. Every other internal
// package imports telemetry; telemetry imports nothing internal.
//
// Identifiers are assigned by the store on append. A zero ID means "not yet
// stored". Timestamps are opaque wall-clock strings captured by whoever
// produced the record; the pipeline never parses or orders by them.
package telemetry
