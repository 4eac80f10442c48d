// Package store provides SQLite-backed durable storage for the pipeline.
//
// The store holds two append-only tables:
//   - raw_readings: sensor readings as ingested
//   - verdicts: classification results, each referencing one reading id
//
// # Append-Only Contract
//
//   - Rows are never updated or deleted. Triggers in schema.sql abort any
//     UPDATE or DELETE, so the contract also holds for ad-hoc SQL.
//   - Ids come from INTEGER PRIMARY KEY AUTOINCREMENT. Appends hold a
//     store-wide write lock around "insert row, read LastInsertId" inside a
//     transaction, so two appends never observe the same id and a reader
//     never observes a half-written row.
//   - "Latest" means highest id, never latest timestamp. Timestamps are
//     opaque strings supplied by producers.
//   - verdicts.raw_id is not a foreign key. Referential integrity is a
//     property of the decision worker's causal order, not of the schema.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//
// Missing rows are not errors: lookups return ok=false.
package store
