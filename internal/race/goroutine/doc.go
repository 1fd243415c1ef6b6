// Package goroutine implements per-participant logical time for the
// withdrawal conflict checker.
//
// Every participant of a run (the coordinator and each worker goroutine) owns
// one RaceContext holding:
//   - TID: participant ID (0 for the coordinator, 1..N for workers)
//   - C: vector clock sized to the run
//   - Epoch: cached C[TID], so an account access only needs one word
//
// A RaceContext is owned by a single goroutine. The coordinator hands a fresh
// context to a worker before the worker starts and reads it back only after
// the worker has been joined.
package goroutine
