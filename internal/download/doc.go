// Package download implements the scheduler: a bounded-concurrency queue of
// download items, a supervisor loop that dispatches queued items onto
// registered platform providers, and the checkpointing that keeps the
// persisted queue document in sync with every mutation.
package download
