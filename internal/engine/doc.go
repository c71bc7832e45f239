// Package engine implements the bootstrap lifecycle runtime.
//
// ARCHITECTURE:
//
// Single-Threaded Callback Loop:
// Every bootstrap callback (dependency injection finished, frame loaded,
// artifact failure) runs on one Loop goroutine. Concurrency is only apparent:
// callbacks interleave in arbitrary order but never overlap.
//
// Lifecycle Coordinator:
// Two completion signals, injection done and load done, may arrive in either
// order. The Coordinator starts the artifact exactly once, on whichever
// signal completes the pair. Later signals are no-ops.
//
// CRITICAL PATTERNS:
//
// Logical Clock:
// Trace events are stamped with a monotonic seq from Clock.Next().
// NEVER use wall-clock timestamps for ordering.
//
// Exactly-Once Start:
// The started flag flips under the Coordinator's lock before the start
// action runs. The start action runs outside the lock so it may signal the
// Coordinator again without deadlock.
package engine
