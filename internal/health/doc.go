// Package health implements the channel-health rules engine: RAG
// (red/amber/green) classification of workflow metrics against layered
// targets, week-over-week delta math, and pairwise flow-conflict scoring.
//
// Every function in this package is pure: no I/O, no shared state, no
// clocks. Callers fetch rows, invoke the engine, and persist or display the
// results. The orchestration lives in service/health.
package health
