// Package health orchestrates channel-health flag recomputation.
//
// The service layer fetches snapshot/target/config rows through the
// Repository interface, runs the pure rules engine in internal/health, and
// upserts the resulting flags. It owns the batch semantics: each
// (workflow, channel, period_type, period_date) combination is processed
// independently and a failure on one never aborts the rest.
//
// Repository implementations live in repository/postgres/.
package health
