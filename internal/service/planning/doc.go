// Package planning implements opportunity and experiment tracking.
//
// Opportunities are sized pieces of lifecycle work moving through a
// pipeline; experiments are messaging tests attached to flows. Both are
// plain CRUD with light status-transition checks.
package planning
