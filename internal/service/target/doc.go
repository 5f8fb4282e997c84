// Package target implements KPI target management.
//
// Targets are layered configuration: the same metric can carry a global,
// channel, product, and workflow-level value, and the health engine resolves
// the most specific one at evaluation time. This service owns the write
// path, including the overlap check that keeps equal-specificity targets
// from colliding on effective dates.
package target
