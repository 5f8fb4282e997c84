// Package flow implements lifecycle-messaging flow management.
//
// Besides CRUD, the service exposes conflict detection: every page view
// recomputes pairwise fatigue risk across the live flows via the pure
// engine in internal/health. Conflicts are derived data and are never
// persisted or cached.
package flow
