// Package dashboard aggregates persisted health flags into per-channel
// rollups for the overview screen. Rollups are cached in Redis for a short
// window; flag recomputation does not invalidate the cache, it simply ages
// out.
package dashboard
