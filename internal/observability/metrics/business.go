package metrics

import (
	"time"
)

// RecordContentItemsFetched records the number of content items fetched from a
// platform for one content kind. This metric tracks platform activity and the
// volume flowing into change detection.
func RecordContentItemsFetched(platform, kind string, count int) {
	ContentItemsFetchedTotal.WithLabelValues(platform, kind).Add(float64(count))
}

// RecordPlatformFetch records the duration of one platform fetch.
func RecordPlatformFetch(platform, kind string, duration time.Duration) {
	PlatformFetchDuration.WithLabelValues(platform, kind).Observe(duration.Seconds())
}

// RecordPlatformFetchError records an error during a platform fetch.
// ErrorType should be a coarse classification such as "rate_limited",
// "not_found", or "transient" to keep label cardinality bounded.
func RecordPlatformFetchError(platform, errorType string) {
	PlatformFetchErrors.WithLabelValues(platform, errorType).Inc()
}

// UpdateTrackedArtistsTotal updates the total count of tracked artists.
// This gauge should be updated periodically to reflect the current state.
func UpdateTrackedArtistsTotal(count int) {
	TrackedArtistsTotal.Set(float64(count))
}

// UpdateRegisteredUsersTotal updates the total count of registered users.
// This gauge should be updated periodically to reflect the current state.
func UpdateRegisteredUsersTotal(count int) {
	RegisteredUsersTotal.Set(float64(count))
}

// RecordDBQuery records the duration of a database query operation.
// Operation should describe the query type (e.g., "select_artists", "insert_artist").
func RecordDBQuery(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// UpdateDBConnectionStats updates database connection pool statistics.
func UpdateDBConnectionStats(active, idle int) {
	DBConnectionsActive.Set(float64(active))
	DBConnectionsIdle.Set(float64(idle))
}
