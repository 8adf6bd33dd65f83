// Package metrics provides Prometheus metrics registry and recording utilities.
//
// This package centralizes all application metrics including:
//   - HTTP request metrics (duration, count, size)
//   - Business metrics (tracked artists, users, platform fetches)
//   - Database query metrics
//   - Application performance metrics
//
// All metrics are automatically registered with the Prometheus default registry
// and exposed via the /metrics endpoint.
//
// Example usage:
//
//	import "release-radar/internal/observability/metrics"
//
//	func fetchReleases(platform string) {
//	    start := time.Now()
//	    // ... fetch releases ...
//	    count := 10
//
//	    metrics.RecordContentItemsFetched(platform, "release", count)
//	    metrics.RecordPlatformFetch(platform, "release", time.Since(start))
//	}
package metrics
