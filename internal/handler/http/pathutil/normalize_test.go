package pathutil

import (
	"testing"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected string
	}{
		// Artist routes with IDs (should be normalized)
		{
			name:     "artist with ID 123",
			path:     "/artists/123",
			expected: "/artists/:id",
		},
		{
			name:     "artist with ID 456",
			path:     "/artists/456",
			expected: "/artists/:id",
		},
		{
			name:     "artist with ID 999999",
			path:     "/artists/999999",
			expected: "/artists/:id",
		},
		{
			name:     "artist with ID and trailing slash",
			path:     "/artists/123/",
			expected: "/artists/:id",
		},
		{
			name:     "artist with ID and query params",
			path:     "/artists/123?platform=soundcloud",
			expected: "/artists/:id",
		},
		{
			name:     "artist releases",
			path:     "/artists/123/releases",
			expected: "/artists/:id/releases",
		},

		// User routes with snowflake IDs (should be normalized)
		{
			name:     "user with snowflake ID",
			path:     "/users/200000000000000001",
			expected: "/users/:id",
		},
		{
			name:     "user with short ID",
			path:     "/users/1",
			expected: "/users/:id",
		},
		{
			name:     "user artists",
			path:     "/users/200000000000000001/artists",
			expected: "/users/:id/artists",
		},

		// Guild routes with snowflake IDs (should be normalized)
		{
			name:     "guild with snowflake ID",
			path:     "/guilds/300000000000000001",
			expected: "/guilds/:id",
		},
		{
			name:     "guild channels",
			path:     "/guilds/300000000000000001/channels",
			expected: "/guilds/:id/channels",
		},
		{
			name:     "guild with ID and trailing slash",
			path:     "/guilds/123/",
			expected: "/guilds/:id",
		},

		// Static endpoints (should remain unchanged)
		{
			name:     "health endpoint",
			path:     "/health",
			expected: "/health",
		},
		{
			name:     "health with query params",
			path:     "/health?format=json",
			expected: "/health",
		},
		{
			name:     "metrics endpoint",
			path:     "/metrics",
			expected: "/metrics",
		},
		{
			name:     "auth token endpoint",
			path:     "/auth/token",
			expected: "/auth/token",
		},
		{
			name:     "ready endpoint",
			path:     "/ready",
			expected: "/ready",
		},
		{
			name:     "live endpoint",
			path:     "/live",
			expected: "/live",
		},
		{
			name:     "channels endpoint",
			path:     "/channels",
			expected: "/channels",
		},

		// List endpoints (should remain unchanged)
		{
			name:     "artists list",
			path:     "/artists",
			expected: "/artists",
		},
		{
			name:     "artists list with query params",
			path:     "/artists?platform=soundcloud&guild_id=300000000000000001",
			expected: "/artists",
		},
		{
			name:     "users list",
			path:     "/users",
			expected: "/users",
		},

		// Unknown/unmatched paths (should remain unchanged)
		{
			name:     "unknown path with ID",
			path:     "/unknown/path/123",
			expected: "/unknown/path/123",
		},
		{
			name:     "unknown nested path",
			path:     "/api/v2/items/456",
			expected: "/api/v2/items/456",
		},

		// Edge cases
		{
			name:     "root path",
			path:     "/",
			expected: "/",
		},
		{
			name:     "empty path",
			path:     "",
			expected: "",
		},
		{
			name:     "path with only query params",
			path:     "/?page=1",
			expected: "/",
		},
		{
			name:     "artist with non-numeric ID (should not normalize)",
			path:     "/artists/abc",
			expected: "/artists/abc",
		},
		{
			name:     "artist with Spotify-style ID (should not normalize)",
			path:     "/artists/4Z8W4fKeB5YxbusRsiQB2v",
			expected: "/artists/4Z8W4fKeB5YxbusRsiQB2v",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NormalizePath(tt.path)
			if result != tt.expected {
				t.Errorf("NormalizePath(%q) = %q, want %q", tt.path, result, tt.expected)
			}
		})
	}
}

func TestNormalizePath_Cardinality(t *testing.T) {
	// Test that different IDs produce the same normalized path
	paths := []string{
		"/artists/1",
		"/artists/2",
		"/artists/123",
		"/artists/456",
		"/artists/789",
		"/artists/999999",
	}

	expected := "/artists/:id"
	for _, path := range paths {
		result := NormalizePath(path)
		if result != expected {
			t.Errorf("NormalizePath(%q) = %q, want %q (cardinality check failed)", path, result, expected)
		}
	}

	// Verify that this reduces cardinality from 6 to 1
	uniqueResults := make(map[string]bool)
	for _, path := range paths {
		uniqueResults[NormalizePath(path)] = true
	}

	if len(uniqueResults) != 1 {
		t.Errorf("Expected cardinality of 1, got %d unique paths: %v", len(uniqueResults), uniqueResults)
	}
}

func TestNormalizePath_TrailingSlash(t *testing.T) {
	// Test that trailing slashes are handled consistently
	tests := []struct {
		path1    string
		path2    string
		expected string
	}{
		{"/artists/123", "/artists/123/", "/artists/:id"},
		{"/users/456", "/users/456/", "/users/:id"},
		{"/health", "/health/", "/health"},
		{"/artists", "/artists/", "/artists"},
	}

	for _, tt := range tests {
		result1 := NormalizePath(tt.path1)
		result2 := NormalizePath(tt.path2)

		if result1 != tt.expected {
			t.Errorf("NormalizePath(%q) = %q, want %q", tt.path1, result1, tt.expected)
		}
		if result2 != tt.expected {
			t.Errorf("NormalizePath(%q) = %q, want %q", tt.path2, result2, tt.expected)
		}
		if result1 != result2 {
			t.Errorf("Trailing slash inconsistency: %q vs %q", result1, result2)
		}
	}
}

func TestNormalizePath_QueryParameters(t *testing.T) {
	// Test that query parameters are stripped before normalization
	tests := []struct {
		path     string
		expected string
	}{
		{"/artists/123?platform=soundcloud", "/artists/:id"},
		{"/artists/123?platform=soundcloud&guild_id=1", "/artists/:id"},
		{"/artists?owner_id=42", "/artists"},
		{"/health?format=json", "/health"},
		{"/users/456?fields=all", "/users/:id"},
	}

	for _, tt := range tests {
		result := NormalizePath(tt.path)
		if result != tt.expected {
			t.Errorf("NormalizePath(%q) = %q, want %q", tt.path, result, tt.expected)
		}
	}
}

func TestGetExpectedCardinality(t *testing.T) {
	cardinality := GetExpectedCardinality()

	// Expected cardinality should be between 10 and 35
	// (6 template patterns + ~10 static endpoints)
	if cardinality < 10 || cardinality > 35 {
		t.Errorf("GetExpectedCardinality() = %d, want between 10 and 35", cardinality)
	}

	t.Logf("Expected cardinality: %d unique path labels", cardinality)
}

func TestNormalizePath_RealWorldScenario(t *testing.T) {
	// Simulate a real-world scenario with many requests
	// This demonstrates the cardinality reduction
	requests := []string{
		// Many different artist IDs
		"/artists/1", "/artists/2", "/artists/3", "/artists/4", "/artists/5",
		"/artists/10", "/artists/20", "/artists/30", "/artists/40", "/artists/50",
		"/artists/100", "/artists/200", "/artists/300", "/artists/400", "/artists/500",
		"/artists/999", "/artists/1000",

		// Several user and guild snowflakes
		"/users/200000000000000001", "/users/200000000000000002",
		"/guilds/300000000000000001/channels", "/guilds/300000000000000002/channels",

		// Static endpoints
		"/health", "/metrics", "/auth/token",
		"/artists", "/channels",
	}

	// Collect unique normalized paths
	uniquePaths := make(map[string]int)
	for _, path := range requests {
		normalized := NormalizePath(path)
		uniquePaths[normalized]++
	}

	// Verify that cardinality is low
	if len(uniquePaths) > 30 {
		t.Errorf("Expected cardinality ≤30, got %d unique paths", len(uniquePaths))
	}

	t.Logf("Real-world scenario: %d requests reduced to %d unique paths", len(requests), len(uniquePaths))
	for path, count := range uniquePaths {
		t.Logf("  %s: %d requests", path, count)
	}
}
