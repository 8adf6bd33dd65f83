package auth

import (
	"testing"
)

// TestCheckRolePermission_Admin tests that admin role has full access to all endpoints
func TestCheckRolePermission_Admin(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		want   bool
	}{
		// Basic CRUD operations
		{
			name:   "admin can GET /artists",
			method: "GET",
			path:   "/artists",
			want:   true,
		},
		{
			name:   "admin can POST /artists",
			method: "POST",
			path:   "/artists",
			want:   true,
		},
		{
			name:   "admin can PUT /channels",
			method: "PUT",
			path:   "/channels",
			want:   true,
		},
		{
			name:   "admin can DELETE /artists",
			method: "DELETE",
			path:   "/artists",
			want:   true,
		},
		{
			name:   "admin can PATCH /artists/1",
			method: "PATCH",
			path:   "/artists/1",
			want:   true,
		},
		// CORS preflight
		{
			name:   "admin can OPTIONS /artists (CORS preflight)",
			method: "OPTIONS",
			path:   "/artists",
			want:   true,
		},
		// Admin has access to all paths
		{
			name:   "admin can access /any/path",
			method: "GET",
			path:   "/any/path",
			want:   true,
		},
		{
			name:   "admin can POST /users",
			method: "POST",
			path:   "/users",
			want:   true,
		},
		{
			name:   "admin can DELETE /admin/settings",
			method: "DELETE",
			path:   "/admin/settings",
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := checkRolePermission(RoleAdmin, tt.method, tt.path)
			if got != tt.want {
				t.Errorf("checkRolePermission(%q, %q, %q) = %v, want %v",
					RoleAdmin, tt.method, tt.path, got, tt.want)
			}
		})
	}
}

// TestCheckRolePermission_Viewer tests that viewer role has read-only access
func TestCheckRolePermission_Viewer(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		want   bool
	}{
		// Allowed GET operations
		{
			name:   "viewer can GET /artists",
			method: "GET",
			path:   "/artists",
			want:   true,
		},
		{
			name:   "viewer can GET /artists/1",
			method: "GET",
			path:   "/artists/1",
			want:   true,
		},
		// CORS preflight
		{
			name:   "viewer can OPTIONS /artists (CORS preflight)",
			method: "OPTIONS",
			path:   "/artists",
			want:   true,
		},
		{
			name:   "viewer can OPTIONS /artists/1",
			method: "OPTIONS",
			path:   "/artists/1",
			want:   true,
		},
		// Denied write operations
		{
			name:   "viewer CANNOT POST /artists",
			method: "POST",
			path:   "/artists",
			want:   false,
		},
		{
			name:   "viewer CANNOT PUT /channels",
			method: "PUT",
			path:   "/channels",
			want:   false,
		},
		{
			name:   "viewer CANNOT DELETE /artists",
			method: "DELETE",
			path:   "/artists",
			want:   false,
		},
		{
			name:   "viewer CANNOT PATCH /artists/1",
			method: "PATCH",
			path:   "/artists/1",
			want:   false,
		},
		// Denied access to paths not in allowlist
		{
			name:   "viewer CANNOT GET /users",
			method: "GET",
			path:   "/users",
			want:   false,
		},
		{
			name:   "viewer CANNOT GET /channels",
			method: "GET",
			path:   "/channels",
			want:   false,
		},
		{
			name:   "viewer CANNOT GET /admin/settings",
			method: "GET",
			path:   "/admin/settings",
			want:   false,
		},
		// Additional test cases for artist subpaths
		{
			name:   "viewer can GET /artists/1/releases",
			method: "GET",
			path:   "/artists/1/releases",
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := checkRolePermission(RoleViewer, tt.method, tt.path)
			if got != tt.want {
				t.Errorf("checkRolePermission(%q, %q, %q) = %v, want %v",
					RoleViewer, tt.method, tt.path, got, tt.want)
			}
		})
	}
}

// TestCheckRolePermission_EdgeCases tests edge cases and invalid inputs
func TestCheckRolePermission_EdgeCases(t *testing.T) {
	tests := []struct {
		name   string
		role   string
		method string
		path   string
		want   bool
	}{
		{
			name:   "empty role returns false",
			role:   "",
			method: "GET",
			path:   "/artists",
			want:   false,
		},
		{
			name:   "unknown role returns false",
			role:   "superuser",
			method: "GET",
			path:   "/artists",
			want:   false,
		},
		{
			name:   "invalid path not in viewer list returns false for viewer",
			role:   RoleViewer,
			method: "GET",
			path:   "/invalid/path",
			want:   false,
		},
		{
			name:   "empty method returns false",
			role:   RoleAdmin,
			method: "",
			path:   "/artists",
			want:   false,
		},
		{
			name:   "empty path - admin can access",
			role:   RoleAdmin,
			method: "GET",
			path:   "",
			want:   true,
		},
		{
			name:   "empty path - viewer cannot access",
			role:   RoleViewer,
			method: "GET",
			path:   "",
			want:   false,
		},
		{
			name:   "unknown method for admin still works (admin has all methods)",
			role:   RoleAdmin,
			method: "UNKNOWN",
			path:   "/artists",
			want:   false,
		},
		{
			name:   "case sensitive role - Admin (capitalized) not found",
			role:   "Admin",
			method: "GET",
			path:   "/artists",
			want:   false,
		},
		{
			name:   "case sensitive role - VIEWER (uppercase) not found",
			role:   "VIEWER",
			method: "GET",
			path:   "/artists",
			want:   false,
		},
		{
			name:   "viewer with HEAD method (not in allowed list)",
			role:   RoleViewer,
			method: "HEAD",
			path:   "/artists",
			want:   false,
		},
		{
			name:   "admin with HEAD method (not in allowed list)",
			role:   RoleAdmin,
			method: "HEAD",
			path:   "/artists",
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := checkRolePermission(tt.role, tt.method, tt.path)
			if got != tt.want {
				t.Errorf("checkRolePermission(%q, %q, %q) = %v, want %v",
					tt.role, tt.method, tt.path, got, tt.want)
			}
		})
	}
}

// TestMatchesPathPattern tests the path pattern matching logic
func TestMatchesPathPattern(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		patterns []string
		want     bool
	}{
		// Test "/*" matches all paths
		{
			name:     "/* matches /artists",
			path:     "/artists",
			patterns: []string{"/*"},
			want:     true,
		},
		{
			name:     "/* matches /channels",
			path:     "/channels",
			patterns: []string{"/*"},
			want:     true,
		},
		{
			name:     "/* matches /anything",
			path:     "/anything",
			patterns: []string{"/*"},
			want:     true,
		},
		{
			name:     "/* matches empty path",
			path:     "",
			patterns: []string{"/*"},
			want:     true,
		},
		{
			name:     "/* matches deeply nested path",
			path:     "/api/v1/resources/123/items/456",
			patterns: []string{"/*"},
			want:     true,
		},

		// Test exact matching
		{
			name:     "/artists matches exactly /artists",
			path:     "/artists",
			patterns: []string{"/artists"},
			want:     true,
		},
		{
			name:     "/artists does not match /artists/1",
			path:     "/artists/1",
			patterns: []string{"/artists"},
			want:     false,
		},
		{
			name:     "/artists does not match /artist",
			path:     "/artist",
			patterns: []string{"/artists"},
			want:     false,
		},

		// Test wildcard pattern "/artists/*"
		{
			name:     "/artists/* matches /artists/1",
			path:     "/artists/1",
			patterns: []string{"/artists/*"},
			want:     true,
		},
		{
			name:     "/artists/* matches /artists/1/releases",
			path:     "/artists/1/releases",
			patterns: []string{"/artists/*"},
			want:     true,
		},
		{
			name:     "/artists/* matches /artists (base path)",
			path:     "/artists",
			patterns: []string{"/artists/*"},
			want:     true,
		},
		{
			name:     "/artists/* does not match /artist",
			path:     "/artist",
			patterns: []string{"/artists/*"},
			want:     false,
		},
		{
			name:     "/artists/* does not match /channels",
			path:     "/channels",
			patterns: []string{"/artists/*"},
			want:     false,
		},

		// Test multiple patterns
		{
			name:     "multiple patterns - match first",
			path:     "/artists",
			patterns: []string{"/artists", "/channels"},
			want:     true,
		},
		{
			name:     "multiple patterns - match second",
			path:     "/channels",
			patterns: []string{"/artists", "/channels"},
			want:     true,
		},
		{
			name:     "multiple patterns - no match",
			path:     "/users",
			patterns: []string{"/artists", "/channels"},
			want:     false,
		},
		{
			name:     "multiple patterns with wildcards",
			path:     "/artists/123",
			patterns: []string{"/artists/*", "/channels/*"},
			want:     true,
		},

		// Test viewer role patterns (from RolePermissions)
		{
			name: "viewer patterns - /artists",
			path: "/artists",
			patterns: []string{
				"/artists",
				"/artists/*",
			},
			want: true,
		},
		{
			name: "viewer patterns - /artists/1",
			path: "/artists/1",
			patterns: []string{
				"/artists",
				"/artists/*",
			},
			want: true,
		},
		{
			name: "viewer patterns - /users not allowed",
			path: "/users",
			patterns: []string{
				"/artists",
				"/artists/*",
			},
			want: false,
		},

		// Edge cases
		{
			name:     "empty patterns list",
			path:     "/artists",
			patterns: []string{},
			want:     false,
		},
		{
			name:     "nil patterns list",
			path:     "/artists",
			patterns: nil,
			want:     false,
		},
		{
			name:     "pattern with trailing slash",
			path:     "/artists",
			patterns: []string{"/artists/"},
			want:     false,
		},
		{
			name:     "path without leading slash",
			path:     "artists",
			patterns: []string{"/artists"},
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := matchesPathPattern(tt.path, tt.patterns)
			if got != tt.want {
				t.Errorf("matchesPathPattern(%q, %v) = %v, want %v",
					tt.path, tt.patterns, got, tt.want)
			}
		})
	}
}

// BenchmarkCheckRolePermission benchmarks the permission checking function
// Target: < 1μs per check
func BenchmarkCheckRolePermission(b *testing.B) {
	testCases := []struct {
		name   string
		role   string
		method string
		path   string
	}{
		{
			name:   "admin_simple_path",
			role:   RoleAdmin,
			method: "GET",
			path:   "/artists",
		},
		{
			name:   "admin_nested_path",
			role:   RoleAdmin,
			method: "POST",
			path:   "/api/v1/artists/123/releases",
		},
		{
			name:   "viewer_allowed_simple",
			role:   RoleViewer,
			method: "GET",
			path:   "/artists",
		},
		{
			name:   "viewer_allowed_nested",
			role:   RoleViewer,
			method: "GET",
			path:   "/artists/123/releases",
		},
		{
			name:   "viewer_denied_method",
			role:   RoleViewer,
			method: "POST",
			path:   "/artists",
		},
		{
			name:   "viewer_denied_path",
			role:   RoleViewer,
			method: "GET",
			path:   "/admin/users",
		},
		{
			name:   "unknown_role",
			role:   "unknown",
			method: "GET",
			path:   "/artists",
		},
	}

	for _, tc := range testCases {
		b.Run(tc.name, func(b *testing.B) {
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = checkRolePermission(tc.role, tc.method, tc.path)
			}
		})
	}
}

// BenchmarkMatchesPathPattern benchmarks the pattern matching function
func BenchmarkMatchesPathPattern(b *testing.B) {
	testCases := []struct {
		name     string
		path     string
		patterns []string
	}{
		{
			name:     "wildcard_all",
			path:     "/api/v1/artists/123",
			patterns: []string{"/*"},
		},
		{
			name:     "exact_match",
			path:     "/artists",
			patterns: []string{"/artists"},
		},
		{
			name:     "prefix_match",
			path:     "/artists/123/releases",
			patterns: []string{"/artists/*"},
		},
		{
			name: "viewer_patterns",
			path: "/artists/123",
			patterns: []string{
				"/artists",
				"/artists/*",
			},
		},
		{
			name: "no_match",
			path: "/admin/users",
			patterns: []string{
				"/artists",
				"/artists/*",
			},
		},
	}

	for _, tc := range testCases {
		b.Run(tc.name, func(b *testing.B) {
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = matchesPathPattern(tc.path, tc.patterns)
			}
		})
	}
}

// BenchmarkRolePermissions_MapLookup benchmarks the role lookup in the map
func BenchmarkRolePermissions_MapLookup(b *testing.B) {
	testCases := []struct {
		name string
		role string
	}{
		{
			name: "admin_lookup",
			role: RoleAdmin,
		},
		{
			name: "viewer_lookup",
			role: RoleViewer,
		},
		{
			name: "unknown_lookup",
			role: "unknown",
		},
	}

	for _, tc := range testCases {
		b.Run(tc.name, func(b *testing.B) {
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = RolePermissions[tc.role]
			}
		})
	}
}
