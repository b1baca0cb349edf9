package middleware

import "testing"

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{
			"UUID replacement",
			"/api/links/550e8400-e29b-41d4-a716-446655440000/stats",
			"/api/links/:id/stats",
		},
		{
			"ObjectID replacement",
			"/api/links/507f1f77bcf86cd799439011/stats",
			"/api/links/:id/stats",
		},
		{
			"numeric ID replacement",
			"/api/links/12345",
			"/api/links/:id",
		},
		{
			"no change for key path",
			"/v1/promoXYZ",
			"/v1/promoXYZ",
		},
		{
			"root path unchanged",
			"/",
			"/",
		},
		{
			"health endpoint unchanged",
			"/health",
			"/health",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizePath(tt.path)
			if got != tt.want {
				t.Errorf("normalizePath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}
