package moduleid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	testCases := []struct {
		name     string
		id       ID
		baseURL  string
		paths    map[string]string
		expected string
		isURL    bool
	}{
		{
			name:     "no alias joins base",
			id:       "client",
			baseURL:  "js",
			expected: "js/client",
		},
		{
			name:     "identity alias",
			id:       "lib/bootstrap",
			baseURL:  "js",
			paths:    map[string]string{"lib": "lib"},
			expected: "js/lib/bootstrap",
		},
		{
			name:     "alias replaces prefix",
			id:       "lib/jquery",
			baseURL:  "js",
			paths:    map[string]string{"lib": "vendor/3rdparty"},
			expected: "js/vendor/3rdparty/jquery",
		},
		{
			name:     "longest alias wins",
			id:       "lib/jquery/ui",
			baseURL:  "js",
			paths:    map[string]string{"lib": "vendor", "lib/jquery": "jq"},
			expected: "js/jq/ui",
		},
		{
			name:     "alias must match whole segments",
			id:       "library/x",
			baseURL:  "js",
			paths:    map[string]string{"lib": "vendor"},
			expected: "js/library/x",
		},
		{
			name:     "alias for full id",
			id:       "lib/handlebars",
			baseURL:  "js",
			paths:    map[string]string{"lib/handlebars": "templating/hb"},
			expected: "js/templating/hb",
		},
		{
			name:     "absolute alias ignores base",
			id:       "lib/jquery",
			baseURL:  "js",
			paths:    map[string]string{"lib": "/opt/vendor"},
			expected: "/opt/vendor/jquery",
		},
		{
			name:     "url alias ignores base",
			id:       "cdn/jquery",
			baseURL:  "js",
			paths:    map[string]string{"cdn": "https://cdn.example.com/libs/"},
			expected: "https://cdn.example.com/libs/jquery",
			isURL:    true,
		},
		{
			name:     "url base",
			id:       "client",
			baseURL:  "http://localhost:8080/js/",
			expected: "http://localhost:8080/js/client",
			isURL:    true,
		},
		{
			name:     "empty base",
			id:       "client",
			expected: "client",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			loc := Resolve(tc.id, tc.baseURL, tc.paths)
			assert.Equal(t, tc.expected, loc.Path)
			assert.Equal(t, tc.isURL, loc.IsURL())
		})
	}
}

func TestLocation_WithExt(t *testing.T) {
	loc := Location{Path: "js/lib/jquery.zclip"}
	assert.Equal(t, "js/lib/jquery.zclip.lua", loc.WithExt(".lua"))
}
