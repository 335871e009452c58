package integration_tests

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/shimloader/internal/app"
	"github.com/vk/shimloader/internal/executor"
	"github.com/vk/shimloader/internal/testutil"
)

// scriptServer serves scripts by path and records every query string.
type scriptServer struct {
	mu      sync.Mutex
	queries []string
	scripts map[string]string
	delay   time.Duration
}

func (s *scriptServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.queries = append(s.queries, r.URL.RawQuery)
	s.mu.Unlock()

	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-r.Context().Done():
			return
		}
	}
	body, ok := s.scripts[r.URL.Path]
	if !ok {
		http.NotFound(w, r)
		return
	}
	fmt.Fprint(w, body)
}

// Test for: modules are fetched over HTTP with url_args appended
func TestRemoteLoading_FetchesOverHTTP(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	scripts := &scriptServer{scripts: map[string]string{
		"/static/js/lib/jquery.lua": `jQuery = { version = "remote" }`,
		"/static/js/client.star":    `exports = {"jquery": deps["lib/jquery"]["version"]}`,
	}}
	srv := httptest.NewServer(scripts)
	defer srv.Close()

	files := map[string]string{
		"main.hcl": fmt.Sprintf(`
			base_url = "%s/static/js"
			url_args = "bust=42"
			shim "lib/jquery" { exports = "jQuery" }
			shim "client" { deps = ["lib/jquery"] }
			require = ["client"]
		`, srv.URL),
	}

	// --- Act ---
	result := testutil.RunIntegrationTest(t, files, app.Config{})

	// --- Assert ---
	require.NoError(t, result.Err)
	v, ok := result.App.Registry().Get("client")
	require.True(t, ok)
	assert.Equal(t, "remote", v.GetAttr("jquery").AsString())

	scripts.mu.Lock()
	defer scripts.mu.Unlock()
	require.NotEmpty(t, scripts.queries)
	for _, q := range scripts.queries {
		assert.Equal(t, "bust=42", q)
	}
}

// Test for: a fetch slower than wait_seconds fails the run
func TestRemoteLoading_WaitSecondsTimeout(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	scripts := &scriptServer{delay: 5 * time.Second, scripts: map[string]string{
		"/slow.lua": `return 1`,
	}}
	srv := httptest.NewServer(scripts)
	defer srv.Close()

	files := map[string]string{
		"main.hcl": fmt.Sprintf(`
			base_url = "%s"
			wait_seconds = 1
			require = ["slow"]
		`, srv.URL),
	}

	// --- Act ---
	start := time.Now()
	result := testutil.RunIntegrationTest(t, files, app.Config{})

	// --- Assert ---
	require.Error(t, result.Err)
	assert.Less(t, time.Since(start), 4*time.Second)
	var fetchErr *executor.FetchError
	require.ErrorAs(t, result.Err, &fetchErr)
	assert.Contains(t, result.Err.Error(), "load timeout after 1s")
}
