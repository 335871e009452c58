package integration_tests

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/shimloader/internal/app"
	"github.com/vk/shimloader/internal/graph"
	"github.com/vk/shimloader/internal/testutil"
)

// Test for: a circular dependency fails resolution instead of looping
func TestErrorHandling_Cycle_IsReported(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	files := map[string]string{
		"main.hcl": `
			shim "a" { deps = ["b"] }
			shim "b" { deps = ["c"] }
			shim "c" { deps = ["a"] }
			require = ["a"]
		`,
		"a.lua": `return 1`,
		"b.lua": `return 2`,
		"c.lua": `return 3`,
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Act ---
	result := testutil.RunIntegrationTestWithContext(ctx, t, files, app.Config{})

	// --- Assert ---
	require.Error(t, result.Err)
	var cycleErr *graph.CycleError
	require.ErrorAs(t, result.Err, &cycleErr)
	assert.Len(t, cycleErr.Path, 4)
	assert.Contains(t, result.Err.Error(), "circular dependency")
	assert.Empty(t, result.App.Registry().Snapshot(), "nothing may be initialized")
}
