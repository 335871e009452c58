package inmemorytopology

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/shimloader/internal/module"
	"github.com/vk/shimloader/internal/moduleid"
)

func TestAddAndGetModule(t *testing.T) {
	s := New()
	ctx := context.Background()
	m := &module.Module{ID: "lib/jquery"}

	require.NoError(t, s.AddModule(ctx, m))
	require.NoError(t, s.AddModule(ctx, &module.Module{ID: "lib/jquery", Exports: "other"}), "adding twice is idempotent")

	got, ok := s.GetModule(ctx, "lib/jquery")
	require.True(t, ok)
	assert.Same(t, m, got)

	_, ok = s.GetModule(ctx, "missing")
	assert.False(t, ok)

	assert.Error(t, s.AddModule(ctx, nil))
}

func TestDependencies(t *testing.T) {
	s := New()
	ctx := context.Background()
	for _, id := range []moduleid.ID{"client", "oauth", "lib/bootstrap", "lib/jquery"} {
		require.NoError(t, s.AddModule(ctx, &module.Module{ID: id}))
	}

	// client requires oauth then lib/bootstrap, in that order.
	require.NoError(t, s.AddDependency(ctx, "oauth", "client"))
	require.NoError(t, s.AddDependency(ctx, "lib/bootstrap", "client"))
	require.NoError(t, s.AddDependency(ctx, "lib/bootstrap", "client"), "duplicate edge is ignored")
	require.NoError(t, s.AddDependency(ctx, "lib/jquery", "lib/bootstrap"))

	deps, err := s.DependenciesOf(ctx, "client")
	require.NoError(t, err)
	assert.Equal(t, []moduleid.ID{"oauth", "lib/bootstrap"}, deps)

	deps, err = s.DependenciesOf(ctx, "lib/jquery")
	require.NoError(t, err)
	assert.Empty(t, deps)

	dependents, err := s.DependentsOf(ctx, "lib/bootstrap")
	require.NoError(t, err)
	assert.Equal(t, []moduleid.ID{"client"}, dependents)

	all := s.AllModules(ctx)
	require.Len(t, all, 4)
	assert.Equal(t, moduleid.ID("client"), all[0].ID)
	assert.Equal(t, moduleid.ID("oauth"), all[3].ID)
}

func TestDependencies_UnknownModules(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.AddModule(ctx, &module.Module{ID: "a"}))

	assert.ErrorContains(t, s.AddDependency(ctx, "missing", "a"), "source module 'missing'")
	assert.ErrorContains(t, s.AddDependency(ctx, "a", "missing"), "target module 'missing'")

	_, err := s.DependenciesOf(ctx, "missing")
	assert.Error(t, err)
	_, err = s.DependentsOf(ctx, "missing")
	assert.Error(t, err)
}

func TestConcurrentAccess(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.AddModule(ctx, &module.Module{ID: "root"}))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := moduleid.ID(string(rune('a'+i%26)) + "x")
			_ = s.AddModule(ctx, &module.Module{ID: id})
			_ = s.AddDependency(ctx, "root", id)
			_, _ = s.DependentsOf(ctx, "root")
		}(i)
	}
	wg.Wait()

	dependents, err := s.DependentsOf(ctx, "root")
	require.NoError(t, err)
	assert.Len(t, dependents, 26)
}
