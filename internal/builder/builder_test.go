package builder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/shimloader/internal/config"
	"github.com/vk/shimloader/internal/graph"
	"github.com/vk/shimloader/internal/inmemorystore"
	"github.com/vk/shimloader/internal/inmemorytopology"
	"github.com/vk/shimloader/internal/module"
	"github.com/vk/shimloader/internal/moduleid"
	"github.com/vk/shimloader/internal/source"
	"github.com/zclconf/go-cty/cty"
)

func newGraph() graph.Graph {
	return graph.New(inmemorytopology.New(), inmemorystore.New())
}

// demoModel mirrors the shim layout of a typical browser client: jQuery
// plugins, Bootstrap and an application entry point on top.
func demoModel() *config.Model {
	cfg := config.NewModel()
	cfg.BaseURL = "js"
	cfg.Paths["lib"] = "lib"
	shim := func(name string, deps ...string) {
		cfg.Shims[name] = &config.Shim{Name: name, Deps: deps}
	}
	shim("lib/bootstrap", "lib/jquery")
	shim("jquery-extensions", "lib/jquery")
	shim("lib/jquery.zclip", "lib/jquery")
	shim("lib/bootbox.min", "lib/bootstrap")
	shim("data", "lib/jquery")
	shim("client", "oauth", "jquery-extensions", "lib/bootstrap", "lib/handlebars", "data",
		"resourceServerForm", "resourceServerGrid", "clientForm", "clientGrid",
		"accessTokenGrid", "statisticsGrid", "popoverBundle", "lib/jquery.zclip", "lib/bootbox.min")
	cfg.Require = []string{"jquery-extensions", "lib/handlebars", "lib/bootstrap", "client"}
	return cfg
}

func TestBuild_DemoConfiguration(t *testing.T) {
	// Arrange
	ctx := context.Background()
	g := newGraph()
	cfg := demoModel()
	entries, err := moduleid.ParseAll(cfg.Require)
	require.NoError(t, err)

	// Act
	err = Build(ctx, g, cfg, entries, nil)

	// Assert
	require.NoError(t, err)
	assert.Len(t, g.AllModules(ctx), 16)

	order, err := g.Order(ctx)
	require.NoError(t, err)
	pos := make(map[moduleid.ID]int, len(order))
	for i, id := range order {
		pos[id] = i
	}
	assert.Less(t, pos["lib/jquery"], pos["lib/bootstrap"])
	assert.Less(t, pos["lib/bootstrap"], pos["lib/bootbox.min"])
	assert.Less(t, pos["lib/bootbox.min"], pos["client"])
	assert.Equal(t, len(order)-1, pos["client"])

	jq, ok := g.Module(ctx, "lib/jquery")
	require.True(t, ok)
	assert.Equal(t, "js/lib/jquery", jq.Location.Path)
}

func TestBuild_OnlyReachableModules(t *testing.T) {
	ctx := context.Background()
	g := newGraph()

	err := Build(ctx, g, demoModel(), []moduleid.ID{"lib/bootbox.min"}, nil)

	require.NoError(t, err)
	var ids []moduleid.ID
	for _, m := range g.AllModules(ctx) {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []moduleid.ID{"lib/bootbox.min", "lib/bootstrap", "lib/jquery"}, ids)
}

func TestBuild_Cycle(t *testing.T) {
	// Arrange
	ctx := context.Background()
	cfg := config.NewModel()
	cfg.Shims["a"] = &config.Shim{Name: "a", Deps: []string{"b"}}
	cfg.Shims["b"] = &config.Shim{Name: "b", Deps: []string{"a"}}

	// Act
	err := Build(ctx, newGraph(), cfg, []moduleid.ID{"a"}, nil)

	// Assert
	require.Error(t, err)
	var cycleErr *graph.CycleError
	require.ErrorAs(t, err, &cycleErr)
	assert.Contains(t, err.Error(), "circular dependency")
	assert.Equal(t, cycleErr.Path[0], cycleErr.Path[len(cycleErr.Path)-1])
}

func TestBuild_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("no entries", func(t *testing.T) {
		err := Build(ctx, newGraph(), config.NewModel(), nil, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no entry modules")
	})

	t.Run("invalid prerequisite name", func(t *testing.T) {
		cfg := config.NewModel()
		cfg.Shims["a"] = &config.Shim{Name: "a", Deps: []string{"../b"}}
		err := Build(ctx, newGraph(), cfg, []moduleid.ID{"a"}, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "module 'a'")
	})
}

func TestBuild_NativeModules(t *testing.T) {
	ctx := context.Background()
	g := newGraph()
	natives := map[moduleid.ID]module.NativeFunc{
		"lib/jquery": func(context.Context, map[string]cty.Value) (cty.Value, error) {
			return cty.EmptyObjectVal, nil
		},
	}

	require.NoError(t, Build(ctx, g, demoModel(), []moduleid.ID{"lib/bootstrap"}, natives))

	jq, _ := g.Module(ctx, "lib/jquery")
	bs, _ := g.Module(ctx, "lib/bootstrap")
	assert.True(t, jq.IsNative())
	assert.False(t, bs.IsNative())
}

func TestTask(t *testing.T) {
	ctx := context.Background()
	g := newGraph()
	require.NoError(t, Build(ctx, g, demoModel(), []moduleid.ID{"lib/bootstrap"}, nil))
	jquery := cty.ObjectVal(map[string]cty.Value{"version": cty.StringVal("3.7")})
	require.NoError(t, g.MarkCompleted(ctx, "lib/jquery", jquery))
	bs, _ := g.Module(ctx, "lib/bootstrap")

	t.Run("collects prerequisite exports", func(t *testing.T) {
		src := &source.Source{Origin: "js/lib/bootstrap.lua", Ext: ".lua", Body: []byte("return 1")}
		tk, err := Task(ctx, g, bs, src)
		require.NoError(t, err)
		assert.Equal(t, "js/lib/bootstrap.lua", tk.Name())
		assert.True(t, tk.Deps["lib/jquery"].RawEquals(jquery))
	})

	t.Run("script module without source", func(t *testing.T) {
		_, err := Task(ctx, g, bs, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "has no source")
	})
}
