package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestModel_Wait(t *testing.T) {
	m := NewModel()
	assert.Equal(t, DefaultWaitSeconds, m.Wait())

	m.WaitSeconds = intPtr(0)
	assert.Equal(t, 0, m.Wait())
}

func TestModel_DepsOf(t *testing.T) {
	m := NewModel()
	m.Shims["lib/bootstrap"] = &Shim{Name: "lib/bootstrap", Deps: []string{"lib/jquery"}}

	assert.Equal(t, []string{"lib/jquery"}, m.DepsOf("lib/bootstrap"))
	assert.Nil(t, m.DepsOf("lib/jquery"))
}

func TestModel_Merge(t *testing.T) {
	t.Run("overlays scalars and maps", func(t *testing.T) {
		base := NewModel()
		base.BaseURL = "js"
		base.Paths["lib"] = "lib"
		base.Require = []string{"client"}
		base.Shims["a"] = &Shim{Name: "a", Deps: []string{"b"}}

		other := NewModel()
		other.BaseURL = "static/js"
		other.Paths["vendor"] = "third_party"
		other.WaitSeconds = intPtr(3)
		other.Shims["c"] = &Shim{Name: "c", Deps: []string{"a"}}
		other.Shims["a"] = &Shim{Name: "a", Deps: []string{"b"}, Exports: "A"}

		require.NoError(t, base.Merge(other))
		assert.Equal(t, "static/js", base.BaseURL)
		assert.Equal(t, map[string]string{"lib": "lib", "vendor": "third_party"}, base.Paths)
		assert.Equal(t, []string{"client"}, base.Require)
		assert.Equal(t, 3, base.Wait())
		assert.Len(t, base.Shims, 2)
		assert.Equal(t, "A", base.Shims["a"].Exports)
	})

	t.Run("conflicting deps fail", func(t *testing.T) {
		base := NewModel()
		base.Shims["a"] = &Shim{Name: "a", Deps: []string{"b"}}
		other := NewModel()
		other.Shims["a"] = &Shim{Name: "a", Deps: []string{"c"}}

		err := base.Merge(other)
		assert.ErrorContains(t, err, "conflicting shim declarations")
	})

	t.Run("nil is a no-op", func(t *testing.T) {
		assert.NoError(t, NewModel().Merge(nil))
	})
}

func TestModel_Validate(t *testing.T) {
	t.Run("valid model", func(t *testing.T) {
		m := NewModel()
		m.Paths["lib"] = "lib"
		m.Shims["lib/bootstrap"] = &Shim{Name: "lib/bootstrap", Deps: []string{"lib/jquery"}}
		m.Require = []string{"lib/bootstrap"}
		assert.NoError(t, m.Validate())
	})

	t.Run("collects every problem", func(t *testing.T) {
		m := NewModel()
		m.Shims["a"] = &Shim{Name: "a", Deps: []string{"a", "b", "b", "bad//id"}}
		m.Require = []string{""}
		m.WaitSeconds = intPtr(-1)

		err := m.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot depend on itself")
		assert.Contains(t, err.Error(), "duplicate dependency \"b\"")
		assert.Contains(t, err.Error(), "empty segment")
		assert.Contains(t, err.Error(), "require:")
		assert.Contains(t, err.Error(), "wait_seconds")
	})
}

func TestModel_ShimNames(t *testing.T) {
	m := NewModel()
	m.Shims["c"] = &Shim{Name: "c"}
	m.Shims["a"] = &Shim{Name: "a"}
	m.Shims["b"] = &Shim{Name: "b"}
	assert.Equal(t, []string{"a", "b", "c"}, m.ShimNames())
}
