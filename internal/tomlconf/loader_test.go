package tomlconf

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const demoTOML = `
base_url = "js"
require = ["client"]
wait_seconds = 0

[paths]
lib = "lib"

[shim."lib/bootstrap"]
deps = ["lib/jquery"]

[shim."lib/jquery"]
exports = "jQuery"

[shim.client]
deps = ["lib/bootstrap"]
`

func TestLoader_LoadBytes(t *testing.T) {
	t.Parallel()

	model, err := NewLoader().LoadBytes(context.Background(), "main.toml", []byte(demoTOML))

	require.NoError(t, err)
	assert.Equal(t, "js", model.BaseURL)
	assert.Equal(t, []string{"client"}, model.Require)
	assert.Equal(t, 0, model.Wait())
	assert.Equal(t, "lib", model.Paths["lib"])
	require.Len(t, model.Shims, 3)
	assert.Equal(t, []string{"lib/jquery"}, model.Shims["lib/bootstrap"].Deps)
	assert.Equal(t, "jQuery", model.Shims["lib/jquery"].Exports)
	assert.Equal(t, "client", model.Shims["client"].Name)
}

func TestLoader_LoadBytes_Errors(t *testing.T) {
	t.Parallel()

	_, err := NewLoader().LoadBytes(context.Background(), "bad.toml", []byte(`base_url = `))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse TOML")

	_, err = NewLoader().LoadBytes(context.Background(), "typo.toml", []byte(`base_path = "js"`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown keys: base_path")
}

func TestLoader_Load(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.toml"), []byte(demoTOML), 0600))

	model, err := NewLoader().Load(context.Background(), dir)
	require.NoError(t, err)
	assert.Len(t, model.Shims, 3)
}
