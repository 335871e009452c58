package yamlconf

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const demoYAML = `
base_url: js
paths:
  lib: lib
shim:
  lib/bootstrap:
    deps: [lib/jquery]
  lib/jquery:
    exports: jQuery
require: [lib/bootstrap]
url_args: v=1
`

func TestLoader_LoadBytes(t *testing.T) {
	t.Parallel()

	model, err := NewLoader().LoadBytes(context.Background(), "main.yaml", []byte(demoYAML))

	require.NoError(t, err)
	assert.Equal(t, "js", model.BaseURL)
	assert.Equal(t, "v=1", model.URLArgs)
	assert.Equal(t, []string{"lib/bootstrap"}, model.Require)
	assert.Equal(t, []string{"lib/jquery"}, model.Shims["lib/bootstrap"].Deps)
	assert.Equal(t, "jQuery", model.Shims["lib/jquery"].Exports)
}

func TestLoader_LoadBytes_Empty(t *testing.T) {
	t.Parallel()

	model, err := NewLoader().LoadBytes(context.Background(), "empty.yaml", nil)
	require.NoError(t, err)
	assert.Empty(t, model.Shims)
}

func TestLoader_LoadBytes_UnknownField(t *testing.T) {
	t.Parallel()

	_, err := NewLoader().LoadBytes(context.Background(), "typo.yaml", []byte("shims: {}\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoader_Load_BothExtensions(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte(demoYAML), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yml"), []byte("shim:\n  client:\n    deps: [lib/bootstrap]\n"), 0600))

	model, err := NewLoader().Load(context.Background(), dir)
	require.NoError(t, err)
	assert.Len(t, model.Shims, 3)
}
