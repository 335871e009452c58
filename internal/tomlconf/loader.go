// Package tomlconf loads the loader configuration from TOML files:
//
//	base_url = "js"
//	require  = ["client"]
//
//	[paths]
//	lib = "lib"
//
//	[shim."lib/bootstrap"]
//	deps = ["lib/jquery"]
package tomlconf

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/vk/shimloader/internal/config"
	"github.com/vk/shimloader/internal/ctxlog"
	"github.com/vk/shimloader/internal/fsutil"
)

// Extension is the file extension handled by this loader.
const Extension = ".toml"

type fileRoot struct {
	BaseURL     string               `toml:"base_url"`
	Paths       map[string]string    `toml:"paths"`
	Shim        map[string]shimTable `toml:"shim"`
	Require     []string             `toml:"require"`
	WaitSeconds *int                 `toml:"wait_seconds"`
	URLArgs     string               `toml:"url_args"`
}

type shimTable struct {
	Deps    []string `toml:"deps"`
	Exports string   `toml:"exports"`
}

// Loader implements config.Loader for TOML files.
type Loader struct{}

// NewLoader creates a new TOML configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load decodes every .toml file under the given paths and merges them.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	files, err := fsutil.CollectFiles(paths, Extension)
	if err != nil {
		return nil, err
	}

	model := config.NewModel()
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read TOML file %s: %w", file, err)
		}
		fileModel, err := l.LoadBytes(ctx, file, data)
		if err != nil {
			return nil, err
		}
		if err := model.Merge(fileModel); err != nil {
			return nil, fmt.Errorf("failed to merge %s: %w", file, err)
		}
	}
	return model, nil
}

// LoadBytes decodes a single TOML document. Unknown keys are rejected.
func (l *Loader) LoadBytes(ctx context.Context, filename string, data []byte) (*config.Model, error) {
	ctxlog.FromContext(ctx).Debug("Parsing TOML source.", "file", filename)

	var root fileRoot
	md, err := toml.Decode(string(data), &root)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TOML file %s: %w", filename, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("%s: unknown keys: %s", filename, strings.Join(keys, ", "))
	}

	model := config.NewModel()
	model.BaseURL = root.BaseURL
	model.URLArgs = root.URLArgs
	model.WaitSeconds = root.WaitSeconds
	model.Require = root.Require
	for k, v := range root.Paths {
		model.Paths[k] = v
	}
	for name, s := range root.Shim {
		model.Shims[name] = &config.Shim{Name: name, Deps: s.Deps, Exports: s.Exports}
	}
	return model, nil
}
