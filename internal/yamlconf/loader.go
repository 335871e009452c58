// Package yamlconf loads the loader configuration from YAML files.
package yamlconf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/vk/shimloader/internal/config"
	"github.com/vk/shimloader/internal/ctxlog"
	"github.com/vk/shimloader/internal/fsutil"
	"gopkg.in/yaml.v3"
)

// Extensions are the file extensions handled by this loader.
var Extensions = []string{".yaml", ".yml"}

type fileRoot struct {
	BaseURL     string               `yaml:"base_url"`
	Paths       map[string]string    `yaml:"paths"`
	Shim        map[string]shimEntry `yaml:"shim"`
	Require     []string             `yaml:"require"`
	WaitSeconds *int                 `yaml:"wait_seconds"`
	URLArgs     string               `yaml:"url_args"`
}

type shimEntry struct {
	Deps    []string `yaml:"deps"`
	Exports string   `yaml:"exports"`
}

// Loader implements config.Loader for YAML files.
type Loader struct{}

// NewLoader creates a new YAML configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load decodes every YAML file under the given paths and merges them.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	files, err := fsutil.CollectFiles(paths, Extensions...)
	if err != nil {
		return nil, err
	}

	model := config.NewModel()
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read YAML file %s: %w", file, err)
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

// LoadBytes decodes a single YAML document with strict field checking.
func (l *Loader) LoadBytes(ctx context.Context, filename string, data []byte) (*config.Model, error) {
	ctxlog.FromContext(ctx).Debug("Parsing YAML source.", "file", filename)

	var root fileRoot
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&root); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML file %s: %w", filename, err)
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
