// Package confload reads loader configuration in any supported format. It
// walks the given paths, picks a format loader by file extension, and merges
// every file into one model in discovery order.
package confload

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vk/shimloader/internal/config"
	"github.com/vk/shimloader/internal/ctxlog"
	"github.com/vk/shimloader/internal/fsutil"
	"github.com/vk/shimloader/internal/hcl"
	"github.com/vk/shimloader/internal/tomlconf"
	"github.com/vk/shimloader/internal/yamlconf"
)

// ByteLoader decodes a single in-memory configuration document.
type ByteLoader interface {
	LoadBytes(ctx context.Context, filename string, data []byte) (*config.Model, error)
}

// Loader dispatches to format loaders by extension. It implements
// config.Loader.
type Loader struct {
	formats map[string]ByteLoader
}

var _ config.Loader = (*Loader)(nil)

// NewLoader returns a loader that understands HCL, TOML and YAML.
func NewLoader() *Loader {
	l := &Loader{formats: make(map[string]ByteLoader)}
	l.Register(hcl.NewLoader(), hcl.Extension)
	l.Register(tomlconf.NewLoader(), tomlconf.Extension)
	l.Register(yamlconf.NewLoader(), yamlconf.Extensions...)
	return l
}

// Register binds a format loader to one or more extensions, replacing any
// previous binding.
func (l *Loader) Register(bl ByteLoader, extensions ...string) {
	for _, ext := range extensions {
		l.formats[ext] = bl
	}
}

// Extensions lists the registered extensions.
func (l *Loader) Extensions() []string {
	exts := make([]string, 0, len(l.formats))
	for ext := range l.formats {
		exts = append(exts, ext)
	}
	return exts
}

// Load implements config.Loader. Files with unregistered extensions are
// skipped with a warning.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := fsutil.CollectFiles(paths, l.Extensions()...)
	if err != nil {
		return nil, err
	}

	model := config.NewModel()
	loaded := 0
	for _, file := range files {
		bl, ok := l.formats[filepath.Ext(file)]
		if !ok {
			logger.Warn("Skipping configuration file with unknown extension.", "file", file)
			continue
		}
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
		fileModel, err := bl.LoadBytes(ctx, file, data)
		if err != nil {
			return nil, err
		}
		if err := model.Merge(fileModel); err != nil {
			return nil, fmt.Errorf("failed to merge %s: %w", file, err)
		}
		loaded++
	}

	if loaded == 0 {
		return nil, fmt.Errorf("no configuration files found in %v", paths)
	}
	logger.Debug("Configuration loaded.", "files", loaded, "shims", len(model.Shims))
	return model, nil
}
