package hcl

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/shimloader/internal/config"
	"github.com/vk/shimloader/internal/ctxlog"
	"github.com/vk/shimloader/internal/fsutil"
)

// Extension is the file extension handled by this loader.
const Extension = ".hcl"

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every .hcl file found under the given paths and merges them,
// in discovery order, into a single model. Explicitly named files with
// another extension are skipped with a warning.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := fsutil.CollectFiles(paths, Extension)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	parser := hclparse.NewParser()
	model := config.NewModel()
	for _, file := range files {
		if !fsutil.HasExtension(file, Extension) {
			logger.Warn("Skipping non-HCL configuration file.", "file", file)
			continue
		}
		src, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read HCL file %s: %w", file, err)
		}
		fileModel, err := l.parse(parser, file, src)
		if err != nil {
			return nil, err
		}
		if err := model.Merge(fileModel); err != nil {
			return nil, fmt.Errorf("failed to merge %s: %w", file, err)
		}
	}

	logger.Debug("HCL loading complete.", "shims", len(model.Shims), "paths", len(model.Paths), "require", len(model.Require))
	return model, nil
}

// LoadBytes parses a single in-memory HCL document. The filename is only
// used in diagnostics.
func (l *Loader) LoadBytes(ctx context.Context, filename string, src []byte) (*config.Model, error) {
	ctxlog.FromContext(ctx).Debug("Parsing HCL source.", "file", filename)
	return l.parse(hclparse.NewParser(), filename, src)
}

func (l *Loader) parse(parser *hclparse.Parser, filename string, src []byte) (*config.Model, error) {
	hclFile, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}

	var root fileRoot
	diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}
	return translate(&root, filename)
}

// translate converts the HCL-specific schema into the agnostic model.
func translate(root *fileRoot, filename string) (*config.Model, error) {
	model := config.NewModel()
	if root.BaseURL != nil {
		model.BaseURL = *root.BaseURL
	}
	if root.URLArgs != nil {
		model.URLArgs = *root.URLArgs
	}
	model.WaitSeconds = root.WaitSeconds
	model.Require = root.Require
	for k, v := range root.Paths {
		model.Paths[k] = v
	}

	for _, s := range root.Shims {
		if _, exists := model.Shims[s.Name]; exists {
			return nil, fmt.Errorf("%s: duplicate shim block for %q", filename, s.Name)
		}
		shim := &config.Shim{Name: s.Name, Deps: s.Deps}
		if s.Exports != nil {
			shim.Exports = *s.Exports
		}
		model.Shims[s.Name] = shim
	}
	return model, nil
}
