package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vk/shimloader/internal/moduleid"
)

// DefaultWaitSeconds is the per-module fetch timeout used when the
// configuration does not set one.
const DefaultWaitSeconds = 7

// Model is the unified, format-agnostic representation of the loader
// configuration.
type Model struct {
	// BaseURL is the root every relative module location is joined to.
	BaseURL string
	// Paths maps an identifier prefix to a replacement location.
	Paths map[string]string
	// Shims declares prerequisites for modules lacking their own
	// dependency declarations, keyed by module name.
	Shims map[string]*Shim
	// Require is the entry-point list requested at startup.
	Require []string
	// WaitSeconds bounds each module fetch. Nil means DefaultWaitSeconds,
	// zero disables the timeout.
	WaitSeconds *int
	// URLArgs is appended as a query string to every HTTP fetch.
	URLArgs string
}

// Shim is the format-agnostic representation of a `shim` declaration.
type Shim struct {
	Name string
	// Deps is the ordered list of prerequisite module names.
	Deps []string
	// Exports names the global whose value becomes the module's exports
	// when the script does not return one.
	Exports string
}

// NewModel returns an empty, ready to use model.
func NewModel() *Model {
	return &Model{
		Paths: make(map[string]string),
		Shims: make(map[string]*Shim),
	}
}

// Wait returns the effective fetch timeout in seconds.
func (m *Model) Wait() int {
	if m.WaitSeconds == nil {
		return DefaultWaitSeconds
	}
	return *m.WaitSeconds
}

// DepsOf returns the declared prerequisites of a module. Modules without a
// shim have none.
func (m *Model) DepsOf(name string) []string {
	if s, ok := m.Shims[name]; ok {
		return s.Deps
	}
	return nil
}

// Merge folds other into m. Scalars set in other win, paths are overlaid,
// and shims are added. Declaring the same shim twice with different deps is
// a conflict.
func (m *Model) Merge(other *Model) error {
	if other == nil {
		return nil
	}
	if other.BaseURL != "" {
		m.BaseURL = other.BaseURL
	}
	if other.WaitSeconds != nil {
		w := *other.WaitSeconds
		m.WaitSeconds = &w
	}
	if other.URLArgs != "" {
		m.URLArgs = other.URLArgs
	}
	if len(other.Require) > 0 {
		m.Require = append([]string(nil), other.Require...)
	}
	for k, v := range other.Paths {
		m.Paths[k] = v
	}
	for name, shim := range other.Shims {
		existing, ok := m.Shims[name]
		if !ok {
			m.Shims[name] = shim
			continue
		}
		if !equalDeps(existing.Deps, shim.Deps) {
			return fmt.Errorf("conflicting shim declarations for %q: %v vs %v", name, existing.Deps, shim.Deps)
		}
		if shim.Exports != "" {
			existing.Exports = shim.Exports
		}
	}
	return nil
}

// Validate checks identifiers and the local shape of every shim. Graph-wide
// properties such as acyclicity are checked by the builder.
func (m *Model) Validate() error {
	var errs []string

	for alias := range m.Paths {
		if _, err := moduleid.Parse(alias); err != nil {
			errs = append(errs, fmt.Sprintf("paths: %v", err))
		}
	}
	for _, name := range m.ShimNames() {
		shim := m.Shims[name]
		if _, err := moduleid.Parse(name); err != nil {
			errs = append(errs, fmt.Sprintf("shim: %v", err))
			continue
		}
		seen := make(map[string]struct{}, len(shim.Deps))
		for _, dep := range shim.Deps {
			if _, err := moduleid.Parse(dep); err != nil {
				errs = append(errs, fmt.Sprintf("shim %q: %v", name, err))
				continue
			}
			if dep == name {
				errs = append(errs, fmt.Sprintf("shim %q: module cannot depend on itself", name))
			}
			if _, dup := seen[dep]; dup {
				errs = append(errs, fmt.Sprintf("shim %q: duplicate dependency %q", name, dep))
			}
			seen[dep] = struct{}{}
		}
	}
	for _, entry := range m.Require {
		if _, err := moduleid.Parse(entry); err != nil {
			errs = append(errs, fmt.Sprintf("require: %v", err))
		}
	}
	if m.WaitSeconds != nil && *m.WaitSeconds < 0 {
		errs = append(errs, "wait_seconds must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

// ShimNames returns the shim names in sorted order.
func (m *Model) ShimNames() []string {
	names := make([]string, 0, len(m.Shims))
	for name := range m.Shims {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func equalDeps(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
