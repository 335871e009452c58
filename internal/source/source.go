// Package source retrieves module scripts from the filesystem or over HTTP.
//
// A module location carries no extension. Fetchers probe the candidate
// extensions of the registered script engines in order, unless the location
// already ends with one of them.
package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/shimloader/internal/moduleid"
)

// Source is a fetched module script.
type Source struct {
	// Origin is the concrete file path or URL the script was read from.
	Origin string
	// Ext is the extension that matched, used to pick the engine.
	Ext string
	// Body is the raw script.
	Body []byte
}

// Fetcher retrieves the source of a module location.
type Fetcher interface {
	Fetch(ctx context.Context, loc moduleid.Location, exts []string) (*Source, error)
}

// NotFoundError is returned when no candidate file exists for a location.
type NotFoundError struct {
	Location string
	Tried    []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("module source not found at %s (tried %s)", e.Location, strings.Join(e.Tried, ", "))
}

// candidates lists the concrete names to probe for a location.
func candidates(loc moduleid.Location, exts []string) []candidate {
	for _, ext := range exts {
		if strings.HasSuffix(loc.Path, ext) {
			return []candidate{{name: loc.Path, ext: ext}}
		}
	}
	out := make([]candidate, 0, len(exts))
	for _, ext := range exts {
		out = append(out, candidate{name: loc.WithExt(ext), ext: ext})
	}
	return out
}

type candidate struct {
	name string
	ext  string
}

// Multi dispatches to an HTTP fetcher for URL locations and to a local
// fetcher for everything else.
type Multi struct {
	Local  Fetcher
	Remote Fetcher
}

// Fetch implements Fetcher.
func (m *Multi) Fetch(ctx context.Context, loc moduleid.Location, exts []string) (*Source, error) {
	if loc.IsURL() {
		if m.Remote == nil {
			return nil, fmt.Errorf("no remote fetcher configured for %s", loc)
		}
		return m.Remote.Fetch(ctx, loc, exts)
	}
	if m.Local == nil {
		return nil, fmt.Errorf("no local fetcher configured for %s", loc)
	}
	return m.Local.Fetch(ctx, loc, exts)
}
