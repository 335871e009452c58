package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/vk/shimloader/internal/ctxlog"
	"github.com/vk/shimloader/internal/moduleid"
)

// FSFetcher reads module scripts from a file system. Locations are resolved
// relative to the file system root; a leading slash is ignored.
type FSFetcher struct {
	FS fs.FS
}

// NewDirFetcher returns an FSFetcher rooted at dir.
func NewDirFetcher(dir string) *FSFetcher {
	return &FSFetcher{FS: os.DirFS(dir)}
}

// Fetch implements Fetcher.
func (f *FSFetcher) Fetch(ctx context.Context, loc moduleid.Location, exts []string) (*Source, error) {
	logger := ctxlog.FromContext(ctx)
	var tried []string

	for _, c := range candidates(loc, exts) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := path.Clean(strings.TrimPrefix(c.name, "/"))
		if !fs.ValidPath(name) {
			return nil, fmt.Errorf("invalid module path %q", c.name)
		}
		tried = append(tried, name)

		body, err := fs.ReadFile(f.FS, name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		logger.Debug("Fetched module source.", "origin", name, "bytes", len(body))
		return &Source{Origin: name, Ext: c.ext, Body: body}, nil
	}
	return nil, &NotFoundError{Location: loc.Path, Tried: tried}
}
