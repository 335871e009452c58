package moduleid

import "strings"

// ID is the canonical, validated name of a module.
type ID string

// String returns the identifier as written in configuration.
func (id ID) String() string {
	return string(id)
}

// Segments splits the identifier into its slash-separated parts.
func (id ID) Segments() []string {
	if id == "" {
		return nil
	}
	return strings.Split(string(id), "/")
}

// Location is the resolved place a module's source lives, without any
// engine extension. It is either a filesystem-style path or an absolute URL.
type Location struct {
	Path string
}

// IsURL reports whether the location must be fetched over HTTP.
func (l Location) IsURL() bool {
	return strings.HasPrefix(l.Path, "http://") || strings.HasPrefix(l.Path, "https://")
}

// WithExt returns the location path with the given extension appended.
func (l Location) WithExt(ext string) string {
	return l.Path + ext
}

// String returns the raw location path.
func (l Location) String() string {
	return l.Path
}
