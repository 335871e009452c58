package moduleid

import (
	"path"
	"strings"
)

// Resolve maps an identifier to its location using the base URL and the
// path aliases. The longest alias that matches a whole-segment prefix of the
// identifier wins.
func Resolve(id ID, baseURL string, paths map[string]string) Location {
	segments := id.Segments()
	rel := string(id)

	for i := len(segments); i > 0; i-- {
		prefix := strings.Join(segments[:i], "/")
		target, ok := paths[prefix]
		if !ok {
			continue
		}
		rest := strings.Join(segments[i:], "/")
		rel = strings.TrimSuffix(target, "/")
		if rest != "" {
			rel = rel + "/" + rest
		}
		break
	}

	if isAbsolute(rel) || baseURL == "" {
		return Location{Path: rel}
	}
	return Location{Path: join(baseURL, rel)}
}

func isAbsolute(p string) bool {
	return strings.HasPrefix(p, "/") || strings.Contains(p, "://")
}

func join(base, rel string) string {
	if strings.Contains(base, "://") {
		return strings.TrimSuffix(base, "/") + "/" + rel
	}
	return path.Join(base, rel)
}
