package moduleid

import (
	"fmt"
	"regexp"
	"strings"
)

// segmentRegex matches a single segment of an identifier, e.g. `jquery.zclip`.
var segmentRegex = regexp.MustCompile(`^[a-zA-Z0-9_.@+-]+$`)

// isValidSegmentName checks for undesirable but technically valid names.
func isValidSegmentName(name string) bool {
	if name == "." || name == ".." || name == "-" {
		return false
	}
	return true
}

// Parse validates a raw module name and returns its canonical ID.
func Parse(raw string) (ID, error) {
	if raw == "" {
		return "", fmt.Errorf("module identifier cannot be empty")
	}
	if strings.HasPrefix(raw, "/") || strings.HasSuffix(raw, "/") {
		return "", fmt.Errorf("module identifier %q must not start or end with '/'", raw)
	}

	for _, segment := range strings.Split(raw, "/") {
		if segment == "" {
			return "", fmt.Errorf("module identifier %q contains an empty segment", raw)
		}
		if !segmentRegex.MatchString(segment) {
			return "", fmt.Errorf("invalid segment %q in module identifier %q", segment, raw)
		}
		if !isValidSegmentName(segment) {
			return "", fmt.Errorf("invalid segment name %q in module identifier %q", segment, raw)
		}
	}
	return ID(raw), nil
}

// MustParse is like Parse but panics on invalid input. It is meant for
// identifiers that are constants in Go code.
func MustParse(raw string) ID {
	id, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return id
}

// ParseAll parses a list of raw names, failing on the first invalid one.
func ParseAll(raws []string) ([]ID, error) {
	ids := make([]ID, 0, len(raws))
	for _, raw := range raws {
		id, err := Parse(raw)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
