package integration_tests

import "github.com/vk/shimloader/internal/moduleid"

func idStrings(ids []moduleid.ID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
