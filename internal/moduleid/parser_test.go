package moduleid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name      string
		raw       string
		expectErr bool
	}{
		{name: "simple name", raw: "client"},
		{name: "nested name", raw: "lib/bootstrap"},
		{name: "dots inside segment", raw: "lib/jquery.zclip"},
		{name: "minified suffix", raw: "lib/bootbox.min"},
		{name: "hyphenated name", raw: "jquery-extensions"},
		{name: "error - empty string", raw: "", expectErr: true},
		{name: "error - empty segment", raw: "lib//jquery", expectErr: true},
		{name: "error - leading slash", raw: "/lib/jquery", expectErr: true},
		{name: "error - trailing slash", raw: "lib/", expectErr: true},
		{name: "error - dot segment", raw: "lib/./jquery", expectErr: true},
		{name: "error - parent segment", raw: "../jquery", expectErr: true},
		{name: "error - whitespace", raw: "lib/j query", expectErr: true},
		{name: "error - just hyphen", raw: "-", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			id, err := Parse(tc.raw)
			if tc.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.raw, id.String())
		})
	}
}

func TestParseAll(t *testing.T) {
	ids, err := ParseAll([]string{"a", "lib/b"})
	require.NoError(t, err)
	assert.Equal(t, []ID{"a", "lib/b"}, ids)

	_, err = ParseAll([]string{"a", ""})
	assert.Error(t, err)
}

func TestMustParse_Panics(t *testing.T) {
	assert.Panics(t, func() { MustParse("a//b") })
	assert.NotPanics(t, func() { MustParse("a/b") })
}

func TestID_Segments(t *testing.T) {
	assert.Equal(t, []string{"lib", "jquery.zclip"}, ID("lib/jquery.zclip").Segments())
	assert.Nil(t, ID("").Segments())
}
