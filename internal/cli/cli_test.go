package cli

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/shimloader/internal/app"
)

func TestParse(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name           string
		args           []string
		expectExit     bool
		expectErr      string
		expectedConfig *app.Config
		checkOutput    func(t *testing.T, output string)
	}{
		{
			name: "Happy path with all flags",
			args: []string{
				"-config", "/test/main.hcl",
				"--root=/test/www",
				"--require=client, lib/bootstrap",
				"--plan",
				"--log-level=debug",
				"--log-format=text",
				"--workers=4",
				"--healthcheck-port=8080",
				"--journal=/tmp/journal.db",
				"--events-url=http://localhost:3000",
			},
			expectedConfig: &app.Config{
				ConfigPaths:     []string{"/test/main.hcl"},
				Root:            "/test/www",
				Require:         []string{"client", "lib/bootstrap"},
				Plan:            true,
				LogLevel:        "debug",
				LogFormat:       "text",
				Workers:         4,
				HealthcheckPort: 8080,
				JournalPath:     "/tmp/journal.db",
				EventsURL:       "http://localhost:3000",
			},
		},
		{
			name: "Shorthand flag and defaults",
			args: []string{"-c", "/short/main.hcl"},
			expectedConfig: &app.Config{
				ConfigPaths: []string{"/short/main.hcl"},
				Root:        "/short",
				LogLevel:    "info",
				LogFormat:   "json",
				Workers:     app.DefaultWorkers,
			},
		},
		{
			name: "Flag and positional paths are merged",
			args: []string{"-c", "/a/base.hcl", "/a/overrides.yaml"},
			expectedConfig: &app.Config{
				ConfigPaths: []string{"/a/base.hcl", "/a/overrides.yaml"},
				Root:        "/a",
				LogLevel:    "info",
				LogFormat:   "json",
				Workers:     app.DefaultWorkers,
			},
		},
		{
			name:       "Help flag triggers clean exit",
			args:       []string{"-h"},
			expectExit: true,
			checkOutput: func(t *testing.T, output string) {
				assert.Contains(t, output, "Usage:")
			},
		},
		{
			name:       "No path prints usage",
			args:       []string{},
			expectExit: true,
			checkOutput: func(t *testing.T, output string) {
				assert.Contains(t, output, "CONFIG_PATH")
			},
		},
		{
			name:      "Invalid log format",
			args:      []string{"--log-format=xml", "main.hcl"},
			expectErr: "invalid log-format",
		},
		{
			name:      "Invalid log level",
			args:      []string{"--log-level=trace", "main.hcl"},
			expectErr: "invalid log-level",
		},
		{
			name:      "Invalid worker count",
			args:      []string{"--workers=0", "main.hcl"},
			expectErr: "invalid workers",
		},
		{
			name:      "Unknown flag",
			args:      []string{"--nope"},
			expectErr: "flag provided but not defined",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// --- Arrange ---
			out := &bytes.Buffer{}

			// --- Act ---
			cfg, shouldExit, err := Parse(tc.args, out)

			// --- Assert ---
			if tc.expectErr != "" {
				require.Error(t, err)
				var exitErr *ExitError
				require.ErrorAs(t, err, &exitErr)
				assert.Equal(t, 2, exitErr.Code)
				assert.Contains(t, err.Error(), tc.expectErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectExit, shouldExit)
			if tc.expectedConfig != nil {
				if diff := cmp.Diff(tc.expectedConfig, cfg); diff != "" {
					t.Errorf("config mismatch (-want +got):\n%s", diff)
				}
			}
			if tc.checkOutput != nil {
				tc.checkOutput(t, out.String())
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"a", "b/c"}, splitList(" a, ,b/c,"))
}
