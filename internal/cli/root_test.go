package cli

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "npdoc2json", cmd.Name())

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.Subset(t, names, []string{"check", "dump", "generate", "render"})
	assert.Contains(t, cmd.Long, "npdoc2json -- <module>")

	for _, flag := range []string{"snapshot", "format", "output", "raw", "strict", "config", "python", "timeout"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), flag)
	}
	assert.NotNil(t, cmd.PersistentFlags().Lookup("verbose"))
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		want    log.Level
	}{
		{name: "default", verbose: false, want: log.InfoLevel},
		{name: "verbose", verbose: true, want: log.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := newLogger(&buf, tt.verbose)
			assert.Equal(t, tt.want, logger.GetLevel())

			logger.Debug("walking module")
			if tt.verbose {
				assert.Contains(t, buf.String(), "npdoc2json")
				assert.Contains(t, buf.String(), "walking module")
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestVerboseLogsToStderr(t *testing.T) {
	stdout, stderr, err := runCommand(t, "demo", "--snapshot", demoSnapshot, "--verbose")
	assert.NoError(t, err)
	assert.NotEmpty(t, stdout)
	assert.Contains(t, stderr, "walking module")
	assert.NotContains(t, stdout, "walking module")
}

func TestModuleNamedLikeSubcommand(t *testing.T) {
	snapshot := writeFile(t, t.TempDir(), "check.json", `{
  "root": "check",
  "modules": {"check": {"name": "check", "all": ["run"], "members": {"run": {"kind": "function", "doc": "Run the checks."}}}}
}`)

	tests := []struct {
		name string
		args []string
	}{
		{name: "generate subcommand", args: []string{"generate", "check", "--snapshot", snapshot}},
		{name: "double dash", args: []string{"--snapshot", snapshot, "--", "check"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := runCommand(t, tt.args...)
			require.NoError(t, err)
			assert.Contains(t, stdout, "Run the checks.")
		})
	}
}
