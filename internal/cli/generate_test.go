package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/example/npdoc2json/pkg/doctree"
	"github.com/example/npdoc2json/pkg/pymodule"
)

const demoSnapshot = "../../testdata/demo_snapshot.json"

// runCommand executes the command tree with args and captures its output.
func runCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func discardLogger() *log.Logger { return log.New(io.Discard) }

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	full := writeFile(t, dir, "full.yml", `
npdoc:
  python: /usr/bin/python3.12
  format: yaml
  output: docs.yaml
  convert_markup: false
  strict: true
  timeout: 30s
`)
	partial := writeFile(t, dir, "partial.yml", "npdoc:\n  format: yaml\n")
	badYAML := writeFile(t, dir, "bad.yml", "npdoc: [")
	badTimeout := writeFile(t, dir, "timeout.yml", "npdoc:\n  timeout: soon\n")

	defaults := func() GenerateConfig {
		return GenerateConfig{
			Python:        pymodule.DefaultPython,
			OutputPath:    defaultOutput,
			Format:        defaultFormat,
			ConvertMarkup: true,
			Timeout:       defaultTimeout,
		}
	}

	tests := []struct {
		name    string
		config  func() GenerateConfig
		path    string
		want    func(c *GenerateConfig)
		wantErr string
	}{
		{
			name:   "no config file",
			config: defaults,
			want:   func(*GenerateConfig) {},
		},
		{
			name:    "nonexistent config file",
			config:  defaults,
			path:    filepath.Join(dir, "missing.yml"),
			wantErr: "read config",
		},
		{
			name:    "invalid yaml",
			config:  defaults,
			path:    badYAML,
			wantErr: "parse config",
		},
		{
			name:    "invalid timeout",
			config:  defaults,
			path:    badTimeout,
			wantErr: "timeout",
		},
		{
			name:   "file overrides defaults",
			config: defaults,
			path:   full,
			want: func(c *GenerateConfig) {
				c.Python = "/usr/bin/python3.12"
				c.Format = "yaml"
				c.OutputPath = "docs.yaml"
				c.ConvertMarkup = false
				c.Strict = true
				c.Timeout = 30 * time.Second
			},
		},
		{
			name: "flags win over file",
			config: func() GenerateConfig {
				c := defaults()
				c.Python = "python3.11"
				c.OutputPath = "out.json"
				c.Timeout = time.Minute
				return c
			},
			path: full,
			want: func(c *GenerateConfig) {
				c.Python = "python3.11"
				c.Format = "yaml"
				c.OutputPath = "out.json"
				c.ConvertMarkup = false
				c.Strict = true
				c.Timeout = time.Minute
			},
		},
		{
			name:   "unset keys keep flag values",
			config: defaults,
			path:   partial,
			want:   func(c *GenerateConfig) { c.Format = "yaml" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := tt.config()
			config.ConfigPath = tt.path
			err := loadConfigFile(&config)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			want := tt.config()
			want.ConfigPath = tt.path
			tt.want(&want)
			assert.Equal(t, want, config)
		})
	}
}

func TestGenerateFromSnapshot(t *testing.T) {
	stdout, _, err := runCommand(t, "demo", "--snapshot", demoSnapshot)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(stdout, "{\n  \"add\": {"), stdout)
	assert.True(t, strings.HasSuffix(stdout, "}\n"))

	tree, err := doctree.Decode([]byte(stdout))
	require.NoError(t, err)
	assert.Equal(t, 2, tree.Len())
	_, ok := tree.Lookup("stats.mean")
	assert.True(t, ok)
	_, ok = tree.Lookup("helper")
	assert.False(t, ok)
	_, ok = tree.Lookup("np")
	assert.False(t, ok)

	assert.Contains(t, stdout, "{func}`operator.add`")
	assert.NotContains(t, stdout, ":func:`operator.add`")
}

func TestGenerateRawMarkup(t *testing.T) {
	stdout, _, err := runCommand(t, "demo", "--snapshot", demoSnapshot, "--raw")
	require.NoError(t, err)
	assert.Contains(t, stdout, ":func:`operator.add`")
}

func TestGenerateYAML(t *testing.T) {
	stdout, _, err := runCommand(t, "demo", "--snapshot", demoSnapshot, "--format", "yaml")
	require.NoError(t, err)

	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(stdout), &doc))
	root := doc.Content[0]
	require.Equal(t, yaml.MappingNode, root.Kind)
	assert.Equal(t, "add", root.Content[0].Value)
	assert.Equal(t, "stats", root.Content[2].Value)
}

func TestGenerateToFile(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "tree.json")
	stdout, _, err := runCommand(t, "demo", "--snapshot", demoSnapshot, "--output", out)
	require.NoError(t, err)
	assert.Empty(t, stdout)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Contains(t, decoded, "add")
	assert.Contains(t, decoded, "stats")
}

func TestGenerateWithConfigFile(t *testing.T) {
	dir := t.TempDir()
	config := writeFile(t, dir, ".npdoc.yml", "npdoc:\n  format: yaml\n  convert_markup: false\n")

	stdout, _, err := runCommand(t, "demo", "--snapshot", demoSnapshot, "--config", config)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "add:\n"), stdout)
	assert.Contains(t, stdout, ":func:`operator.add`")
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{
			name:    "missing module argument",
			args:    []string{},
			wantErr: "accepts 1 arg(s)",
		},
		{
			name:    "unsupported format",
			args:    []string{"demo", "--snapshot", demoSnapshot, "--format", "toml"},
			wantErr: "invalid configuration",
		},
		{
			name:    "unknown module",
			args:    []string{"nosuch", "--snapshot", demoSnapshot},
			wantErr: "resolve module",
		},
		{
			name:    "missing snapshot",
			args:    []string{"demo", "--snapshot", "does-not-exist.json"},
			wantErr: "read snapshot",
		},
		{
			name:    "missing output directory",
			args:    []string{"demo", "--snapshot", demoSnapshot, "--output", "/nonexistent/dir/tree.json"},
			wantErr: "does not exist",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := runCommand(t, tt.args...)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}

	_, _, err := runCommand(t, "nosuch", "--snapshot", demoSnapshot)
	assert.ErrorIs(t, err, pymodule.ErrUnknownModule)
}

func TestGenerateWithResolverAppliesTimeout(t *testing.T) {
	snap, err := pymodule.ReadSnapshotFile(demoSnapshot)
	require.NoError(t, err)

	var hadDeadline bool
	resolver := pymodule.ResolverFunc(func(ctx context.Context, name string) (pymodule.Module, error) {
		_, hadDeadline = ctx.Deadline()
		return snap.Module(name)
	})

	config := &GenerateConfig{
		Module:        "demo.stats",
		OutputPath:    "-",
		Format:        "json",
		ConvertMarkup: true,
		Timeout:       time.Second,
	}
	var out bytes.Buffer
	require.NoError(t, generateWithResolver(context.Background(), config, resolver, discardLogger(), &out, defaultFileSystem))
	assert.True(t, hadDeadline)
	assert.True(t, strings.HasPrefix(out.String(), "{\n  \"mean\": {"), out.String())

	failing := pymodule.ResolverFunc(func(context.Context, string) (pymodule.Module, error) {
		return nil, errors.New("boom")
	})
	err = generateWithResolver(context.Background(), config, failing, discardLogger(), &out, defaultFileSystem)
	assert.EqualError(t, err, "resolve module: boom")
}
