package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/npdoc2json/pkg/pymodule"
)

// mockRunner implements pymodule.Runner for testing.
type mockRunner struct {
	output []byte
	err    error
}

func (m *mockRunner) Run(context.Context, string, ...string) ([]byte, error) {
	return m.output, m.err
}

func TestDump(t *testing.T) {
	data, err := os.ReadFile(demoSnapshot)
	require.NoError(t, err)

	tests := []struct {
		name    string
		format  string
		runner  *mockRunner
		want    string
		wantErr string
	}{
		{
			name:   "json",
			format: "json",
			runner: &mockRunner{output: data},
			want:   `"root": "demo"`,
		},
		{
			name:   "yaml",
			format: "yaml",
			runner: &mockRunner{output: data},
			want:   "root: demo",
		},
		{
			name:    "import failure",
			format:  "json",
			runner:  &mockRunner{err: errors.New("exit status 1")},
			wantErr: "import demo: exit status 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := pymodule.NewPythonResolver("", discardLogger())
			resolver.Runner = tt.runner
			config := &GenerateConfig{Module: "demo", OutputPath: "-", Format: tt.format, Timeout: time.Second}

			var out bytes.Buffer
			err := dumpWithRunner(context.Background(), config, resolver, &out, defaultFileSystem)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, out.String(), tt.want)

			snap, err := pymodule.DecodeSnapshot(out.Bytes())
			require.NoError(t, err)
			assert.Equal(t, "demo", snap.Root)
			assert.Len(t, snap.Modules, 2)
		})
	}
}

func TestDumpCommandRejectsBadFormat(t *testing.T) {
	_, _, err := runCommand(t, "dump", "demo", "--format", "xml")
	assert.ErrorContains(t, err, "invalid configuration")
}

// writeDemoTree writes the tree generated from the demo snapshot to dir.
func writeDemoTree(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "demo.json")
	_, _, err := runCommand(t, "demo", "--snapshot", demoSnapshot, "--output", path)
	require.NoError(t, err)
	return path
}

func TestRenderCommand(t *testing.T) {
	tree := writeDemoTree(t, t.TempDir())

	tests := []struct {
		name     string
		args     []string
		contains []string
		excludes []string
	}{
		{
			name:     "myst",
			args:     []string{"render", tree, "--module", "demo"},
			contains: []string{"(demo.add)=", "# add", "## Parameters", "x : *int*", "(demo.stats.mean)=", "## mean"},
		},
		{
			name:     "commonmark target",
			args:     []string{"render", tree + "#stats.mean", "--format", "md", "--depth", "2"},
			contains: []string{"## mean", "values : *sequence of float*"},
			excludes: []string{")=", "# add"},
		},
		{
			name:     "html",
			args:     []string{"render", tree + "#add", "--format", "html"},
			contains: []string{"<h1", "<dt>x : <em>int</em></dt>"},
		},
		{
			name:     "term",
			args:     []string{"render", tree + "#add", "--format", "term", "--style", "notty"},
			contains: []string{"add", "Parameters"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := runCommand(t, tt.args...)
			require.NoError(t, err)
			for _, want := range tt.contains {
				assert.Contains(t, stdout, want)
			}
			for _, unwanted := range tt.excludes {
				assert.NotContains(t, stdout, unwanted)
			}
		})
	}
}

func TestRenderCommandErrors(t *testing.T) {
	tree := writeDemoTree(t, t.TempDir())

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "missing file", args: []string{"render", "nope.json"}, wantErr: "read tree"},
		{name: "unknown target", args: []string{"render", tree + "#stats.median"}, wantErr: "render target not found"},
		{name: "bad depth", args: []string{"render", tree, "--depth", "0"}, wantErr: "invalid configuration"},
		{name: "bad format", args: []string{"render", tree, "--format", "pdf"}, wantErr: "invalid configuration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := runCommand(t, tt.args...)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestCheckCommand(t *testing.T) {
	dir := t.TempDir()
	tree := writeDemoTree(t, dir)

	stdout, _, err := runCommand(t, "check", tree)
	require.NoError(t, err)
	assert.Contains(t, stdout, "2 functions, 1 submodules")

	bad := writeFile(t, dir, "bad.yaml", "f:\n  Summary: [x]\n  Parameters: [1]\nsub: 3\n")
	_, _, err = runCommand(t, "check", bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "f: Parameters[0]: expected a mapping")
	assert.Contains(t, err.Error(), "sub: submodule must be a mapping")
}
