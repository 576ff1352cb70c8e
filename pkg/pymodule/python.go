package pymodule

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"
)

//go:embed dump.py
var dumpScript string

// DefaultPython is the interpreter used when none is configured.
const DefaultPython = "python3"

// Runner allows dependency injection for testing.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner implements Runner using real OS commands.
type ExecRunner struct{}

// Run executes name with args and returns its standard output. Standard
// error is attached to the returned error on failure.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	var out, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...) // #nosec G204
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w\n%s", err, msg)
		}
		return nil, err
	}
	return out.Bytes(), nil
}

// PythonResolver imports modules with a Python interpreter and walks the
// captured snapshot.
type PythonResolver struct {
	Python string
	Runner Runner
	Logger *log.Logger
}

// NewPythonResolver returns a resolver running the given interpreter.
func NewPythonResolver(python string, logger *log.Logger) *PythonResolver {
	if python == "" {
		python = DefaultPython
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &PythonResolver{Python: python, Runner: &ExecRunner{}, Logger: logger}
}

// Snapshot imports name and captures its module graph.
func (r *PythonResolver) Snapshot(ctx context.Context, name string) (*Snapshot, error) {
	if name == "" {
		return nil, fmt.Errorf("import module: empty name")
	}
	r.Logger.Debug("importing module", "module", name, "python", r.Python)

	out, err := r.Runner.Run(ctx, r.Python, "-c", dumpScript, name)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", name, err)
	}
	snap, err := DecodeSnapshot(out)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", name, err)
	}
	if snap.Root != name {
		if snap.Requested != name {
			return nil, fmt.Errorf("import module failed: %s resolved to %s", name, snap.Root)
		}
		r.Logger.Debug("module imported through an alias", "module", name, "resolved", snap.Root)
	}
	r.Logger.Debug("captured module graph", "module", name, "modules", len(snap.Modules))
	return snap, nil
}

// Resolve implements Resolver.
func (r *PythonResolver) Resolve(ctx context.Context, name string) (Module, error) {
	snap, err := r.Snapshot(ctx, name)
	if err != nil {
		return nil, err
	}
	return snap.RootModule()
}

// SnapshotResolver resolves names against a snapshot file captured earlier.
type SnapshotResolver struct {
	Path string
}

// Resolve loads the snapshot and opens name, or the snapshot root when name
// is empty.
func (r *SnapshotResolver) Resolve(_ context.Context, name string) (Module, error) {
	snap, err := ReadSnapshotFile(r.Path)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return snap.RootModule()
	}
	return snap.Module(name)
}
