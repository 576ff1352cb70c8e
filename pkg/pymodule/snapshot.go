package pymodule

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Member kinds as written by the dump script.
const (
	snapshotFunction = "function"
	snapshotModule   = "module"
	snapshotOther    = "other"
	snapshotError    = "error"
)

// Snapshot is a captured module graph: the root module plus every module
// reachable from it through strict-descendant submodule members.
type Snapshot struct {
	Root    string                   `json:"root" yaml:"root"`
	Modules map[string]*ModuleRecord `json:"modules" yaml:"modules"`

	// Requested is the name the root was imported as. It differs from Root
	// when the import returns an alias, e.g. os.path resolving to posixpath.
	Requested string `json:"requested,omitempty" yaml:"requested,omitempty"`
}

// ModuleRecord is one module of a Snapshot.
type ModuleRecord struct {
	Name string `json:"name" yaml:"name"`
	// All is nil when the module declares no __all__.
	All     *[]string               `json:"all" yaml:"all"`
	Members map[string]MemberRecord `json:"members" yaml:"members"`
}

// MemberRecord is one exported value of a ModuleRecord.
type MemberRecord struct {
	Kind   string `json:"kind" yaml:"kind"`
	Doc    string `json:"doc,omitempty" yaml:"doc,omitempty"`
	Module string `json:"module,omitempty" yaml:"module,omitempty"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`

	// Documented marks a function with a docstring, including one that
	// cleans to an empty Doc.
	Documented bool `json:"documented,omitempty" yaml:"documented,omitempty"`
}

// DecodeSnapshot parses a snapshot written as JSON or YAML.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if json.Valid(data) {
		if err := json.Unmarshal(data, &snap); err != nil {
			return nil, fmt.Errorf("parse snapshot json: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse snapshot yaml: %w", err)
	}
	if err := snap.check(); err != nil {
		return nil, err
	}
	return &snap, nil
}

// ReadSnapshotFile loads a snapshot from disk.
func ReadSnapshotFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return DecodeSnapshot(data)
}

// WriteJSON encodes the snapshot as indented JSON.
func (s *Snapshot) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(s)
}

func (s *Snapshot) check() error {
	if s.Root == "" {
		return fmt.Errorf("snapshot has no root module")
	}
	if _, ok := s.Modules[s.Root]; !ok {
		return fmt.Errorf("snapshot root %s: %w", s.Root, ErrUnknownModule)
	}
	return nil
}

// RootModule opens the root module of the snapshot.
func (s *Snapshot) RootModule() (Module, error) {
	return s.Module(s.Root)
}

// Module opens a module recorded in the snapshot.
func (s *Snapshot) Module(name string) (Module, error) {
	rec, ok := s.Modules[name]
	if !ok && name != "" && name == s.Requested {
		name = s.Root
		rec, ok = s.Modules[name]
	}
	if !ok || rec == nil {
		return nil, fmt.Errorf("%s: %w", name, ErrUnknownModule)
	}
	return &snapshotModule{snap: s, name: name, rec: rec}, nil
}

type snapshotModule struct {
	snap *Snapshot
	name string
	rec  *ModuleRecord
}

func (m *snapshotModule) Name() string {
	if m.rec.Name != "" {
		return m.rec.Name
	}
	return m.name
}

func (m *snapshotModule) Exports() ([]string, error) {
	if m.rec.All == nil {
		return nil, fmt.Errorf("%s: %w", m.Name(), ErrNoExportList)
	}
	return append([]string(nil), (*m.rec.All)...), nil
}

func (m *snapshotModule) Member(name string) (Member, error) {
	rec, ok := m.rec.Members[name]
	if !ok {
		return Member{}, fmt.Errorf("module %s has no attribute %q", m.Name(), name)
	}

	switch rec.Kind {
	case snapshotFunction:
		return Member{Name: name, Kind: KindFunction, Doc: rec.Doc, HasDoc: rec.Documented || rec.Doc != ""}, nil
	case snapshotModule:
		target := rec.Module
		return SubmoduleMember(name, target, func() (Module, error) {
			return m.snap.Module(target)
		}), nil
	case snapshotError:
		return Member{}, fmt.Errorf("module %s attribute %q: %s", m.Name(), name, rec.Error)
	case snapshotOther, "":
		return Member{Name: name, Kind: KindOther}, nil
	default:
		return Member{}, fmt.Errorf("module %s attribute %q: unknown kind %q", m.Name(), name, rec.Kind)
	}
}
