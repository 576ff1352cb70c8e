// Package pymodule models a Python module graph as seen through export lists.
//
// A Module exposes its qualified dotted name, the names listed in its
// __all__ and a lookup that classifies each exported value once. Callers
// switch on Member.Kind instead of probing the value again.
package pymodule

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrNoExportList is returned by Module.Exports when the module does not
	// declare __all__.
	ErrNoExportList = errors.New("module has no export list")

	// ErrUnknownModule is returned when a qualified name is not part of the
	// module graph.
	ErrUnknownModule = errors.New("unknown module")
)

// Kind classifies an exported member.
type Kind int

const (
	// KindOther covers classes, constants, builtins and everything else.
	KindOther Kind = iota
	// KindFunction is a plain Python function.
	KindFunction
	// KindModule is a module object.
	KindModule
)

func (k Kind) String() string {
	switch k {
	case KindFunction:
		return "function"
	case KindModule:
		return "module"
	default:
		return "other"
	}
}

// Member is one exported value after classification.
type Member struct {
	Name string
	Kind Kind

	// Doc is the attached docstring of a function, cleaned of indentation.
	Doc string

	// HasDoc is set when a docstring is attached even if it cleans to empty,
	// e.g. one made only of whitespace.
	HasDoc bool

	// Module is the qualified name of the referenced module for KindModule.
	Module string

	open func() (Module, error)
}

// Documented reports whether the member is a function with an attached
// docstring.
func (m Member) Documented() bool {
	return m.Kind == KindFunction && (m.HasDoc || m.Doc != "")
}

// SubmoduleMember returns a KindModule member referencing the module named
// qualified. open is called lazily by Open.
func SubmoduleMember(name, qualified string, open func() (Module, error)) Member {
	return Member{Name: name, Kind: KindModule, Module: qualified, open: open}
}

// Open returns the module referenced by a KindModule member.
func (m Member) Open() (Module, error) {
	if m.Kind != KindModule || m.open == nil {
		return nil, errors.New("member " + m.Name + " is not a module")
	}
	return m.open()
}

// Module is a read-only handle to a Python module.
type Module interface {
	// Name returns the fully qualified dotted name.
	Name() string
	// Exports returns __all__ in declaration order.
	Exports() ([]string, error)
	// Member resolves and classifies an exported name.
	Member(name string) (Member, error)
}

// Resolver turns an importable name into a Module.
type Resolver interface {
	Resolve(ctx context.Context, name string) (Module, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, name string) (Module, error)

// Resolve calls f(ctx, name).
func (f ResolverFunc) Resolve(ctx context.Context, name string) (Module, error) {
	return f(ctx, name)
}

// IsSubmodule reports whether child is a strict dotted-name descendant of
// parent, e.g. "pkg.sub" and "pkg.sub.leaf" are descendants of "pkg" while
// "pkg", "pkgx" and "other" are not.
func IsSubmodule(child, parent string) bool {
	prefix := parent + "."
	return len(child) > len(prefix) && strings.HasPrefix(child, prefix)
}
