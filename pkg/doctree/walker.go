// Package doctree walks a module's export lists and collects the parsed
// documentation of every exported function into an ordered tree.
//
// Members are dispatched through Decide, which names the handling of each
// member classification: documented functions are recorded, genuine
// submodules are descended into and everything else is skipped.
package doctree

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/example/npdoc2json/pkg/numpydoc"
	"github.com/example/npdoc2json/pkg/pymodule"
	"github.com/example/npdoc2json/pkg/rst2myst"
)

// Parsed is the output of a DocParser: ordered sections plus recoverable
// warnings.
type Parsed struct {
	Sections []numpydoc.Section
	Warnings []string
}

// DocParser parses a docstring into sections.
type DocParser interface {
	Parse(doc string) (Parsed, error)
}

// DocParserFunc adapts a function to the DocParser interface.
type DocParserFunc func(doc string) (Parsed, error)

// Parse calls f(doc).
func (f DocParserFunc) Parse(doc string) (Parsed, error) { return f(doc) }

// Converter converts a markup string.
type Converter interface {
	Convert(text string) (string, error)
}

// ConverterFunc adapts a function to the Converter interface.
type ConverterFunc func(text string) (string, error)

// Convert calls f(text).
func (f ConverterFunc) Convert(text string) (string, error) { return f(text) }

// NumpydocParser parses docstrings with the numpydoc package.
var NumpydocParser DocParser = DocParserFunc(func(doc string) (Parsed, error) {
	d, err := numpydoc.Parse(doc)
	if err != nil {
		return Parsed{}, err
	}
	return Parsed{Sections: d.Sections(), Warnings: d.Warnings}, nil
})

// Action is the handling chosen for an exported member.
type Action int

const (
	// ActionSkip produces no entry.
	ActionSkip Action = iota
	// ActionRecord parses the member's docstring into a Record.
	ActionRecord
	// ActionDescend walks the member as a submodule.
	ActionDescend
)

func (a Action) String() string {
	switch a {
	case ActionRecord:
		return "record"
	case ActionDescend:
		return "descend"
	default:
		return "skip"
	}
}

// policy maps each member classification to its handling.
var policy = map[pymodule.Kind]func(parent string, m pymodule.Member) Action{
	pymodule.KindFunction: func(_ string, m pymodule.Member) Action {
		if !m.Documented() {
			return ActionSkip
		}
		return ActionRecord
	},
	pymodule.KindModule: func(parent string, m pymodule.Member) Action {
		if pymodule.IsSubmodule(m.Module, parent) {
			return ActionDescend
		}
		return ActionSkip
	},
	pymodule.KindOther: func(string, pymodule.Member) Action { return ActionSkip },
}

// Decide returns the handling of member m exported by the module named
// parent.
func Decide(parent string, m pymodule.Member) Action {
	rule, ok := policy[m.Kind]
	if !ok {
		return ActionSkip
	}
	return rule(parent, m)
}

// Sections whose narrative text is converted.
var narrativeSections = map[string]bool{
	numpydoc.ExtendedSummary: true,
	numpydoc.Notes:           true,
}

// Walker builds documentation trees.
type Walker struct {
	parser    DocParser
	converter Converter
	convert   bool
	logger    *log.Logger
}

// Option configures a Walker.
type Option func(*Walker)

// WithParser sets the docstring parser.
func WithParser(p DocParser) Option {
	return func(w *Walker) { w.parser = p }
}

// WithConverter sets the markup converter.
func WithConverter(c Converter) Option {
	return func(w *Walker) { w.converter = c }
}

// WithLogger sets the logger used for traversal and parser warnings.
func WithLogger(l *log.Logger) Option {
	return func(w *Walker) { w.logger = l }
}

// ConvertMarkup toggles markup conversion. With conversion off the tree has
// the same shape but descriptions are the raw joined lines and narrative
// sections keep their parsed values.
func ConvertMarkup(on bool) Option {
	return func(w *Walker) { w.convert = on }
}

// New returns a Walker using the numpydoc parser and the rst2myst converter
// unless overridden.
func New(opts ...Option) *Walker {
	w := &Walker{
		parser:    NumpydocParser,
		converter: rst2myst.New(rst2myst.Options{}),
		convert:   true,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = log.New(io.Discard)
	}
	return w
}

// Walk documents mod and its submodules. path is only logged; it is
// extended with each member name on recursion.
func (w *Walker) Walk(mod pymodule.Module, path string) (*Tree, error) {
	name := mod.Name()
	w.logger.Debug("walking module", "module", name, "path", path)

	exports, err := mod.Exports()
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", name, err)
	}

	tree := NewTree()
	for _, export := range exports {
		m, err := mod.Member(export)
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", name, err)
		}

		qualified := name + "." + export
		switch Decide(name, m) {
		case ActionRecord:
			rec, err := w.record(qualified, m.Doc)
			if err != nil {
				return nil, err
			}
			tree.Set(export, rec)
		case ActionDescend:
			sub, err := m.Open()
			if err != nil {
				return nil, fmt.Errorf("walk %s: open %s: %w", name, m.Module, err)
			}
			subtree, err := w.Walk(sub, path+"."+export)
			if err != nil {
				return nil, err
			}
			tree.Set(export, subtree)
		default:
			w.logger.Debug("skipping member", "member", qualified, "kind", m.Kind)
		}
	}
	return tree, nil
}

func (w *Walker) record(qualified, doc string) (*Record, error) {
	parsed, err := w.parser.Parse(doc)
	if err != nil {
		return nil, fmt.Errorf("parse docstring of %s: %w", qualified, err)
	}
	for _, warning := range parsed.Warnings {
		w.logger.Warn(warning, "function", qualified)
	}

	rec := &Record{}
	for _, s := range parsed.Sections {
		v, err := w.shape(s.Name, s.Value)
		if err != nil {
			return nil, fmt.Errorf("convert %s of %s: %w", s.Name, qualified, err)
		}
		rec.Set(s.Name, v)
	}
	return rec, nil
}

// shape applies markup conversion and parameter reshaping to one section.
func (w *Walker) shape(name string, value any) (any, error) {
	if params, ok := value.([]numpydoc.Parameter); ok && len(params) > 0 {
		out := make([]Param, len(params))
		for i, p := range params {
			desc, err := w.text(strings.Join(p.Desc, "\n"))
			if err != nil {
				return nil, err
			}
			out[i] = Param{Name: p.Name, Type: p.Type, Desc: desc}
		}
		return out, nil
	}

	if !w.convert || !narrativeSections[name] || !numpydoc.Truthy(value) {
		return value, nil
	}
	switch v := value.(type) {
	case []string:
		return w.converter.Convert(strings.Join(v, "\n"))
	case string:
		return w.converter.Convert(v)
	default:
		return value, nil
	}
}

func (w *Walker) text(s string) (string, error) {
	if !w.convert {
		return s, nil
	}
	return w.converter.Convert(s)
}
