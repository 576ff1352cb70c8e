// Package mdrender turns a documentation tree back into Markdown pages.
//
// Render writes MyST Markdown with cross-reference targets for every
// function and submodule, or plain CommonMark when the MyST constructs are
// not understood by the consumer. HTML and Terminal render the resulting
// Markdown for browsers and terminals.
package mdrender

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/example/npdoc2json/pkg/doctree"
	"github.com/example/npdoc2json/pkg/numpydoc"
)

// ErrTargetNotFound is returned when Options.Target names no entry.
var ErrTargetNotFound = errors.New("render target not found")

// Flavor selects the Markdown dialect.
type Flavor string

const (
	// MyST keeps targets, roles and directives.
	MyST Flavor = "myst"
	// CommonMark rewrites MyST constructs into plain Markdown.
	CommonMark Flavor = "commonmark"
)

// Options configures Render.
type Options struct {
	// Depth is the heading level of top-level entries. Zero means 1.
	Depth int
	// Module prefixes cross-reference labels, e.g. "numpy".
	Module string
	// Target restricts output to one entry: "sub" or "sub.func".
	Target string
	// Flavor defaults to MyST.
	Flavor Flavor
}

// Sections rendered as definition lists, in output order.
var parameterSections = []string{
	numpydoc.Parameters,
	numpydoc.OtherParameters,
	numpydoc.Returns,
	numpydoc.Raises,
	numpydoc.Warns,
}

// Render writes tree as Markdown.
func Render(w io.Writer, tree *doctree.Tree, opts Options) error {
	md, err := Markdown(tree, opts)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, md)
	return err
}

// Markdown renders tree as a Markdown string ending in a newline.
func Markdown(tree *doctree.Tree, opts Options) (string, error) {
	if opts.Depth <= 0 {
		opts.Depth = 1
	}
	r := &renderer{opts: opts}

	if opts.Target == "" {
		r.tree(tree, nil, opts.Depth)
	} else {
		node, ok := tree.Lookup(opts.Target)
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrTargetNotFound, opts.Target)
		}
		path := strings.Split(opts.Target, ".")
		r.node(path[len(path)-1], node, path[:len(path)-1], opts.Depth)
	}

	out := strings.Join(r.blocks, "\n\n") + "\n"
	if opts.Flavor == CommonMark {
		out = ToCommonMark(out)
	}
	return out, nil
}

type renderer struct {
	opts   Options
	blocks []string
}

func (r *renderer) add(block string) {
	if strings.TrimSpace(block) != "" {
		r.blocks = append(r.blocks, block)
	}
}

// label builds a cross-reference label from the module name and a member
// path.
func (r *renderer) label(path ...string) string {
	parts := make([]string, 0, len(path)+1)
	if r.opts.Module != "" {
		parts = append(parts, r.opts.Module)
	}
	for _, p := range path {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ".")
}

func (r *renderer) heading(depth int, text string) {
	r.add(strings.Repeat("#", min(depth, 6)) + " " + text)
}

func (r *renderer) target(path []string, name string) {
	r.add("(" + r.label(append(append([]string(nil), path...), name)...) + ")=")
}

func (r *renderer) tree(t *doctree.Tree, path []string, depth int) {
	for _, e := range t.Entries() {
		r.node(e.Name, e.Node, path, depth)
	}
}

func (r *renderer) node(name string, n doctree.Node, path []string, depth int) {
	switch n := n.(type) {
	case *doctree.Record:
		r.function(name, n, path, depth)
	case *doctree.Tree:
		r.target(path, name)
		r.heading(depth, name)
		r.tree(n, append(append([]string(nil), path...), name), depth+1)
	}
}

func (r *renderer) function(name string, rec *doctree.Record, path []string, depth int) {
	r.target(path, name)
	r.heading(depth, name)

	if v, ok := rec.Get(numpydoc.Summary); ok {
		r.add(strings.Join(trimmed(lines(v)), " "))
	}
	if v, ok := rec.Get(numpydoc.ExtendedSummary); ok {
		r.add(strings.Join(lines(v), "\n"))
	}

	for _, section := range parameterSections {
		v, _ := rec.Get(section)
		if params, ok := v.([]doctree.Param); ok && len(params) > 0 {
			r.heading(depth+1, section)
			r.add(definitionList(params))
		}
	}

	if v, ok := rec.Get(numpydoc.Notes); ok && numpydoc.Truthy(v) {
		r.heading(depth+1, numpydoc.Notes)
		r.add(strings.Join(lines(v), "\n"))
	}
	if v, ok := rec.Get(numpydoc.References); ok && numpydoc.Truthy(v) {
		r.heading(depth+1, numpydoc.References)
		r.add(strings.Join(lines(v), "\n"))
	}
	if v, ok := rec.Get(numpydoc.Examples); ok && numpydoc.Truthy(v) {
		r.heading(depth+1, numpydoc.Examples)
		r.add(codeBlock("python", strings.Join(lines(v), "\n")))
	}
	if v, ok := rec.Get(numpydoc.SeeAlso); ok {
		if items, isItems := v.([]numpydoc.SeeAlsoItem); isItems {
			r.seeAlso(items, path, depth)
		}
	}
}

// seeAlso renders references as links followed by the joined descriptions.
// Unqualified names resolve within the current submodule.
func (r *renderer) seeAlso(items []numpydoc.SeeAlsoItem, path []string, depth int) {
	var links, text []string
	for _, it := range items {
		for _, fn := range it.Funcs {
			if fn.Name == "" {
				continue
			}
			xref := fn.Name
			if !strings.Contains(xref, ".") {
				xref = r.label(append(append([]string(nil), path...), fn.Name)...)
			}
			links = append(links, "["+fn.Name+"](#"+xref+")")
		}
		for _, d := range it.Desc {
			if d != "" {
				text = append(text, d)
			}
		}
	}
	if len(links) == 0 && len(text) == 0 {
		return
	}
	r.heading(depth+1, numpydoc.SeeAlso)
	if len(links) > 0 {
		r.add(strings.Join(links, ", "))
	}
	if len(text) > 0 {
		r.add(strings.Join(text, " "))
	}
}

// definitionList renders parameters as "name : *type*" terms. A parameter
// without a name uses its type as the term.
func definitionList(params []doctree.Param) string {
	items := make([]string, 0, len(params))
	for _, p := range params {
		term := p.Name
		if term == "" {
			term = p.Type
		} else if p.Type != "" {
			term += " : *" + p.Type + "*"
		}
		if strings.TrimSpace(p.Desc) == "" {
			items = append(items, term)
			continue
		}
		items = append(items, term+"\n"+indentDefinition(p.Desc))
	}
	return strings.Join(items, "\n\n")
}

func indentDefinition(desc string) string {
	ls := strings.Split(desc, "\n")
	for i, l := range ls {
		switch {
		case i == 0:
			ls[i] = ": " + l
		case l != "":
			ls[i] = "  " + l
		}
	}
	return strings.Join(ls, "\n")
}

func codeBlock(lang, body string) string {
	ticks := "```"
	for strings.Contains(body, ticks) {
		ticks += "`"
	}
	return ticks + lang + "\n" + body + "\n" + ticks
}

// lines returns a section value as lines: strings are split on newlines.
func lines(v any) []string {
	switch v := v.(type) {
	case []string:
		return v
	case string:
		if v == "" {
			return nil
		}
		return strings.Split(v, "\n")
	case []any:
		out := make([]string, 0, len(v))
		for _, x := range v {
			out = append(out, fmt.Sprint(x))
		}
		return out
	default:
		return nil
	}
}

func trimmed(ls []string) []string {
	out := make([]string, 0, len(ls))
	for _, l := range ls {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
