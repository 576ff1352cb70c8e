// Package numpydoc parses docstrings written in the numpydoc convention.
//
// The parser mirrors numpydoc's NumpyDocString: a docstring becomes an
// ordered record holding every known section, with defaults for the ones the
// docstring leaves out. Parameter-like sections become Parameter lists and
// See Also becomes a list of cross references.
package numpydoc

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Section names.
const (
	Signature       = "Signature"
	Summary         = "Summary"
	ExtendedSummary = "Extended Summary"
	Parameters      = "Parameters"
	Returns         = "Returns"
	Yields          = "Yields"
	Receives        = "Receives"
	Raises          = "Raises"
	Warns           = "Warns"
	OtherParameters = "Other Parameters"
	Attributes      = "Attributes"
	Methods         = "Methods"
	SeeAlso         = "See Also"
	Notes           = "Notes"
	Warnings        = "Warnings"
	References      = "References"
	Examples        = "Examples"
	Index           = "index"
)

// sectionOrder is the order sections are reported in.
var sectionOrder = []string{
	Signature, Summary, ExtendedSummary, Parameters, Returns, Yields,
	Receives, Raises, Warns, OtherParameters, Attributes, Methods, SeeAlso,
	Notes, Warnings, References, Examples, Index,
}

// ErrParse is wrapped by every error returned from Parse.
var ErrParse = errors.New("malformed docstring")

// ParseError carries the docstring that failed to parse.
type ParseError struct {
	Docstring string
	Err       error
}

func (e *ParseError) Error() string { return "numpydoc: " + e.Err.Error() }

func (e *ParseError) Unwrap() error { return e.Err }

// Parameter is one entry of a parameter-like section.
type Parameter struct {
	Name string   `json:"name" yaml:"name"`
	Type string   `json:"type" yaml:"type"`
	Desc []string `json:"desc" yaml:"desc"`
}

// Section is a named section value. Value is one of string, []string,
// []Parameter, []SeeAlsoItem or map[string]any (index).
type Section struct {
	Name  string
	Value any
}

// Doc is a parsed docstring.
type Doc struct {
	data map[string]any

	// Warnings lists recoverable problems found while parsing.
	Warnings []string
}

func newDoc() *Doc {
	return &Doc{data: map[string]any{
		Signature:       "",
		Summary:         []string{""},
		ExtendedSummary: []string{},
		Parameters:      []Parameter{},
		Returns:         []Parameter{},
		Yields:          []Parameter{},
		Receives:        []Parameter{},
		Raises:          []Parameter{},
		Warns:           []Parameter{},
		OtherParameters: []Parameter{},
		Attributes:      []Parameter{},
		Methods:         []Parameter{},
		SeeAlso:         []SeeAlsoItem{},
		Notes:           []string{},
		Warnings:        []string{},
		References:      "",
		Examples:        "",
		Index:           map[string]any{},
	}}
}

// Get returns the value of a section and whether the section is known.
func (d *Doc) Get(name string) (any, bool) {
	v, ok := d.data[name]
	return v, ok
}

// Sections returns every section in canonical order.
func (d *Doc) Sections() []Section {
	out := make([]Section, 0, len(sectionOrder))
	for _, name := range sectionOrder {
		out = append(out, Section{Name: name, Value: d.data[name]})
	}
	return out
}

func (d *Doc) set(name string, value any) {
	if _, ok := d.data[name]; !ok {
		d.warn("Unknown section %s", name)
		return
	}
	d.data[name] = value
}

func (d *Doc) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	for _, w := range d.Warnings {
		if w == msg {
			return
		}
	}
	d.Warnings = append(d.Warnings, msg)
}

// Truthy reports whether a section value is non-empty.
func Truthy(v any) bool {
	switch v := v.(type) {
	case nil:
		return false
	case string:
		return v != ""
	case []string:
		return len(v) > 0
	case []Parameter:
		return len(v) > 0
	case []SeeAlsoItem:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	default:
		return true
	}
}

var signatureRe = regexp.MustCompile(`^([\w., ]+=)?\s*[\w\.]+\(.*\)$`)

// Parse parses a numpydoc docstring.
func Parse(docstring string) (*Doc, error) {
	p := &parser{
		r:   newReader(strings.Split(Dedent(docstring), "\n")),
		doc: newDoc(),
	}
	if err := p.parse(); err != nil {
		return nil, &ParseError{Docstring: docstring, Err: err}
	}
	return p.doc, nil
}

type parser struct {
	r   *reader
	doc *Doc
}

type rawSection struct {
	name    string
	content []string
}

func (p *parser) isAtSection() bool {
	p.r.seekNextNonEmptyLine()
	if p.r.eof() {
		return false
	}

	l1 := strings.TrimSpace(p.r.peek(0))
	if strings.HasPrefix(l1, ".. index::") {
		return true
	}

	l2 := strings.TrimSpace(p.r.peek(1))
	n1 := utf8.RuneCountInString(l1)
	n2 := utf8.RuneCountInString(l2)
	if n2 >= 3 && (allRune(l2, '-') || allRune(l2, '=')) && n2 != n1 {
		p.doc.warn("potentially wrong underline length... %s %s", l1, l2)
	}
	return strings.HasPrefix(l2, strings.Repeat("-", n1)) ||
		strings.HasPrefix(l2, strings.Repeat("=", n1))
}

func allRune(s string, r rune) bool {
	for _, c := range s {
		if c != r {
			return false
		}
	}
	return s != ""
}

func (p *parser) readToNextSection() []string {
	section := p.r.readToNextEmptyLine()
	for !p.isAtSection() && !p.r.eof() {
		if isBlank(p.r.peek(-1)) {
			section = append(section, "")
		}
		section = append(section, p.r.readToNextEmptyLine()...)
	}
	return section
}

func (p *parser) readSections() ([]rawSection, error) {
	var out []rawSection
	for !p.r.eof() {
		data := p.readToNextSection()
		if len(data) == 0 {
			break
		}
		name := strings.TrimSpace(data[0])
		switch {
		case strings.HasPrefix(name, ".."):
			out = append(out, rawSection{name: name, content: data[1:]})
		case len(data) < 2:
			return nil, fmt.Errorf("%w: section %q has no underline", ErrParse, name)
		default:
			out = append(out, rawSection{name: name, content: stripBlankLines(data[2:])})
		}
	}
	return out, nil
}

func (p *parser) parseSummary() {
	if p.isAtSection() {
		return
	}

	var summary []string
	for {
		summary = p.r.readToNextEmptyLine()
		joined := strings.TrimSpace(strings.Join(trimEach(summary), " "))
		if signatureRe.MatchString(joined) {
			p.doc.data[Signature] = joined
			if !p.isAtSection() {
				continue
			}
		}
		break
	}
	p.doc.data[Summary] = summary

	if !p.isAtSection() {
		p.doc.data[ExtendedSummary] = p.readToNextSection()
	}
}

func (p *parser) parse() error {
	p.r.reset()
	p.parseSummary()

	sections, err := p.readSections()
	if err != nil {
		return err
	}

	names := make(map[string]bool, len(sections))
	for _, s := range sections {
		names[s.name] = true
	}
	if names[Returns] && names[Yields] {
		return fmt.Errorf("%w: docstring contains both a Returns and Yields section", ErrParse)
	}
	if !names[Yields] && names[Receives] {
		return fmt.Errorf("%w: docstring contains a Receives section but not Yields", ErrParse)
	}

	for _, s := range sections {
		name := s.name
		if !strings.HasPrefix(name, "..") {
			name = capitalizeWords(name)
			if v, ok := p.doc.data[name]; ok && Truthy(v) {
				return fmt.Errorf("%w: the section %s appears twice", ErrParse, name)
			}
		}

		switch {
		case name == Parameters || name == OtherParameters || name == Attributes || name == Methods:
			p.doc.set(name, parseParamList(s.content, false))
		case name == Returns || name == Yields || name == Raises || name == Warns || name == Receives:
			p.doc.set(name, parseParamList(s.content, true))
		case strings.HasPrefix(name, ".. index::"):
			p.doc.set(Index, parseIndex(name, s.content))
		case name == SeeAlso:
			items, err := p.parseSeeAlso(s.content)
			if err != nil {
				return err
			}
			p.doc.set(SeeAlso, items)
		default:
			p.doc.set(name, s.content)
		}
	}
	return nil
}

func parseParamList(content []string, singleElementIsType bool) []Parameter {
	r := newReader(dedentLines(content))
	params := []Parameter{}
	for !r.eof() {
		header := strings.TrimSpace(r.read())
		var name, typ string
		if before, after, ok := strings.Cut(header, " : "); ok {
			name, typ = before, after
		} else {
			header = strings.TrimSuffix(header, " :")
			if singleElementIsType {
				typ = header
			} else {
				name = header
			}
		}
		desc := stripBlankLines(dedentLines(r.readToNextUnindentedLine()))
		params = append(params, Parameter{Name: name, Type: typ, Desc: desc})
	}
	return params
}

func parseIndex(section string, content []string) map[string]any {
	out := map[string]any{}
	if parts := strings.Split(section, "::"); len(parts) > 1 {
		out["default"] = strings.TrimSpace(strings.Split(parts[1], ",")[0])
	}
	for _, line := range content {
		fields := strings.Split(line, ":")
		if len(fields) > 2 {
			out[fields[1]] = trimEach(strings.Split(fields[2], ","))
		}
	}
	return out
}

// capitalizeWords capitalises each space separated word, lowering the rest
// of the word.
func capitalizeWords(s string) string {
	words := strings.Split(s, " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(w)
		words[i] = strings.ToUpper(string(r)) + strings.ToLower(w[size:])
	}
	return strings.Join(words, " ")
}

func trimEach(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = strings.TrimSpace(l)
	}
	return out
}
