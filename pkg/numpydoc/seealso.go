package numpydoc

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// SeeAlsoFunc is one referenced object. Role is empty when the reference
// carries no explicit role such as :meth:.
type SeeAlsoFunc struct {
	Name string
	Role string
}

// SeeAlsoItem is one See Also line: the objects it references and an
// optional description.
type SeeAlsoItem struct {
	Funcs []SeeAlsoFunc
	Desc  []string
}

func (f SeeAlsoFunc) tuple() []any {
	var role any
	if f.Role != "" {
		role = f.Role
	}
	return []any{f.Name, role}
}

// MarshalJSON encodes the reference as a [name, role] pair.
func (f SeeAlsoFunc) MarshalJSON() ([]byte, error) { return json.Marshal(f.tuple()) }

// MarshalYAML encodes the reference as a [name, role] pair.
func (f SeeAlsoFunc) MarshalYAML() (any, error) { return f.tuple(), nil }

func (it SeeAlsoItem) tuple() []any {
	funcs := it.Funcs
	if funcs == nil {
		funcs = []SeeAlsoFunc{}
	}
	desc := it.Desc
	if desc == nil {
		desc = []string{}
	}
	return []any{funcs, desc}
}

// MarshalJSON encodes the item as a [funcs, desc] pair.
func (it SeeAlsoItem) MarshalJSON() ([]byte, error) { return json.Marshal(it.tuple()) }

// MarshalYAML encodes the item as a [funcs, desc] pair.
func (it SeeAlsoItem) MarshalYAML() (any, error) { return it.tuple(), nil }

const (
	seeAlsoRole         = `:(?P<role>(py:)?\w+):`
	seeAlsoFuncBacktick = "`(?P<name>(?:~\\w+\\.)?[a-zA-Z0-9_\\.-]+)`"
	seeAlsoFuncPlain    = `(?P<name2>[a-zA-Z0-9_\.-]+)`
	seeAlsoFuncName     = `(` + seeAlsoRole + seeAlsoFuncBacktick + `|` + seeAlsoFuncPlain + `)`
	seeAlsoDescription  = `(?P<description>\s*:(\s+(?P<desc>\S+.*))?)?\s*$`
)

var (
	seeAlsoFuncNameNext = strings.ReplaceAll(strings.ReplaceAll(seeAlsoFuncName, "role", "rolenext"), "name", "namenext")

	seeAlsoFuncRe = regexp.MustCompile(`^\s*` + seeAlsoFuncName + `\s*`)
	seeAlsoLineRe = regexp.MustCompile(`^\s*` +
		`(?P<allfuncs>` + seeAlsoFuncName +
		`(?P<morefuncs>([,]\s+` + seeAlsoFuncNameNext + `)*)` +
		`)` +
		`(?P<trailing>[,\.])?` +
		seeAlsoDescription)
)

func group(re *regexp.Regexp, s string, m []int, name string) (string, bool) {
	i := re.SubexpIndex(name)
	if i < 0 || m[2*i] < 0 {
		return "", false
	}
	return s[m[2*i]:m[2*i+1]], true
}

func parseSeeAlsoName(text string) (SeeAlsoFunc, int, bool) {
	m := seeAlsoFuncRe.FindStringSubmatchIndex(text)
	if m == nil {
		return SeeAlsoFunc{}, 0, false
	}
	role, hasRole := group(seeAlsoFuncRe, text, m, "role")
	var name string
	if hasRole {
		name, _ = group(seeAlsoFuncRe, text, m, "name")
	} else {
		name, _ = group(seeAlsoFuncRe, text, m, "name2")
	}
	return SeeAlsoFunc{Name: name, Role: role}, m[1], true
}

// parseSeeAlso parses entries of the form
//
//	func_name : Descriptive text
//	    continued text
//	another_func_name : Descriptive text
//	func_name1, func_name2, :meth:`func_name`, func_name3
func (p *parser) parseSeeAlso(content []string) ([]SeeAlsoItem, error) {
	items := []SeeAlsoItem{}
	for _, line := range dedentLines(content) {
		if isBlank(line) {
			continue
		}

		m := seeAlsoLineRe.FindStringSubmatchIndex(line)
		description := ""
		if m != nil {
			description, _ = group(seeAlsoLineRe, line, m, "desc")
			if trailing, ok := group(seeAlsoLineRe, line, m, "trailing"); ok && trailing != "" && description != "" {
				p.doc.warn("Unexpected comma or period after function list at index %d of line %q", m[2*seeAlsoLineRe.SubexpIndex("trailing")+1], line)
			}
		}

		switch {
		case description == "" && strings.HasPrefix(line, " "):
			if n := len(items); n > 0 {
				items[n-1].Desc = append(items[n-1].Desc, strings.TrimSpace(line))
			}
		case m != nil:
			text, _ := group(seeAlsoLineRe, line, m, "allfuncs")
			funcs := []SeeAlsoFunc{}
			for strings.TrimSpace(text) != "" {
				fn, end, ok := parseSeeAlsoName(text)
				if !ok {
					return nil, fmt.Errorf("%w: error parsing See Also entry %q", ErrParse, line)
				}
				funcs = append(funcs, fn)
				text = strings.TrimSpace(text[end:])
				if strings.HasPrefix(text, ",") {
					text = strings.TrimSpace(text[1:])
				}
			}
			desc := []string{}
			if description != "" {
				desc = append(desc, description)
			}
			items = append(items, SeeAlsoItem{Funcs: funcs, Desc: desc})
		default:
			return nil, fmt.Errorf("%w: error parsing See Also entry %q", ErrParse, line)
		}
	}
	return items, nil
}
