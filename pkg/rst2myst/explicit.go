package rst2myst

import (
	"regexp"
	"strings"
)

var (
	footnoteRe  = regexp.MustCompile(`^\.\. \[([^\]]+)\]\s*(.*)$`)
	targetRe    = regexp.MustCompile(`^\.\. _([^:]+):\s*(.*)$`)
	directiveRe = regexp.MustCompile(`^\.\. ([A-Za-z0-9][A-Za-z0-9_.:+-]*)::\s*(.*)$`)
	optionRe    = regexp.MustCompile(`^:([^:\s][^:]*):\s*(.*)$`)
)

// Directives whose body is reStructuredText; the body of any other directive
// is kept verbatim.
var proseDirectives = map[string]bool{
	"admonition":     true,
	"attention":      true,
	"caution":        true,
	"danger":         true,
	"error":          true,
	"hint":           true,
	"important":      true,
	"note":           true,
	"tip":            true,
	"warning":        true,
	"seealso":        true,
	"versionadded":   true,
	"versionchanged": true,
	"deprecated":     true,
	"topic":          true,
	"sidebar":        true,
	"rubric":         true,
	"container":      true,
}

// explicit converts an explicit markup block: a footnote, a hyperlink target,
// a directive or a comment.
func (c *converter) explicit(lines []string, i int) ([]string, int, error) {
	line := strings.TrimRight(lines[i], " ")
	body, next := indentedBlock(lines, i+1)

	if m := footnoteRe.FindStringSubmatch(line); m != nil {
		text := strings.TrimSpace(m[2] + "\n" + dedent(strings.Join(body, "\n")))
		md, err := c.nested(strings.Split(text, "\n"))
		if err != nil {
			return nil, 0, err
		}
		label := m[1]
		if label == "#" || label == "*" {
			label = "auto"
		}
		return []string{hangingIndent("[^"+strings.TrimPrefix(label, "#")+"]: ", md)}, next, nil
	}

	if m := targetRe.FindStringSubmatch(line); m != nil {
		name := strings.Trim(m[1], "`")
		url := strings.TrimSpace(m[2] + " " + strings.Join(trimLines(body), ""))
		if url == "" {
			return []string{"(" + name + ")="}, next, nil
		}
		return []string{"[" + name + "]: " + url}, next, nil
	}

	if m := directiveRe.FindStringSubmatch(line); m != nil {
		block, err := c.directive(m[1], strings.TrimSpace(m[2]), body)
		if err != nil {
			return nil, 0, err
		}
		return []string{block}, next, nil
	}

	text := strings.TrimSpace(strings.TrimPrefix(line, ".."))
	comment := make([]string, 0, len(body)+1)
	if text != "" {
		comment = append(comment, "% "+text)
	}
	if len(body) > 0 {
		for _, l := range strings.Split(dedent(strings.Join(body, "\n")), "\n") {
			comment = append(comment, strings.TrimRight("% "+l, " "))
		}
	}
	if len(comment) == 0 {
		comment = append(comment, "%")
	}
	return []string{strings.Join(comment, "\n")}, next, nil
}

// directive renders a MyST fenced directive. The leading field list of the
// body becomes the directive options.
func (c *converter) directive(name, arg string, body []string) (string, error) {
	body = strings.Split(dedent(strings.Join(body, "\n")), "\n")
	if len(body) == 1 && body[0] == "" {
		body = nil
	}

	var opts []string
	k := 0
	for ; k < len(body); k++ {
		if !optionRe.MatchString(body[k]) {
			break
		}
		opts = append(opts, strings.TrimRight(body[k], " "))
	}
	content := strings.Join(trimBlankLines(body[k:]), "\n")

	if proseDirectives[name] && content != "" {
		md, err := c.nested(strings.Split(content, "\n"))
		if err != nil {
			return "", err
		}
		content = md
	}

	inner := strings.Join(opts, "\n")
	if content != "" {
		if inner != "" {
			inner += "\n\n"
		}
		inner += content
	}

	info := "{" + name + "}"
	if arg != "" {
		info += " " + arg
	}
	return fence(info, inner), nil
}

func trimLines(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = strings.TrimSpace(l)
	}
	return out
}
