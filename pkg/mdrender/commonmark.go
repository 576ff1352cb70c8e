package mdrender

import (
	"regexp"
	"strings"
)

var (
	directiveFenceRe = regexp.MustCompile("^(`{3,}|~{3,})\\{([^}]+)\\}\\s*(.*)$")
	codeFenceRe      = regexp.MustCompile("^(`{3,}|~{3,})")
	targetLineRe     = regexp.MustCompile(`^\([^()\s]+\)=\s*$`)
	roleStartRe      = regexp.MustCompile("\\{([A-Za-z0-9_:+.-]+)\\}(`+)")
	optionLineRe     = regexp.MustCompile(`^:[^:\s][^:]*:`)
)

var versionVerbs = map[string]string{
	"versionadded":   "Added",
	"versionchanged": "Changed",
	"deprecated":     "Deprecated",
}

var admonitionTitles = map[string]string{
	"attention": "Attention",
	"caution":   "Caution",
	"danger":    "Danger",
	"error":     "Error",
	"hint":      "Hint",
	"important": "Important",
	"note":      "Note",
	"seealso":   "See also",
	"tip":       "Tip",
	"warning":   "Warning",
}

// ToCommonMark rewrites MyST constructs into CommonMark: version directives
// and admonitions become block quotes, other directives become code blocks,
// the func role becomes a link, other roles become code spans and targets
// and comments are dropped.
func ToCommonMark(md string) string {
	out := convertLines(strings.Split(md, "\n"))
	return strings.TrimRight(strings.Join(out, "\n"), "\n") + "\n"
}

func convertLines(lines []string) []string {
	var out []string
	add := func(l string) {
		blank := strings.TrimSpace(l) == ""
		if blank && (len(out) == 0 || out[len(out)-1] == "") {
			return
		}
		if blank {
			l = ""
		}
		out = append(out, l)
	}

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimLeft(line, " ")
		indent := line[:len(line)-len(trimmed)]

		if m := directiveFenceRe.FindStringSubmatch(trimmed); m != nil {
			end := closingFence(lines, i+1, m[1])
			body := unindent(lines[i+1:end], indent)
			for _, l := range directive(m[2], strings.TrimSpace(m[3]), body) {
				if l == "" {
					add("")
				} else {
					add(indent + l)
				}
			}
			i = end
			continue
		}

		if m := codeFenceRe.FindStringSubmatch(trimmed); m != nil {
			end := closingFence(lines, i+1, m[1])
			last := min(end, len(lines)-1)
			out = append(out, lines[i:last+1]...)
			i = end
			continue
		}

		if targetLineRe.MatchString(trimmed) || trimmed == "%" || strings.HasPrefix(trimmed, "% ") {
			continue
		}
		add(rewriteRoles(line))
	}
	return out
}

// closingFence returns the index of the line closing a fence opened with
// ticks, or len(lines) when the fence is never closed.
func closingFence(lines []string, start int, ticks string) int {
	for j := start; j < len(lines); j++ {
		if strings.TrimSpace(lines[j]) == ticks {
			return j
		}
	}
	return len(lines)
}

func unindent(lines []string, indent string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = strings.TrimPrefix(l, indent)
	}
	return out
}

func directive(name, arg string, body []string) []string {
	k := 0
	for k < len(body) && optionLineRe.MatchString(body[k]) {
		k++
	}
	raw := body[k:]
	for len(raw) > 0 && strings.TrimSpace(raw[0]) == "" {
		raw = raw[1:]
	}

	if verb, ok := versionVerbs[name]; ok {
		out := []string{"> **Note:** " + strings.TrimSpace(verb+" in Version "+arg)}
		if content := trimBlank(convertLines(raw)); len(content) > 0 {
			out = append(out, ">")
			out = append(out, quote(content)...)
		}
		return out
	}

	title, ok := admonitionTitles[name]
	if name == "admonition" {
		title, ok = arg, true
	}
	if ok {
		out := []string{"> **" + title + "**"}
		if content := trimBlank(convertLines(raw)); len(content) > 0 {
			out = append(out, ">")
			out = append(out, quote(content)...)
		}
		return out
	}

	lang := name
	switch name {
	case "code", "code-block", "code-cell", "sourcecode":
		lang = arg
	case "eval-rst":
		lang = "rst"
	}
	return strings.Split(codeBlock(lang, strings.Join(trimBlank(raw), "\n")), "\n")
}

func quote(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		if l == "" {
			out[i] = ">"
		} else {
			out[i] = "> " + l
		}
	}
	return out
}

func trimBlank(lines []string) []string {
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return lines[start:end]
}

func rewriteRoles(line string) string {
	var b strings.Builder
	for {
		loc := roleStartRe.FindStringSubmatchIndex(line)
		if loc == nil {
			break
		}
		name := line[loc[2]:loc[3]]
		ticks := line[loc[4]:loc[5]]
		rest := line[loc[1]:]
		end := strings.Index(rest, ticks)
		if end < 0 {
			break
		}
		b.WriteString(line[:loc[0]])
		b.WriteString(role(name, rest[:end], ticks))
		line = rest[end+len(ticks):]
	}
	b.WriteString(line)
	return b.String()
}

func role(name, body, ticks string) string {
	switch name {
	case "func", "py:func":
		target := strings.TrimPrefix(strings.TrimSpace(body), "~")
		return "[" + target + "](#" + target + ")"
	default:
		return ticks + body + ticks
	}
}
