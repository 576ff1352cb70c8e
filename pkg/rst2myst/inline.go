package rst2myst

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	roleRe        = regexp.MustCompile("^:((?:[A-Za-z0-9_+.-]+:)*[A-Za-z0-9_+.-]+):`")
	suffixRoleRe  = regexp.MustCompile(`^:((?:[A-Za-z0-9_+.-]+:)*[A-Za-z0-9_+.-]+):`)
	footnoteRefRe = regexp.MustCompile(`^\[(\d+|#[A-Za-z0-9_-]*|\*|[A-Za-z][A-Za-z0-9_.-]*)\]_`)
	embeddedURIRe = regexp.MustCompile(`(?s)^(.*?)\s*<([^<>]+)>$`)
)

// startOK reports whether inline markup may start at s[i].
func startOK(s string, i int) bool {
	if i == 0 {
		return true
	}
	return strings.IndexByte(" \t\n'\"([{<-/:", s[i-1]) >= 0
}

// inline converts inline markup of a paragraph.
func (c *converter) inline(s string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(s); {
		ch := s[i]
		if ch == '\\' && i+1 < len(s) {
			b.WriteString(s[i : i+2])
			i += 2
			continue
		}
		// Bare angle brackets stay literal text.
		if ch == '<' || ch == '>' {
			b.WriteByte('\\')
			b.WriteByte(ch)
			i++
			continue
		}
		if !startOK(s, i) || strings.IndexByte("`:[", ch) < 0 {
			b.WriteByte(ch)
			i++
			continue
		}

		n, out, err := c.markup(s[i:])
		if err != nil {
			return "", err
		}
		if n == 0 {
			b.WriteByte(ch)
			i++
			continue
		}
		b.WriteString(out)
		i += n
	}
	return b.String(), nil
}

// markup converts the construct at the start of s. It returns the number
// of bytes consumed, zero when s does not start a construct.
func (c *converter) markup(s string) (int, string, error) {
	switch {
	case strings.HasPrefix(s, "``"):
		end := strings.Index(s[2:], "``")
		if end < 0 {
			return 0, "", c.unclosed("inline literal", s)
		}
		return end + 4, codeSpan(s[2 : 2+end]), nil

	case s[0] == ':':
		m := roleRe.FindStringSubmatch(s)
		if m == nil {
			return 0, "", nil
		}
		start := len(m[0])
		end := strings.IndexByte(s[start:], '`')
		if end < 0 {
			return 0, "", c.unclosed("role", s)
		}
		return start + end + 1, role(m[1], s[start:start+end]), nil

	case s[0] == '`':
		end := strings.IndexByte(s[1:], '`')
		if end < 0 {
			return 0, "", c.unclosed("interpreted text", s)
		}
		content := s[1 : 1+end]
		n := end + 2
		rest := s[n:]
		switch {
		case strings.HasPrefix(rest, "__"):
			return n + 2, reference(content), nil
		case strings.HasPrefix(rest, "_"):
			return n + 1, reference(content), nil
		}
		if m := suffixRoleRe.FindStringSubmatch(rest); m != nil {
			return n + len(m[0]), role(m[1], content), nil
		}
		return n, codeSpan(content), nil

	case s[0] == '[':
		m := footnoteRefRe.FindStringSubmatch(s)
		if m == nil {
			return 0, "", nil
		}
		return len(m[0]), "[^" + m[1] + "]", nil
	}
	return 0, "", nil
}

func (c *converter) unclosed(what, s string) error {
	if !c.opts.Strict {
		return nil
	}
	if len(s) > 20 {
		s = s[:20] + "..."
	}
	return fmt.Errorf("%w: %s at %q", ErrUnclosed, what, s)
}

// codeSpan renders s as a Markdown code span, widening the fence when s
// contains backticks.
func codeSpan(s string) string {
	fence := strings.Repeat("`", longestRun(s, '`')+1)
	if strings.Contains(s, "`") {
		return fence + " " + s + " " + fence
	}
	return fence + s + fence
}

func role(name, content string) string {
	return "{" + name + "}" + codeSpan(content)
}

func reference(content string) string {
	if m := embeddedURIRe.FindStringSubmatch(content); m != nil {
		text := strings.TrimSpace(m[1])
		if text == "" {
			text = m[2]
		}
		return "[" + text + "](" + m[2] + ")"
	}
	return "[" + content + "]"
}

func longestRun(s string, ch byte) int {
	best, cur := 0, 0
	for i := 0; i < len(s); i++ {
		if s[i] == ch {
			cur++
			best = max(best, cur)
		} else {
			cur = 0
		}
	}
	return best
}
