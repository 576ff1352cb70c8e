package rst2myst

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

func isBlank(s string) bool { return strings.TrimSpace(s) == "" }

func indentOf(s string) int { return len(s) - len(strings.TrimLeft(s, " ")) }

func runeLen(s string) int { return utf8.RuneCountInString(s) }

// isAdornment reports whether s is a run of one punctuation character, as
// used for title underlines and transitions.
func isAdornment(s string) bool {
	s = strings.TrimRight(s, " ")
	if s == "" || strings.IndexByte(adornmentChars, s[0]) < 0 {
		return false
	}
	return strings.Count(s, s[:1]) == len(s)
}

func expandTabs(s string) string {
	if !strings.Contains(s, "\t") {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		var b strings.Builder
		col := 0
		for _, r := range line {
			if r == '\t' {
				n := 8 - col%8
				b.WriteString(strings.Repeat(" ", n))
				col += n
				continue
			}
			b.WriteRune(r)
			col++
		}
		lines[i] = b.String()
	}
	return strings.Join(lines, "\n")
}

// dedent removes the common leading spaces of the non-blank lines and
// empties whitespace-only lines.
func dedent(s string) string {
	lines := strings.Split(s, "\n")
	margin := -1
	for _, l := range lines {
		if isBlank(l) {
			continue
		}
		if n := indentOf(l); margin < 0 || n < margin {
			margin = n
		}
	}
	for i, l := range lines {
		if isBlank(l) {
			lines[i] = ""
		} else if margin > 0 {
			lines[i] = l[margin:]
		}
	}
	return strings.Join(lines, "\n")
}

func trimBlankLines(lines []string) []string {
	start, end := 0, len(lines)
	for start < end && isBlank(lines[start]) {
		start++
	}
	for end > start && isBlank(lines[end-1]) {
		end--
	}
	return lines[start:end]
}

// prefixLines prefixes every line of text, using blank for empty lines.
func prefixLines(text, prefix, blank string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		if l == "" {
			lines[i] = blank
		} else {
			lines[i] = prefix + l
		}
	}
	return strings.Join(lines, "\n")
}

// hangingIndent writes prefix before the first line of text and indents
// the following lines to line up with it.
func hangingIndent(prefix, text string) string {
	lines := strings.Split(text, "\n")
	pad := strings.Repeat(" ", runeLen(prefix))
	for i, l := range lines {
		switch {
		case i == 0:
			lines[i] = strings.TrimRight(prefix+l, " ")
		case l != "":
			lines[i] = pad + l
		}
	}
	return strings.Join(lines, "\n")
}

// fence wraps body in a backtick fence longer than any backtick run inside
// it.
func fence(info, body string) string {
	ticks := strings.Repeat("`", max(3, longestRun(body, '`')+1))
	if body == "" {
		return ticks + info + "\n" + ticks
	}
	return ticks + info + "\n" + body + "\n" + ticks
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return n
}

func itoa(n int) string { return strconv.Itoa(n) }
