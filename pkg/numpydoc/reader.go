package numpydoc

import "strings"

// reader is a line cursor over a docstring.
type reader struct {
	lines []string
	pos   int
}

func newReader(lines []string) *reader {
	return &reader{lines: lines}
}

func (r *reader) reset() { r.pos = 0 }

func (r *reader) eof() bool { return r.pos >= len(r.lines) }

func (r *reader) read() string {
	if r.eof() {
		return ""
	}
	line := r.lines[r.pos]
	r.pos++
	return line
}

// peek returns the line n positions away from the cursor. Negative offsets
// before the first line wrap around like Python indexing.
func (r *reader) peek(n int) string {
	i := r.pos + n
	if i < 0 {
		i += len(r.lines)
	}
	if i < 0 || i >= len(r.lines) {
		return ""
	}
	return r.lines[i]
}

func (r *reader) seekNextNonEmptyLine() {
	for !r.eof() && isBlank(r.lines[r.pos]) {
		r.pos++
	}
}

// readToCondition returns the lines from the cursor up to, not including,
// the first line satisfying cond. The result is a fresh slice.
func (r *reader) readToCondition(cond func(string) bool) []string {
	start := r.pos
	for r.pos < len(r.lines) {
		if cond(r.lines[r.pos]) {
			return copyLines(r.lines[start:r.pos])
		}
		r.pos++
	}
	if start < len(r.lines) {
		return copyLines(r.lines[start:])
	}
	return []string{}
}

func (r *reader) readToNextEmptyLine() []string {
	r.seekNextNonEmptyLine()
	return r.readToCondition(isBlank)
}

func (r *reader) readToNextUnindentedLine() []string {
	return r.readToCondition(func(line string) bool {
		return !isBlank(line) && len(strings.TrimLeft(line, " \t")) == len(line)
	})
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

func copyLines(lines []string) []string {
	return append([]string{}, lines...)
}

// Dedent removes the longest common leading whitespace from every line,
// ignoring blank lines, which are normalised to empty strings.
func Dedent(text string) string {
	lines := strings.Split(text, "\n")
	margin := ""
	found := false
	for i, line := range lines {
		if isBlank(line) {
			lines[i] = ""
			continue
		}
		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		switch {
		case !found:
			margin = indent
			found = true
		case strings.HasPrefix(indent, margin):
		case strings.HasPrefix(margin, indent):
			margin = indent
		default:
			margin = commonPrefix(margin, indent)
		}
	}
	if margin != "" {
		for i, line := range lines {
			if line != "" {
				lines[i] = line[len(margin):]
			}
		}
	}
	return strings.Join(lines, "\n")
}

func commonPrefix(a, b string) string {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[:i]
		}
	}
	return a[:n]
}

func dedentLines(lines []string) []string {
	return strings.Split(Dedent(strings.Join(lines, "\n")), "\n")
}

func stripBlankLines(lines []string) []string {
	for len(lines) > 0 && isBlank(lines[0]) {
		lines = lines[1:]
	}
	for len(lines) > 0 && isBlank(lines[len(lines)-1]) {
		lines = lines[:len(lines)-1]
	}
	return lines
}
