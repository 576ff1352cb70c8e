// Package rst2myst converts reStructuredText prose to MyST Markdown.
//
// The converter covers the subset of reStructuredText found in numpydoc
// docstrings: paragraphs, section titles, lists, definition and field lists,
// literal and doctest blocks, directives, footnotes, targets, comments,
// simple tables and the common inline markup.
package rst2myst

import (
	"errors"
	"regexp"
	"strings"
)

// ErrUnclosed is returned in strict mode for inline markup that is never
// closed.
var ErrUnclosed = errors.New("unclosed inline markup")

// Options configures a Converter.
type Options struct {
	// Strict reports unclosed inline markup as an error instead of copying
	// it through.
	Strict bool
}

// Converter converts reStructuredText to MyST Markdown. It holds no state
// between calls and is safe for concurrent use.
type Converter struct {
	opts Options
}

// New returns a Converter.
func New(opts Options) *Converter {
	return &Converter{opts: opts}
}

// Convert converts rst and trims surrounding whitespace from the result.
func (c *Converter) Convert(rst string) (string, error) {
	conv := &converter{opts: c.opts, levels: map[string]int{}}
	text := expandTabs(strings.ReplaceAll(rst, "\r\n", "\n"))
	blocks, err := conv.blocks(strings.Split(dedent(text), "\n"))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(strings.Join(blocks, "\n\n")), nil
}

// ConvertLines joins lines with newlines and converts the result.
func (c *Converter) ConvertLines(lines []string) (string, error) {
	return c.Convert(strings.Join(lines, "\n"))
}

// Convert converts rst with default options.
func Convert(rst string) (string, error) {
	return New(Options{}).Convert(rst)
}

type converter struct {
	opts Options
	// levels maps a title adornment style to its heading level, in order of
	// first appearance.
	levels map[string]int
}

var (
	bulletRe    = regexp.MustCompile(`^([-*+•])( +|$)`)
	enumRe      = regexp.MustCompile(`^(\d+|#)\.( +|$)`)
	parenEnumRe = regexp.MustCompile(`^\(?(\d+|#)\)( +|$)`)
	fieldRe     = regexp.MustCompile(`^:([^:\s][^:]*):(\s+.*|)$`)
	simpleTblRe = regexp.MustCompile(`^=+( +=+)+\s*$`)
	gridTblRe   = regexp.MustCompile(`^\+[-=+]+\+\s*$`)
)

const adornmentChars = "=-`:'\"~^_*+#<>."

func (c *converter) blocks(lines []string) ([]string, error) {
	var out []string
	for i := 0; i < len(lines); {
		line := lines[i]
		if isBlank(line) {
			i++
			continue
		}

		var (
			block []string
			next  int
			err   error
		)
		switch {
		case indentOf(line) > 0:
			block, next, err = c.blockQuote(lines, i)
		case isOverlineTitle(lines, i):
			block, next, err = c.title(lines[i+1], "over"+lines[i][:1], i+3)
		case isUnderlineTitle(lines, i):
			block, next, err = c.title(line, lines[i+1][:1], i+2)
		case isAdornment(line) && len(strings.TrimSpace(line)) >= 4:
			block, next = []string{"---"}, i+1
		case simpleTblRe.MatchString(line):
			block, next, err = c.simpleTable(lines, i)
		case gridTblRe.MatchString(line):
			block, next = gridTable(lines, i)
		case strings.HasPrefix(line, ".. ") || strings.TrimSpace(line) == "..":
			block, next, err = c.explicit(lines, i)
		case strings.HasPrefix(line, ">>>"):
			block, next = doctest(lines, i)
		case fieldRe.MatchString(line):
			block, next, err = c.fieldList(lines, i)
		case bulletRe.MatchString(line):
			block, next, err = c.list(lines, i, bulletRe, false)
		case enumRe.MatchString(line):
			block, next, err = c.list(lines, i, enumRe, true)
		case parenEnumRe.MatchString(line):
			block, next, err = c.list(lines, i, parenEnumRe, true)
		case isDefinitionItem(lines, i):
			block, next, err = c.definitionList(lines, i)
		default:
			block, next, err = c.paragraph(lines, i)
		}
		if err != nil {
			return nil, err
		}
		for _, b := range block {
			if b != "" {
				out = append(out, b)
			}
		}
		i = next
	}
	return out, nil
}

// nested converts an indented body.
func (c *converter) nested(lines []string) (string, error) {
	blocks, err := c.blocks(strings.Split(dedent(strings.Join(lines, "\n")), "\n"))
	if err != nil {
		return "", err
	}
	return strings.Join(blocks, "\n\n"), nil
}

// indentedBlock returns the blank or indented lines starting at start,
// without trailing blank lines, and the index following them.
func indentedBlock(lines []string, start int) ([]string, int) {
	end := start
	for end < len(lines) && (isBlank(lines[end]) || indentOf(lines[end]) > 0) {
		end++
	}
	return trimBlankLines(lines[start:end]), end
}

func (c *converter) blockQuote(lines []string, i int) ([]string, int, error) {
	body, next := indentedBlock(lines, i)
	text, err := c.nested(body)
	if err != nil {
		return nil, 0, err
	}
	return []string{prefixLines(text, "> ", ">")}, next, nil
}

func isOverlineTitle(lines []string, i int) bool {
	if i+2 >= len(lines) || !isAdornment(lines[i]) || isBlank(lines[i+1]) {
		return false
	}
	under := strings.TrimRight(lines[i+2], " ")
	return isAdornment(under) && under == strings.TrimRight(lines[i], " ") &&
		runeLen(under) >= runeLen(strings.TrimSpace(lines[i+1]))
}

func isUnderlineTitle(lines []string, i int) bool {
	if i+1 >= len(lines) || isAdornment(lines[i]) {
		return false
	}
	under := strings.TrimRight(lines[i+1], " ")
	n := runeLen(under)
	return isAdornment(under) && n >= 2 && n >= runeLen(strings.TrimSpace(lines[i]))
}

func (c *converter) title(text, style string, next int) ([]string, int, error) {
	level, ok := c.levels[style]
	if !ok {
		level = len(c.levels) + 1
		c.levels[style] = level
	}
	title, err := c.inline(strings.TrimSpace(text))
	if err != nil {
		return nil, 0, err
	}
	return []string{strings.Repeat("#", min(level, 6)) + " " + title}, next, nil
}

// paragraph converts a paragraph. A paragraph ending in "::" introduces the
// indented literal block that follows it.
func (c *converter) paragraph(lines []string, i int) ([]string, int, error) {
	start := i
	for i < len(lines) && !isBlank(lines[i]) {
		i++
	}
	para := make([]string, 0, i-start)
	for _, l := range lines[start:i] {
		para = append(para, strings.TrimRight(l, " "))
	}
	text := strings.Join(para, "\n")

	literal := strings.HasSuffix(text, "::")
	if literal {
		switch {
		case text == "::":
			text = ""
		case strings.HasSuffix(text, " ::"), strings.HasSuffix(text, "\n::"):
			text = strings.TrimRight(strings.TrimSuffix(text, "::"), " \n")
		default:
			text = strings.TrimSuffix(text, ":")
		}
	}

	md, err := c.inline(text)
	if err != nil {
		return nil, 0, err
	}
	if !literal {
		return []string{md}, i, nil
	}

	j := i
	for j < len(lines) && isBlank(lines[j]) {
		j++
	}
	if j >= len(lines) || indentOf(lines[j]) == 0 {
		return []string{md}, i, nil
	}
	body, next := indentedBlock(lines, j)
	return []string{md, fence("", dedent(strings.Join(body, "\n")))}, next, nil
}

func isDefinitionItem(lines []string, i int) bool {
	return i+1 < len(lines) && !isBlank(lines[i]) && indentOf(lines[i]) == 0 &&
		!isBlank(lines[i+1]) && indentOf(lines[i+1]) > 0
}

// definitionList renders term/definition pairs in the MyST deflist syntax.
func (c *converter) definitionList(lines []string, i int) ([]string, int, error) {
	var items []string
	for isDefinitionItem(lines, i) {
		term, err := c.inline(strings.TrimSpace(lines[i]))
		if err != nil {
			return nil, 0, err
		}
		body, next := indentedBlock(lines, i+1)
		def, err := c.nested(body)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, term+"\n"+hangingIndent(": ", def))
		i = next
	}
	return []string{strings.Join(items, "\n\n")}, i, nil
}

func (c *converter) fieldList(lines []string, i int) ([]string, int, error) {
	var items []string
	for i < len(lines) {
		m := fieldRe.FindStringSubmatch(lines[i])
		if m == nil {
			break
		}
		body, next := indentedBlock(lines, i+1)
		text := strings.TrimSpace(m[2])
		if len(body) > 0 {
			text = strings.TrimSpace(text + "\n" + dedent(strings.Join(body, "\n")))
		}
		md, err := c.nested(strings.Split(text, "\n"))
		if err != nil {
			return nil, 0, err
		}
		items = append(items, hangingIndent(":"+m[1]+": ", md))
		i = next
	}
	return []string{strings.Join(items, "\n")}, i, nil
}

func (c *converter) list(lines []string, i int, marker *regexp.Regexp, ordered bool) ([]string, int, error) {
	var items []string
	n := 1
	for i < len(lines) {
		m := marker.FindStringSubmatchIndex(lines[i])
		if m == nil {
			break
		}
		if ordered && len(items) == 0 {
			if num := lines[i][m[2]:m[3]]; num != "#" {
				n = atoi(num)
			}
		}
		width := m[1]
		end := i + 1
		for end < len(lines) && (isBlank(lines[end]) || indentOf(lines[end]) >= max(width, 1)) {
			end++
		}
		body := append([]string{strings.Repeat(" ", width) + lines[i][width:]}, lines[i+1:end]...)
		text, err := c.nested(trimBlankLines(body))
		if err != nil {
			return nil, 0, err
		}

		prefix := "- "
		if ordered {
			prefix = itoa(n) + ". "
			n++
		}
		items = append(items, hangingIndent(prefix, text))
		i = end
	}
	return []string{strings.Join(items, "\n")}, i, nil
}

func doctest(lines []string, i int) ([]string, int) {
	start := i
	for i < len(lines) && !isBlank(lines[i]) {
		i++
	}
	return []string{fence("pycon", strings.Join(lines[start:i], "\n"))}, i
}

// gridTable keeps a grid table as reStructuredText inside an eval-rst
// directive.
func gridTable(lines []string, i int) ([]string, int) {
	start := i
	for i < len(lines) && !isBlank(lines[i]) {
		i++
	}
	return []string{fence("{eval-rst}", strings.Join(lines[start:i], "\n"))}, i
}

// simpleTable converts a simple table to a GFM pipe table. Tables without a
// header row get an empty one.
func (c *converter) simpleTable(lines []string, i int) ([]string, int, error) {
	cols := columnSpans(lines[i])
	rows, i := tableSegment(lines, i+1, cols)
	var header []string
	if i < len(lines) && !isBlank(lines[i]) {
		header = joinCells(rows, len(cols))
		rows, i = tableSegment(lines, i, cols)
	}
	if header == nil {
		header = make([]string, len(cols))
	}

	out := make([]string, 0, len(rows)+2)
	row, err := c.tableRow(header)
	if err != nil {
		return nil, 0, err
	}
	out = append(out, row, "|"+strings.Repeat(" --- |", len(cols)))
	for _, cells := range rows {
		row, err := c.tableRow(cells)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, row)
	}
	return []string{strings.Join(out, "\n")}, i, nil
}

// tableSegment reads rows up to the next border and returns the index after
// that border. A row whose first column is empty continues the previous row.
func tableSegment(lines []string, i int, cols [][2]int) ([][]string, int) {
	var rows [][]string
	for ; i < len(lines); i++ {
		line := lines[i]
		if simpleTblRe.MatchString(line) {
			return rows, i + 1
		}
		if isBlank(line) {
			continue
		}
		cells := splitColumns(line, cols)
		if n := len(rows); n > 0 && cells[0] == "" {
			for k, cell := range cells {
				if cell != "" {
					rows[n-1][k] = strings.TrimSpace(rows[n-1][k] + " " + cell)
				}
			}
			continue
		}
		rows = append(rows, cells)
	}
	return rows, i
}

func (c *converter) tableRow(cells []string) (string, error) {
	var b strings.Builder
	b.WriteString("|")
	for _, cell := range cells {
		text, err := c.inline(cell)
		if err != nil {
			return "", err
		}
		b.WriteString(" " + strings.ReplaceAll(text, "|", `\|`) + " |")
	}
	return b.String(), nil
}

func joinCells(rows [][]string, n int) []string {
	out := make([]string, n)
	for _, row := range rows {
		for k, cell := range row {
			out[k] = strings.TrimSpace(out[k] + " " + cell)
		}
	}
	return out
}

func columnSpans(border string) [][2]int {
	var spans [][2]int
	for i := 0; i < len(border); {
		if border[i] != '=' {
			i++
			continue
		}
		j := i
		for j < len(border) && border[j] == '=' {
			j++
		}
		spans = append(spans, [2]int{i, j})
		i = j
	}
	return spans
}

func splitColumns(line string, cols [][2]int) []string {
	cells := make([]string, len(cols))
	for k, span := range cols {
		if span[0] >= len(line) {
			continue
		}
		end := len(line)
		if k+1 < len(cols) {
			end = min(cols[k+1][0], len(line))
		}
		cells[k] = strings.TrimSpace(line[span[0]:end])
	}
	return cells
}
