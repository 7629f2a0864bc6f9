package source

import "strings"

// DefaultIndentStep is the indent width the re-indentation pass snaps to.
const DefaultIndentStep = 4

// tabWidth is the column width a leading tab counts for when measuring
// indentation.
const tabWidth = 4

// Reindent rewrites leading whitespace relative to a baseline.
//
// The baseline is the indent width of the first non-blank line. A line
// indented at or beyond the baseline keeps its offset from the baseline,
// rounded down to a multiple of step. A line indented less than the
// baseline is moved to column zero. Blank lines become empty. Only leading
// whitespace is touched.
func Reindent(code string, step int) string {
	if step <= 0 {
		step = DefaultIndentStep
	}
	lines := strings.Split(code, "\n")

	baseline := -1
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			baseline = indentWidth(line)
			break
		}
	}
	if baseline < 0 {
		return code
	}

	out := make([]string, len(lines))
	for i, line := range lines {
		body := strings.TrimLeft(line, " \t")
		if strings.TrimSpace(body) == "" {
			out[i] = ""
			continue
		}
		width := indentWidth(line)
		indent := 0
		if width >= baseline {
			indent = snap(width-baseline, step)
		}
		out[i] = strings.Repeat(" ", indent) + body
	}
	return strings.Join(out, "\n")
}

// indentWidth measures leading whitespace in columns.
func indentWidth(line string) int {
	width := 0
	for _, r := range line {
		switch r {
		case ' ':
			width++
		case '\t':
			width += tabWidth
		default:
			return width
		}
	}
	return width
}

// snap rounds delta down to a multiple of step.
func snap(delta, step int) int {
	return delta / step * step
}
