package source

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrEmpty is returned for blank submissions.
var ErrEmpty = errors.New("source code is empty")

// SyntaxError is a diagnostic produced by a FrontEnd.
// Line and Column are 1-based; zero means unknown.
type SyntaxError struct {
	Message string
	Line    int
	Column  int
	Text    string // offending source line, if the front end reported it
}

func (e *SyntaxError) Error() string {
	switch {
	case e.Line > 0 && e.Column > 0:
		return fmt.Sprintf("syntax error at line %d, column %d: %s", e.Line, e.Column, e.Message)
	case e.Line > 0:
		return fmt.Sprintf("syntax error at line %d: %s", e.Line, e.Message)
	default:
		return "syntax error: " + e.Message
	}
}

// FrontEnd parses code with the language's own compiler front end.
// It returns a non-nil SyntaxError for code that does not parse and a
// non-nil error only when the check itself could not run.
type FrontEnd interface {
	Check(ctx context.Context, code string) (*SyntaxError, error)
}

// LiteralScanner is implemented by front ends that can tokenize code.
//
// LiteralLines returns the 1-based numbers of the lines of code that
// continue a multi-line string literal, i.e. every line of the literal
// after the one it starts on. Leading whitespace on those lines is part of
// the literal's value. A Validator only re-indents with a front end that
// implements LiteralScanner.
type LiteralScanner interface {
	LiteralLines(ctx context.Context, code string) ([]int, error)
}

// Normalized is code that passed validation.
type Normalized struct {
	Code       string
	Reindented bool
}

// Validator checks submissions with a FrontEnd.
type Validator struct {
	front      FrontEnd
	indentStep int
}

// NewValidator creates a Validator using the 4-space indent step.
func NewValidator(front FrontEnd) *Validator {
	return &Validator{front: front, indentStep: DefaultIndentStep}
}

// FrontEnd returns the front end the validator checks with.
func (v *Validator) FrontEnd() FrontEnd {
	return v.front
}

// Validate checks code and returns it normalized.
//
// Line endings are normalized to "\n" first. Code that parses as submitted
// is returned as is. Otherwise the re-indented form is checked; if that
// also fails, the original *SyntaxError is returned unmodified.
//
// Re-indentation changes leading whitespace only, and never inside a
// string literal: lines the front end reports as literal continuations
// are put back exactly as submitted before the final check. A front end
// that cannot report them gets no re-indentation at all.
func (v *Validator) Validate(ctx context.Context, code string) (Normalized, error) {
	code = strings.ReplaceAll(code, "\r\n", "\n")
	if strings.TrimSpace(code) == "" {
		return Normalized{}, ErrEmpty
	}

	diag, err := v.front.Check(ctx, code)
	if err != nil {
		return Normalized{}, fmt.Errorf("check source: %w", err)
	}
	if diag == nil {
		return Normalized{Code: code}, nil
	}

	scanner, ok := v.front.(LiteralScanner)
	if !ok {
		return Normalized{}, diag
	}
	reindented := Reindent(code, v.indentStep)
	if reindented == code {
		return Normalized{}, diag
	}
	second, err := v.front.Check(ctx, reindented)
	if err != nil {
		return Normalized{}, fmt.Errorf("check reindented source: %w", err)
	}
	if second != nil {
		return Normalized{}, diag
	}

	literal, err := scanner.LiteralLines(ctx, reindented)
	if err != nil {
		return Normalized{}, fmt.Errorf("scan reindented source: %w", err)
	}
	if len(literal) == 0 {
		return Normalized{Code: reindented, Reindented: true}, nil
	}
	restored := restoreLines(reindented, code, literal)
	if restored == code {
		return Normalized{}, diag
	}
	third, err := v.front.Check(ctx, restored)
	if err != nil {
		return Normalized{}, fmt.Errorf("check reindented source: %w", err)
	}
	if third != nil {
		return Normalized{}, diag
	}
	return Normalized{Code: restored, Reindented: true}, nil
}

// restoreLines replaces the given 1-based lines of code with the same
// lines of original. Both must have the same number of lines.
func restoreLines(code, original string, lines []int) string {
	out := strings.Split(code, "\n")
	orig := strings.Split(original, "\n")
	if len(out) != len(orig) {
		return code
	}
	for _, n := range lines {
		if n >= 1 && n <= len(out) {
			out[n-1] = orig[n-1]
		}
	}
	return strings.Join(out, "\n")
}
