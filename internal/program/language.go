package program

import (
	"fmt"
	"strings"
)

// Language identifies the source language of a submitted program.
type Language string

// Python is currently the only supported language.
const Python Language = "python"

// DefaultLanguage is used when a submission does not name one.
const DefaultLanguage = Python

var supportedLanguages = map[Language]bool{
	Python: true,
}

// Valid reports whether l is a supported language.
func (l Language) Valid() bool {
	return supportedLanguages[l]
}

func (l Language) String() string {
	return string(l)
}

// ParseLanguage converts user input to a Language. Empty input selects
// DefaultLanguage; matching is case-insensitive.
func ParseLanguage(s string) (Language, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultLanguage, nil
	}
	l := Language(s)
	if !l.Valid() {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedLanguage, s)
	}
	return l, nil
}
