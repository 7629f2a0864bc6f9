package program

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MaxNameLength bounds program names in runes.
const MaxNameLength = 64

// reservedNames are device names that cannot be used as file or directory
// names on Windows. Compared case-insensitively.
var reservedNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
	"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// NormalizeName trims and NFC-normalizes a submitted program name and
// checks it. Valid names contain only letters, digits and underscores.
//
// NFC matters here: the same visible name typed on two keyboards can
// arrive as different code point sequences, and both must map to one
// directory.
func NormalizeName(raw string) (string, error) {
	name := norm.NFC.String(strings.TrimSpace(raw))
	if name == "" {
		return "", &NameError{Name: raw, Reason: "name is empty"}
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return "", &NameError{Name: name, Reason: "name is longer than 64 characters"}
	}
	for _, r := range name {
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return "", &NameError{Name: name, Reason: "only letters, digits and underscores are allowed"}
		}
	}
	if reservedNames[strings.ToUpper(name)] {
		return "", &NameError{Name: name, Reason: "name is reserved by the operating system"}
	}
	return name, nil
}
