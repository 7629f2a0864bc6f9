package program

import (
	"errors"
	"fmt"
)

// Sentinel errors. Typed errors below unwrap to these so callers can use
// errors.Is without caring about the concrete type.
var (
	ErrInvalidName         = errors.New("invalid program name")
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrDuplicateName       = errors.New("program already exists")
	ErrNotFound            = errors.New("program not found")
)

// NameError reports why a submitted name was rejected.
type NameError struct {
	Name   string
	Reason string
}

func (e *NameError) Error() string {
	return fmt.Sprintf("%s %q: %s", ErrInvalidName, e.Name, e.Reason)
}

func (e *NameError) Unwrap() error {
	return ErrInvalidName
}

// DuplicateNameError reports that a well-formed record already occupies
// the name.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("program %q already exists", e.Name)
}

func (e *DuplicateNameError) Unwrap() error {
	return ErrDuplicateName
}

// NotFoundError reports that no record exists for the name.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("program %q not found", e.Name)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// IsDuplicate returns true if err is (or wraps) a duplicate-name error.
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicateName)
}

// IsNotFound returns true if err is (or wraps) a not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
