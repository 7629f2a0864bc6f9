package registry

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

//go:embed placeholder.png
var placeholderPNG []byte

// AllowedIconExtensions lists accepted upload extensions, lowercase and
// without the dot.
var AllowedIconExtensions = []string{"png", "jpg", "jpeg", "gif", "ico"}

// ErrIconExtension is returned by Save for a disallowed file extension.
var ErrIconExtension = errors.New("icon extension not allowed")

// protectedIcons are never removed by a sweep of the icons directory.
var protectedIcons = map[string]bool{
	"placeholder_icon.png": true,
	"default_icon.png":     true,
}

// IconStore saves uploaded icons under generated names. References it
// returns are slash-separated and relative to the static root.
type IconStore struct {
	layout Layout
	newID  func() string
}

// NewIconStore creates an IconStore for layout.
func NewIconStore(layout Layout) *IconStore {
	return &IconStore{layout: layout, newID: uuid.NewString}
}

// WithIDFunc replaces the generator used for icon file names.
func (s *IconStore) WithIDFunc(fn func() string) *IconStore {
	s.newID = fn
	return s
}

// Placeholder returns the placeholder reference.
func (s *IconStore) Placeholder() string {
	return filepath.ToSlash(s.layout.PlaceholderIcon)
}

// IsPlaceholder reports whether ref is the placeholder or empty.
func (s *IconStore) IsPlaceholder(ref string) bool {
	return ref == "" || ref == s.Placeholder()
}

// EnsurePlaceholder writes the built-in placeholder image if the file is
// missing or empty.
func (s *IconStore) EnsurePlaceholder() error {
	p := s.layout.StaticPath(s.Placeholder())
	if info, err := os.Stat(p); err == nil && info.Size() > 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return &IOError{Op: "create placeholder directory", Path: filepath.Dir(p), Err: err}
	}
	if err := os.WriteFile(p, placeholderPNG, 0o644); err != nil {
		return &IOError{Op: "write placeholder", Path: p, Err: err}
	}
	return nil
}

// AllowedExtension reports whether filename carries an accepted icon
// extension and returns it lowercased with its dot.
func AllowedExtension(filename string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return "", false
	}
	for _, allowed := range AllowedIconExtensions {
		if ext[1:] == allowed {
			return ext, true
		}
	}
	return "", false
}

// Save writes data as a new icon and returns its reference.
func (s *IconStore) Save(filename string, data []byte) (string, error) {
	ext, ok := AllowedExtension(filename)
	if !ok {
		return "", fmt.Errorf("save icon %q: %w", filename, ErrIconExtension)
	}
	dir := s.layout.IconsPath()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &IOError{Op: "create icons directory", Path: dir, Err: err}
	}
	base := s.newID() + ext
	p := filepath.Join(dir, base)
	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", &IOError{Op: "save icon", Path: p, Err: err}
	}
	if _, err := bytes.NewReader(data).WriteTo(f); err != nil {
		f.Close()
		os.Remove(p)
		return "", &IOError{Op: "save icon", Path: p, Err: err}
	}
	if err := f.Close(); err != nil {
		os.Remove(p)
		return "", &IOError{Op: "save icon", Path: p, Err: err}
	}
	return path.Join(filepath.ToSlash(s.layout.IconsDir), base), nil
}

// ErrIconRef is returned for a reference that does not name a file inside
// the icons directory.
var ErrIconRef = errors.New("icon reference outside icons directory")

// iconPath returns the file for ref if ref names an entry directly inside
// the icons directory.
func (s *IconStore) iconPath(ref string) (string, error) {
	clean := path.Clean(filepath.ToSlash(ref))
	dir, file := path.Split(clean)
	if file == "" || file == "." || file == ".." || path.Clean(dir) != path.Clean(filepath.ToSlash(s.layout.IconsDir)) {
		return "", fmt.Errorf("%q: %w", ref, ErrIconRef)
	}
	return filepath.Join(s.layout.IconsPath(), file), nil
}

// Exists reports whether the icon file for ref is present.
func (s *IconStore) Exists(ref string) bool {
	p, err := s.iconPath(ref)
	if err != nil {
		return false
	}
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

// Display returns ref, or the placeholder if ref's file is missing.
func (s *IconStore) Display(ref string) string {
	if s.IsPlaceholder(ref) || !s.Exists(ref) {
		return s.Placeholder()
	}
	return ref
}

// Remove deletes the icon for ref. The placeholder is never removed and a
// missing file is not an error. Refs outside the icons directory are
// refused without touching the filesystem.
func (s *IconStore) Remove(ref string) error {
	if s.IsPlaceholder(ref) {
		return nil
	}
	p, err := s.iconPath(ref)
	if err != nil {
		return fmt.Errorf("remove icon: %w", err)
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return &IOError{Op: "remove icon", Path: p, Err: err}
	}
	return nil
}

// Sweep removes every regular file in the icons directory except the
// protected names. A missing directory is not an error.
func (s *IconStore) Sweep() (removed int, errs []error) {
	dir := s.layout.IconsPath()
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, []error{&IOError{Op: "read icons directory", Path: dir, Err: err}}
	}
	for _, e := range entries {
		if !e.Type().IsRegular() || protectedIcons[e.Name()] || e.Name() == filepath.Base(s.layout.PlaceholderIcon) {
			continue
		}
		p := filepath.Join(dir, e.Name())
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, &IOError{Op: "remove icon", Path: p, Err: err})
			continue
		}
		removed++
	}
	return removed, errs
}
