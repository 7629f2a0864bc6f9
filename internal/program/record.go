package program

import (
	"fmt"
	"time"
)

// Record is the persisted catalogue entry for one program.
//
// SourcePath is relative to the programs root. ArtifactRef is a stored
// reference (relative to the artifacts root, relative to the working
// directory, or absolute). IconRef is relative to the static root.
type Record struct {
	Name           string    `json:"name"`
	Language       Language  `json:"language"`
	SourcePath     string    `json:"source_path"`
	ArtifactRef    string    `json:"artifact_ref"`
	ArtifactDigest string    `json:"artifact_digest,omitempty"`
	IconRef        string    `json:"icon_ref"`
	CreatedAt      time.Time `json:"created_at"`
}

// Validate reports whether the record carries every field a committed
// record must have.
func (r Record) Validate() error {
	if _, err := NormalizeName(r.Name); err != nil {
		return err
	}
	if !r.Language.Valid() {
		return fmt.Errorf("record %q: %w: %q", r.Name, ErrUnsupportedLanguage, r.Language)
	}
	if r.SourcePath == "" {
		return fmt.Errorf("record %q: source path is empty", r.Name)
	}
	if r.ArtifactRef == "" {
		return fmt.Errorf("record %q: artifact reference is empty", r.Name)
	}
	if r.IconRef == "" {
		return fmt.Errorf("record %q: icon reference is empty", r.Name)
	}
	return nil
}
