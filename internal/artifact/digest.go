package artifact

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/blake3"
)

// digestKey separates artifact digests from any other BLAKE3 use. The bytes
// are the ASCII domain name, zero-padded to 32 bytes.
var digestKey = [32]byte{
	'l', 'a', 'u', 'n', 'c', 'h', 'p', 'a', 'd', '.', 'a', 'r', 't', 'i', 'f', 'a',
	'c', 't', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// Digest returns the hex BLAKE3 keyed hash of the file at path.
func Digest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("digest %s: %w", path, err)
	}
	defer f.Close()

	hasher, err := blake3.NewKeyed(digestKey[:])
	if err != nil {
		return "", fmt.Errorf("digest %s: %w", path, err)
	}
	if _, err := io.Copy(hasher, f); err != nil {
		return "", fmt.Errorf("digest %s: %w", path, err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// Status describes an artifact relative to its recorded digest.
type Status string

const (
	StatusOK       Status = "ok"
	StatusMissing  Status = "missing"
	StatusModified Status = "modified"
)

// Check resolves ref and compares the file against want. An empty want
// only checks presence.
func (l *Locator) Check(ref, want string) Status {
	path, err := l.Resolve(ref)
	if err != nil {
		return StatusMissing
	}
	if want == "" {
		return StatusOK
	}
	got, err := Digest(path)
	if err != nil {
		return StatusMissing
	}
	if got != want {
		return StatusModified
	}
	return StatusOK
}
