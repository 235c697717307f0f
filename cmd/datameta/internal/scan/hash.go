// Package scan enumerates data files under a root and digests them.
package scan

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/go-git/go-billy/v5"
)

// ChunkSize is the read size used while hashing, so memory use does not
// depend on file size.
const ChunkSize = 4096

// HashFile computes the SHA-256 of a file's contents, returns lowercase hex.
func HashFile(fs billy.Filesystem, path string) (string, error) {
	f, err := fs.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return HashReader(f)
}

// HashReader digests r in ChunkSize reads.
func HashReader(r io.Reader) (string, error) {
	h := sha256.New()
	buf := make([]byte, ChunkSize)
	if _, err := io.CopyBuffer(h, onlyReader{r}, buf); err != nil {
		return "", fmt.Errorf("failed to hash file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashBytes computes the SHA-256 of data, returns lowercase hex.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// onlyReader hides WriterTo so io.CopyBuffer really uses the buffer.
type onlyReader struct {
	io.Reader
}
