package manifest

import (
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint returns a 64-bit xxhash over the sorted (path, hash, size)
// tuples of a file table. Equal tables give equal fingerprints; it is a
// quick comparison key, not a content digest.
func Fingerprint(files map[string]FileEntry) string {
	h := xxhash.New()
	for _, p := range slices.Sorted(maps.Keys(files)) {
		e := files[p]
		_, _ = h.WriteString(p)
		_, _ = h.WriteString("\x00")
		_, _ = h.WriteString(e.Hash)
		_, _ = h.WriteString("\x00")
		_, _ = h.WriteString(strconv.FormatInt(e.Size, 10))
		_, _ = h.WriteString("\n")
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

// Fingerprint returns the fingerprint of the manifest's file table.
func (m *Manifest) Fingerprint() string {
	if m == nil {
		return Fingerprint(nil)
	}
	return Fingerprint(m.Files)
}
