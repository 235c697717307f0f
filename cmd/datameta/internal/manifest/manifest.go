// Package manifest models the metadata.json manifest: its file table,
// its JSON encoding and its persistence.
package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
)

// DefaultVersion is the version given to a freshly created manifest.
const DefaultVersion = "0.0.0"

// UndefinedVersion is what diagnostics print when a manifest has no version.
const UndefinedVersion = "undefined"

// NullVersion is what diagnostics print for "version": null.
const NullVersion = "null"

const (
	keyVersion     = "version"
	keyLastUpdated = "last_updated"
	keyFiles       = "files"
)

// ErrMalformed is returned when a manifest document cannot be decoded.
var ErrMalformed = errors.New("malformed manifest")

// FileEntry is the per-file record of content hash and byte size.
type FileEntry struct {
	Hash string `json:"hash"` // SHA-256, lowercase hex
	Size int64  `json:"size"`
}

// Manifest is the persisted summary of the tracked data files.
//
// Top-level keys other than version, last_updated and files are kept
// verbatim and written back after the known keys.
type Manifest struct {
	Version     string
	LastUpdated string
	Files       map[string]FileEntry

	hasVersion  bool
	nullVersion bool // "version": null, written back as null
	extra       map[string]json.RawMessage
}

// New creates an empty manifest with the given version.
func New(version string) *Manifest {
	return &Manifest{
		Version:    version,
		Files:      make(map[string]FileEntry),
		hasVersion: true,
	}
}

// HasVersion reports whether the manifest carries a version key.
func (m *Manifest) HasVersion() bool {
	return m != nil && m.hasVersion
}

// DisplayVersion returns the version, "undefined" when absent or "null"
// when the stored value is JSON null.
func (m *Manifest) DisplayVersion() string {
	switch {
	case !m.HasVersion():
		return UndefinedVersion
	case m.nullVersion:
		return NullVersion
	}
	return m.Version
}

// IsNullVersion reports whether the stored version is JSON null.
func (m *Manifest) IsNullVersion() bool {
	return m != nil && m.nullVersion
}

// SetVersion sets the version and marks it present.
func (m *Manifest) SetVersion(v string) {
	m.Version = v
	m.hasVersion = true
	m.nullVersion = false
}

// ReplaceFiles swaps the whole file table. Entries are never merged, so
// paths missing from files disappear from the manifest.
func (m *Manifest) ReplaceFiles(files map[string]FileEntry) {
	m.Files = maps.Clone(files)
	if m.Files == nil {
		m.Files = make(map[string]FileEntry)
	}
}

// Paths returns the tracked paths in sorted order.
func (m *Manifest) Paths() []string {
	if m == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(m.Files))
}

// Extra returns the preserved unknown top-level keys.
func (m *Manifest) Extra() map[string]json.RawMessage {
	return m.extra
}

// MarshalJSON writes version, last_updated and files first, then the
// preserved keys in lexical order. HTML characters are not escaped.
func (m *Manifest) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	n := 0
	write := func(key string, v any) error {
		if n > 0 {
			buf.WriteByte(',')
		}
		n++
		k, err := encodeValue(key)
		if err != nil {
			return err
		}
		val, err := encodeValue(v)
		if err != nil {
			return fmt.Errorf("failed to encode %q: %w", key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(val)
		return nil
	}

	if m.hasVersion {
		var v any = m.Version
		if m.nullVersion {
			v = nil
		}
		if err := write(keyVersion, v); err != nil {
			return nil, err
		}
	}
	if err := write(keyLastUpdated, m.LastUpdated); err != nil {
		return nil, err
	}
	files := m.Files
	if files == nil {
		files = map[string]FileEntry{}
	}
	if err := write(keyFiles, files); err != nil {
		return nil, err
	}
	for _, key := range slices.Sorted(maps.Keys(m.extra)) {
		if err := write(key, m.extra[key]); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a manifest object. version must be a string or
// null when present; a last_updated or files value of the wrong shape is dropped,
// since both are rewritten on every update.
func (m *Manifest) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if fields == nil {
		return fmt.Errorf("%w: top-level value must be an object", ErrMalformed)
	}

	*m = Manifest{Files: make(map[string]FileEntry)}

	if raw, ok := fields[keyVersion]; ok {
		if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			m.nullVersion = true
		} else if err := json.Unmarshal(raw, &m.Version); err != nil {
			return fmt.Errorf("%w: version must be a string", ErrMalformed)
		}
		m.hasVersion = true
		delete(fields, keyVersion)
	}

	if raw, ok := fields[keyLastUpdated]; ok {
		_ = json.Unmarshal(raw, &m.LastUpdated)
		delete(fields, keyLastUpdated)
	}

	if raw, ok := fields[keyFiles]; ok {
		var files map[string]FileEntry
		if err := json.Unmarshal(raw, &files); err == nil && files != nil {
			m.Files = files
		}
		delete(fields, keyFiles)
	}

	if len(fields) > 0 {
		m.extra = fields
	}
	return nil
}

// Encode renders the manifest the way it is stored on disk: two-space
// indentation, non-ASCII and HTML characters literal, no trailing newline.
func Encode(m *Manifest) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("failed to marshal manifest: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Decode parses a stored manifest.
func Decode(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		if errors.Is(err, ErrMalformed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return &m, nil
}

func encodeValue(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
