package manifest

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	m := New(DefaultVersion)

	assert.True(t, m.HasVersion())
	assert.Equal(t, "0.0.0", m.Version)
	assert.Equal(t, "", m.LastUpdated)
	assert.NotNil(t, m.Files)
	assert.Empty(t, m.Files)
}

func TestEncodeDefaultManifest(t *testing.T) {
	data, err := Encode(New(DefaultVersion))
	require.NoError(t, err)

	want := "{\n  \"version\": \"0.0.0\",\n  \"last_updated\": \"\",\n  \"files\": {}\n}"
	assert.Equal(t, want, string(data))
}

func TestEncodeLayout(t *testing.T) {
	m := New("1.2.0")
	m.LastUpdated = "2024-05-01T10:20:30+00:00Z"
	m.ReplaceFiles(map[string]FileEntry{
		"data/b.json": {Hash: "bb", Size: 20},
		"data/a.json": {Hash: "aa", Size: 10},
	})

	data, err := Encode(m)
	require.NoError(t, err)

	want := `{
  "version": "1.2.0",
  "last_updated": "2024-05-01T10:20:30+00:00Z",
  "files": {
    "data/a.json": {
      "hash": "aa",
      "size": 10
    },
    "data/b.json": {
      "hash": "bb",
      "size": 20
    }
  }
}`
	assert.Equal(t, want, string(data))
}

func TestEncodeKeepsNonASCIILiteral(t *testing.T) {
	m := New("1.0.0-ß")
	m.ReplaceFiles(map[string]FileEntry{
		"data/café/<menu>&.json": {Hash: "00", Size: 1},
	})

	data, err := Encode(m)
	require.NoError(t, err)

	s := string(data)
	assert.Contains(t, s, `"1.0.0-ß"`)
	assert.Contains(t, s, `"data/café/<menu>&.json"`)
	assert.NotContains(t, s, `\u00`)
}

func TestDecodePreservesUnknownKeys(t *testing.T) {
	input := `{
  "version": "2.0.0",
  "description": "城市 data",
  "last_updated": "old",
  "files": {"data/x.json": {"hash": "ff", "size": 3}},
  "authors": ["a", "b"]
}`
	m, err := Decode([]byte(input))
	require.NoError(t, err)

	assert.Equal(t, "2.0.0", m.Version)
	assert.Equal(t, "old", m.LastUpdated)
	assert.Equal(t, FileEntry{Hash: "ff", Size: 3}, m.Files["data/x.json"])
	require.Len(t, m.Extra(), 2)

	data, err := Encode(m)
	require.NoError(t, err)

	s := string(data)
	assert.Contains(t, s, `"description": "城市 data"`)
	assert.Contains(t, s, `"authors": [`)
	assert.Less(t, strings.Index(s, `"files"`), strings.Index(s, `"authors"`))
	assert.Less(t, strings.Index(s, `"authors"`), strings.Index(s, `"description"`))
}

func TestDecodeWithoutVersion(t *testing.T) {
	m, err := Decode([]byte(`{"files": {}}`))
	require.NoError(t, err)

	assert.False(t, m.HasVersion())
	assert.Equal(t, UndefinedVersion, m.DisplayVersion())

	data, err := Encode(m)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"version"`)

	m.SetVersion("0.1.0")
	assert.Equal(t, "0.1.0", m.DisplayVersion())
}

func TestDecodeLenientFields(t *testing.T) {
	m, err := Decode([]byte(`{"version": "1.0.0", "last_updated": 42, "files": []}`))
	require.NoError(t, err)

	assert.Equal(t, "", m.LastUpdated)
	assert.NotNil(t, m.Files)
	assert.Empty(t, m.Files)
}

func TestDecodeNullVersionRoundTrips(t *testing.T) {
	m, err := Decode([]byte(`{"version": null, "last_updated": "", "files": {}}`))
	require.NoError(t, err)

	assert.True(t, m.HasVersion())
	assert.True(t, m.IsNullVersion())
	assert.Equal(t, NullVersion, m.DisplayVersion())

	data, err := Encode(m)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "{\n  \"version\": null,\n"), "got %s", data)

	m.SetVersion("1.0.0")
	assert.False(t, m.IsNullVersion())
	data, err = Encode(m)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"version": "1.0.0"`)
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"syntax", `{"version": `},
		{"array", `[]`},
		{"null", `null`},
		{"string", `"hello"`},
		{"numeric version", `{"version": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestReplaceFilesDropsStaleEntries(t *testing.T) {
	m := New(DefaultVersion)
	m.ReplaceFiles(map[string]FileEntry{"data/old.json": {Hash: "1", Size: 1}})

	fresh := map[string]FileEntry{"data/new.json": {Hash: "2", Size: 2}}
	m.ReplaceFiles(fresh)

	assert.Equal(t, []string{"data/new.json"}, m.Paths())

	// The manifest owns its table.
	fresh["data/other.json"] = FileEntry{}
	assert.Len(t, m.Files, 1)

	m.ReplaceFiles(nil)
	assert.NotNil(t, m.Files)
}

func TestMarshalViaEncodingJSON(t *testing.T) {
	m := New("3.1.4")
	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, `{"version":"3.1.4","last_updated":"","files":{}}`, string(data))
}
