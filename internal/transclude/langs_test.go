package transclude

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLanguageTableLookup(t *testing.T) {
	langs := DefaultLanguageTable()

	testCases := []struct {
		ext      string
		expected string
	}{
		{".py", "python"},
		{".go", "go"},
		{".cs", "csharp"},
		{".mermaid", "mermaid"},
		{".PY", "python"},
		{".toml", "toml"}, // unmapped: extension text itself
		{"", "text"},      // extensionless
	}

	for _, tc := range testCases {
		t.Run(tc.ext, func(t *testing.T) {
			assert.Equal(t, tc.expected, langs.Lookup(tc.ext))
		})
	}
}

func TestLanguageTableMerge(t *testing.T) {
	langs := DefaultLanguageTable()
	langs.Merge(map[string]string{
		"zig":  "zig",
		".ERB": "erb",
		".py":  "python3", // override
	})

	assert.Equal(t, "zig", langs.Lookup(".zig"))
	assert.Equal(t, "erb", langs.Lookup(".erb"))
	assert.Equal(t, "python3", langs.Lookup(".py"))
}

func TestLoadLanguageFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "languages.yml")
	require.NoError(t, os.WriteFile(path, []byte(".kt: kotlin\nzig: zig\n"), 0o644))

	overrides, err := LoadLanguageFile(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{".kt": "kotlin", "zig": "zig"}, overrides)
}

func TestLoadLanguageFileMissing(t *testing.T) {
	_, err := LoadLanguageFile(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}

func TestLoadLanguageFileInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "languages.yml")
	require.NoError(t, os.WriteFile(path, []byte(":\n  - not a map"), 0o644))

	_, err := LoadLanguageFile(path)
	assert.Error(t, err)
}
