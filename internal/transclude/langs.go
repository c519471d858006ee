package transclude

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/autoreveal/autoreveal/internal/errors"
)

// LanguageTable maps file extensions (with leading dot) to the language tag
// used on generated code blocks. The table may be extended from a YAML file
// before a build starts; during a build it is fixed.
type LanguageTable map[string]string

// DefaultLanguageTable returns the built-in extension to language mapping.
func DefaultLanguageTable() LanguageTable {
	return LanguageTable{
		".py":      "python",
		".js":      "javascript",
		".ts":      "typescript",
		".css":     "css",
		".html":    "html",
		".xml":     "xml",
		".json":    "json",
		".md":      "markdown",
		".sh":      "bash",
		".sql":     "sql",
		".java":    "java",
		".c":       "c",
		".cpp":     "cpp",
		".cs":      "csharp",
		".php":     "php",
		".rb":      "ruby",
		".go":      "go",
		".rs":      "rust",
		".mermaid": "mermaid",
	}
}

// Lookup returns the language tag for a file extension. Lookup is total:
// an unmapped extension falls back to the extension text itself and an
// empty extension falls back to "text".
func (t LanguageTable) Lookup(ext string) string {
	ext = strings.ToLower(ext)
	if lang, ok := t[ext]; ok {
		return lang
	}
	if ext != "" {
		return strings.TrimPrefix(ext, ".")
	}
	return "text"
}

// Merge adds entries from overrides, replacing existing ones. Extension keys
// are normalized to a leading dot and lower case.
func (t LanguageTable) Merge(overrides map[string]string) {
	for ext, lang := range overrides {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		t[ext] = lang
	}
}

// LoadLanguageFile reads a YAML mapping of extension to language tag.
func LoadLanguageFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewIOError("transclude", path, "reading language file", err)
	}

	var overrides map[string]string
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, errors.NewConfigError("parsing language file "+path, err)
	}
	return overrides, nil
}
