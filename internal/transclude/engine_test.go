package transclude

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	autorevealerrors "github.com/autoreveal/autoreveal/internal/errors"
	"github.com/autoreveal/autoreveal/internal/logging"
)

func testLogger() logging.Logger {
	return logging.NewLogger(&logging.LoggerConfig{Level: logging.LevelError, Output: io.Discard})
}

func writeFile(t *testing.T, baseDir, name, content string) {
	t.Helper()
	path := filepath.Join(baseDir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// resolveMarkup parses markup, resolves it against baseDir, and returns the
// rendered result plus the number of passes that changed the tree.
func resolveMarkup(t *testing.T, baseDir, markup string) (string, int) {
	t.Helper()
	engine := NewEngine(baseDir, DefaultLanguageTable(), testLogger())

	container, err := ParseFragment(markup)
	require.NoError(t, err)

	passes, err := engine.Resolve(context.Background(), container)
	require.NoError(t, err)

	rendered, err := RenderFragment(container)
	require.NoError(t, err)
	return rendered, passes
}

func TestResolveSmartHTMLInline(t *testing.T) {
	baseDir := t.TempDir()
	writeFile(t, baseDir, "frag.html", "<p>hello from fragment</p>")

	rendered, passes := resolveMarkup(t, baseDir, `<div data-load="frag.html"><p>placeholder</p></div>`)

	assert.Equal(t, 1, passes)
	assert.Contains(t, rendered, "<p>hello from fragment</p>")
	assert.NotContains(t, rendered, "placeholder", "original children are replaced")
	assert.NotContains(t, rendered, "data-load", "resolved directive attribute is removed")
}

func TestResolveSmartHTMLBodyExtraction(t *testing.T) {
	baseDir := t.TempDir()
	writeFile(t, baseDir, "page.html",
		"<html><head><title>ignored</title></head><body><p>body only</p></body></html>")

	rendered, _ := resolveMarkup(t, baseDir, `<div data-load="page.html"></div>`)

	assert.Contains(t, rendered, "<p>body only</p>")
	assert.NotContains(t, rendered, "<title>", "only the body container's children are spliced")
}

func TestResolveNestedFragmentPathRewrite(t *testing.T) {
	baseDir := t.TempDir()
	writeFile(t, baseDir, "demo/frag.html", `<img src="./x.png">`)

	rendered, _ := resolveMarkup(t, baseDir, `<div data-load="demo/frag.html"></div>`)

	assert.Contains(t, rendered, `src="demo/x.png"`)
	assert.NotContains(t, rendered, `src="./x.png"`)
	assert.NotContains(t, rendered, `demo/demo`, "no double prefix")
}

func TestResolveDirectivesIntroducedByFragments(t *testing.T) {
	baseDir := t.TempDir()
	writeFile(t, baseDir, "demo/frag.html", `<div data-load="./inner.html"></div>`)
	writeFile(t, baseDir, "demo/inner.html", "<em>deep</em>")

	rendered, passes := resolveMarkup(t, baseDir, `<div data-load="demo/frag.html"></div>`)

	assert.Equal(t, 2, passes, "nested directive needs a second pass")
	assert.Contains(t, rendered, "<em>deep</em>")
	assert.NotContains(t, rendered, "data-load")
}

func TestResolveMermaidDiagram(t *testing.T) {
	baseDir := t.TempDir()
	source := "graph TD\n    A --> B\n"
	writeFile(t, baseDir, "arch.mermaid", source)

	engine := NewEngine(baseDir, DefaultLanguageTable(), testLogger())
	container, err := ParseFragment(`<div data-load="arch.mermaid"></div>`)
	require.NoError(t, err)
	_, err = engine.Resolve(context.Background(), container)
	require.NoError(t, err)

	data := findByClass(container, "diagram-data")
	require.NotNil(t, data, "hidden diagram-data node present")
	require.NotNil(t, data.FirstChild)
	assert.Equal(t, source, data.FirstChild.Data, "diagram source carried verbatim")
	assert.Equal(t, "display: none", attrOf(data, "style"))

	display := findByClass(container, "diagram-display")
	require.NotNil(t, display, "render-target node present")
	assert.Nil(t, display.FirstChild, "render target starts empty")
	assert.Equal(t, data.NextSibling, display, "display node is the data node's sibling")
}

func TestResolveSmartCodeFallback(t *testing.T) {
	baseDir := t.TempDir()
	writeFile(t, baseDir, "snippet.py", `print("<script>alert(1)</script>")`)

	rendered, _ := resolveMarkup(t, baseDir, `<div data-load="snippet.py"></div>`)

	assert.Contains(t, rendered, `class="language-python"`)
	assert.Contains(t, rendered, "&lt;script&gt;", "markup in code content is escaped")
	assert.NotContains(t, rendered, "<script>")
	assert.Contains(t, rendered, "<pre>")
}

func TestResolveForcedCodeShowsHTMLSource(t *testing.T) {
	baseDir := t.TempDir()
	writeFile(t, baseDir, "frag.html", "<p>shown as source</p>")

	rendered, _ := resolveMarkup(t, baseDir, `<div data-load-code="frag.html"></div>`)

	assert.Contains(t, rendered, `class="language-html"`)
	assert.Contains(t, rendered, "&lt;p&gt;shown as source&lt;/p&gt;")
	assert.NotContains(t, rendered, "<p>shown as source</p>")
}

func TestResolveCodeUsesLanguageFallbacks(t *testing.T) {
	baseDir := t.TempDir()
	writeFile(t, baseDir, "conf.toml", "key = 1")
	writeFile(t, baseDir, "Makefile", "all:")

	rendered, _ := resolveMarkup(t, baseDir,
		`<div data-load-code="conf.toml"></div><div data-load-code="Makefile"></div>`)

	assert.Contains(t, rendered, `class="language-toml"`)
	assert.Contains(t, rendered, `class="language-text"`)
}

func TestCodeBlockForwardsDataAttributes(t *testing.T) {
	baseDir := t.TempDir()
	writeFile(t, baseDir, "snippet.py", "x = 1")

	engine := NewEngine(baseDir, DefaultLanguageTable(), testLogger())
	container, err := ParseFragment(
		`<div data-load-code="snippet.py" data-line-numbers="1-3" data-trim="">old</div>`)
	require.NoError(t, err)
	_, err = engine.Resolve(context.Background(), container)
	require.NoError(t, err)

	code := findElementByTag(container, "code")
	require.NotNil(t, code)
	assert.Equal(t, "language-python", attrOf(code, "class"))
	assert.Equal(t, "1-3", attrOf(code, "data-line-numbers"))
	assert.True(t, hasAttr(code, "data-trim"))
	assert.False(t, hasAttr(code, "data-load-code"), "directive attribute is not forwarded")
}

func TestResolveMissingFileLeavesDirectiveUntouched(t *testing.T) {
	baseDir := t.TempDir()
	markup := `<div data-load="nope/missing.html"><p>original children</p></div>`

	unresolved, err := ParseFragment(markup)
	require.NoError(t, err)
	before, err := RenderFragment(unresolved)
	require.NoError(t, err)

	rendered, passes := resolveMarkup(t, baseDir, markup)

	assert.Equal(t, 0, passes)
	assert.Equal(t, before, rendered, "directive and original children stay byte-identical")
	assert.Contains(t, rendered, `data-load="nope/missing.html"`)
	assert.Contains(t, rendered, "<p>original children</p>")
}

func TestResolveIsIdempotent(t *testing.T) {
	baseDir := t.TempDir()
	writeFile(t, baseDir, "frag.html", "<p>content</p>")
	writeFile(t, baseDir, "snippet.py", "x = 1")

	engine := NewEngine(baseDir, DefaultLanguageTable(), testLogger())
	container, err := ParseFragment(
		`<div data-load="frag.html"></div><div data-load-code="snippet.py"></div>`)
	require.NoError(t, err)

	_, err = engine.Resolve(context.Background(), container)
	require.NoError(t, err)
	first, err := RenderFragment(container)
	require.NoError(t, err)

	passes, err := engine.Resolve(context.Background(), container)
	require.NoError(t, err)
	second, err := RenderFragment(container)
	require.NoError(t, err)

	assert.Equal(t, 0, passes, "a resolved tree takes zero additional passes")
	assert.Equal(t, first, second, "resolving again is a byte-identical no-op")
}

func TestResolveCyclicChainReportsError(t *testing.T) {
	baseDir := t.TempDir()
	writeFile(t, baseDir, "a.html", `<div data-load="./a.html"></div>`)

	engine := NewEngine(baseDir, DefaultLanguageTable(), testLogger())
	engine.SetMaxPasses(5)

	container, err := ParseFragment(`<div data-load="a.html"></div>`)
	require.NoError(t, err)

	_, err = engine.Resolve(context.Background(), container)
	require.Error(t, err)

	var cycleErr *autorevealerrors.CycleError
	require.ErrorAs(t, err, &cycleErr)
	assert.Equal(t, 5, cycleErr.Passes)
}

func TestResolveEmptyDirectiveIgnored(t *testing.T) {
	baseDir := t.TempDir()

	rendered, passes := resolveMarkup(t, baseDir, `<div data-load=""><p>kept</p></div>`)

	assert.Equal(t, 0, passes)
	assert.Contains(t, rendered, "<p>kept</p>")
}

func findByClass(root *html.Node, class string) *html.Node {
	var found *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode && attrOf(n, "class") == class {
			found = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return found
}

func findElementByTag(root *html.Node, tag string) *html.Node {
	var found *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode && strings.EqualFold(n.Data, tag) {
			found = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return found
}

func attrOf(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return true
		}
	}
	return false
}
