// Package transclude resolves data-load and data-load-code directives in
// slide markup by inlining external HTML fragments, diagram sources, and
// code files into the tree.
package transclude

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/autoreveal/autoreveal/internal/errors"
	"github.com/autoreveal/autoreveal/internal/logging"
)

const (
	// AttrLoad marks an element whose children are replaced by the target
	// file: inlined markup for HTML, a diagram container for Mermaid, an
	// escaped code block for everything else.
	AttrLoad = "data-load"

	// AttrLoadCode marks an element whose target is always rendered as an
	// escaped code block, regardless of extension.
	AttrLoadCode = "data-load-code"

	// DefaultMaxPasses bounds fixed-point resolution so that a cyclic
	// include chain surfaces as a CycleError instead of never terminating.
	DefaultMaxPasses = 100
)

// Engine resolves load directives in a markup tree against a base directory
// until the tree reaches a fixed point. Resolution is idempotent: a fully
// resolved tree passes through unchanged in a single scan.
type Engine struct {
	baseDir   string
	langs     LanguageTable
	maxPasses int
	logger    logging.Logger
}

// NewEngine creates an engine resolving directive paths relative to baseDir.
func NewEngine(baseDir string, langs LanguageTable, logger logging.Logger) *Engine {
	if langs == nil {
		langs = DefaultLanguageTable()
	}
	return &Engine{
		baseDir:   baseDir,
		langs:     langs,
		maxPasses: DefaultMaxPasses,
		logger:    logger,
	}
}

// SetMaxPasses overrides the fixed-point pass cap.
func (e *Engine) SetMaxPasses(n int) {
	if n > 0 {
		e.maxPasses = n
	}
}

// Resolve repeatedly scans the tree under root and resolves every load
// directive until a scan makes no change. Directives spliced in by a
// just-inlined fragment are picked up by the following pass. It returns the
// number of passes that changed the tree.
//
// A directive whose target file does not exist is skipped silently: the
// attribute and the element's children stay untouched. Read failures
// propagate and abort the build cycle.
func (e *Engine) Resolve(ctx context.Context, root *html.Node) (int, error) {
	passes := 0
	for {
		if passes >= e.maxPasses {
			return passes, &errors.CycleError{BaseDir: e.baseDir, Passes: passes}
		}
		changed, err := e.resolvePass(ctx, root)
		if err != nil {
			return passes, err
		}
		if !changed {
			return passes, nil
		}
		passes++
	}
}

// resolvePass performs one full scan-and-splice pass over the tree.
func (e *Engine) resolvePass(ctx context.Context, root *html.Node) (bool, error) {
	directives := collectDirectives(root)
	changed := false

	for _, elem := range directives {
		if path, ok := attrValue(elem, AttrLoad); ok {
			did, err := e.resolveSmart(ctx, elem, path)
			if err != nil {
				return changed, err
			}
			changed = changed || did
			continue
		}
		if path, ok := attrValue(elem, AttrLoadCode); ok {
			did, err := e.resolveCode(ctx, elem, path, AttrLoadCode)
			if err != nil {
				return changed, err
			}
			changed = changed || did
		}
	}

	return changed, nil
}

// resolveSmart handles a data-load directive: HTML is inlined as markup,
// Mermaid becomes a diagram container, anything else becomes a code block.
func (e *Engine) resolveSmart(ctx context.Context, elem *html.Node, loadPath string) (bool, error) {
	content, ok, err := e.readTarget(ctx, loadPath)
	if err != nil || !ok {
		return false, err
	}

	switch strings.ToLower(filepath.Ext(loadPath)) {
	case ".html":
		// Nested ./-references resolve against the fragment's own
		// directory, not the including document's.
		content = RewriteRelative(content, filepath.ToSlash(filepath.Dir(loadPath)))
		nodes, err := parseInlineFragment(content)
		if err != nil {
			return false, errors.NewBuildError("transclude", "parsing fragment "+loadPath, err)
		}
		removeChildren(elem)
		for _, n := range nodes {
			detach(n)
			elem.AppendChild(n)
		}
		removeAttr(elem, AttrLoad)
		return true, nil

	case ".mermaid":
		removeChildren(elem)
		elem.AppendChild(diagramDataNode(content))
		elem.AppendChild(diagramDisplayNode())
		removeAttr(elem, AttrLoad)
		return true, nil

	default:
		return e.spliceCode(elem, loadPath, content, AttrLoad), nil
	}
}

// resolveCode handles a data-load-code directive: the target is always an
// escaped code block, even for .html and .mermaid files.
func (e *Engine) resolveCode(ctx context.Context, elem *html.Node, loadPath, directive string) (bool, error) {
	content, ok, err := e.readTarget(ctx, loadPath)
	if err != nil || !ok {
		return false, err
	}
	return e.spliceCode(elem, loadPath, content, directive), nil
}

// readTarget reads the directive target. A missing file is not an error:
// the directive stays in place so the output makes the broken reference
// visible rather than failing the build.
func (e *Engine) readTarget(ctx context.Context, loadPath string) (string, bool, error) {
	fullPath := filepath.Join(e.baseDir, filepath.FromSlash(loadPath))
	if _, err := os.Stat(fullPath); err != nil {
		if e.logger != nil {
			e.logger.Debug(ctx, "transclusion target missing, leaving directive unresolved", "path", loadPath)
		}
		return "", false, nil
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		return "", false, errors.NewIOError("transclude", fullPath, "reading transclusion target", err)
	}
	return string(data), true, nil
}

// spliceCode replaces the element's children with a <pre><code> block
// holding the escaped file content, tagged with the language for the file's
// extension. Every other data-* attribute on the host is copied onto the
// code node so presentation options like data-line-numbers survive.
func (e *Engine) spliceCode(elem *html.Node, loadPath, content, directive string) bool {
	lang := e.langs.Lookup(filepath.Ext(loadPath))

	code := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Code,
		Data:     "code",
		Attr:     []html.Attribute{{Key: "class", Val: "language-" + lang}},
	}
	for _, attr := range elem.Attr {
		if strings.HasPrefix(attr.Key, "data-") && attr.Key != directive {
			code.Attr = append(code.Attr, attr)
		}
	}
	code.AppendChild(&html.Node{Type: html.TextNode, Data: content})

	pre := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Pre,
		Data:     "pre",
	}
	pre.AppendChild(code)

	removeChildren(elem)
	elem.AppendChild(pre)
	removeAttr(elem, directive)
	return true
}

// diagramDataNode holds the raw diagram source, hidden from display. The
// client-side renderer reads it and draws into the sibling display node.
func diagramDataNode(source string) *html.Node {
	span := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Span,
		Data:     "span",
		Attr: []html.Attribute{
			{Key: "class", Val: "diagram-data"},
			{Key: "style", Val: "display: none"},
		},
	}
	span.AppendChild(&html.Node{Type: html.TextNode, Data: source})
	return span
}

func diagramDisplayNode() *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Div,
		Data:     "div",
		Attr:     []html.Attribute{{Key: "class", Val: "diagram-display"}},
	}
}

// collectDirectives gathers, in document order, every element carrying a
// load directive. Collection happens before any splicing so a pass works on
// a stable snapshot of the tree.
func collectDirectives(root *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if _, ok := attrValue(n, AttrLoad); ok {
				out = append(out, n)
			} else if _, ok := attrValue(n, AttrLoadCode); ok {
				out = append(out, n)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
}

func attrValue(n *html.Node, key string) (string, bool) {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val, attr.Val != ""
		}
	}
	return "", false
}

func removeAttr(n *html.Node, key string) {
	attrs := n.Attr[:0]
	for _, attr := range n.Attr {
		if attr.Key != key {
			attrs = append(attrs, attr)
		}
	}
	n.Attr = attrs
}

func removeChildren(n *html.Node) {
	for n.FirstChild != nil {
		n.RemoveChild(n.FirstChild)
	}
}

// detach clears parent and sibling links so a node parsed elsewhere can be
// appended into the tree.
func detach(n *html.Node) {
	n.Parent = nil
	n.PrevSibling = nil
	n.NextSibling = nil
}
