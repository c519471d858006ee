package transclude

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ParseFragment parses slide markup as body content and returns a detached
// container element holding the fragment's nodes as children. The container
// exists only for traversal; RenderFragment serializes its children without
// any wrapper.
func ParseFragment(markup string) (*html.Node, error) {
	nodes, err := html.ParseFragment(strings.NewReader(markup), bodyContext())
	if err != nil {
		return nil, err
	}

	container := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Body,
		Data:     "body",
	}
	for _, n := range nodes {
		detach(n)
		container.AppendChild(n)
	}
	return container, nil
}

// RenderFragment serializes the children of a container produced by
// ParseFragment back into markup.
func RenderFragment(container *html.Node) (string, error) {
	var b strings.Builder
	for c := container.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&b, c); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

// parseInlineFragment parses the content of a transcluded HTML file. A file
// that declares its own body container contributes only the body's children;
// anything else is taken whole.
func parseInlineFragment(content string) ([]*html.Node, error) {
	if !hasBodyTag(content) {
		return html.ParseFragment(strings.NewReader(content), bodyContext())
	}

	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return nil, err
	}
	body := findElement(doc, atom.Body)
	if body == nil {
		return nil, nil
	}

	var nodes []*html.Node
	for body.FirstChild != nil {
		c := body.FirstChild
		body.RemoveChild(c)
		nodes = append(nodes, c)
	}
	return nodes, nil
}

func hasBodyTag(content string) bool {
	return strings.Contains(strings.ToLower(content), "<body")
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

// bodyContext is the parse context for slide fragments: content is treated
// as the InnerHTML of a body element.
func bodyContext() *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Body,
		Data:     "body",
	}
}
