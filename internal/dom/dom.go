// Package dom loads HTML documents into a mutable node tree, resolves CSS
// selectors against it and serializes it back to markup.
//
// Nodes are golang.org/x/net/html nodes; a *html.Node returned by a query
// is a non-owning handle into the Document it came from.
package dom

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Position names where InsertHTML places new nodes relative to a target.
type Position string

const (
	BeforeEnd   Position = "beforeend"   // last child
	AfterBegin  Position = "afterbegin"  // first child
	BeforeBegin Position = "beforebegin" // preceding sibling
	AfterEnd    Position = "afterend"    // following sibling
)

var (
	ErrDetached    = errors.New("node has no parent")
	ErrVoidElement = errors.New("void element cannot have children")
)

// voidElements is the set html.Render refuses to serialize with children.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "keygen": true, "link": true,
	"meta": true, "param": true, "source": true, "track": true, "wbr": true,
}

// Document is a parsed HTML document. It is owned by a single request and
// is not safe for concurrent mutation.
type Document struct {
	root *html.Node
}

// Load parses a complete HTML document. The parser always produces
// html, head and body elements, so even empty input yields a usable tree.
func Load(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Document{root: root}, nil
}

func LoadString(s string) (*Document, error) {
	return Load(strings.NewReader(s))
}

func (d *Document) Root() *html.Node { return d.root }

// Body returns the body element, or nil if the tree has none.
func (d *Document) Body() *html.Node {
	return FindFirst(d.root, atom.Body)
}

// QuerySelectorAll returns every element matching selector, in document
// order. Comma separated selector groups are supported.
func (d *Document) QuerySelectorAll(selector string) ([]*html.Node, error) {
	return QuerySelectorAll(d.root, selector)
}

// Render serializes the whole document.
func (d *Document) Render() (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, d.root); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	return buf.String(), nil
}

// QuerySelectorAll matches selector against the descendants of root.
func QuerySelectorAll(root *html.Node, selector string) ([]*html.Node, error) {
	group, err := cascadia.ParseGroup(selector)
	if err != nil {
		return nil, fmt.Errorf("parse selector %q: %w", selector, err)
	}
	return cascadia.QueryAll(root, group), nil
}

// FindFirst returns the first element below n (n included) with the given tag.
func FindFirst(n *html.Node, tag atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := FindFirst(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// Walk calls fn for n and every descendant in document order. Returning
// false from fn skips the node's children.
func Walk(n *html.Node, fn func(*html.Node) bool) {
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		Walk(c, fn)
	}
}

// InnerHTML serializes the children of n.
func InnerHTML(n *html.Node) (string, error) {
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", fmt.Errorf("render html: %w", err)
		}
	}
	return buf.String(), nil
}

// Text returns the concatenated text content of n and its descendants.
func Text(n *html.Node) string {
	var sb strings.Builder
	Walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
		return true
	})
	return sb.String()
}

// SetText replaces all children of n with a single text node.
func SetText(n *html.Node, text string) {
	RemoveChildren(n)
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}

func RemoveChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
}

// Attr returns the value of attribute key and whether it is present.
func Attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets attribute key to val, keeping the attribute's position if
// it already exists.
func SetAttr(n *html.Node, key, val string) {
	key = strings.ToLower(key)
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// IsVoid reports whether n is an element that must stay childless.
func IsVoid(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode && voidElements[n.Data]
}

// ValidAttrName reports whether name renders as a single attribute name.
func ValidAttrName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if unicode.IsSpace(r) || unicode.IsControl(r) || r == unicode.ReplacementChar {
			return false
		}
		switch r {
		case '"', '\'', '<', '>', '/', '=':
			return false
		}
	}
	return true
}

// Detach removes n and its subtree from its parent. Detaching a node
// that has already been detached is a no-op.
func Detach(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// InsertHTML parses markup as a fragment and inserts the resulting nodes
// at pos relative to n. Unknown positions behave like BeforeEnd. Inserting
// inside a void element fails with ErrVoidElement.
func InsertHTML(n *html.Node, pos Position, markup string) error {
	if strings.TrimSpace(markup) == "" {
		return nil
	}
	if pos != BeforeBegin && pos != AfterEnd && IsVoid(n) {
		return ErrVoidElement
	}

	switch pos {
	case BeforeBegin, AfterEnd:
		parent := n.Parent
		if parent == nil {
			return ErrDetached
		}
		nodes, err := parseFragment(markup, parent)
		if err != nil {
			return err
		}
		// Every new node goes before the same reference so the fragment
		// keeps its order. A nil reference appends.
		ref := n
		if pos == AfterEnd {
			ref = n.NextSibling
		}
		for _, c := range nodes {
			parent.InsertBefore(c, ref)
		}
		return nil
	case AfterBegin:
		nodes, err := parseFragment(markup, n)
		if err != nil {
			return err
		}
		first := n.FirstChild
		for _, c := range nodes {
			n.InsertBefore(c, first)
		}
		return nil
	default:
		nodes, err := parseFragment(markup, n)
		if err != nil {
			return err
		}
		for _, c := range nodes {
			n.AppendChild(c)
		}
		return nil
	}
}

func parseFragment(markup string, context *html.Node) ([]*html.Node, error) {
	if context.Type != html.ElementNode {
		context = &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	}
	nodes, err := html.ParseFragment(strings.NewReader(markup), context)
	if err != nil {
		return nil, fmt.Errorf("parse fragment: %w", err)
	}
	return nodes, nil
}
