package transform

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/aisites/siteeditor/internal/dom"
)

const (
	// MaxPreviewChars caps the slimmed body preview.
	MaxPreviewChars = 20000
	// pruneThreshold is the body child count above which the slimmer
	// drops unaddressable top-level blocks.
	pruneThreshold = 200
	keepAncestors  = 2
)

var (
	multiSpacePattern   = regexp.MustCompile(`\s{2,}`)
	multiNewlinePattern = regexp.MustCompile(`\n{2,}`)
)

// Slim returns a noise-free preview of the document body that fits the
// plan prompt. It parses its own copy of the document and never fails:
// degenerate input yields an empty string.
func Slim(document string) string {
	doc, err := dom.LoadString(document)
	if err != nil {
		return ""
	}
	body := doc.Body()
	if body == nil {
		return ""
	}

	stripNoise(body)

	if countElementChildren(body) > pruneThreshold {
		pruneUnaddressable(body)
	}

	inner, err := dom.InnerHTML(body)
	if err != nil {
		return ""
	}
	return truncateRunes(minify(inner), MaxPreviewChars)
}

// stripNoise removes script, style and noscript elements and comments
// anywhere below body.
func stripNoise(body *html.Node) {
	var doomed []*html.Node
	dom.Walk(body, func(n *html.Node) bool {
		if n == body {
			return true
		}
		switch n.Type {
		case html.CommentNode:
			doomed = append(doomed, n)
			return false
		case html.ElementNode:
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript:
				doomed = append(doomed, n)
				return false
			}
		}
		return true
	})
	for _, n := range doomed {
		dom.Detach(n)
	}
}

// pruneUnaddressable keeps every element carrying an id or class together
// with its two nearest ancestors, and removes the direct children of body
// that neither belong to that set nor contain a member of it.
func pruneUnaddressable(body *html.Node) {
	keep := make(map[*html.Node]bool)
	dom.Walk(body, func(n *html.Node) bool {
		if n == body || n.Type != html.ElementNode || !isAddressable(n) {
			return true
		}
		cur := n
		for i := 0; i <= keepAncestors && cur != nil; i++ {
			keep[cur] = true
			cur = cur.Parent
		}
		return true
	})

	var doomed []*html.Node
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if !keep[c] && !containsKept(c, keep) {
			doomed = append(doomed, c)
		}
	}
	for _, n := range doomed {
		dom.Detach(n)
	}
}

func isAddressable(n *html.Node) bool {
	if _, ok := dom.Attr(n, "id"); ok {
		return true
	}
	_, ok := dom.Attr(n, "class")
	return ok
}

func containsKept(n *html.Node, keep map[*html.Node]bool) bool {
	found := false
	dom.Walk(n, func(c *html.Node) bool {
		if found {
			return false
		}
		if c != n && keep[c] {
			found = true
			return false
		}
		return true
	})
	return found
}

func countElementChildren(n *html.Node) int {
	count := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			count++
		}
	}
	return count
}

func minify(s string) string {
	s = multiSpacePattern.ReplaceAllString(s, " ")
	s = multiNewlinePattern.ReplaceAllString(s, "\n")
	return strings.TrimSpace(s)
}

// truncateRunes cuts s to at most limit characters without splitting a
// multi-byte rune.
func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	count := 0
	for i := range s {
		if count == limit {
			return s[:i]
		}
		count++
	}
	return s
}
