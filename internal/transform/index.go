package transform

import (
	"strings"

	"github.com/aisites/siteeditor/internal/dom"
)

const (
	MaxIndexEntries = 400
	maxIndexText    = 80
	maxIndexClasses = 3

	indexSelector = "[id], h1, h2, h3, h4, h5, h6, a, button"
)

// IndexEntry summarises one addressable element for the plan prompt.
type IndexEntry struct {
	Tag     string   `json:"tag"`
	ID      *string  `json:"id"`
	Classes []string `json:"classes"`
	Text    *string  `json:"text"`
}

// BuildIndex lists the headings, links, buttons and id-carrying elements
// of bodyMarkup in document order, capped at MaxIndexEntries.
func BuildIndex(bodyMarkup string) []IndexEntry {
	doc, err := dom.LoadString("<body>" + bodyMarkup + "</body>")
	if err != nil {
		return []IndexEntry{}
	}
	nodes, err := doc.QuerySelectorAll(indexSelector)
	if err != nil {
		return []IndexEntry{}
	}
	if len(nodes) > MaxIndexEntries {
		nodes = nodes[:MaxIndexEntries]
	}

	entries := make([]IndexEntry, 0, len(nodes))
	for _, n := range nodes {
		entry := IndexEntry{Tag: n.Data, Classes: []string{}}
		if id, ok := dom.Attr(n, "id"); ok && id != "" {
			entry.ID = &id
		}
		if class, ok := dom.Attr(n, "class"); ok {
			classes := strings.Fields(class)
			if len(classes) > maxIndexClasses {
				classes = classes[:maxIndexClasses]
			}
			entry.Classes = classes
		}
		if text := truncateRunes(CollapseWhitespace(dom.Text(n)), maxIndexText); text != "" {
			entry.Text = &text
		}
		entries = append(entries, entry)
	}
	return entries
}
