package transform

import (
	"regexp"
	"strings"
)

var (
	whitespacePattern = regexp.MustCompile(`\s+`)

	bodyRegionPattern = regexp.MustCompile(`(?is)(<body(?:\s[^>]*)?>)(.*)</body>`)
	fenceOpenPattern  = regexp.MustCompile("^```[A-Za-z0-9_+-]*[ \t]*\r?\n?")
	fenceClosePattern = regexp.MustCompile("\r?\n?```$")
)

// MaxFallbackBodyChars caps the body text submitted for a full rewrite.
const MaxFallbackBodyChars = 15000

// CollapseWhitespace folds runs of whitespace to one space and trims.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(s, " "))
}

// StripFence removes a fenced-code wrapper (```lang ... ```) that text
// generators like to put around their answers. Unfenced text is only
// trimmed.
func StripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = fenceOpenPattern.ReplaceAllString(s, "")
	s = fenceClosePattern.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// ExtractBody returns the markup between the leading <body ...> tag and
// the trailing </body> tag using a plain text search. When the document
// has no body tags the whole text is returned and found is false.
func ExtractBody(document string) (inner string, found bool) {
	m := bodyRegionPattern.FindStringSubmatch(document)
	if m == nil {
		return document, false
	}
	return m[2], true
}

// ReplaceBody substitutes newBody for the body region of document,
// keeping the original opening tag and its attributes. A document without
// body tags gets a new body appended. This is a text operation: nothing
// outside the body span is reparsed or checked.
func ReplaceBody(document, newBody string) string {
	loc := bodyRegionPattern.FindStringSubmatchIndex(document)
	if loc == nil {
		return document + "\n<body>\n" + newBody + "\n</body>"
	}
	openTag := document[loc[2]:loc[3]]

	var b strings.Builder
	b.Grow(len(document) - (loc[1] - loc[0]) + len(openTag) + len(newBody) + len("\n\n</body>"))
	b.WriteString(document[:loc[0]])
	b.WriteString(openTag)
	b.WriteString("\n")
	b.WriteString(newBody)
	b.WriteString("\n</body>")
	b.WriteString(document[loc[1]:])
	return b.String()
}

// TruncateChars cuts s to at most limit characters.
func TruncateChars(s string, limit int) string {
	return truncateRunes(s, limit)
}
