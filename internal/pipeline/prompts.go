package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aisites/siteeditor/internal/transform"
)

const (
	planSystem     = "You are a website editor bot. Return only valid JSON."
	snippetSystem  = "Produce a valid, working, minimal HTML snippet. Return only the snippet."
	fallbackSystem = "You are a website editor bot. Return only valid, working HTML."
)

const planSchema = `{
  "ops": [
    // Op kinds:
    // { "op":"replaceText", "selector":"CSS_SELECTOR", "text":"..." }
    // { "op":"appendHtml",  "selector":"CSS_SELECTOR", "position":"beforeend|afterbegin|before|after", "html":"<button>...</button>" }
    // { "op":"setAttr",     "selector":"CSS_SELECTOR", "name":"href", "value":"/x" }
    // { "op":"remove",      "selector":"CSS_SELECTOR" }
  ]
}`

// planPrompt embeds the index as JSON with markup characters left
// unescaped, so selectors and text read the way they appear in the page.
func planPrompt(command string, index []transform.IndexEntry, preview string) (string, error) {
	if index == nil {
		index = []transform.IndexEntry{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(index); err != nil {
		return "", fmt.Errorf("encode index: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Command: %q\n", command)
	b.WriteString("Below are a light index of the page and a preview of its <body>. ")
	b.WriteString("Return a JSON \"patch plan\" that follows this schema:\n\n")
	b.WriteString(planSchema)
	b.WriteString("\n\nINDEX:\n")
	b.WriteString(strings.TrimRight(buf.String(), "\n"))
	b.WriteString("\n\nBODY_PREVIEW:\n")
	b.WriteString(preview)
	b.WriteString("\n")
	return b.String(), nil
}

func snippetPrompt(command, selector string) string {
	return fmt.Sprintf("Command: %s\nProduce simple HTML to add to this selector: %s\nConstraints: minimal inline CSS; no JS.", command, selector)
}

func fallbackPrompt(command, body string) string {
	var b strings.Builder
	b.WriteString("Apply the user's command to the HTML <body> content below and return only the updated <body> content. ")
	b.WriteString("Make only the necessary edits and avoid unrelated changes.\n")
	fmt.Fprintf(&b, "Command: %q\n\nBODY:\n%s\n\n", command, body)
	b.WriteString("Keep the HTML structure intact and return valid, updated <body> content that carries out the command.")
	return b.String()
}
