package transform

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSlimRemovesNoise(t *testing.T) {
	doc := `<html><head><style>h1{}</style></head><body>
<!-- banner -->
<script>alert(1)</script>
<div class="hero">
  <h1>Title</h1>
  <noscript>enable js</noscript>
  <section><!-- nested --><style>.x{}</style><p>Hello</p></section>
</div>
</body></html>`

	out := Slim(doc)

	for _, gone := range []string{"<script", "alert", "<style", "noscript", "enable js", "<!--", "banner", "nested"} {
		if strings.Contains(out, gone) {
			t.Errorf("expected %q removed, got:\n%s", gone, out)
		}
	}
	for _, kept := range []string{`<div class="hero">`, "<h1>Title</h1>", "<p>Hello</p>"} {
		if !strings.Contains(out, kept) {
			t.Errorf("expected %q kept, got:\n%s", kept, out)
		}
	}
}

func TestSlimCollapsesWhitespace(t *testing.T) {
	doc := "<body>\n\n   <p>a     b</p>\n\n\n<p>c</p>   </body>"
	out := Slim(doc)
	if out != "<p>a b</p> <p>c</p>" {
		t.Fatalf("got %q", out)
	}
}

func TestSlimEmpty(t *testing.T) {
	if out := Slim(""); out != "" {
		t.Fatalf("expected empty preview, got %q", out)
	}
	if out := Slim("<html><body>   </body></html>"); out != "" {
		t.Fatalf("expected empty preview, got %q", out)
	}
}

func TestSlimNoPruningAtThreshold(t *testing.T) {
	var b strings.Builder
	b.WriteString("<body>")
	for i := 0; i < pruneThreshold; i++ {
		fmt.Fprintf(&b, "<p>plain %d</p>", i)
	}
	b.WriteString("</body>")

	out := Slim(b.String())
	if got := strings.Count(out, "<p>"); got != pruneThreshold {
		t.Fatalf("expected all %d children kept, got %d", pruneThreshold, got)
	}
}

func TestSlimPrunesLargeBodies(t *testing.T) {
	var b strings.Builder
	b.WriteString("<body>")
	for i := 0; i < pruneThreshold+5; i++ {
		fmt.Fprintf(&b, "<p>plain %d</p>", i)
	}
	b.WriteString(`<div><span class="deep">nested</span></div>`)
	b.WriteString(`<section><div><div><em id="far">far</em></div></div></section>`)
	b.WriteString(`<nav id="menu"><a href="/">home</a></nav>`)
	b.WriteString("</body>")

	out := Slim(b.String())

	if strings.Contains(out, "plain") {
		t.Errorf("unaddressable children should be pruned, got:\n%s", out)
	}
	for _, kept := range []string{`<span class="deep">nested</span>`, `<em id="far">far</em>`, `<nav id="menu">`} {
		if !strings.Contains(out, kept) {
			t.Errorf("expected %q to survive pruning, got:\n%s", kept, out)
		}
	}
}

func TestSlimHardCap(t *testing.T) {
	doc := "<body><p>" + strings.Repeat("é", MaxPreviewChars*2) + "</p></body>"
	out := Slim(doc)
	if n := utf8.RuneCountInString(out); n != MaxPreviewChars {
		t.Fatalf("expected %d characters, got %d", MaxPreviewChars, n)
	}
	if !utf8.ValidString(out) {
		t.Fatal("truncation split a rune")
	}
}
