package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReport(t *testing.T) {
	var buf bytes.Buffer
	doc := `<html><body><script>x()</script><h1 id="top">Hi &amp; bye</h1></body></html>`
	if err := report(&buf, doc, true, true); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, `"id": "top"`) {
		t.Errorf("index missing: %s", out)
	}
	if !strings.Contains(out, `"text": "Hi & bye"`) {
		t.Errorf("index text should not be escaped: %s", out)
	}
	if !strings.Contains(out, "BODY_PREVIEW:\n<h1 id=\"top\">Hi &amp; bye</h1>") {
		t.Errorf("preview missing: %s", out)
	}
	if strings.Contains(out, "x()") {
		t.Errorf("scripts must be stripped from the preview: %s", out)
	}
}

func TestReportPreviewOnly(t *testing.T) {
	var buf bytes.Buffer
	if err := report(&buf, "<p>x</p>", false, true); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "INDEX:") {
		t.Errorf("index should be omitted: %s", buf.String())
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.html")
	if err := os.WriteFile(path, []byte("<p>hi</p>"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := load("", "", path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "<p>hi</p>" {
		t.Fatalf("got %q", got)
	}
}
