package web

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aisites/siteeditor/internal/pipeline"
)

const shopPage = "<html><body><h1>Shop</h1></body></html>"

func loggedServer(t *testing.T, ed *fakeEditor) (*Server, *bytes.Buffer) {
	t.Helper()
	srv, _ := testServer(t, ed, nil)
	var buf bytes.Buffer
	srv.logger = slog.New(slog.NewTextHandler(&buf, nil))
	return srv, &buf
}

func TestRequestLogNamesRouteAndSite(t *testing.T) {
	srv, buf := loggedServer(t, &fakeEditor{})

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sites/shop/", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	line := buf.String()
	for _, want := range []string{
		"level=INFO",
		"method=GET",
		"path=/sites/shop",
		"status=200",
		fmt.Sprintf("bytes=%d", len(shopPage)),
		"route=/sites/{siteID}/",
		"site=shop",
		"duration=",
	} {
		if !strings.Contains(line, want) {
			t.Errorf("expected %q in log, got: %s", want, line)
		}
	}
}

func TestRequestLogFailedEditIsWarning(t *testing.T) {
	srv, buf := loggedServer(t, &fakeEditor{err: fmt.Errorf("%w: generator down", pipeline.ErrEditFailed)})

	resp, _ := postChatbot(t, srv.Handler(), `{"siteId":"shop","command":"make the title red"}`)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	line := buf.String()
	if !strings.Contains(line, "level=WARN") || !strings.Contains(line, "status=500") || !strings.Contains(line, "route=/api/chatbot") {
		t.Errorf("unexpected log: %s", line)
	}
}

func TestRequestLogUnknownSite(t *testing.T) {
	srv, buf := loggedServer(t, &fakeEditor{})

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sites/ghost/index.html", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	if line := buf.String(); !strings.Contains(line, "status=404") || !strings.Contains(line, "site=ghost") {
		t.Errorf("unexpected log: %s", line)
	}
}

func gunzip(t *testing.T, r io.Reader) string {
	t.Helper()
	gr, err := gzip.NewReader(r)
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	defer func() { _ = gr.Close() }()
	body, err := io.ReadAll(gr)
	if err != nil {
		t.Fatalf("read gzip body: %v", err)
	}
	return string(body)
}

func TestSitePageIsGzipped(t *testing.T) {
	srv, _ := testServer(t, &fakeEditor{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/sites/shop/", nil)
	req.Header.Set("Accept-Encoding", "gzip, deflate")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Header().Get("Content-Encoding") != "gzip" || w.Header().Get("Vary") != "Accept-Encoding" {
		t.Fatalf("unexpected headers %v", w.Header())
	}
	if got := gunzip(t, w.Body); got != shopPage {
		t.Errorf("page = %q", got)
	}
}

func TestSitePagePlainWithoutAcceptEncoding(t *testing.T) {
	srv, _ := testServer(t, &fakeEditor{}, nil)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sites/shop/index.html", nil))

	if w.Header().Get("Content-Encoding") != "" {
		t.Error("page must not be encoded without Accept-Encoding")
	}
	if w.Body.String() != shopPage {
		t.Errorf("page = %q", w.Body.String())
	}
}

func TestChatbotReplyIsGzipped(t *testing.T) {
	srv, _ := testServer(t, &fakeEditor{res: pipeline.Result{Mode: pipeline.ModeFallback}}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/chatbot", strings.NewReader(`{"siteId":"shop","command":"rebuild the hero"}`))
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("expected gzip, got %q", w.Header().Get("Content-Encoding"))
	}
	if got := gunzip(t, w.Body); !strings.Contains(got, `"message":"Site updated. (fallback)"`) {
		t.Errorf("unexpected reply %s", got)
	}
}

func TestGzipLeavesBodilessAndBinaryResponses(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		body    string
	}{
		{"not modified", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(http.StatusNotModified)
		}, ""},
		{"no content", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}, ""},
		{"image", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write([]byte("\x89PNG"))
		}, "\x89PNG"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/sites/shop/logo.png", nil)
			req.Header.Set("Accept-Encoding", "gzip")
			w := httptest.NewRecorder()
			gzipHandler(tt.handler).ServeHTTP(w, req)

			if w.Header().Get("Content-Encoding") != "" {
				t.Errorf("unexpected encoding %q", w.Header().Get("Content-Encoding"))
			}
			if w.Body.String() != tt.body {
				t.Errorf("body = %q, want %q", w.Body.String(), tt.body)
			}
		})
	}
}

func TestStatusRecorderFlushes(t *testing.T) {
	rec := httptest.NewRecorder()
	sr := &statusRecorder{ResponseWriter: rec}
	if err := http.NewResponseController(sr).Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if !rec.Flushed {
		t.Error("flush did not reach the underlying writer")
	}
}
