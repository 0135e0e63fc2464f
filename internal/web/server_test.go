package web

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aisites/siteeditor/internal/journal"
	"github.com/aisites/siteeditor/internal/pipeline"
	"github.com/aisites/siteeditor/internal/storage"
)

type fakeEditor struct {
	res     pipeline.Result
	err     error
	site    string
	command string
}

func (f *fakeEditor) Edit(_ context.Context, siteID, command string) (pipeline.Result, error) {
	f.site, f.command = siteID, command
	return f.res, f.err
}

type fakeLog struct {
	entries []journal.Entry
	query   string
	limit   int
}

func (f *fakeLog) Recent(_ context.Context, siteID string, limit int) ([]journal.Entry, error) {
	f.limit = limit
	return f.entries, nil
}

func (f *fakeLog) Search(_ context.Context, siteID, query string, limit int) ([]journal.Entry, error) {
	f.query, f.limit = query, limit
	return f.entries[:1], nil
}

func testServer(t *testing.T, ed *fakeEditor, log EditLog) (*Server, *storage.FSStorage) {
	t.Helper()
	store := storage.NewFSStorage(t.TempDir())
	if err := store.Save(context.Background(), "shop", []byte("<html><body><h1>Shop</h1></body></html>")); err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(logger, ed, store, log), store
}

func postChatbot(t *testing.T, h http.Handler, body string) (*http.Response, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/chatbot", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	resp := w.Result()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp, out
}

func TestChatbotSuccess(t *testing.T) {
	ed := &fakeEditor{res: pipeline.Result{Mode: pipeline.ModePatch}}
	srv, _ := testServer(t, ed, nil)

	resp, out := postChatbot(t, srv.Handler(), `{"siteId":"shop","command":"make it red"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if out["success"] != true || out["message"] != "Site updated." {
		t.Errorf("unexpected body %v", out)
	}
	if ed.site != "shop" || ed.command != "make it red" {
		t.Errorf("editor got %q %q", ed.site, ed.command)
	}
}

func TestChatbotFallbackMessage(t *testing.T) {
	srv, _ := testServer(t, &fakeEditor{res: pipeline.Result{Mode: pipeline.ModeFallback}}, nil)

	_, out := postChatbot(t, srv.Handler(), `{"siteId":"shop","command":"x"}`)
	if out["message"] != "Site updated. (fallback)" {
		t.Errorf("unexpected message %v", out["message"])
	}
}

func TestChatbotErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		body   string
		status int
		msg    string
	}{
		{"invalid input", pipeline.ErrInvalidInput, `{"siteId":"","command":"x"}`, http.StatusBadRequest, "siteId and command are required."},
		{"invalid id", fmt.Errorf("%w: %q", storage.ErrInvalidID, "../x"), `{"siteId":"../x","command":"x"}`, http.StatusBadRequest, "Invalid siteId."},
		{"not found", storage.ErrNotFound, `{"siteId":"nope","command":"x"}`, http.StatusNotFound, "Site not found."},
		{"edit failed", fmt.Errorf("%w: boom", pipeline.ErrEditFailed), `{"siteId":"shop","command":"x"}`, http.StatusInternalServerError, "AI edit failed."},
		{"bad json", nil, `{"siteId":`, http.StatusBadRequest, "Invalid JSON body."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := testServer(t, &fakeEditor{err: tt.err}, nil)
			resp, out := postChatbot(t, srv.Handler(), tt.body)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if out["error"] != tt.msg {
				t.Errorf("error = %v, want %q", out["error"], tt.msg)
			}
		})
	}
}

func TestChatbotBodyTooLarge(t *testing.T) {
	srv, _ := testServer(t, &fakeEditor{}, nil)
	body := `{"siteId":"shop","command":"` + strings.Repeat("a", maxRequestBody) + `"}`
	resp, _ := postChatbot(t, srv.Handler(), body)
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestChatbotRejectsGet(t *testing.T) {
	srv, _ := testServer(t, &fakeEditor{}, nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/chatbot", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestServeSite(t *testing.T) {
	srv, _ := testServer(t, &fakeEditor{}, nil)
	h := srv.Handler()

	for _, p := range []string{"/sites/shop/", "/sites/shop/index.html"} {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, p, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("%s: status = %d", p, w.Code)
		}
		if ct := w.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
			t.Errorf("%s: content type %q", p, ct)
		}
		if !strings.Contains(w.Body.String(), "<h1>Shop</h1>") {
			t.Errorf("%s: body %q", p, w.Body.String())
		}
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sites/shop", nil))
	if w.Code != http.StatusMovedPermanently || w.Header().Get("Location") != "/sites/shop/" {
		t.Errorf("redirect: %d %q", w.Code, w.Header().Get("Location"))
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sites/missing/", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("missing site: status = %d", w.Code)
	}
}

func TestEditsEndpoint(t *testing.T) {
	log := &fakeLog{entries: []journal.Entry{{ID: "1", SiteID: "shop", Command: "a"}, {ID: "2", SiteID: "shop", Command: "b"}}}
	srv, _ := testServer(t, &fakeEditor{}, log)
	h := srv.Handler()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/sites/shop/edits?limit=1000", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var out struct {
		Edits []journal.Entry `json:"edits"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Edits) != 2 || log.limit != maxEditsLimit {
		t.Errorf("got %d edits, limit %d", len(out.Edits), log.limit)
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/sites/shop/edits?q=red", nil))
	if log.query != "red" || log.limit != 20 {
		t.Errorf("search not used: query %q limit %d", log.query, log.limit)
	}
}

func TestEditsEndpointWithoutJournal(t *testing.T) {
	srv, _ := testServer(t, &fakeEditor{}, nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/sites/shop/edits", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	srv, _ := testServer(t, &fakeEditor{}, nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected health response %d %s", w.Code, w.Body.String())
	}
}
