package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aisites/siteeditor/internal/journal"
	"github.com/aisites/siteeditor/internal/pipeline"
	"github.com/aisites/siteeditor/internal/storage"
)

const maxEditsLimit = 200

type chatbotRequest struct {
	SiteID  string `json:"siteId"`
	Command string `json:"command"`
}

type chatbotResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleChatbot(w http.ResponseWriter, r *http.Request) {
	var req chatbotRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large.")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid JSON body.")
		return
	}

	res, err := s.editor.Edit(r.Context(), req.SiteID, req.Command)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, chatbotResponse{Success: true, Message: res.Message()})
	case errors.Is(err, pipeline.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "siteId and command are required.")
	case errors.Is(err, storage.ErrInvalidID):
		writeError(w, http.StatusBadRequest, "Invalid siteId.")
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "Site not found.")
	default:
		s.logger.Error("edit failed", "site", req.SiteID, "error", err)
		writeError(w, http.StatusInternalServerError, pipeline.MessageFailed)
	}
}

func (s *Server) handleEdits(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeError(w, http.StatusServiceUnavailable, "edit journal unavailable")
		return
	}
	siteID := chi.URLParam(r, "siteID")
	if err := storage.ValidateID(siteID); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid siteId.")
		return
	}

	limit := parseIntQuery(r, "limit", 20)
	if limit > maxEditsLimit {
		limit = maxEditsLimit
	}

	entries, err := s.journalQuery(r, siteID, limit)
	if err != nil {
		s.logger.Error("journal query failed", "site", siteID, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"edits": entries})
}

func (s *Server) journalQuery(r *http.Request, siteID string, limit int) ([]journal.Entry, error) {
	if q := r.URL.Query().Get("q"); q != "" {
		return s.journal.Search(r.Context(), siteID, q, limit)
	}
	return s.journal.Recent(r.Context(), siteID, limit)
}

func (s *Server) handleSite(w http.ResponseWriter, r *http.Request) {
	siteID := chi.URLParam(r, "siteID")
	data, err := s.store.Load(r.Context(), siteID)
	if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidID) {
		writeError(w, http.StatusNotFound, "Site not found.")
		return
	}
	if err != nil {
		s.logger.Error("load site failed", "site", siteID, "error", err)
		writeError(w, http.StatusInternalServerError, "Could not load site.")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(data)
}

func redirectSlash(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, r.URL.Path+"/", http.StatusMovedPermanently)
}
