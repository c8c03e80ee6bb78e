package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/feed"
	"github.com/starford/ansuz/internal/siteservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc   *siteservice.Service
	feeds *feed.Generator
}

// NewHandler creates a new Handler.
func NewHandler(svc *siteservice.Service, feeds *feed.Generator) *Handler {
	return &Handler{svc: svc, feeds: feeds}
}

// wildcardID extracts a content id from a wildcard route. Note ids may
// contain slashes; encoded slashes from generated clients are supported.
func wildcardID(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

func (h *Handler) respondErr(w http.ResponseWriter, err error, what string) {
	if errors.Is(err, apperr.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	slog.Error(what+" failed", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, errorBody(err.Error()))
}

// ListWriting handles GET /writing/list.
func (h *Handler) ListWriting(w http.ResponseWriter, r *http.Request) {
	posts, err := h.svc.WritingList(r.Context())
	if err != nil {
		h.respondErr(w, err, "list writing")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"posts": posts})
}

// LatestWriting handles GET /writing/latest.
func (h *Handler) LatestWriting(w http.ResponseWriter, r *http.Request) {
	latest, err := h.svc.Latest(r.Context())
	if err != nil {
		h.respondErr(w, err, "latest")
		return
	}
	writeJSON(w, http.StatusOK, latest)
}

// GetPost handles GET /writing/{id}.
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	post, err := h.svc.GetPost(r.Context(), id)
	if err != nil {
		h.respondErr(w, err, "get post")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"post": post})
}

// ListNotes handles GET /notes/list.
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.svc.NotesList(r.Context())
	if err != nil {
		h.respondErr(w, err, "list notes")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notes": notes})
}

// NoteTags handles GET /notes/tags.
func (h *Handler) NoteTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.svc.NoteTags(r.Context())
	if err != nil {
		h.respondErr(w, err, "note tags")
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

// GetNote handles GET /notes/*.
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	id := wildcardID(r)
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("id is required"))
		return
	}
	note, err := h.svc.GetNote(r.Context(), id)
	if err != nil {
		h.respondErr(w, err, "get note")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"note": note})
}

// ListJournals handles GET /journals/list.
func (h *Handler) ListJournals(w http.ResponseWriter, r *http.Request) {
	journals, err := h.svc.JournalsList(r.Context())
	if err != nil {
		h.respondErr(w, err, "list journals")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"journals": journals})
}

// ListJournalMonth handles GET /journals/{year}/{month}.
func (h *Handler) ListJournalMonth(w http.ResponseWriter, r *http.Request) {
	journals, err := h.svc.JournalsFor(r.Context(), chi.URLParam(r, "year"), chi.URLParam(r, "month"))
	if err != nil {
		h.respondErr(w, err, "list journal month")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"journals": journals})
}

// GetJournal handles GET /journals/{year}/{month}/{id}.
func (h *Handler) GetJournal(w http.ResponseWriter, r *http.Request) {
	journal, err := h.svc.GetJournal(r.Context(),
		chi.URLParam(r, "year"), chi.URLParam(r, "month"), chi.URLParam(r, "id"))
	if err != nil {
		h.respondErr(w, err, "get journal")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"journal": journal})
}

// GetFeed handles GET /rss/{type}.xml.
func (h *Handler) GetFeed(w http.ResponseWriter, r *http.Request) {
	feedType := chi.URLParam(r, "type")
	doc, err := h.feeds.Generate(r.Context(), feedType)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
			return
		}
		slog.Error("feed generation failed", slog.String("type", feedType), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody(err.Error()))
		return
	}
	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}
