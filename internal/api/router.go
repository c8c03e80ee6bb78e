package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/content"
	"github.com/starford/ansuz/internal/feed"
	"github.com/starford/ansuz/internal/siteservice"
)

// NewRouter creates a chi router with all content routes mounted.
func NewRouter(svc *siteservice.Service, feeds *feed.Generator, mode content.Mode) chi.Router {
	h := NewHandler(svc, feeds)

	r := chi.NewRouter()
	r.Use(CacheControl(mode))

	r.Get("/writing/list", h.ListWriting)
	r.Get("/writing/latest", h.LatestWriting)
	r.Get("/writing/{id}", h.GetPost)

	r.Get("/notes/list", h.ListNotes)
	r.Get("/notes/tags", h.NoteTags)
	r.Get("/notes/*", h.GetNote)

	r.Get("/journals/list", h.ListJournals)
	r.Get("/journals/{year}/{month}", h.ListJournalMonth)
	r.Get("/journals/{year}/{month}/{id}", h.GetJournal)

	r.Get("/rss/{type}.xml", h.GetFeed)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	})

	return r
}
