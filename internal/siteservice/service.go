// Package siteservice implements the read-side domain operations behind
// the JSON API: list views, single-entry rendering, tag groupings, and
// the front-page latest summary.
package siteservice

import (
	"context"
	"fmt"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/content"
	"github.com/starford/ansuz/internal/devto"
	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/markdown"
)

// Service answers content queries against the current index snapshot.
type Service struct {
	handle   *index.Handle
	renderer *markdown.Renderer
	articles map[string]devto.Article
}

// NewService creates a Service. articles may be nil when the dev.to
// lookup is disabled or failed; posts then carry no syndication info.
func NewService(handle *index.Handle, renderer *markdown.Renderer, articles map[string]devto.Article) *Service {
	return &Service{
		handle:   handle,
		renderer: renderer,
		articles: articles,
	}
}

// EntryDetail is a fully rendered entry. Content holds HTML regardless
// of the source format.
type EntryDetail struct {
	content.Entry
	DevTo *devto.Article `json:"devto,omitempty"`
}

// TagGroup lists the ids filed under one tag key.
type TagGroup struct {
	Posts []string `json:"posts"`
}

// LatestSummary feeds the front page: newest post by creation date, the
// most recently touched note, and the most recently created note.
type LatestSummary struct {
	Post            *content.Entry `json:"post"`
	Note            *content.Entry `json:"note"`
	LastCreatedNote *content.Entry `json:"lastCreatedNote"`
}

// WritingList returns all posts, newest first, without bodies.
func (s *Service) WritingList(ctx context.Context) ([]content.Entry, error) {
	_ = ctx
	return content.Strip(s.handle.Get().Entries(content.KindPost)), nil
}

// NotesList returns all notes ordered by effective timestamp, newest
// first, without bodies.
func (s *Service) NotesList(ctx context.Context) ([]content.Entry, error) {
	_ = ctx
	return content.Strip(s.handle.Get().Entries(content.KindNote)), nil
}

// NoteTags groups notes and journals by normalized tag key.
func (s *Service) NoteTags(ctx context.Context) (map[string]TagGroup, error) {
	_ = ctx
	idx := s.handle.Get()
	groups := make(map[string]TagGroup)
	for _, key := range idx.Tags() {
		entries := idx.TagEntries(key)
		ids := make([]string, len(entries))
		for i, e := range entries {
			ids[i] = e.ID
		}
		groups[key] = TagGroup{Posts: ids}
	}
	return groups, nil
}

// GetPost renders a post by id, attaching its dev.to article when one
// is cross-posted.
func (s *Service) GetPost(ctx context.Context, id string) (*EntryDetail, error) {
	detail, err := s.get(ctx, content.KindPost, id, "/writing/"+id)
	if err != nil {
		return nil, err
	}
	if a, ok := s.articles[id]; ok {
		detail.DevTo = &a
	}
	return detail, nil
}

// GetNote renders a note by id. Note ids may contain slashes.
func (s *Service) GetNote(ctx context.Context, id string) (*EntryDetail, error) {
	return s.get(ctx, content.KindNote, id, "/notes/"+id)
}

// GetJournal renders a journal page by id within its month bucket.
func (s *Service) GetJournal(ctx context.Context, year, month, id string) (*EntryDetail, error) {
	detail, err := s.get(ctx, content.KindJournal, id, "/journals/"+id)
	if err != nil {
		return nil, err
	}
	if y, m, ok := index.SplitMonth(detail.Date); !ok || y != year || m != month {
		return nil, apperr.ErrNotFound
	}
	return detail, nil
}

func (s *Service) get(ctx context.Context, kind content.Kind, id, path string) (*EntryDetail, error) {
	_ = ctx
	entry, ok := s.handle.Get().Lookup(kind, id)
	if !ok {
		return nil, apperr.ErrNotFound
	}

	detail := &EntryDetail{Entry: *entry}
	if entry.Format == content.FormatMarkdown {
		rendered, err := s.renderer.Render([]byte(entry.Content), markdown.Env{Path: path})
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", id, err)
		}
		detail.Content = rendered
	}
	return detail, nil
}

// Latest returns the front-page summary. Fields are nil when the
// corresponding kind has no entries.
func (s *Service) Latest(ctx context.Context) (*LatestSummary, error) {
	_ = ctx
	idx := s.handle.Get()
	out := &LatestSummary{}
	if e := idx.Latest(content.KindPost); e != nil {
		stripped := e.Stripped()
		out.Post = &stripped
	}
	if e := idx.LatestUpdated(content.KindNote); e != nil {
		stripped := e.Stripped()
		out.Note = &stripped
	}
	if e := idx.Latest(content.KindNote); e != nil {
		stripped := e.Stripped()
		out.LastCreatedNote = &stripped
	}
	return out, nil
}

// journalListCap bounds the combined journal listing.
const journalListCap = 30

// JournalsList returns the newest journals across all buckets, without
// bodies.
func (s *Service) JournalsList(ctx context.Context) ([]content.Entry, error) {
	_ = ctx
	entries := s.handle.Get().Entries(content.KindJournal)
	if len(entries) > journalListCap {
		entries = entries[:journalListCap]
	}
	return content.Strip(entries), nil
}

// JournalsFor lists the journals of one month bucket, without bodies.
func (s *Service) JournalsFor(ctx context.Context, year, month string) ([]content.Entry, error) {
	_ = ctx
	entries := s.handle.Get().JournalsFor(year, month)
	if len(entries) == 0 {
		return nil, apperr.ErrNotFound
	}
	return content.Strip(entries), nil
}
