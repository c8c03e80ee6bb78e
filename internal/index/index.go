// Package index builds the in-memory content index: per-kind sorted lists,
// id lookup maps, and the tag index. An Index is an immutable value built in
// one pass; consumers share it through a Handle that the development-mode
// watcher can swap wholesale.
package index

import (
	"context"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/starford/ansuz/internal/content"
)

// writingTag partitions secondary-origin pages into posts instead of notes.
const writingTag = "Writing"

// Index is the queryable view over all content. It is never mutated after
// Build returns.
type Index struct {
	byKind map[content.Kind][]*content.Entry
	byID   map[content.Kind]map[string]*content.Entry
	// tagIndex covers notes and journals; keys are normalized tag keys.
	tagIndex map[string][]*content.Entry
	tagKeys  []string
}

// Build reads every declared source and assembles the index. Duplicate ids
// within a kind resolve by source declaration order: the first-read entry
// wins, matching Resolve's precedence.
func Build(ctx context.Context, mode content.Mode, sources map[content.Kind][]content.Source) (*Index, error) {
	idx := &Index{
		byKind:   make(map[content.Kind][]*content.Entry),
		byID:     make(map[content.Kind]map[string]*content.Entry),
		tagIndex: make(map[string][]*content.Entry),
	}

	lists := make(map[content.Kind][]*content.Entry)
	for _, kind := range []content.Kind{content.KindPost, content.KindNote, content.KindJournal} {
		entries, err := content.ListAll(ctx, mode, sources[kind])
		if err != nil {
			return nil, err
		}
		lists[kind] = entries
	}

	// Secondary-origin pages are filed under notes on disk but split into
	// posts vs. notes by the presence of the "Writing" tag. This is a
	// post-load classification, not a source property.
	var notes []*content.Entry
	for _, e := range lists[content.KindNote] {
		if e.Origin == content.OriginPKM && hasTag(e, writingTag) {
			e.Kind = content.KindPost
			lists[content.KindPost] = append(lists[content.KindPost], e)
			continue
		}
		notes = append(notes, e)
	}
	lists[content.KindNote] = notes

	for kind, entries := range lists {
		byID := make(map[string]*content.Entry, len(entries))
		var kept []*content.Entry
		for _, e := range entries {
			if _, dup := byID[e.ID]; dup {
				continue
			}
			byID[e.ID] = e
			kept = append(kept, e)
		}
		sortEntries(kind, kept)
		idx.byKind[kind] = kept
		idx.byID[kind] = byID
	}

	for _, kind := range []content.Kind{content.KindNote, content.KindJournal} {
		for _, e := range idx.byKind[kind] {
			for _, tag := range e.Tags {
				key := TagKey(tag)
				if key == "" {
					continue
				}
				if _, ok := idx.tagIndex[key]; !ok {
					idx.tagKeys = append(idx.tagKeys, key)
				}
				idx.tagIndex[key] = append(idx.tagIndex[key], e)
			}
		}
	}
	sort.Strings(idx.tagKeys)

	return idx, nil
}

// sortEntries orders a kind's list by recency descending with title as the
// ascending tie-break. Posts and journals order on date; notes on the
// effective timestamp, so an updated note resurfaces.
func sortEntries(kind content.Kind, entries []*content.Entry) {
	key := func(e *content.Entry) string { return e.Date }
	if kind == content.KindNote {
		key = func(e *content.Entry) string { return e.Effective() }
	}
	sort.SliceStable(entries, func(i, j int) bool {
		ki, kj := key(entries[i]), key(entries[j])
		if ki != kj {
			return ki > kj
		}
		return entries[i].Title < entries[j].Title
	})
}

func hasTag(e *content.Entry, tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Entries returns the kind's sorted list.
func (x *Index) Entries(kind content.Kind) []*content.Entry {
	return x.byKind[kind]
}

// Lookup finds an entry by kind and id.
func (x *Index) Lookup(kind content.Kind, id string) (*content.Entry, bool) {
	e, ok := x.byID[kind][id]
	return e, ok
}

// Latest returns the most recently created entry of a kind, or nil when the
// index holds none.
func (x *Index) Latest(kind content.Kind) *content.Entry {
	var best *content.Entry
	for _, e := range x.byKind[kind] {
		if best == nil || e.Date > best.Date {
			best = e
		}
	}
	return best
}

// LatestUpdated returns the entry with the greatest effective timestamp, or
// nil when the index holds none.
func (x *Index) LatestUpdated(kind content.Kind) *content.Entry {
	var best *content.Entry
	for _, e := range x.byKind[kind] {
		if best == nil || e.Effective() > best.Effective() {
			best = e
		}
	}
	return best
}

// Tags returns the normalized tag keys in sorted order.
func (x *Index) Tags() []string {
	return x.tagKeys
}

// TagEntries returns the entries under a normalized tag key, in the same
// relative order as their kind's sorted list.
func (x *Index) TagEntries(key string) []*content.Entry {
	return x.tagIndex[key]
}

// JournalsFor returns the journals dated within one year/month bucket, in
// sorted order.
func (x *Index) JournalsFor(year, month string) []*content.Entry {
	var out []*content.Entry
	for _, e := range x.byKind[content.KindJournal] {
		y, m, ok := SplitMonth(e.Date)
		if ok && y == year && m == month {
			out = append(out, e)
		}
	}
	return out
}

// SplitMonth parses the year and month out of a normalized date string.
func SplitMonth(date string) (year, month string, ok bool) {
	parts := strings.SplitN(date, "-", 3)
	if len(parts) < 2 || len(parts[0]) != 4 || len(parts[1]) != 2 {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// TagKey normalizes a tag into its index key: each space-separated word is
// capitalized unless already all-uppercase, then every non-alphanumeric
// character becomes a hyphen.
func TagKey(tag string) string {
	words := strings.Split(tag, " ")
	for i, w := range words {
		if w == "" || w == strings.ToUpper(w) {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	formatted := strings.Join(words, " ")

	var b strings.Builder
	b.Grow(len(formatted))
	for _, r := range formatted {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}

// Handle shares an Index between the request path and the development-mode
// rebuild watcher. Get is lock-free; Swap installs a fresh build atomically.
type Handle struct {
	v atomic.Pointer[Index]
}

// NewHandle wraps an initial index.
func NewHandle(idx *Index) *Handle {
	h := &Handle{}
	h.v.Store(idx)
	return h
}

// Get returns the current index.
func (h *Handle) Get() *Index {
	return h.v.Load()
}

// Swap installs a new index.
func (h *Handle) Swap(idx *Index) {
	h.v.Store(idx)
}
