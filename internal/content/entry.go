// Package content models the site's content entries and the file sources
// they are read from.
package content

// Kind is the logical content type of an entry. It is fixed when a source is
// declared, not inferred from the file itself.
type Kind string

// Content kinds.
const (
	KindPost    Kind = "post"
	KindNote    Kind = "note"
	KindJournal Kind = "journal"
)

// Format determines whether an entry body needs Markdown rendering.
type Format string

// Content formats.
const (
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
)

// Mode selects the runtime behaviour for drafts.
type Mode string

// Runtime modes.
const (
	ModeProduction  Mode = "production"
	ModeDevelopment Mode = "development"
)

// OriginPKM marks entries imported from the secondary PKM export tree.
const OriginPKM = "pkm"

// Entry is one piece of content: a post, note, or journal page together with
// its front-matter metadata and raw body.
type Entry struct {
	ID     string `json:"id"`
	Kind   Kind   `json:"type"`
	Format Format `json:"format"`
	// Origin tags entries from a secondary aggregation source. It never
	// affects rendering, only labeling and classification.
	Origin string `json:"source,omitempty"`

	Title   string `json:"title"`
	Date    string `json:"date"`
	Updated string `json:"updated,omitempty"`

	Tags []string `json:"tags"`

	Summary          string `json:"summary,omitempty"`
	FrontPageSummary string `json:"frontPageSummary,omitempty"`
	CardImage        string `json:"cardImage,omitempty"`
	Confidence       string `json:"confidence,omitempty"`
	StatusCode       string `json:"status_code,omitempty"`

	Draft bool `json:"-"`

	// Extra holds unrecognized front-matter keys verbatim.
	Extra map[string]any `json:"-"`

	// Content is the raw body, trimmed. Empty in stripped views.
	Content string `json:"content,omitempty"`
}

// Effective returns the entry's effective timestamp: updated when present,
// otherwise date. Dates are normalized strings, so lexical comparison orders
// them chronologically.
func (e *Entry) Effective() string {
	if e.Updated != "" {
		return e.Updated
	}
	return e.Date
}

// Stripped returns a copy of the entry without its body, for list views.
func (e *Entry) Stripped() Entry {
	c := *e
	c.Content = ""
	return c
}

// Strip maps a slice of entries to their stripped views.
func Strip(entries []*Entry) []Entry {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		out[i] = e.Stripped()
	}
	return out
}
