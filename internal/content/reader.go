package content

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/adrg/frontmatter"

	"github.com/starford/ansuz/internal/apperr"
)

// frontMatter is the recognized metadata header. Unknown keys collect into
// Extra and pass through verbatim.
type frontMatter struct {
	Title            string `yaml:"title"`
	Tags             string `yaml:"tags"`
	Date             string `yaml:"date"`
	Updated          string `yaml:"updated"`
	Summary          string `yaml:"summary"`
	FrontPageSummary string `yaml:"frontPageSummary"`
	CardImage        string `yaml:"cardImage"`
	Confidence       string `yaml:"confidence"`
	StatusCode       string `yaml:"status_code"`
	Draft            bool   `yaml:"draft"`

	Extra map[string]any `yaml:",inline"`
}

// ReadEntry reads and parses {src dir}/{id}.{ext}. A missing or unreadable
// file is not an error from the caller's perspective: it returns
// apperr.ErrNotFound so lookup can fall through to the next source.
func ReadEntry(mode Mode, src Source, id string) (*Entry, error) {
	data, err := src.Dir.Read(id + "." + string(src.Format))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		// Permission errors and the like also read as "this source does
		// not have the id".
		return nil, fmt.Errorf("%w: %s", apperr.ErrNotFound, id)
	}
	return parseEntry(mode, src, id, data)
}

// parseEntry splits data into front matter and body and builds the Entry.
// Draft entries are suppressed (ErrNotFound) in production mode.
func parseEntry(mode Mode, src Source, id string, data []byte) (*Entry, error) {
	var meta frontMatter
	body, err := frontmatter.Parse(bytes.NewReader(data), &meta)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", apperr.ErrMalformedContent, id, err)
	}

	if meta.Draft && mode == ModeProduction {
		return nil, apperr.ErrNotFound
	}

	return &Entry{
		ID:               id,
		Kind:             src.Kind,
		Format:           src.Format,
		Origin:           src.Origin,
		Title:            meta.Title,
		Date:             normalizeDate(meta.Date),
		Updated:          normalizeDate(meta.Updated),
		Tags:             mergeTags(meta.Tags, id),
		Summary:          meta.Summary,
		FrontPageSummary: meta.FrontPageSummary,
		CardImage:        meta.CardImage,
		Confidence:       meta.Confidence,
		StatusCode:       meta.StatusCode,
		Draft:            meta.Draft,
		Extra:            meta.Extra,
		Content:          strings.TrimSpace(string(body)),
	}, nil
}

// mergeTags unions the explicit comma-separated front-matter tags with the
// implicit tags derived from the id's directory segments. Underscores in
// directory names become spaces. First occurrence wins; duplicates drop.
func mergeTags(explicit, id string) []string {
	seen := make(map[string]struct{})
	var out []string

	add := func(tag string) {
		if tag == "" {
			return
		}
		if _, dup := seen[tag]; dup {
			return
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}

	for _, t := range strings.Split(explicit, ",") {
		add(strings.TrimSpace(t))
	}

	segments := strings.Split(id, "/")
	for _, seg := range segments[:len(segments)-1] {
		add(strings.ReplaceAll(seg, "_", " "))
	}

	return out
}

// dateLayouts are tried in order when normalizing front-matter dates.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"January 2, 2006",
}

// normalizeDate reduces any recognizable date value to YYYY-MM-DD. Values
// that do not parse pass through unchanged.
func normalizeDate(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC().Format("2006-01-02")
		}
	}
	return value
}
