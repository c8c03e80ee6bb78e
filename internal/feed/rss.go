// Package feed assembles RSS 2.0 documents from the content index.
package feed

import (
	"context"
	"encoding/xml"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/checksum"
	"github.com/starford/ansuz/internal/content"
	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/markdown"
)

// Feed types addressable as /rss/{type}.xml.
const (
	TypeWriting  = "writing"
	TypeNotes    = "notes"
	TypeJournals = "journals"
	TypeAll      = "all"
)

// Site describes the published site for channel metadata and absolute
// links.
type Site struct {
	Host        string
	Title       string
	Description string
	Author      string
	Copyright   string
}

// Generator renders feed documents against the current index snapshot.
type Generator struct {
	handle   *index.Handle
	renderer *markdown.Renderer
	site     Site
	maxItems int
}

// NewGenerator creates a Generator. maxItems caps every feed.
func NewGenerator(handle *index.Handle, renderer *markdown.Renderer, site Site, maxItems int) *Generator {
	if maxItems <= 0 {
		maxItems = 20
	}
	return &Generator{
		handle:   handle,
		renderer: renderer,
		site:     site,
		maxItems: maxItems,
	}
}

type rss struct {
	XMLName xml.Name `xml:"rss"`
	Version string   `xml:"version,attr"`
	Atom    string   `xml:"xmlns:atom,attr"`
	Channel channel  `xml:"channel"`
}

type channel struct {
	Title         string   `xml:"title"`
	Link          string   `xml:"link"`
	Description   string   `xml:"description"`
	Language      string   `xml:"language"`
	Copyright     string   `xml:"copyright,omitempty"`
	ManagingEd    string   `xml:"managingEditor,omitempty"`
	LastBuildDate string   `xml:"lastBuildDate,omitempty"`
	AtomLink      atomLink `xml:"atom:link"`
	Items         []item   `xml:"item"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type item struct {
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	GUID        guid     `xml:"guid"`
	PubDate     string   `xml:"pubDate,omitempty"`
	Description cdata    `xml:"description"`
	Categories  []string `xml:"category,omitempty"`
}

// guid carries a content hash, never a URL.
type guid struct {
	IsPermaLink string `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

type cdata struct {
	Value string `xml:",cdata"`
}

// Generate renders the named feed as an XML document.
func (g *Generator) Generate(ctx context.Context, feedType string) ([]byte, error) {
	entries, err := g.collect(feedType)
	if err != nil {
		return nil, err
	}
	if len(entries) > g.maxItems {
		entries = entries[:g.maxItems]
	}

	items := make([]item, 0, len(entries))
	for _, e := range entries {
		it, err := g.buildItem(ctx, e)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}

	feedURL := g.site.Host + "/rss/" + feedType + ".xml"
	doc := rss{
		Version: "2.0",
		Atom:    "http://www.w3.org/2005/Atom",
		Channel: channel{
			Title:         g.site.Title,
			Link:          g.site.Host,
			Description:   g.site.Description,
			Language:      "en",
			Copyright:     g.site.Copyright,
			ManagingEd:    g.site.Author,
			LastBuildDate: time.Now().UTC().Format(time.RFC1123Z),
			AtomLink:      atomLink{Href: feedURL, Rel: "self", Type: "application/rss+xml"},
			Items:         items,
		},
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal feed: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}

// collect gathers the entries of one feed type, newest first by
// publication date. Journals publish under their title day, so the
// sort key is itemDate, not the raw file date.
func (g *Generator) collect(feedType string) ([]*content.Entry, error) {
	idx := g.handle.Get()
	var entries []*content.Entry
	switch feedType {
	case TypeWriting:
		entries = idx.Entries(content.KindPost)
	case TypeNotes:
		entries = idx.Entries(content.KindNote)
	case TypeJournals:
		entries = idx.Entries(content.KindJournal)
	case TypeAll:
		entries = append(entries, idx.Entries(content.KindPost)...)
		entries = append(entries, idx.Entries(content.KindNote)...)
		entries = append(entries, idx.Entries(content.KindJournal)...)
	default:
		return nil, apperr.ErrNotFound
	}

	sorted := make([]*content.Entry, len(entries))
	copy(sorted, entries)
	dates := make(map[*content.Entry]string, len(sorted))
	for _, e := range sorted {
		dates[e] = itemDate(e)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return dates[sorted[i]] > dates[sorted[j]]
	})
	return sorted, nil
}

func (g *Generator) buildItem(ctx context.Context, e *content.Entry) (item, error) {
	_ = ctx
	path := entryPath(e)
	body := e.Content
	if e.Format == content.FormatMarkdown {
		rendered, err := g.renderer.Render([]byte(e.Content), markdown.Env{Path: path, Host: g.site.Host})
		if err != nil {
			return item{}, fmt.Errorf("render %s: %w", e.ID, err)
		}
		body = rendered
	}
	body = injectFallbacks(body, g.site.Host+path)

	desc := headerLines(e) + body
	return item{
		Title:       e.Title,
		Link:        g.site.Host + path,
		GUID:        guid{IsPermaLink: "false", Value: checksum.SumString(desc)},
		PubDate:     pubDate(itemDate(e)),
		Description: cdata{Value: desc},
		Categories:  e.Tags,
	}, nil
}

// ordinalRe strips the st/nd/rd/th suffix from day numbers in journal
// titles like "Feb 10th, 2023".
var ordinalRe = regexp.MustCompile(`(\d+)(st|nd|rd|th)`)

// itemDate picks the publication timestamp for an entry. Journal pages
// are titled with their day, which is more precise than the export's
// file date.
func itemDate(e *content.Entry) string {
	if e.Kind == content.KindJournal {
		title := ordinalRe.ReplaceAllString(strings.TrimSpace(e.Title), "$1")
		for _, layout := range []string{"2006-01-02", "January 2, 2006", "Jan 2, 2006"} {
			if t, err := time.Parse(layout, title); err == nil {
				return t.UTC().Format("2006-01-02")
			}
		}
	}
	return e.Effective()
}

func entryPath(e *content.Entry) string {
	switch e.Kind {
	case content.KindPost:
		return "/writing/" + e.ID
	case content.KindJournal:
		return "/journals/" + e.ID
	default:
		return "/notes/" + e.ID
	}
}

// headerLines prepends entry metadata that readers would otherwise lose
// outside the site chrome.
func headerLines(e *content.Entry) string {
	var b strings.Builder
	if len(e.Tags) > 0 {
		b.WriteString("<p>Tags: " + strings.Join(e.Tags, ", ") + "</p>\n")
	}
	if e.Confidence != "" {
		b.WriteString("<p>Confidence: " + e.Confidence + "</p>\n")
	}
	return b.String()
}

func pubDate(date string) string {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, date); err == nil {
			return t.UTC().Format(time.RFC1123Z)
		}
	}
	return ""
}

// injectFallbacks fills empty interactive-component mount points with a
// link back to the site, where the component actually runs. Elements
// marked data-no-fallback keep their empty body.
func injectFallbacks(body, pageURL string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return body
	}

	changed := false
	doc.Find("div[data-component]").Each(func(_ int, sel *goquery.Selection) {
		if _, skip := sel.Attr("data-no-fallback"); skip {
			return
		}
		if strings.TrimSpace(sel.Text()) != "" || sel.Children().Length() > 0 {
			return
		}
		name, _ := sel.Attr("data-component")
		sel.SetHtml(fmt.Sprintf(
			`<p><em>This post contains an interactive component (%s). <a href="%s">View it on the site.</a></em></p>`,
			name, pageURL))
		changed = true
	})
	if !changed {
		return body
	}

	out, err := doc.Find("body").Html()
	if err != nil {
		return body
	}
	return out
}
