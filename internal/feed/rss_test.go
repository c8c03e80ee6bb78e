package feed

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/content"
	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/markdown"
	"github.com/starford/ansuz/internal/testutil"
)

var testSite = Site{
	Host:        "https://example.dev",
	Title:       "Example",
	Description: "A test site",
	Author:      "owner@example.dev",
	Copyright:   "All rights reserved",
}

func generatorFixture(t *testing.T, maxItems int, files map[string]string) *Generator {
	t.Helper()
	root := t.TempDir()
	for rel, body := range files {
		testutil.WriteFile(t, root, rel, body)
	}
	sources, err := content.DefaultSources(root)
	if err != nil {
		t.Fatal(err)
	}
	idx, err := index.Build(context.Background(), content.ModeProduction, sources)
	if err != nil {
		t.Fatal(err)
	}
	return NewGenerator(index.NewHandle(idx), markdown.New(""), testSite, maxItems)
}

func TestGenerateWritingFeed(t *testing.T) {
	g := generatorFixture(t, 20, map[string]string{
		"posts/hello.md": testutil.Doc(
			"title: Hello\ndate: 2023-04-01\ntags: go, testing\nconfidence: high",
			"Some [link](#frag) here.\n"),
	})

	out, err := g.Generate(context.Background(), TypeWriting)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	doc := string(out)

	for _, want := range []string{
		`<rss version="2.0"`,
		"<title>Example</title>",
		"<link>https://example.dev/writing/hello</link>",
		`<guid isPermaLink="false">`,
		"<category>go</category>",
		"<category>testing</category>",
		"<p>Tags: go, testing</p>",
		"<p>Confidence: high</p>",
		"Sat, 01 Apr 2023 00:00:00 +0000",
		// Rendered links inside the description are host-qualified.
		`https://example.dev/writing/hello#frag`,
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("feed missing %q:\n%s", want, doc)
		}
	}
}

func TestGenerateCapsItems(t *testing.T) {
	files := map[string]string{
		"posts/a.md": testutil.Doc("title: A\ndate: 2023-01-01", "x"),
		"posts/b.md": testutil.Doc("title: B\ndate: 2023-01-02", "x"),
		"posts/c.md": testutil.Doc("title: C\ndate: 2023-01-03", "x"),
	}
	g := generatorFixture(t, 2, files)

	out, err := g.Generate(context.Background(), TypeWriting)
	if err != nil {
		t.Fatal(err)
	}
	doc := string(out)
	if got := strings.Count(doc, "<item>"); got != 2 {
		t.Errorf("items = %d, want 2", got)
	}
	if strings.Contains(doc, "<title>A</title>") {
		t.Error("oldest post should fall off the capped feed")
	}
}

func TestGenerateAllMergesKinds(t *testing.T) {
	g := generatorFixture(t, 20, map[string]string{
		"posts/p.md":                testutil.Doc("title: P\ndate: 2023-01-02", "x"),
		"notes/n.md":                testutil.Doc("title: N\ndate: 2023-01-03", "x"),
		"pkm-pages/journals/j.html": testutil.Doc("title: J\ndate: 2023-01-01", "<p>x</p>"),
	})

	out, err := g.Generate(context.Background(), TypeAll)
	if err != nil {
		t.Fatal(err)
	}
	doc := string(out)
	nIdx := strings.Index(doc, "<title>N</title>")
	pIdx := strings.Index(doc, "<title>P</title>")
	jIdx := strings.Index(doc, "<title>J</title>")
	if nIdx < 0 || pIdx < 0 || jIdx < 0 {
		t.Fatalf("missing items:\n%s", doc)
	}
	if !(nIdx < pIdx && pIdx < jIdx) {
		t.Errorf("items out of order: n=%d p=%d j=%d", nIdx, pIdx, jIdx)
	}
}

func TestGenerateUnknownType(t *testing.T) {
	g := generatorFixture(t, 20, nil)
	_, err := g.Generate(context.Background(), "podcast")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestGUIDTracksContent(t *testing.T) {
	files := map[string]string{
		"posts/p.md": testutil.Doc("title: P\ndate: 2023-01-01", "original"),
	}
	g := generatorFixture(t, 20, files)
	first, err := g.Generate(context.Background(), TypeWriting)
	if err != nil {
		t.Fatal(err)
	}

	g2 := generatorFixture(t, 20, map[string]string{
		"posts/p.md": testutil.Doc("title: P\ndate: 2023-01-01", "revised"),
	})
	second, err := g2.Generate(context.Background(), TypeWriting)
	if err != nil {
		t.Fatal(err)
	}

	if extractGUID(t, string(first)) == extractGUID(t, string(second)) {
		t.Error("guid should change when the rendered content changes")
	}
}

func extractGUID(t *testing.T, doc string) string {
	t.Helper()
	start := strings.Index(doc, `isPermaLink="false">`)
	if start < 0 {
		t.Fatalf("no guid in:\n%s", doc)
	}
	rest := doc[start+len(`isPermaLink="false">`):]
	end := strings.Index(rest, "</guid>")
	if end < 0 {
		t.Fatalf("unterminated guid in:\n%s", doc)
	}
	return rest[:end]
}

func TestJournalItemDateFromTitle(t *testing.T) {
	g := generatorFixture(t, 20, map[string]string{
		"pkm-pages/journals/day.html": testutil.Doc(
			"title: Feb 10th, 2023\ndate: 2023-02-28", "<p>x</p>"),
	})

	out, err := g.Generate(context.Background(), TypeJournals)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), "Fri, 10 Feb 2023 00:00:00 +0000") {
		t.Errorf("journal pubDate should come from the title:\n%s", out)
	}
}

func TestJournalFeedSortsByTitleDate(t *testing.T) {
	// The export's file dates disagree with the title days; the feed
	// must order by the title days.
	g := generatorFixture(t, 20, map[string]string{
		"pkm-pages/journals/early.html": testutil.Doc(
			"title: Feb 10th, 2023\ndate: 2023-02-25", "<p>x</p>"),
		"pkm-pages/journals/late.html": testutil.Doc(
			"title: Feb 20th, 2023\ndate: 2023-02-21", "<p>x</p>"),
	})

	out, err := g.Generate(context.Background(), TypeJournals)
	if err != nil {
		t.Fatal(err)
	}
	doc := string(out)
	lateIdx := strings.Index(doc, "<title>Feb 20th, 2023</title>")
	earlyIdx := strings.Index(doc, "<title>Feb 10th, 2023</title>")
	if lateIdx < 0 || earlyIdx < 0 {
		t.Fatalf("missing items:\n%s", doc)
	}
	if lateIdx > earlyIdx {
		t.Errorf("Feb 20 journal should precede Feb 10: late=%d early=%d", lateIdx, earlyIdx)
	}
}

func TestInjectFallbacks(t *testing.T) {
	body := `<p>intro</p><div data-component="chart"></div>` +
		`<div data-component="demo" data-no-fallback></div>` +
		`<div data-component="filled"><span>kept</span></div>`
	out := injectFallbacks(body, "https://example.dev/writing/p")

	if !strings.Contains(out, "View it on the site") {
		t.Errorf("empty component should get a fallback:\n%s", out)
	}
	if strings.Count(out, "View it on the site") != 1 {
		t.Errorf("only the empty unmarked component should get a fallback:\n%s", out)
	}
	if !strings.Contains(out, "<span>kept</span>") {
		t.Errorf("existing component content must survive:\n%s", out)
	}
}
