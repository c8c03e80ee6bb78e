package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/starford/ansuz/internal/content"
	"github.com/starford/ansuz/internal/devto"
	"github.com/starford/ansuz/internal/feed"
	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/markdown"
	"github.com/starford/ansuz/internal/siteservice"
	"github.com/starford/ansuz/internal/testutil"
)

// testEnv builds a content tree, index, service, and router.
func testEnv(t *testing.T, mode content.Mode, articles map[string]devto.Article, files map[string]string) http.Handler {
	t.Helper()
	root := t.TempDir()
	for rel, body := range files {
		testutil.WriteFile(t, root, rel, body)
	}
	sources, err := content.DefaultSources(root)
	if err != nil {
		t.Fatal(err)
	}
	idx, err := index.Build(context.Background(), mode, sources)
	if err != nil {
		t.Fatal(err)
	}
	handle := index.NewHandle(idx)
	renderer := markdown.New("")
	svc := siteservice.NewService(handle, renderer, articles)
	feeds := feed.NewGenerator(handle, renderer, feed.Site{
		Host:  "https://example.dev",
		Title: "Example",
	}, 20)
	return NewRouter(svc, feeds, mode)
}

func get(t *testing.T, router http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func defaultFiles() map[string]string {
	return map[string]string{
		"posts/hello.md": testutil.Doc(
			"title: Hello\ndate: 2023-04-01\ntags: go",
			"Body with a [link](#frag).\n"),
		"posts/older.md": testutil.Doc("title: Older\ndate: 2022-01-01", "x"),
		"notes/books/sicp.md": testutil.Doc(
			"title: SICP\ndate: 2023-01-01\ntags: scheme",
			"A classic.\n"),
		"pkm-pages/journals/day.html": testutil.Doc(
			"title: A Day\ndate: 2023-02-10\ntags: daily",
			"<p>journal body</p>"),
	}
}

func TestListWriting(t *testing.T) {
	router := testEnv(t, content.ModeProduction, nil, defaultFiles())

	w := get(t, router, "/writing/list")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Posts []content.Entry `json:"posts"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Posts) != 2 || resp.Posts[0].ID != "hello" {
		t.Errorf("posts = %+v", resp.Posts)
	}
	for _, p := range resp.Posts {
		if p.Content != "" {
			t.Errorf("list views must not carry bodies: %+v", p)
		}
	}
}

func TestGetPostRendersMarkdown(t *testing.T) {
	router := testEnv(t, content.ModeProduction, map[string]devto.Article{
		"hello": {ID: 7, URL: "https://dev.to/u/hello"},
	}, defaultFiles())

	w := get(t, router, "/writing/hello")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		Post struct {
			Content string         `json:"content"`
			DevTo   *devto.Article `json:"devto"`
		} `json:"post"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(resp.Post.Content, `href="/writing/hello#frag"`) {
		t.Errorf("content should be rendered HTML with rewritten links: %q", resp.Post.Content)
	}
	if resp.Post.DevTo == nil || resp.Post.DevTo.ID != 7 {
		t.Errorf("devto = %+v", resp.Post.DevTo)
	}
}

func TestGetPostNotFound(t *testing.T) {
	router := testEnv(t, content.ModeProduction, nil, defaultFiles())

	w := get(t, router, "/writing/ghost")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["error"] != "not found" {
		t.Errorf("body = %v", body)
	}
}

func TestGetNoteWithSlashID(t *testing.T) {
	router := testEnv(t, content.ModeProduction, nil, defaultFiles())

	w := get(t, router, "/notes/books/sicp")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		Note content.Entry `json:"note"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Note.ID != "books/sicp" {
		t.Errorf("id = %q", resp.Note.ID)
	}
	if !strings.Contains(resp.Note.Content, "<p>") {
		t.Errorf("content should be HTML: %q", resp.Note.Content)
	}
}

func TestNoteTags(t *testing.T) {
	router := testEnv(t, content.ModeProduction, nil, defaultFiles())

	w := get(t, router, "/notes/tags")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var tags map[string]struct {
		Posts []string `json:"posts"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &tags); err != nil {
		t.Fatal(err)
	}
	if g, ok := tags["Scheme"]; !ok || len(g.Posts) != 1 || g.Posts[0] != "books/sicp" {
		t.Errorf("tags = %v, want Scheme -> [books/sicp]", tags)
	}
	if _, ok := tags["Daily"]; !ok {
		t.Errorf("tags = %v, want Daily key from journals", tags)
	}
}

func TestLatest(t *testing.T) {
	router := testEnv(t, content.ModeProduction, nil, defaultFiles())

	w := get(t, router, "/writing/latest")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var latest struct {
		Post *content.Entry `json:"post"`
		Note *content.Entry `json:"note"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &latest); err != nil {
		t.Fatal(err)
	}
	if latest.Post == nil || latest.Post.ID != "hello" {
		t.Errorf("latest post = %+v", latest.Post)
	}
	if latest.Note == nil || latest.Note.ID != "books/sicp" {
		t.Errorf("latest note = %+v", latest.Note)
	}
}

func TestLatestEmptyIndex(t *testing.T) {
	router := testEnv(t, content.ModeProduction, nil, nil)

	w := get(t, router, "/writing/latest")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"post":null`) {
		t.Errorf("empty index should yield nulls: %s", w.Body.String())
	}
}

func TestJournalRoutes(t *testing.T) {
	router := testEnv(t, content.ModeProduction, nil, defaultFiles())

	w := get(t, router, "/journals/list")
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var listResp struct {
		Journals []content.Entry `json:"journals"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &listResp); err != nil {
		t.Fatal(err)
	}
	if len(listResp.Journals) != 1 || listResp.Journals[0].ID != "day" {
		t.Errorf("journals = %v", listResp.Journals)
	}

	w = get(t, router, "/journals/2023/02")
	if w.Code != http.StatusOK {
		t.Fatalf("month status = %d", w.Code)
	}

	w = get(t, router, "/journals/2023/02/day")
	if w.Code != http.StatusOK {
		t.Fatalf("entry status = %d, body = %s", w.Code, w.Body.String())
	}

	// Wrong bucket for an existing journal.
	w = get(t, router, "/journals/2023/03/day")
	if w.Code != http.StatusNotFound {
		t.Errorf("wrong bucket status = %d", w.Code)
	}

	w = get(t, router, "/journals/2021/01")
	if w.Code != http.StatusNotFound {
		t.Errorf("empty bucket status = %d", w.Code)
	}
}

func TestFeedRoute(t *testing.T) {
	router := testEnv(t, content.ModeProduction, nil, defaultFiles())

	w := get(t, router, "/rss/writing.xml")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "application/rss+xml") {
		t.Errorf("content type = %q", ct)
	}
	if !strings.Contains(w.Body.String(), "<rss") {
		t.Errorf("body = %s", w.Body.String())
	}

	w = get(t, router, "/rss/podcast.xml")
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown feed status = %d", w.Code)
	}
}

func TestStrippedViewRoundTrip(t *testing.T) {
	router := testEnv(t, content.ModeProduction, nil, defaultFiles())

	w := get(t, router, "/writing/list")
	var listResp struct {
		Posts []content.Entry `json:"posts"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &listResp); err != nil {
		t.Fatal(err)
	}

	for _, stripped := range listResp.Posts {
		w := get(t, router, "/writing/"+stripped.ID)
		if w.Code != http.StatusOK {
			t.Fatalf("get %s status = %d", stripped.ID, w.Code)
		}
		var resp struct {
			Post content.Entry `json:"post"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		full := resp.Post
		if full.Content == "" {
			t.Errorf("%s: full view should carry content", stripped.ID)
		}
		full.Content = ""
		if !reflect.DeepEqual(full, stripped) {
			t.Errorf("%s: metadata diverges between views:\nfull:     %+v\nstripped: %+v",
				stripped.ID, full, stripped)
		}
	}
}

func TestCacheControlByMode(t *testing.T) {
	files := defaultFiles()

	prod := testEnv(t, content.ModeProduction, nil, files)
	w := get(t, prod, "/writing/list")
	if got := w.Header().Get("Cache-Control"); got != cacheHeader {
		t.Errorf("production Cache-Control = %q", got)
	}

	dev := testEnv(t, content.ModeDevelopment, nil, files)
	w = get(t, dev, "/writing/list")
	if got := w.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("development Cache-Control = %q", got)
	}
}

func TestDraftVisibilityByMode(t *testing.T) {
	files := map[string]string{
		"posts/wip.md": testutil.Doc("title: WIP\ndate: 2023-01-01\ndraft: true", "x"),
	}

	prod := testEnv(t, content.ModeProduction, nil, files)
	if w := get(t, prod, "/writing/wip"); w.Code != http.StatusNotFound {
		t.Errorf("production draft status = %d", w.Code)
	}

	dev := testEnv(t, content.ModeDevelopment, nil, files)
	if w := get(t, dev, "/writing/wip"); w.Code != http.StatusOK {
		t.Errorf("development draft status = %d", w.Code)
	}
}
