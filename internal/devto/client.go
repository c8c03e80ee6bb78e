// Package devto looks up cross-posted articles on dev.to so post
// responses can link back to their syndicated copies.
package devto

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultBaseURL = "https://dev.to/api"

// Article is the subset of the dev.to article payload the site uses.
type Article struct {
	ID              int    `json:"id"`
	Title           string `json:"title"`
	URL             string `json:"url"`
	CanonicalURL    string `json:"canonical_url"`
	PublishedAt     string `json:"published_at"`
	PublicReactions int    `json:"public_reactions_count"`
	Comments        int    `json:"comments_count"`
}

// Client calls the dev.to API with a fixed key.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL, used by tests.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

// NewClient creates a dev.to API client.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PublishedArticles fetches the authenticated user's published articles.
func (c *Client) PublishedArticles(ctx context.Context) ([]Article, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/articles/me/published", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("devto request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("devto: unexpected status %d", resp.StatusCode)
	}

	var articles []Article
	if err := json.NewDecoder(resp.Body).Decode(&articles); err != nil {
		return nil, fmt.Errorf("devto decode: %w", err)
	}
	return articles, nil
}

// ArticleIndex maps published articles by the post id taken from each
// article's canonical URL. Articles whose canonical URL does not parse
// are skipped.
func (c *Client) ArticleIndex(ctx context.Context) (map[string]Article, error) {
	articles, err := c.PublishedArticles(ctx)
	if err != nil {
		return nil, err
	}
	idx := make(map[string]Article, len(articles))
	for _, a := range articles {
		id := postID(a.CanonicalURL)
		if id == "" {
			continue
		}
		idx[id] = a
	}
	return idx, nil
}

// postID extracts the trailing path segment of a canonical URL.
func postID(canonical string) string {
	u, err := url.Parse(canonical)
	if err != nil {
		return ""
	}
	path := strings.Trim(u.Path, "/")
	if path == "" {
		return ""
	}
	segs := strings.Split(path, "/")
	return segs[len(segs)-1]
}
