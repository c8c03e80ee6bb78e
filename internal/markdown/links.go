package markdown

import (
	"regexp"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

var imageExtRe = regexp.MustCompile(`\.(svg|png|jpg|gif)$`)

// RewriteLink normalizes a link target for the document at docPath.
//
// Absolute URLs (anything containing "//") pass through. Fragment-only links
// become deep links under the document's own path. Bare image names move to
// the site images tree. Any other relative target resolves against the
// document's directory. When host is set (feed contexts) the result is fully
// qualified.
func RewriteLink(url, docPath, host string) string {
	if strings.Contains(url, "//") {
		return url
	}

	if strings.HasPrefix(url, "#") {
		url = docPath + url
	} else if !strings.HasPrefix(url, "/") {
		if imageExtRe.MatchString(url) {
			url = "/images/" + url
		} else {
			lastSlash := strings.LastIndex(docPath, "/")
			url = docPath[:lastSlash+1] + url
		}
	}

	if host != "" {
		url = host + url
	}
	return url
}

// linkTransformer applies RewriteLink to every link and image destination.
// It is constructed per render call with that call's Env, so concurrent
// renders never share state.
type linkTransformer struct {
	env Env
}

func (t *linkTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *ast.Link:
			v.Destination = []byte(RewriteLink(string(v.Destination), t.env.Path, t.env.Host))
		case *ast.Image:
			v.Destination = []byte(RewriteLink(string(v.Destination), t.env.Path, t.env.Host))
		}
		return ast.WalkContinue, nil
	})
}
