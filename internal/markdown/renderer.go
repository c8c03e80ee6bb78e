package markdown

import (
	"bytes"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// Env carries per-document rendering context.
type Env struct {
	// Path is the canonical document path, e.g. "/writing/my-post".
	// Fragment and relative links resolve against it.
	Path string
	// Host prefixes absolute links when rendering for feeds. Empty for
	// API responses.
	Host string
}

// Renderer converts markdown source to HTML. The zero value is not
// usable, construct with New.
type Renderer struct {
	style string
}

func New(style string) *Renderer {
	if style == "" {
		style = "monokai"
	}
	return &Renderer{style: style}
}

// Render converts src to HTML under env. Engines are built per call:
// the footnote renderer and link transformer close over env, and a
// fresh engine keeps concurrent renders independent.
func (r *Renderer) Render(src []byte, env Env) (string, error) {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Typographer,
			extension.Footnote,
			highlighting.NewHighlighting(
				highlighting.WithStyle(r.style),
				highlighting.WithFormatOptions(chromahtml.WithClasses(true)),
			),
			&containerExtension{},
			&abbrExtension{},
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(
				util.Prioritized(&tocTransformer{}, 600),
				util.Prioritized(&permalinkTransformer{}, 800),
				util.Prioritized(&linkTransformer{env: env}, 900),
			),
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
			renderer.WithNodeRenderers(
				util.Prioritized(&footnoteRenderer{path: env.Path}, 100),
			),
		),
	)

	ctx := parser.NewContext(parser.WithIDs(newSlugIDs()))
	var buf bytes.Buffer
	if err := md.Convert(src, &buf, parser.WithContext(ctx)); err != nil {
		return "", err
	}
	return buf.String(), nil
}
