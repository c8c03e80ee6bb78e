package markdown

import (
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

const permalinkSymbol = "\U0001F517"

// permalinkTransformer appends a fragment link to every heading that has
// an auto-generated ID. It runs before link rewriting so the href picks
// up the document path prefix like any other fragment link.
type permalinkTransformer struct{}

func (t *permalinkTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		id, ok := heading.AttributeString("id")
		if !ok {
			return ast.WalkSkipChildren, nil
		}
		idBytes, ok := id.([]byte)
		if !ok || len(idBytes) == 0 {
			return ast.WalkSkipChildren, nil
		}

		link := ast.NewLink()
		link.Destination = append([]byte("#"), idBytes...)
		link.AppendChild(link, ast.NewString([]byte(permalinkSymbol)))
		heading.AppendChild(heading, ast.NewString([]byte(" ")))
		heading.AppendChild(heading, link)
		return ast.WalkSkipChildren, nil
	})
}
