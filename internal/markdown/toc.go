package markdown

import (
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/toc"
)

const tocMarker = "[[toc]]"

// tocTransformer replaces a paragraph consisting of the [[toc]] marker
// with a rendered table of contents for the document. It runs after
// heading IDs are assigned and before link rewriting so the generated
// anchors get the same path prefix as every other fragment link.
type tocTransformer struct{}

func (t *tocTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	marker := findTocMarker(doc, reader.Source())
	if marker == nil {
		return
	}

	tree, err := toc.Inspect(doc, reader.Source())
	if err != nil || tree == nil {
		removeNode(marker)
		return
	}
	list := toc.RenderList(tree)
	if list == nil {
		removeNode(marker)
		return
	}
	list.SetAttributeString("class", []byte("table-of-contents"))

	parent := marker.Parent()
	parent.ReplaceChild(parent, marker, list)
}

func findTocMarker(doc *ast.Document, source []byte) ast.Node {
	var found ast.Node
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || found != nil {
			return ast.WalkContinue, nil
		}
		p, ok := n.(*ast.Paragraph)
		if !ok {
			return ast.WalkContinue, nil
		}
		var b strings.Builder
		for i := 0; i < p.Lines().Len(); i++ {
			seg := p.Lines().At(i)
			b.Write(seg.Value(source))
		}
		if strings.TrimSpace(b.String()) == tocMarker {
			found = p
			return ast.WalkStop, nil
		}
		return ast.WalkSkipChildren, nil
	})
	return found
}

func removeNode(n ast.Node) {
	if parent := n.Parent(); parent != nil {
		parent.RemoveChild(parent, n)
	}
}
