package markdown

import (
	"regexp"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Abbreviation support in the markdown-it-abbr style:
//
//	*[HTML]: Hyper Text Markup Language
//
// Definition paragraphs are removed from the document and every later
// occurrence of the term in plain text is wrapped in <abbr title="...">.

// Abbr wraps one occurrence of a defined term.
type Abbr struct {
	ast.BaseInline
	Title string
}

// KindAbbr is the node kind of Abbr.
var KindAbbr = ast.NewNodeKind("Abbr")

func (n *Abbr) Kind() ast.NodeKind {
	return KindAbbr
}

func (n *Abbr) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Title": n.Title}, nil)
}

var abbrDefRe = regexp.MustCompile(`^\*\[([^\]]+)\]:\s*(.+)$`)

type abbrTransformer struct{}

func (t *abbrTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	source := reader.Source()
	defs := collectAbbrDefs(doc, source)
	if len(defs) == 0 {
		return
	}

	var texts []*ast.Text
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		// Leave code spans and their content alone.
		if n.Kind() == ast.KindCodeSpan {
			return ast.WalkSkipChildren, nil
		}
		if txt, ok := n.(*ast.Text); ok {
			texts = append(texts, txt)
		}
		return ast.WalkContinue, nil
	})

	for _, txt := range texts {
		expandAbbrs(txt, source, defs)
	}
}

// collectAbbrDefs removes definition paragraphs and returns the term-title
// map. A paragraph counts as definitions only if every line is one.
func collectAbbrDefs(doc *ast.Document, source []byte) map[string]string {
	defs := make(map[string]string)
	var remove []ast.Node

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		p, ok := n.(*ast.Paragraph)
		if !ok {
			return ast.WalkContinue, nil
		}
		lines := p.Lines()
		if lines.Len() == 0 {
			return ast.WalkContinue, nil
		}
		matches := make([][][]byte, 0, lines.Len())
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			line := util.TrimRightSpace(seg.Value(source))
			m := abbrDefRe.FindSubmatch(line)
			if m == nil {
				return ast.WalkSkipChildren, nil
			}
			matches = append(matches, m)
		}
		for _, m := range matches {
			defs[string(m[1])] = string(m[2])
		}
		remove = append(remove, p)
		return ast.WalkSkipChildren, nil
	})

	for _, n := range remove {
		if parent := n.Parent(); parent != nil {
			parent.RemoveChild(parent, n)
		}
	}
	return defs
}

// expandAbbrs splits a text node around each defined term it contains,
// wrapping the term in an Abbr node. Terms match on word boundaries only.
func expandAbbrs(txt *ast.Text, source []byte, defs map[string]string) {
	parent := txt.Parent()
	if parent == nil {
		return
	}

	seg := txt.Segment
	value := seg.Value(source)

	pos := 0
	cursor := ast.Node(txt)
	replaced := false
	for pos < len(value) {
		term, title, at := nextAbbr(value, pos, defs)
		if at < 0 {
			break
		}

		start := seg.Start + at
		end := start + len(term)

		if at > pos {
			before := ast.NewTextSegment(text.NewSegment(seg.Start+pos, start))
			parent.InsertBefore(parent, cursor, before)
		}
		abbr := &Abbr{Title: title}
		abbr.AppendChild(abbr, ast.NewTextSegment(text.NewSegment(start, end)))
		parent.InsertBefore(parent, cursor, abbr)

		pos = at + len(term)
		replaced = true
	}

	if !replaced {
		return
	}
	if pos < len(value) {
		rest := ast.NewTextSegment(text.NewSegment(seg.Start+pos, seg.Stop))
		parent.InsertBefore(parent, cursor, rest)
	}
	parent.RemoveChild(parent, txt)
}

// nextAbbr finds the earliest boundary-delimited occurrence of any defined
// term at or after pos. Returns the term, its title, and the offset, or -1.
func nextAbbr(value []byte, pos int, defs map[string]string) (string, string, int) {
	bestAt := -1
	var bestTerm, bestTitle string
	for term, title := range defs {
		at := indexWord(value, pos, term)
		if at < 0 {
			continue
		}
		if bestAt < 0 || at < bestAt || (at == bestAt && len(term) > len(bestTerm)) {
			bestAt = at
			bestTerm = term
			bestTitle = title
		}
	}
	return bestTerm, bestTitle, bestAt
}

func indexWord(value []byte, pos int, term string) int {
	for i := pos; i+len(term) <= len(value); i++ {
		if string(value[i:i+len(term)]) != term {
			continue
		}
		if i > 0 && isWordByte(value[i-1]) {
			continue
		}
		if end := i + len(term); end < len(value) && isWordByte(value[end]) {
			continue
		}
		return i
	}
	return -1
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

type abbrHTMLRenderer struct{}

func (r *abbrHTMLRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindAbbr, r.renderAbbr)
}

func (r *abbrHTMLRenderer) renderAbbr(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*Abbr)
	if entering {
		_, _ = w.WriteString(`<abbr title="`)
		_, _ = w.Write(util.EscapeHTML([]byte(n.Title)))
		_, _ = w.WriteString(`">`)
	} else {
		_, _ = w.WriteString("</abbr>")
	}
	return ast.WalkContinue, nil
}

type abbrExtension struct{}

func (e *abbrExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithASTTransformers(util.Prioritized(&abbrTransformer{}, 500)))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(util.Prioritized(&abbrHTMLRenderer{}, 500)))
}
