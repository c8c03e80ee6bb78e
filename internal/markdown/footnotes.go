package markdown

import (
	"strconv"

	"github.com/yuin/goldmark/ast"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

// footnoteBackref is an up-left arrow with a variation selector forcing the
// textual glyph. Without the selector some mobile platforms render the bare
// arrow as a colorful emoji.
const footnoteBackref = "↩︎"

// footnoteRenderer overrides the footnote extension's reference and backref
// markup so hrefs carry the document's own path. Feed readers need the full
// path (plus host) for footnote jumps to land on the site instead of inside
// the reader's detached fragment space.
//
// The ids stay in the extension's fn:/fnref: scheme so the default footnote
// list rendering still pairs up with these links.
type footnoteRenderer struct {
	path string
}

func (r *footnoteRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(extast.KindFootnoteLink, r.renderFootnoteLink)
	reg.Register(extast.KindFootnoteBacklink, r.renderFootnoteBacklink)
}

func (r *footnoteRenderer) renderFootnoteLink(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*extast.FootnoteLink)
	index := strconv.Itoa(n.Index)
	refID := index
	if n.RefIndex > 1 {
		refID = index + ":" + strconv.Itoa(n.RefIndex)
	}

	_, _ = w.WriteString(`<sup class="footnote-ref"><a href="`)
	_, _ = w.Write(util.EscapeHTML([]byte(r.path)))
	_, _ = w.WriteString(`#fn:`)
	_, _ = w.WriteString(index)
	_, _ = w.WriteString(`" id="fnref:`)
	_, _ = w.WriteString(refID)
	_, _ = w.WriteString(`">[`)
	_, _ = w.WriteString(index)
	_, _ = w.WriteString(`]</a></sup>`)
	return ast.WalkContinue, nil
}

func (r *footnoteRenderer) renderFootnoteBacklink(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*extast.FootnoteBacklink)
	refID := strconv.Itoa(n.Index)
	if n.RefIndex > 1 {
		refID += ":" + strconv.Itoa(n.RefIndex)
	}

	_, _ = w.WriteString(` <a href="`)
	_, _ = w.Write(util.EscapeHTML([]byte(r.path)))
	_, _ = w.WriteString(`#fnref:`)
	_, _ = w.WriteString(refID)
	_, _ = w.WriteString(`" class="footnote-backref">`)
	_, _ = w.WriteString(footnoteBackref)
	_, _ = w.WriteString(`</a>`)
	return ast.WalkContinue, nil
}
