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

// Container is a fenced block of the form
//
//	:::name
//	...markdown...
//	:::
//
// Note-style containers render as <aside> elements; the side-by-side
// container is restructured into alternating panels before rendering.
type Container struct {
	ast.BaseBlock
	Name string
	// fenceLength is the number of opening colons; the closing fence must
	// be at least as long.
	fenceLength int
}

// KindContainer is the node kind of Container.
var KindContainer = ast.NewNodeKind("Container")

func (n *Container) Kind() ast.NodeKind {
	return KindContainer
}

func (n *Container) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Name": n.Name}, nil)
}

// sideBySideName is the container whose children split into prose/code panels.
const sideBySideName = "side-by-side"

// Panel is one half of a side-by-side row: prose on the left, a code fence
// on the right.
type Panel struct {
	ast.BaseBlock
	Right bool
}

// KindPanel is the node kind of Panel.
var KindPanel = ast.NewNodeKind("Panel")

func (n *Panel) Kind() ast.NodeKind {
	return KindPanel
}

func (n *Panel) Dump(source []byte, level int) {
	side := "left"
	if n.Right {
		side = "right"
	}
	ast.DumpHelper(n, source, level, map[string]string{"Side": side}, nil)
}

var containerOpenRe = regexp.MustCompile(`^(:{3,})\s*([\w-]+)\s*$`)

type containerParser struct{}

func (p *containerParser) Trigger() []byte {
	return []byte{':'}
}

func (p *containerParser) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, segment := reader.PeekLine()
	pos := pc.BlockOffset()
	if pos < 0 || line[pos] != ':' {
		return nil, parser.NoChildren
	}
	m := containerOpenRe.FindSubmatch(util.TrimRightSpace(line[pos:]))
	if m == nil {
		return nil, parser.NoChildren
	}
	node := &Container{
		Name:        string(m[2]),
		fenceLength: len(m[1]),
	}
	// Consume the whole marker line so it is not offered to child parsers.
	reader.Advance(segment.Len() - 1)
	return node, parser.HasChildren
}

func (p *containerParser) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	line, segment := reader.PeekLine()
	container := node.(*Container)

	trimmed := util.TrimRightSpace(util.TrimLeftSpace(line))
	if closesContainer(trimmed, container.fenceLength) {
		reader.Advance(segment.Len() - 1)
		return parser.Close
	}
	return parser.Continue | parser.HasChildren
}

func (p *containerParser) Close(node ast.Node, reader text.Reader, pc parser.Context) {}

func (p *containerParser) CanInterruptParagraph() bool {
	return true
}

func (p *containerParser) CanAcceptIndentedLine() bool {
	return false
}

func closesContainer(line []byte, fenceLength int) bool {
	if len(line) < fenceLength {
		return false
	}
	for _, c := range line {
		if c != ':' {
			return false
		}
	}
	return true
}

// sideBySideTransformer regroups the children of side-by-side containers
// into Panel nodes. Every code fence becomes a right panel; the prose before
// it becomes the matching left panel. A fence with no preceding prose still
// gets an empty left panel so the alternation never produces two adjacent
// right panels.
type sideBySideTransformer struct{}

func (t *sideBySideTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	var containers []*Container
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if c, ok := n.(*Container); ok && c.Name == sideBySideName {
				containers = append(containers, c)
			}
		}
		return ast.WalkContinue, nil
	})

	for _, c := range containers {
		regroupPanels(c)
	}
}

func regroupPanels(c *Container) {
	var children []ast.Node
	for child := c.FirstChild(); child != nil; child = child.NextSibling() {
		children = append(children, child)
	}
	c.RemoveChildren(c)

	left := &Panel{}
	flushLeft := func() {
		c.AppendChild(c, left)
		left = &Panel{}
	}

	for _, child := range children {
		if _, isFence := child.(*ast.FencedCodeBlock); isFence {
			flushLeft()
			right := &Panel{Right: true}
			right.AppendChild(right, child)
			c.AppendChild(c, right)
			continue
		}
		left.AppendChild(left, child)
	}
	if left.HasChildren() {
		flushLeft()
	}
}

// containerHTMLRenderer renders Container and Panel nodes.
type containerHTMLRenderer struct{}

func (r *containerHTMLRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindContainer, r.renderContainer)
	reg.Register(KindPanel, r.renderPanel)
}

func (r *containerHTMLRenderer) renderContainer(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*Container)
	if n.Name == sideBySideName {
		if entering {
			_, _ = w.WriteString(`<div class="side-by-side">` + "\n")
		} else {
			_, _ = w.WriteString("</div>\n")
		}
		return ast.WalkContinue, nil
	}
	if entering {
		_, _ = w.WriteString(`<aside class="`)
		_, _ = w.Write(util.EscapeHTML([]byte(n.Name)))
		_, _ = w.WriteString(`">` + "\n")
	} else {
		_, _ = w.WriteString("</aside>\n")
	}
	return ast.WalkContinue, nil
}

func (r *containerHTMLRenderer) renderPanel(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*Panel)
	side := "left"
	if n.Right {
		side = "right"
	}
	if entering {
		_, _ = w.WriteString(`<div class="` + side + `">`)
	} else {
		_, _ = w.WriteString("</div>\n")
	}
	return ast.WalkContinue, nil
}

// containerExtension wires the container parser, the side-by-side
// restructuring pass, and the renderers into a goldmark instance.
type containerExtension struct{}

func (e *containerExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithBlockParsers(util.Prioritized(&containerParser{}, 799)),
		parser.WithASTTransformers(util.Prioritized(&sideBySideTransformer{}, 700)),
	)
	m.Renderer().AddOptions(renderer.WithNodeRenderers(util.Prioritized(&containerHTMLRenderer{}, 500)))
}
