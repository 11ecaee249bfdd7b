package render

import (
	"bytes"
	"io"
	"strings"

	"github.com/japaniel/termtip/pkg/annotate"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// KindTerm is the goldmark node kind for an annotated glossary term.
var KindTerm = ast.NewNodeKind("GlossaryTerm")

// TermNode is an inline node holding one annotated term occurrence.
type TermNode struct {
	ast.BaseInline
	Segment annotate.Segment
}

// Kind implements ast.Node.
func (n *TermNode) Kind() ast.NodeKind { return KindTerm }

// Dump implements ast.Node.
func (n *TermNode) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Term":    n.Segment.Term,
		"Matched": n.Segment.MatchedText,
	}, nil)
}

// termTransformer splits text nodes into plain text and TermNodes. Text
// inside code spans, links and images is left alone. A term split across two
// text nodes (for example by emphasis) is not matched. Terms are matched
// against the text as displayed, with backslash escapes and character
// references resolved; a match that would cut through one is dropped.
type termTransformer struct {
	matcher *annotate.Matcher
}

func (t *termTransformer) Transform(doc *ast.Document, reader text.Reader, _ parser.Context) {
	source := reader.Source()

	var targets []*ast.Text
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindCodeSpan, ast.KindLink, ast.KindImage, ast.KindAutoLink, ast.KindRawHTML:
			return ast.WalkSkipChildren, nil
		}
		if txt, ok := n.(*ast.Text); ok && !txt.IsRaw() {
			targets = append(targets, txt)
		}
		return ast.WalkContinue, nil
	})

	for _, txt := range targets {
		t.split(txt, source)
	}
}

func (t *termTransformer) split(txt *ast.Text, source []byte) {
	start, stop := txt.Segment.Start, txt.Segment.Stop
	decoded := decodeText(txt.Segment.Value(source))
	segments := t.matcher.Annotate(decoded.value)

	// Source offsets below are relative to start.
	var nodes []ast.Node
	textFrom, off := 0, 0
	for _, s := range segments {
		from, to := off, off+len(s.Raw())
		off = to
		if !s.IsTerm() {
			continue
		}
		src, ok := decoded.sourceOffset(from)
		end, endOK := decoded.sourceOffset(to)
		if !ok || !endOK {
			continue
		}
		if src > textFrom {
			nodes = append(nodes, ast.NewTextSegment(text.NewSegment(start+textFrom, start+src)))
		}
		nodes = append(nodes, &TermNode{Segment: s})
		textFrom = end
	}
	if len(nodes) == 0 {
		return
	}
	if start+textFrom < stop {
		nodes = append(nodes, ast.NewTextSegment(text.NewSegment(start+textFrom, stop)))
	}

	parent := txt.Parent()
	for _, n := range nodes {
		parent.InsertBefore(parent, txt, n)
	}

	last := nodes[len(nodes)-1]
	if lt, ok := last.(*ast.Text); ok {
		lt.SetSoftLineBreak(txt.SoftLineBreak())
		lt.SetHardLineBreak(txt.HardLineBreak())
	} else if txt.SoftLineBreak() || txt.HardLineBreak() {
		br := ast.NewTextSegment(text.NewSegment(stop, stop))
		br.SetSoftLineBreak(txt.SoftLineBreak())
		br.SetHardLineBreak(txt.HardLineBreak())
		parent.InsertBefore(parent, txt, br)
	}
	parent.RemoveChild(parent, txt)
}

// maxReferenceLen bounds the name of a character reference between & and ;.
const maxReferenceLen = 32

// decodedText is a text node's value with backslash escapes and character
// references resolved.
type decodedText struct {
	value string
	spans []textSpan
}

// textSpan maps source bytes [src, src+srcLen) to value[dec:dec+decLen]. Only
// literal spans can be cut in the middle.
type textSpan struct {
	src, srcLen int
	dec, decLen int
	literal     bool
}

func decodeText(raw []byte) decodedText {
	var (
		b     strings.Builder
		spans []textSpan
		lit   = -1
	)
	flush := func(end int) {
		if lit < 0 {
			return
		}
		spans = append(spans, textSpan{src: lit, srcLen: end - lit, dec: b.Len(), decLen: end - lit, literal: true})
		b.Write(raw[lit:end])
		lit = -1
	}

	for i := 0; i < len(raw); {
		n, value := escapeAt(raw, i)
		if n == 0 {
			if lit < 0 {
				lit = i
			}
			i++
			continue
		}
		flush(i)
		spans = append(spans, textSpan{src: i, srcLen: n, dec: b.Len(), decLen: len(value)})
		b.Write(value)
		i += n
	}
	flush(len(raw))
	return decodedText{value: b.String(), spans: spans}
}

// escapeAt returns the length and value of the backslash escape or character
// reference at raw[i], or 0 when there is none.
func escapeAt(raw []byte, i int) (int, []byte) {
	switch raw[i] {
	case '\\':
		if i+1 < len(raw) && util.IsPunct(raw[i+1]) {
			return 2, raw[i+1 : i+2]
		}
	case '&':
		j := i + 1
		for j < len(raw) && j-i <= maxReferenceLen && isReferenceByte(raw[j]) {
			j++
		}
		if j < len(raw) && raw[j] == ';' {
			ref := raw[i : j+1]
			value := util.ResolveNumericReferences(util.ResolveEntityNames(ref))
			if !bytes.Equal(value, ref) {
				return len(ref), value
			}
		}
	}
	return 0, nil
}

func isReferenceByte(c byte) bool {
	return c == '#' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// sourceOffset maps an offset in value back to the source. ok is false when
// off falls inside an escape or reference.
func (d decodedText) sourceOffset(off int) (src int, ok bool) {
	for _, sp := range d.spans {
		if off == sp.dec {
			return sp.src, true
		}
		if off < sp.dec+sp.decLen {
			if sp.literal {
				return sp.src + off - sp.dec, true
			}
			return 0, false
		}
	}
	if n := len(d.spans); n > 0 {
		last := d.spans[n-1]
		return last.src + last.srcLen, true
	}
	return 0, true
}

// termRenderer renders TermNodes through an HTMLWriter.
type termRenderer struct {
	html *HTMLWriter
}

func (r *termRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindTerm, r.renderTerm)
}

func (r *termRenderer) renderTerm(w util.BufWriter, _ []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	node := n.(*TermNode)
	if err := r.html.writeTerm(w, node.Segment); err != nil {
		return ast.WalkStop, err
	}
	return ast.WalkSkipChildren, nil
}

// TermExtension is a goldmark extension that annotates glossary terms.
type TermExtension struct {
	matcher *annotate.Matcher
	opts    HTMLOptions
}

// NewTermExtension returns an extension using matcher. Each goldmark instance
// built with it numbers trigger ids from zero.
func NewTermExtension(matcher *annotate.Matcher, opts HTMLOptions) *TermExtension {
	return &TermExtension{matcher: matcher, opts: opts}
}

// Extend implements goldmark.Extender.
func (e *TermExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithASTTransformers(
		util.Prioritized(&termTransformer{matcher: e.matcher}, 500),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&termRenderer{html: NewHTMLWriter(e.opts)}, 500),
	))
}

// Markdown renders a Markdown article to HTML with glossary terms annotated.
func Markdown(w io.Writer, source []byte, matcher *annotate.Matcher, opts HTMLOptions) error {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM, NewTermExtension(matcher, opts)),
	)
	return md.Convert(source, w)
}
