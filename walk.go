package mdconv

import (
	"log/slog"
	"strings"
)

// walker owns everything confined to a single conversion call: the
// options, the DomContext, the growing output buffer, and the
// optional image/metadata side-channel collectors (spec §5: a
// conversion is single-threaded and confined to one call stack).
type walker struct {
	opts   *ConversionOptions
	dom    *DomContext
	buf    *outputBuffer
	images *imageCollector
	meta   *metadataCollector
	logger *slog.Logger

	warnings []Warning
}

var blockTags = map[string]bool{
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"p": true, "div": true, "blockquote": true, "pre": true, "hr": true,
	"figure": true, "figcaption": true,
}

var listTags = map[string]bool{
	"ul": true, "ol": true, "li": true, "dl": true, "dt": true, "dd": true,
}

var tableTags = map[string]bool{
	"table": true, "thead": true, "tbody": true, "tfoot": true,
	"tr": true, "th": true, "td": true, "caption": true,
}

var inlineTags = map[string]bool{
	"a": true, "strong": true, "b": true, "em": true, "i": true,
	"code": true, "kbd": true, "samp": true, "mark": true,
	"del": true, "s": true, "ins": true, "u": true,
	"sub": true, "sup": true, "br": true,
	"ruby": true, "rb": true, "rt": true, "rp": true, "rtc": true,
}

// transparentTags never get their own handler; walkChildren handles
// their children as if the tag were absent. Structural document
// wrappers fall here because the driver starts the walk at <body>.
var transparentTags = map[string]bool{
	"html": true, "head": true, "body": true, "span": true,
	"section": true, "article": true, "main": true, "header": true,
	"footer": true, "details": true, "summary": true,
}

// walkChildren renders every child of n in order, per the dispatch
// rules in spec §4.E.
func (w *walker) walkChildren(n *Node, st WalkState) error {
	if n == nil {
		return nil
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := w.walkNode(c, st); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) walkNode(n *Node, st WalkState) error {
	switch n.Type {
	case TextNode:
		return w.renderText(n, st)
	case RawNode:
		w.buf.WriteString(n.Text)
		return nil
	case CommentNode:
		return nil
	}

	tag := n.Tag

	if w.opts.PreserveTags[tag] {
		return w.renderPreserved(n)
	}
	if w.opts.StripTags[tag] {
		return nil
	}

	if w.meta != nil {
		w.meta.observe(tag, n)
	}

	switch {
	case st.ConvertAsInline:
		return w.walkInlineOverride(n, st)
	case blockTags[tag]:
		return w.dispatchBlock(tag, n, st)
	case listTags[tag]:
		return w.dispatchList(tag, n, st)
	case tableTags[tag]:
		if tag == "table" {
			return w.renderTable(n, st)
		}
		// A bare <tr>/<td>/... outside of a <table> ancestor: still
		// transparent, since the table engine only ever dispatches on
		// <table> itself.
		return w.walkChildren(n, st)
	case inlineTags[tag]:
		return w.dispatchInline(tag, n, st)
	case tag == "img":
		return w.renderImg(n, st)
	case tag == "svg":
		return w.renderSVG(n, st)
	case tag == "input":
		// Bare checkboxes outside of <li> (spec §4.B step 7 fallback):
		// render the task marker inline so the content is never lost.
		return w.renderBareCheckbox(n, st)
	default:
		return w.walkChildren(n, st)
	}
}

// walkInlineOverride implements the convert_as_inline override (spec
// §4.E, §9 open questions): block separators collapse to single spaces
// and heading markers are dropped.
func (w *walker) walkInlineOverride(n *Node, st WalkState) error {
	tag := n.Tag
	if strings.HasPrefix(tag, "h") && len(tag) == 2 && tag[1] >= '1' && tag[1] <= '6' {
		if w.buf.Len() > 0 && !w.buf.endsWith(" ") {
			w.buf.WriteString(" ")
		}
		return w.walkChildren(n, st.withHeading(true))
	}
	if blockTags[tag] || listTags[tag] || tableTags[tag] {
		if w.buf.Len() > 0 && !w.buf.endsWith(" ") {
			w.buf.WriteString(" ")
		}
		return w.walkChildren(n, st)
	}
	if inlineTags[tag] {
		return w.dispatchInline(tag, n, st)
	}
	return w.walkChildren(n, st)
}

// renderPreserved serializes n verbatim as HTML, attributes and subtree
// intact, skipping every converter (spec §4.E dispatch rule (a)).
func (w *walker) renderPreserved(n *Node) error {
	w.buf.WriteString(serializeHTML(n))
	return nil
}

func (w *walker) renderBareCheckbox(n *Node, st WalkState) error {
	typ, _ := n.Get("type")
	if !strings.EqualFold(typ, "checkbox") {
		return nil
	}
	_, checked := n.Get("checked")
	if checked {
		w.buf.WriteString("[x] ")
	} else {
		w.buf.WriteString("[ ] ")
	}
	return nil
}
