package mdconv

import (
	"strings"
)

func (w *walker) dispatchInline(tag string, n *Node, st WalkState) error {
	switch tag {
	case "strong", "b":
		return w.renderEmphasis(n, st, true)
	case "em", "i":
		return w.renderEmphasis(n, st, false)
	case "code", "kbd", "samp":
		return w.renderCode(n, st)
	case "a":
		return w.renderLink(n, st)
	case "br":
		return w.renderBreak(st)
	case "mark":
		return w.renderMark(n, st)
	case "del", "s":
		return w.renderWrapped(n, st, "~~", "~~")
	case "ins":
		return w.renderWrapped(n, st, "==", "==")
	case "u":
		return w.renderUnderline(n, st)
	case "sub":
		return w.renderScript(n, st, w.opts.SubSymbol)
	case "sup":
		return w.renderScript(n, st, w.opts.SupSymbol)
	case "ruby":
		return w.renderRuby(n, st)
	case "rb", "rt", "rp", "rtc":
		// Only reached when encountered outside a <ruby> ancestor;
		// render their text content plainly.
		return w.walkChildren(n, st)
	}
	return w.walkChildren(n, st)
}

// collectInline renders n's children into a scratch buffer under a
// modified state, returning the rendered text and propagating any
// warnings/side-channel observations into w.
func (w *walker) collectInline(n *Node, st WalkState) (string, error) {
	inner := &walker{opts: w.opts, dom: w.dom, buf: &outputBuffer{}, images: w.images, meta: w.meta, logger: w.logger}
	if err := inner.walkChildren(n, st); err != nil {
		return "", err
	}
	w.warnings = append(w.warnings, inner.warnings...)
	return inner.buf.String(), nil
}

// appendInlineSuffix re-attaches a trailing space consumed by chomp,
// consulting the next sibling per the inline-suffix appender rule (spec
// §4.J): skip it if the next sibling is itself inline/whitespace-led.
// A whitespace-only text node between tags (typical source
// indentation) is skipped via DomContext before that check, so it
// never masks the element actually following n.
func (w *walker) appendInlineSuffix(n *Node, hadTrailingSpace bool) {
	if !hadTrailingSpace {
		return
	}
	next := w.dom.NextSiblingSkippingText(n)
	if next == nil {
		return
	}
	if next.Type == TextNode && strings.HasPrefix(next.Text, " ") {
		return
	}
	if next.Type == ElementNode && inlineTags[next.Tag] {
		return
	}
	w.buf.WriteString(" ")
}

// renderEmphasis implements spec §4.G's <em>/<i>/<strong>/<b> handler,
// including testable property §8.9 (nested strong collapsing).
func (w *walker) renderEmphasis(n *Node, st WalkState, strong bool) error {
	childState := st
	if strong {
		childState = st.withStrong(true)
	} else {
		childState = st.withEmphasis(true)
	}
	raw, err := w.collectInline(n, childState)
	if err != nil {
		return err
	}

	lead, trail, core := chomp(raw)
	if core == "" {
		return nil
	}
	if lead {
		w.buf.WriteString(" ")
	}

	switch {
	case st.InCode:
		w.buf.WriteString(core)
	case strong && st.InStrong, !strong && st.InEmphasis:
		w.buf.WriteString(core)
	default:
		sym := w.opts.StrongEmSymbol
		if strong {
			sym = sym + sym
		}
		w.buf.WriteString(sym + core + sym)
	}
	w.appendInlineSuffix(n, trail)
	return nil
}

// renderCode implements spec §4.G's inline code handler (also used for
// <kbd>/<samp>).
func (w *walker) renderCode(n *Node, st WalkState) error {
	content := n.TextContent()
	if content == "" {
		return nil
	}

	run := longestRun(content, '`')
	count := run + 1
	if count < 2 && run == 1 {
		count = 2
	}
	if count < 1 {
		count = 1
	}
	delim := strings.Repeat("`", count)

	needsSpace := isAllSpaces(content) ||
		strings.HasPrefix(content, "`") || strings.HasSuffix(content, "`") ||
		(strings.HasPrefix(content, " ") && strings.HasSuffix(content, " ") && strings.Contains(content, "`"))

	w.buf.WriteString(delim)
	if needsSpace {
		w.buf.WriteString(" ")
	}
	w.buf.WriteString(content)
	if needsSpace {
		w.buf.WriteString(" ")
	}
	w.buf.WriteString(delim)
	return nil
}

func isAllSpaces(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r != ' ' {
			return false
		}
	}
	return true
}

// renderBreak implements spec §4.G's <br> handler.
func (w *walker) renderBreak(st WalkState) error {
	if st.InTableCell {
		w.buf.WriteString("<br>")
		return nil
	}
	if w.opts.NewlineStyle == NewlineBackslash {
		w.buf.WriteString("\\\n")
	} else {
		w.buf.WriteString("  \n")
	}
	if st.ListDepth > 0 {
		w.buf.WriteString(continuationIndent(w.opts, st.ListDepth))
	}
	return nil
}

// renderMark implements spec §4.G's <mark> handler.
func (w *walker) renderMark(n *Node, st WalkState) error {
	raw, err := w.collectInline(n, st)
	if err != nil {
		return err
	}
	lead, trail, core := chomp(raw)
	if core == "" {
		return nil
	}
	if lead {
		w.buf.WriteString(" ")
	}
	switch w.opts.HighlightStyle {
	case HighlightHTML:
		w.buf.WriteString("<mark>" + core + "</mark>")
	case HighlightBold:
		if st.InStrong || st.InEmphasis {
			w.buf.WriteString(core)
		} else {
			w.buf.WriteString("**" + core + "**")
		}
	case HighlightNone:
		w.buf.WriteString(core)
	default:
		w.buf.WriteString("==" + core + "==")
	}
	w.appendInlineSuffix(n, trail)
	return nil
}

// renderWrapped wraps n's inline content in open/close markers, used
// for <del>/<s> (~~) and <ins> (==).
func (w *walker) renderWrapped(n *Node, st WalkState, open, close string) error {
	raw, err := w.collectInline(n, st)
	if err != nil {
		return err
	}
	lead, trail, core := chomp(raw)
	if core == "" {
		return nil
	}
	if lead {
		w.buf.WriteString(" ")
	}
	w.buf.WriteString(open + core + close)
	w.appendInlineSuffix(n, trail)
	return nil
}

// renderUnderline implements spec §4.G's <u> handler as a passthrough:
// <u> has no standard CommonMark representation and there is no option
// or visitor for it, so its content is always emitted unwrapped.
func (w *walker) renderUnderline(n *Node, st WalkState) error {
	return w.walkChildren(n, st)
}

// renderScript implements spec §4.G's <sub>/<sup> handler.
func (w *walker) renderScript(n *Node, st WalkState, symbol string) error {
	raw, err := w.collectInline(n, st)
	if err != nil {
		return err
	}
	lead, trail, core := chomp(raw)
	if core == "" {
		return nil
	}
	if lead {
		w.buf.WriteString(" ")
	}
	if symbol == "" {
		w.buf.WriteString(core)
	} else {
		w.buf.WriteString(symbol + core + closingSymbol(symbol))
	}
	w.appendInlineSuffix(n, trail)
	return nil
}
