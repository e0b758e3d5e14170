package mdconv

import (
	"strings"
)

func (w *walker) dispatchBlock(tag string, n *Node, st WalkState) error {
	switch tag {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		return w.renderHeading(tag, n, st)
	case "p", "div":
		return w.renderParagraph(n, st)
	case "blockquote":
		return w.renderBlockquote(n, st)
	case "pre":
		return w.renderPre(n, st)
	case "hr":
		w.buf.ensureBlankLineSeparator()
		w.buf.WriteString("---")
		w.buf.WriteString("\n\n")
		return nil
	case "figure":
		return w.renderFigure(n, st)
	case "figcaption":
		// Only reached when a <figcaption> appears outside a <figure>;
		// render it like an italic paragraph rather than drop it.
		return w.renderFigcaption(n, st)
	}
	return w.walkChildren(n, st)
}

// renderHeading implements spec §4.F's heading handler.
func (w *walker) renderHeading(tag string, n *Node, st WalkState) error {
	level := int(tag[1] - '0')

	if st.InTableCell {
		w.buf.WriteString("<br>")
	} else if st.ListDepth > 0 {
		w.buf.WriteString(continuationIndent(w.opts, st.ListDepth))
	} else {
		w.buf.ensureBlankLineSeparator()
	}

	inner := &walker{opts: w.opts, dom: w.dom, buf: &outputBuffer{}, images: w.images, meta: w.meta, logger: w.logger}
	hst := st.withHeading(true)
	if err := inner.walkChildren(n, hst); err != nil {
		return err
	}
	w.warnings = append(w.warnings, inner.warnings...)
	text := strings.Join(strings.Fields(strings.ReplaceAll(inner.buf.String(), "\n", " ")), " ")

	switch w.opts.HeadingStyle {
	case HeadingATXClosed:
		w.buf.WriteString(strings.Repeat("#", level) + " " + text + " " + strings.Repeat("#", level))
	case HeadingUnderlined:
		if level > 2 {
			w.buf.WriteString(strings.Repeat("#", level) + " " + text)
		} else {
			underline := "="
			if level == 2 {
				underline = "-"
			}
			width := len([]rune(text))
			if width < 3 {
				width = 3
			}
			w.buf.WriteString(text + "\n" + strings.Repeat(underline, width))
		}
	default: // atx
		w.buf.WriteString(strings.Repeat("#", level) + " " + text)
	}
	w.buf.WriteString("\n\n")
	return nil
}

// renderParagraph implements spec §4.F's <p>/<div> handler.
func (w *walker) renderParagraph(n *Node, st WalkState) error {
	start := w.buf.Len()

	switch {
	case st.InTableCell:
		if w.buf.Len() > 0 && !w.buf.endsWith("|") && !w.buf.endsWith(" ") {
			w.buf.WriteString("<br>")
		}
	case st.ListDepth > 0:
		if w.buf.Len() > 0 {
			w.buf.WriteString("\n" + continuationIndent(w.opts, st.ListDepth))
		}
	default:
		w.buf.ensureBlankLineSeparator()
	}

	if err := w.walkChildren(n, st); err != nil {
		return err
	}

	if w.buf.Len() == start {
		return nil
	}
	if !st.InTableCell && st.ListDepth == 0 {
		w.buf.WriteString("\n\n")
	}
	return nil
}

// renderBlockquote implements spec §4.F's blockquote handler.
func (w *walker) renderBlockquote(n *Node, st WalkState) error {
	inner := &walker{opts: w.opts, dom: w.dom, buf: &outputBuffer{}, images: w.images, meta: w.meta, logger: w.logger}
	if err := inner.walkChildren(n, st.withBlockquote()); err != nil {
		return err
	}
	w.warnings = append(w.warnings, inner.warnings...)

	content := strings.TrimRight(inner.buf.String(), "\n")
	var quoted strings.Builder
	for _, line := range strings.Split(content, "\n") {
		if line == "" {
			quoted.WriteString(">\n")
		} else {
			quoted.WriteString("> " + line + "\n")
		}
	}

	if cite, ok := n.Get("cite"); ok && strings.TrimSpace(cite) != "" {
		quoted.WriteString("> \xe2\x80\x94 " + cite + "\n")
	}

	switch {
	case w.buf.endsWith("\n\n"):
		w.buf.ensureSingleNewline()
		w.buf.WriteString("\n")
	case w.buf.endsWith("\n"):
		w.buf.WriteString("\n")
	case w.buf.Len() == 0:
	default:
		w.buf.WriteString("\n\n")
	}
	w.buf.WriteString(quoted.String())
	w.buf.WriteString("\n")
	return nil
}

// renderPre implements spec §4.F's <pre> handler.
func (w *walker) renderPre(n *Node, st WalkState) error {
	lang := preLanguage(n, w.opts)
	content := preContent(n, w.opts)

	w.buf.ensureBlankLineSeparator()

	switch w.opts.CodeBlockStyle {
	case CodeBackticks, CodeTildes:
		ch := "`"
		if w.opts.CodeBlockStyle == CodeTildes {
			ch = "~"
		}
		fenceLen := longestRun(content, rune(ch[0])) + 1
		if fenceLen < 3 {
			fenceLen = 3
		}
		fence := strings.Repeat(ch, fenceLen)
		w.buf.WriteString(fence + lang + "\n")
		w.buf.WriteString(content)
		if !strings.HasSuffix(content, "\n") {
			w.buf.WriteString("\n")
		}
		w.buf.WriteString(fence + "\n\n")
	default: // indented
		lines := strings.Split(content, "\n")
		for _, l := range lines {
			if l == "" {
				w.buf.WriteString("\n")
				continue
			}
			w.buf.WriteString("    " + l + "\n")
		}
		w.buf.WriteString("\n")
	}
	return nil
}

func longestRun(s string, ch rune) int {
	best, cur := 0, 0
	for _, r := range s {
		if r == ch {
			cur++
			if cur > best {
				best = cur
			}
		} else {
			cur = 0
		}
	}
	return best
}

var langPrefixes = []string{"language-", "lang-"}

func preLanguage(n *Node, opts *ConversionOptions) string {
	if l := classLanguage(n); l != "" {
		return l
	}
	if code := singleCodeChild(n); code != nil {
		if l := classLanguage(code); l != "" {
			return l
		}
	}
	if opts.CodeLanguage != "" {
		return opts.CodeLanguage
	}
	if opts.CodeBlockStyle == CodeBackticks || opts.CodeBlockStyle == CodeTildes {
		if l := detectCodeLanguage(preContent(n, opts)); l != "" {
			return l
		}
	}
	return ""
}

func classLanguage(n *Node) string {
	class, _ := n.Get("class")
	for _, tok := range splitFields(class) {
		for _, p := range langPrefixes {
			if strings.HasPrefix(tok, p) {
				return strings.TrimPrefix(tok, p)
			}
		}
	}
	return ""
}

func singleCodeChild(n *Node) *Node {
	children := n.ElementChildren()
	if len(children) == 1 && children[0].Tag == "code" {
		return children[0]
	}
	return nil
}

func preContent(n *Node, opts *ConversionOptions) string {
	src := n
	if code := singleCodeChild(n); code != nil {
		src = code
	}
	raw := src.TextContent()

	if opts.WhitespaceMode == WhitespaceStrict {
		return strings.Trim(raw, "\n")
	}
	return dedent(raw)
}

// dedent strips the minimum leading whitespace common to all non-blank
// lines and trims a single leading/trailing newline (spec §4.F normalized
// whitespace mode).
func dedent(s string) string {
	s = strings.TrimPrefix(s, "\n")
	s = strings.TrimSuffix(s, "\n")
	lines := strings.Split(s, "\n")

	minIndent := -1
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		indent := 0
		for indent < len(l) && (l[indent] == ' ' || l[indent] == '\t') {
			indent++
		}
		if minIndent == -1 || indent < minIndent {
			minIndent = indent
		}
	}
	if minIndent <= 0 {
		return s
	}
	for i, l := range lines {
		if len(l) >= minIndent {
			lines[i] = l[minIndent:]
		} else {
			lines[i] = strings.TrimLeft(l, " \t")
		}
	}
	return strings.Join(lines, "\n")
}

// renderFigure implements spec §4.F's <figure> handler.
func (w *walker) renderFigure(n *Node, st WalkState) error {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == ElementNode && c.Tag == "figcaption" {
			continue
		}
		if err := w.walkNode(c, st); err != nil {
			return err
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == ElementNode && c.Tag == "figcaption" {
			if err := w.renderFigcaption(c, st); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *walker) renderFigcaption(n *Node, st WalkState) error {
	inner := &walker{opts: w.opts, dom: w.dom, buf: &outputBuffer{}, images: w.images, meta: w.meta, logger: w.logger}
	if err := inner.walkChildren(n, st); err != nil {
		return err
	}
	w.warnings = append(w.warnings, inner.warnings...)
	text := strings.TrimSpace(inner.buf.String())
	if text == "" {
		return nil
	}
	w.buf.ensureBlankLineSeparator()
	w.buf.WriteString("_" + text + "_\n\n")
	return nil
}
