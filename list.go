package mdconv

import (
	"strconv"
	"strings"
)

func (w *walker) dispatchList(tag string, n *Node, st WalkState) error {
	switch tag {
	case "ul", "ol":
		return w.renderList(tag, n, st)
	case "li":
		// A bare <li> outside of <ul>/<ol> (malformed input): treat it
		// as an implicit single-item unordered list rather than drop it.
		return w.renderList("ul", wrapSingleChild(n), st)
	case "dl":
		return w.renderDL(n, st)
	case "dt":
		return w.renderDT(n, st)
	case "dd":
		return w.renderDD(n, st)
	}
	return w.walkChildren(n, st)
}

// wrapSingleChild synthesizes a throwaway parent so a bare <li> can be
// rendered through the normal list machinery. The <li> is copied so its
// own parent and sibling links in the parsed tree stay untouched.
func wrapSingleChild(li *Node) *Node {
	parent := &Node{Type: ElementNode, Tag: "ul"}
	item := *li
	item.Parent, item.PrevSibling, item.NextSibling = nil, nil, nil
	parent.appendChild(&item)
	return parent
}

// renderList implements spec §4.H's <ul>/<ol> handler.
func (w *walker) renderList(tag string, n *Node, st WalkState) error {
	items := n.ElementChildren()
	ordered := tag == "ol"

	start := 1
	if ordered {
		if s, ok := n.Get("start"); ok {
			if v, err := strconv.Atoi(s); err == nil {
				start = v
			}
		}
	}

	marker := byte(0)
	if !ordered {
		bullets := w.opts.Bullets
		idx := st.ListDepth % len(bullets)
		marker = bullets[idx]
	}

	tight := isTightList(items)

	outer := st.topFrame()
	switch {
	case st.ListDepth == 0:
		w.buf.ensureBlankLineSeparator()
	case outer != nil && !outer.Tight:
		// The enclosing list is loose, so its blank-line-between-items
		// rule still applies to this nested list as one of those items'
		// content (spec §4.H).
		w.buf.ensureBlankLineSeparator()
	case w.buf.Len() > 0 && !w.buf.endsWith("\n"):
		w.buf.WriteString("\n")
	}

	frame := ListFrame{Ordered: ordered, Start: start, Marker: marker, Tight: tight}
	childState := st.withListFrame(frame)

	liIndex := 0
	for _, item := range items {
		if item.Tag != "li" {
			continue
		}
		childState.ListStack[len(childState.ListStack)-1].Index = liIndex
		if err := w.renderListItem(item, childState, liIndex, len(items)); err != nil {
			return err
		}
		liIndex++
	}

	if st.ListDepth == 0 {
		w.buf.ensureBlankLineSeparator()
	}
	return nil
}

// isTightList implements spec §4.H's tight/loose detection: loose if
// any item contains a block child other than a final trailing sublist.
func isTightList(items []*Node) bool {
	for _, item := range items {
		children := item.ElementChildren()
		for i, c := range children {
			isTrailingSublist := (c.Tag == "ul" || c.Tag == "ol") && i == len(children)-1
			if isTrailingSublist {
				continue
			}
			if blockTags[c.Tag] && c.Tag != "hr" {
				return false
			}
		}
	}
	return true
}

// renderListItem implements spec §4.H's <li> handler.
func (w *walker) renderListItem(item *Node, st WalkState, index, total int) error {
	frame := st.topFrame()
	indent := continuationIndent(w.opts, st.ListDepth-1)

	var markerStr string
	if frame.Ordered {
		markerStr = strconv.Itoa(frame.Start+index) + ". "
	} else {
		markerStr = string(frame.Marker) + " "
	}

	w.buf.WriteString(indent + markerStr)

	children := item.Children()
	taskOffset := 0
	if cb := taskCheckbox(item); cb != nil {
		_, checked := cb.Get("checked")
		if checked {
			w.buf.WriteString("[x] ")
		} else {
			w.buf.WriteString("[ ] ")
		}
		taskOffset = 1
	}

	inner := &walker{opts: w.opts, dom: w.dom, buf: &outputBuffer{}, images: w.images, meta: w.meta, logger: w.logger}
	skipped := 0
	for _, c := range children {
		if taskOffset > 0 && skipped < taskOffset && c.Type == ElementNode && c.Tag == "input" {
			skipped++
			continue
		}
		if err := inner.walkNode(c, st); err != nil {
			return err
		}
	}
	w.warnings = append(w.warnings, inner.warnings...)

	// Descendant block/list renderers (paragraphs, nested lists, headings)
	// already compute their own absolute continuation indent from
	// st.ListDepth, so the item's inner content arrives pre-indented for
	// every line after the first. The marker/checkbox just written already
	// supplies a separating space, so drop one leading space here to avoid
	// doubling it when the item's first text node itself starts with one
	// (e.g. "<input ...> done").
	content := strings.TrimRight(inner.buf.String(), "\n")
	content = strings.TrimPrefix(content, " ")
	w.buf.WriteString(content)
	w.buf.WriteString("\n")

	if frame.Tight && index < total-1 {
		// no blank line between tight items
	} else if !frame.Tight && index < total-1 {
		w.buf.WriteString("\n")
	}
	return nil
}

// taskCheckbox returns the item's leading checkbox input, if its first
// meaningful child is one (spec §4.H task lists).
func taskCheckbox(item *Node) *Node {
	for c := item.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == TextNode && strings.TrimSpace(c.Text) == "" {
			continue
		}
		if c.Type == ElementNode && c.Tag == "input" {
			if typ, _ := c.Get("type"); strings.EqualFold(typ, "checkbox") {
				return c
			}
		}
		return nil
	}
	return nil
}

// renderDL/DT/DD implement spec §4.H's definition-list handler.
func (w *walker) renderDL(n *Node, st WalkState) error {
	w.buf.ensureBlankLineSeparator()
	if err := w.walkChildren(n, st); err != nil {
		return err
	}
	w.buf.ensureBlankLineSeparator()
	return nil
}

func (w *walker) renderDT(n *Node, st WalkState) error {
	raw, err := w.collectInline(n, st)
	if err != nil {
		return err
	}
	text := strings.TrimSpace(collapseInternalSpaces(raw))
	if text == "" {
		return nil
	}
	if w.buf.Len() > 0 && !w.buf.endsWith("\n") {
		w.buf.WriteString("\n")
	}
	w.buf.WriteString(text + "\n")
	return nil
}

func (w *walker) renderDD(n *Node, st WalkState) error {
	raw, err := w.collectInline(n, st)
	if err != nil {
		return err
	}
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil
	}
	indent := strings.Repeat(" ", w.opts.ListIndentWidth)
	w.buf.WriteString(indent + text + "\n")
	return nil
}
