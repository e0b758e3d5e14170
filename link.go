package mdconv

import (
	"strings"
)

const maxLinkLabelBytes = 512

// renderLink implements spec §4.G's <a> handler.
func (w *walker) renderLink(n *Node, st WalkState) error {
	href, _ := n.Get("href")
	title, hasTitle := n.Get("title")

	if headingChild := soleHeadingChild(n); headingChild != nil {
		return w.renderHeadingLink(n, headingChild, href, st)
	}

	label, err := w.collectInline(n, st)
	if err != nil {
		return err
	}
	label = normalizeLinkLabel(label)

	if href == "" {
		w.buf.WriteString(label)
		return nil
	}

	if w.opts.Autolinks && !w.opts.DefaultTitle && isAutolinkCandidate(href, label) {
		w.buf.WriteString("<" + href + ">")
		return nil
	}

	label = escapeLinkLabelBrackets(label)
	escapedHref := escapeLinkHref(href)

	w.buf.WriteString("[" + label + "](" + escapedHref)
	if hasTitle && (title != "" || w.opts.DefaultTitle) {
		w.buf.WriteString(` "` + strings.ReplaceAll(title, `"`, `\"`) + `"`)
	}
	w.buf.WriteString(")")
	return nil
}

// soleHeadingChild returns the <a>'s single heading element child when
// it has exactly one and no other significant (non-whitespace) text
// siblings, per spec §4.G's heading-in-link special case.
func soleHeadingChild(n *Node) *Node {
	var heading *Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case ElementNode:
			if len(c.Tag) == 2 && c.Tag[0] == 'h' && c.Tag[1] >= '1' && c.Tag[1] <= '6' {
				if heading != nil {
					return nil
				}
				heading = c
				continue
			}
			return nil
		case TextNode:
			if strings.TrimSpace(c.Text) != "" {
				return nil
			}
		}
	}
	return heading
}

func (w *walker) renderHeadingLink(a, heading *Node, href string, st WalkState) error {
	level := int(heading.Tag[1] - '0')
	label, err := w.collectInline(heading, st.withHeading(true))
	if err != nil {
		return err
	}
	text := strings.Join(strings.Fields(label), " ")

	w.buf.ensureBlankLineSeparator()
	w.buf.WriteString(strings.Repeat("#", level) + " [" + escapeLinkLabelBrackets(text) + "](" + escapeLinkHref(href) + ")\n\n")
	return nil
}

func normalizeLinkLabel(s string) string {
	s = collapseInternalSpaces(strings.ReplaceAll(s, "\n", " "))
	s = strings.TrimSpace(s)
	if len(s) > maxLinkLabelBytes {
		s = truncateUTF8(s, maxLinkLabelBytes) + "…"
	}
	return s
}

func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	b := []byte(s[:n])
	for len(b) > 0 && (b[len(b)-1]&0xC0) == 0x80 {
		b = b[:len(b)-1]
	}
	return string(b)
}

// escapeLinkLabelBrackets escapes only unbalanced '[' and ']' in a link
// label (spec §4.G): a matched pair like "see [note]" passes through
// untouched, while a stray bracket with no partner is escaped wherever
// it falls in the label.
func escapeLinkLabelBrackets(s string) string {
	runes := []rune(s)
	escape := make([]bool, len(runes))
	var open []int
	for i, r := range runes {
		switch r {
		case '[':
			open = append(open, i)
		case ']':
			if len(open) > 0 {
				open = open[:len(open)-1]
			} else {
				escape[i] = true
			}
		}
	}
	for _, i := range open {
		escape[i] = true
	}

	var b strings.Builder
	for i, r := range runes {
		if (r == '[' || r == ']') && escape[i] {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func escapeLinkHref(href string) string {
	opens := strings.Count(href, "(")
	closes := strings.Count(href, ")")
	if opens != closes {
		return strings.ReplaceAll(href, ")", "\\)")
	}
	return href
}

// isAutolinkCandidate implements spec §4.G's autolink criterion.
func isAutolinkCandidate(href, label string) bool {
	if href == "" {
		return false
	}
	if label == href {
		return true
	}
	if strings.HasPrefix(href, "mailto:") && label == strings.TrimPrefix(href, "mailto:") {
		return true
	}
	return false
}
