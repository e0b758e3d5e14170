package mdconv

import "strings"

// renderRuby implements spec §4.G's <ruby> family handler: interleaved
// base(annotation) pairs when an <rb> is directly followed by an <rt>,
// otherwise grouped bases followed by a parenthesized annotation group.
func (w *walker) renderRuby(n *Node, st WalkState) error {
	children := n.ElementChildren()
	rst := st.withRuby(true)

	interleaved := false
	for i, c := range children {
		if c.Tag == "rb" && i+1 < len(children) && children[i+1].Tag == "rt" {
			interleaved = true
			break
		}
	}

	if interleaved {
		i := 0
		for i < len(children) {
			c := children[i]
			switch c.Tag {
			case "rb":
				base, err := w.collectInline(c, rst)
				if err != nil {
					return err
				}
				w.buf.WriteString(base)
				if i+1 < len(children) && children[i+1].Tag == "rt" {
					ann, err := w.collectInline(children[i+1], rst)
					if err != nil {
						return err
					}
					w.buf.WriteString("(" + ann + ")")
					i++
				}
			case "rp":
				// consumed silently
			default:
				raw, err := w.collectInline(c, rst)
				if err != nil {
					return err
				}
				w.buf.WriteString(raw)
			}
			i++
		}
		return nil
	}

	var bases, annotations strings.Builder
	for _, c := range children {
		switch c.Tag {
		case "rb":
			raw, err := w.collectInline(c, rst)
			if err != nil {
				return err
			}
			bases.WriteString(raw)
		case "rt", "rtc":
			raw, err := w.collectInline(c, rst)
			if err != nil {
				return err
			}
			annotations.WriteString(raw)
		case "rp":
			// consumed silently
		default:
			raw, err := w.collectInline(c, rst)
			if err != nil {
				return err
			}
			bases.WriteString(raw)
		}
	}
	w.buf.WriteString(bases.String())
	if annotations.Len() > 0 {
		w.buf.WriteString("(" + annotations.String() + ")")
	}
	return nil
}
