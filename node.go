package mdconv

// NodeType distinguishes the kinds of node the parser adapter produces.
// See spec §3 (Node): a tagged union of Element, Text, Comment, and Raw.
type NodeType int

const (
	ElementNode NodeType = iota
	TextNode
	CommentNode
	RawNode
)

// Attribute is a single name/value pair on an Element node. Names are
// lowercased by the parser adapter; later duplicates overwrite earlier
// ones, so Attr never contains two entries with the same Key.
type Attribute struct {
	Key string
	Val string
}

// Node is the tree shape the converter walks. It is built once by the
// parser adapter (parser.go) from the external HTML tokenizer's output
// and is never mutated afterward: DomContext and the walker both treat
// it as read-only.
type Node struct {
	Type NodeType

	// Tag is the normalized-lowercase tag name. Only meaningful when
	// Type == ElementNode.
	Tag string

	// Attr holds the element's attributes in source order. Only
	// meaningful when Type == ElementNode.
	Attr []Attribute

	// Text holds the decoded text for TextNode, the raw comment body for
	// CommentNode, or the verbatim markup for RawNode (e.g. CDATA).
	Text string

	Parent, FirstChild, LastChild, PrevSibling, NextSibling *Node
}

// Get looks up an attribute by name, returning ("", false) if absent.
func (n *Node) Get(name string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// GetDefault returns the named attribute's value or def if absent.
func (n *Node) GetDefault(name, def string) string {
	if v, ok := n.Get(name); ok {
		return v
	}
	return def
}

// HasClass reports whether the element's class attribute contains the
// given class token.
func (n *Node) HasClass(class string) bool {
	v, ok := n.Get("class")
	if !ok {
		return false
	}
	for _, tok := range splitFields(v) {
		if tok == class {
			return true
		}
	}
	return false
}

// appendChild attaches c as the last child of n, wiring sibling links.
func (n *Node) appendChild(c *Node) {
	c.Parent = n
	if n.LastChild != nil {
		n.LastChild.NextSibling = c
		c.PrevSibling = n.LastChild
	} else {
		n.FirstChild = c
	}
	n.LastChild = c
}

// Children returns the node's direct children as a slice, text nodes
// included. Handlers that only need element lookahead (tight/loose
// detection, ruby structure, table spans) use ElementChildren instead.
func (n *Node) Children() []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

// ElementChildren returns only the Element children, in source order.
func (n *Node) ElementChildren() []*Node {
	var out []*Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// FirstElementChild returns the first Element child, or nil.
func (n *Node) FirstElementChild() *Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == ElementNode {
			return c
		}
	}
	return nil
}

// LastElementChild returns the last Element child, or nil.
func (n *Node) LastElementChild() *Node {
	for c := n.LastChild; c != nil; c = c.PrevSibling {
		if c.Type == ElementNode {
			return c
		}
	}
	return nil
}

// TextContent concatenates all descendant text, ignoring comments and
// element structure. Used where a handler needs plain text regardless of
// inline markup (inline code, <pre> content, metadata text, hOCR words).
func (n *Node) TextContent() string {
	var b []byte
	var walk func(*Node)
	walk = func(m *Node) {
		switch m.Type {
		case TextNode:
			b = append(b, m.Text...)
		case ElementNode:
			for c := m.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
		}
	}
	walk(n)
	return string(b)
}

func splitFields(s string) []string {
	var out []string
	start := -1
	for i := 0; i <= len(s); i++ {
		if i < len(s) && s[i] != ' ' && s[i] != '\t' && s[i] != '\n' && s[i] != '\r' {
			if start == -1 {
				start = i
			}
			continue
		}
		if start != -1 {
			out = append(out, s[start:i])
			start = -1
		}
	}
	return out
}
