package mdconv

import (
	"strings"

	"golang.org/x/net/html"
)

// ParseError is returned only when the external tokenizer fails
// catastrophically (effectively an allocation failure); malformed markup
// itself is repaired by the preprocessor and never reaches here as an
// error. See spec §4.C, §7.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return "mdconv: parse html: " + e.Err.Error() }
func (e *ParseError) Unwrap() error { return e.Err }

// parseDocument wraps golang.org/x/net/html's tokenizer/parser (the
// external collaborator, spec §1) and copies its node tree into our own
// read-only Node shape (spec §4.C). The converter never touches an
// html.Node again after this function returns.
func parseDocument(buf string) (*Node, error) {
	root, err := html.Parse(strings.NewReader(buf))
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	return convertTree(root), nil
}

func convertTree(n *html.Node) *Node {
	out := &Node{}
	switch n.Type {
	case html.ElementNode:
		out.Type = ElementNode
		out.Tag = strings.ToLower(n.Data)
		out.Attr = convertAttrs(n.Attr)
	case html.TextNode:
		out.Type = TextNode
		out.Text = n.Data
	case html.CommentNode:
		if strings.HasPrefix(n.Data, "[CDATA[") {
			out.Type = RawNode
			out.Text = "<![CDATA[" + strings.TrimSuffix(strings.TrimPrefix(n.Data, "[CDATA["), "]]") + "]]>"
		} else {
			out.Type = CommentNode
			out.Text = n.Data
		}
	case html.DoctypeNode:
		// DOCTYPE nodes should already have been stripped by the
		// preprocessor (§4.B step 1); if one slips through (e.g. a
		// document fragment parsed without going through the
		// preprocessor in a test), treat it as an ignored comment.
		out.Type = CommentNode
		out.Text = n.Data
	case html.DocumentNode:
		out.Type = ElementNode
		out.Tag = "#document"
	default:
		out.Type = CommentNode
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out.appendChild(convertTree(c))
	}
	return out
}

func convertAttrs(attrs []html.Attribute) []Attribute {
	// html.Attribute.Key is already lowercased for HTML-namespace
	// attributes by the tokenizer. Later duplicates overwrite earlier
	// ones per spec §3.
	out := make([]Attribute, 0, len(attrs))
	index := map[string]int{}
	for _, a := range attrs {
		key := strings.ToLower(a.Key)
		if i, ok := index[key]; ok {
			out[i].Val = a.Val
			continue
		}
		index[key] = len(out)
		out = append(out, Attribute{Key: key, Val: a.Val})
	}
	return out
}

// documentBody returns the <body> element of a parsed document tree, or
// the document root itself if no body element is present (e.g. a bare
// HTML fragment).
func documentBody(doc *Node) *Node {
	var find func(*Node) *Node
	find = func(n *Node) *Node {
		if n.Type == ElementNode && n.Tag == "body" {
			return n
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if r := find(c); r != nil {
				return r
			}
		}
		return nil
	}
	if b := find(doc); b != nil {
		return b
	}
	return doc
}

// documentHead returns the <head> element of a parsed document tree, or
// nil if none is present.
func documentHead(doc *Node) *Node {
	var find func(*Node) *Node
	find = func(n *Node) *Node {
		if n.Type == ElementNode && n.Tag == "head" {
			return n
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if r := find(c); r != nil {
				return r
			}
		}
		return nil
	}
	return find(doc)
}

// documentHTML returns the <html> root element of a parsed document
// tree, or nil if none is present. The body-only walk never visits this
// node, so the metadata collector's document-level lang lookup reads it
// separately (spec §4.L).
func documentHTML(doc *Node) *Node {
	var find func(*Node) *Node
	find = func(n *Node) *Node {
		if n.Type == ElementNode && n.Tag == "html" {
			return n
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if r := find(c); r != nil {
				return r
			}
		}
		return nil
	}
	return find(doc)
}
