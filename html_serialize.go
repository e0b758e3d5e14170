package mdconv

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// serializeHTML re-renders n verbatim, used by the preserve_tags
// dispatch rule (spec §4.E rule (a)) and the table engine's unsupported-
// structure fallback (spec §4.I step 7). It builds a throwaway
// golang.org/x/net/html tree and hands it back to that same library's
// renderer, mirroring the round-trip sanitizeHTML already performs in
// preprocess.go.
func serializeHTML(n *Node) string {
	rendered := toHTMLNode(n)
	var out bytes.Buffer
	if err := html.Render(&out, rendered); err != nil {
		// html.Render only fails on a broken io.Writer; bytes.Buffer
		// never errors, so this is unreachable in practice.
		return ""
	}
	return out.String()
}

func toHTMLNode(n *Node) *html.Node {
	out := &html.Node{}
	switch n.Type {
	case ElementNode:
		out.Type = html.ElementNode
		out.Data = n.Tag
		out.Attr = toHTMLAttrs(n.Attr)
	case TextNode:
		out.Type = html.TextNode
		out.Data = n.Text
	case CommentNode:
		out.Type = html.CommentNode
		out.Data = n.Text
	case RawNode:
		out.Type = html.TextNode
		out.Data = n.Text
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out.AppendChild(toHTMLNode(c))
	}
	return out
}

func toHTMLAttrs(attrs []Attribute) []html.Attribute {
	out := make([]html.Attribute, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, html.Attribute{Key: strings.ToLower(a.Key), Val: a.Val})
	}
	return out
}
