package mdconv

import "github.com/beevik/etree"

// serializeSVG re-renders an <svg> subtree back into a standalone SVG
// document string for the inline-image extractor's capture_svg path
// (spec §4.K), building the tree with etree the way component.go builds
// its c:root document from parsed markup.
func serializeSVG(n *Node) (string, error) {
	doc := etree.NewDocument()
	root := etree.NewElement(n.Tag)
	copyIntoEtree(root, n)
	doc.SetRoot(root)
	doc.Indent(0)
	return doc.WriteToString()
}

func copyIntoEtree(dst *etree.Element, src *Node) {
	for _, a := range src.Attr {
		dst.CreateAttr(a.Key, a.Val)
	}
	for c := src.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case ElementNode:
			child := dst.CreateElement(c.Tag)
			copyIntoEtree(child, c)
		case TextNode:
			dst.CreateText(c.Text)
		}
	}
}
