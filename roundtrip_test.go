package mdconv

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// listShape captures the part of a list's structure the idempotence
// property cares about: nesting depth, ordering, and tightness.
type listShape struct {
	Depth   int
	Ordered bool
	Tight   bool
	Start   int
}

// structuralShape is a lossy summary of a Markdown document's block/link
// structure, used to compare two conversions without requiring byte
// equality (spec §8 item 4 only requires structure to survive).
type structuralShape struct {
	Headings []int
	Lists    []listShape
	Links    []string
}

// summarizeMarkdown parses markdown with goldmark and walks the resulting
// AST into a structuralShape.
func summarizeMarkdown(t *testing.T, markdown string) structuralShape {
	t.Helper()
	src := []byte(markdown)
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	var shape structuralShape
	var walk func(n ast.Node, depth int)
	walk = func(n ast.Node, depth int) {
		switch v := n.(type) {
		case *ast.Heading:
			shape.Headings = append(shape.Headings, v.Level)
		case *ast.List:
			shape.Lists = append(shape.Lists, listShape{
				Depth:   depth,
				Ordered: v.IsOrdered(),
				Tight:   v.IsTight,
				Start:   v.Start,
			})
			depth++
		case *ast.Link:
			shape.Links = append(shape.Links, string(v.Destination))
		}
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			walk(c, depth)
		}
	}
	walk(doc, 0)
	return shape
}

// renderMarkdownToHTML renders markdown back to HTML via goldmark's default
// renderer, letting it stand in for the "re-parsing convert(D) as Markdown"
// half of the idempotence property (spec §8 item 4): feeding that HTML
// through Convert again must reproduce the same block/list/link structure.
func renderMarkdownToHTML(t *testing.T, markdown string) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, goldmark.Convert([]byte(markdown), &buf))
	return buf.String()
}

func TestConvert_IdempotentUnderSecondaryRoundtrip(t *testing.T) {
	docs := []string{
		`<h1>Title</h1><h2>Sub</h2><p>Hello <a href="https://example.com">there</a>.</p>`,
		`<ul><li>a<ul><li>b</li><li>c</li></ul></li><li>d</li></ul>`,
		`<ol start="3"><li>x</li><li>y</li></ol>`,
		`<blockquote><p>quoted</p><ul><li>nested</li></ul></blockquote>`,
	}

	for _, html := range docs {
		m1, err := Convert(html, DefaultOptions())
		require.NoError(t, err)

		h2 := renderMarkdownToHTML(t, m1)
		m2, err := Convert(h2, DefaultOptions())
		require.NoError(t, err)

		want := summarizeMarkdown(t, m1)
		got := summarizeMarkdown(t, m2)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("structure changed across roundtrip of %q (-want +got):\n%s", html, diff)
		}
	}
}
