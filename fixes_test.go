package mdconv

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Regression coverage for defects found during review: nested-in-strong
// mark highlighting, balanced-vs-unbalanced link label brackets, a loose
// outer list separating a nested sublist with a blank line, and the
// mirrored multi-space-before-`**` collapse.

func TestConvert_MarkInsideStrongDoesNotQuadruple(t *testing.T) {
	opts := DefaultOptions()
	opts.HighlightStyle = HighlightBold
	got, err := Convert("<p><strong><mark>x</mark></strong></p>", opts)
	require.NoError(t, err)
	require.Equal(t, "**x**\n", got)
}

func TestEscapeLinkLabelBrackets_BalancedPassesThrough(t *testing.T) {
	require.Equal(t, "see [note]", escapeLinkLabelBrackets("see [note]"))
	require.Equal(t, "a[b[c]d]e", escapeLinkLabelBrackets("a[b[c]d]e"))
}

func TestEscapeLinkLabelBrackets_UnbalancedEscaped(t *testing.T) {
	require.Equal(t, `see \[note`, escapeLinkLabelBrackets("see [note"))
	require.Equal(t, `see note\]`, escapeLinkLabelBrackets("see note]"))
	require.Equal(t, `\]leading`, escapeLinkLabelBrackets("]leading"))
}

func TestConvert_LooseOuterListSeparatesNestedSublist(t *testing.T) {
	html := "<ul><li><p>a</p></li><li>b<ul><li>c</li></ul></li></ul>"
	got, err := Convert(html, DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, "* a\n\n* b\n\n  + c\n", got)
}

func TestWhitespace_CollapsesSpacesBeforeBold(t *testing.T) {
	got := collapseStraySpacesOutsideLeading("x   **y**")
	require.Equal(t, "x **y**", got)
}

func TestConvert_AllowImagesInHeadingsOption(t *testing.T) {
	html := `<h1>Title <img src="/x.png" alt="logo"></h1>`

	got, err := Convert(html, DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, "# Title logo\n", got)

	opts := DefaultOptions()
	opts.AllowImagesInHeadings = true
	got, err = Convert(html, opts)
	require.NoError(t, err)
	require.Contains(t, got, "![logo](/x.png)")
}
