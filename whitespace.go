package mdconv

import (
	"regexp"
	"strings"
)

// chomp splits s into (leadingSpace, trailingSpace, core) by stripping a
// single space/tab from each end and recording whether one was present.
// Every inline handler uses this to preserve surrounding whitespace
// without letting an inline marker swallow it (spec Glossary).
func chomp(s string) (leading, trailing bool, core string) {
	core = s
	if len(core) > 0 && (core[0] == ' ' || core[0] == '\t') {
		leading = true
		core = core[1:]
	}
	if len(core) > 0 && (core[len(core)-1] == ' ' || core[len(core)-1] == '\t') {
		trailing = true
		core = core[:len(core)-1]
	}
	return leading, trailing, core
}

var multiSpaceRe = regexp.MustCompile(`[ \t]+`)

// collapseInternalSpaces replaces any run of spaces and tabs with a
// single space (spec §4.J, text node handling). CR and CRLF line endings
// become "\n"; newlines themselves are kept.
func collapseInternalSpaces(s string) string {
	s = strings.NewReplacer("\r\n", "\n", "\r", "\n").Replace(s)
	s = multiSpaceRe.ReplaceAllString(s, " ")
	return s
}

// renderText implements the text-node half of spec §4.J: verbatim
// inside code/pre/ruby contexts, collapsed-to-single-space otherwise,
// and empty when the text is pure inter-block whitespace.
func (w *walker) renderText(n *Node, st WalkState) error {
	text := n.Text
	if st.InCode {
		w.buf.WriteString(text)
		return nil
	}
	if st.InRuby {
		w.buf.WriteString(text)
		return nil
	}

	collapsed := collapseInternalSpaces(text)
	if collapsed == "" {
		return nil
	}
	if isAllWhitespace(collapsed) {
		// Pure inter-tag whitespace: keep a single space only when it
		// sits between two inline/text runs, never at a block boundary.
		if w.buf.Len() == 0 || w.buf.endsWith("\n") || w.buf.endsWith(" ") {
			return nil
		}
		w.buf.WriteString(" ")
		return nil
	}

	collapsed = escapeMarkdownText(collapsed, w.opts)
	w.buf.WriteString(collapsed)
	return nil
}

var escapableRe = regexp.MustCompile("[\\\\`]")

// escapeMarkdownText escapes characters that would otherwise be
// misread as Markdown metacharacters (spec §4.A, §4.J). Backslashes and
// backticks are always escaped; '*', '_' and the other punctuation are
// escaped only when the matching Escape* option is set.
func escapeMarkdownText(s string, opts *ConversionOptions) string {
	s = escapableRe.ReplaceAllStringFunc(s, func(m string) string { return "\\" + m })
	if opts.EscapeAsterisks {
		s = strings.ReplaceAll(s, "*", "\\*")
	}
	if opts.EscapeUnderscores {
		s = strings.ReplaceAll(s, "_", "\\_")
	}
	if opts.EscapeMisc {
		for _, c := range []string{"#", "[", "]", "(", ")", "<", ">", "+", "-", ".", "!", "|"} {
			s = strings.ReplaceAll(s, c, "\\"+c)
		}
	}
	return s
}

var fenceSplitRe = regexp.MustCompile("(?s)(```.*?```|~~~.*?~~~)")
var inlineCodeSplitRe = regexp.MustCompile("(`[^`\n]*`)")
var threeOrMoreSpacesRe = regexp.MustCompile(`[ ]{3,}`)
var boldSpaceRe1 = regexp.MustCompile(`\*\* {2,}`)
var boldSpaceRe2 = regexp.MustCompile(` {2,}\*\*`)
var threeOrMoreNewlinesRe = regexp.MustCompile(`\n{3,}`)

// postProcess is the global post-pass that runs once after the walk
// finishes (spec §4.J): collapse stray runs of 3+ spaces outside code,
// normalize bold-marker spacing, trim trailing whitespace per line, and
// guarantee the document ends with exactly one newline.
func postProcess(s string) string {
	segments := fenceSplitRe.Split(s, -1)
	fences := fenceSplitRe.FindAllString(s, -1)

	var b strings.Builder
	for i, seg := range segments {
		b.WriteString(processNonFenceSegment(seg))
		if i < len(fences) {
			b.WriteString(fences[i])
		}
	}
	out := b.String()

	lines := strings.Split(out, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	out = strings.Join(lines, "\n")

	out = collapseBlankRuns(out)
	out = strings.TrimRight(out, "\n") + "\n"
	return out
}

func processNonFenceSegment(seg string) string {
	parts := inlineCodeSplitRe.Split(seg, -1)
	codeSpans := inlineCodeSplitRe.FindAllString(seg, -1)

	var b strings.Builder
	for i, p := range parts {
		b.WriteString(collapseStraySpacesOutsideLeading(p))
		if i < len(codeSpans) {
			b.WriteString(codeSpans[i])
		}
	}
	return b.String()
}

// collapseStraySpacesOutsideLeading replaces runs of 3+ spaces with a
// single space while preserving each line's leading whitespace (spec
// §4.J step 3; two-space line breaks are left untouched since the
// pattern requires 3 or more), then normalizes `**` run into/out of
// multi-space gaps on both sides (step 4).
func collapseStraySpacesOutsideLeading(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		leadLen := 0
		for leadLen < len(line) && line[leadLen] == ' ' {
			leadLen++
		}
		lead, rest := line[:leadLen], line[leadLen:]
		if strings.HasPrefix(rest, "|") {
			// A pipe-table row: its padding is meaningful column
			// alignment, not stray whitespace, so leave it untouched.
			continue
		}
		rest = threeOrMoreSpacesRe.ReplaceAllString(rest, " ")
		lines[i] = lead + rest
	}
	out := strings.Join(lines, "\n")
	out = boldSpaceRe1.ReplaceAllString(out, "** ")
	out = boldSpaceRe2.ReplaceAllString(out, " **")
	return out
}

// collapseBlankRuns enforces the post-processor's final guarantee (spec
// §9): no run of three or more consecutive "\n" survives. This is
// strictly stronger than testable property §8.2 ("no run of four or
// more"), which it therefore also satisfies.
func collapseBlankRuns(s string) string {
	return threeOrMoreNewlinesRe.ReplaceAllString(s, "\n\n")
}
