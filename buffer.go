package mdconv

import "strings"

// outputBuffer is the append-only destination every handler writes
// into. Handlers inspect the real tail bytes to decide whether a
// separator is needed instead of tracking a parallel "last thing I
// wrote" flag, per spec §3's OutputBuffer invariant and §9's design
// note ("Output buffer as append-only").
type outputBuffer struct {
	b strings.Builder
}

func (o *outputBuffer) WriteString(s string) {
	o.b.WriteString(s)
}

func (o *outputBuffer) String() string {
	return o.b.String()
}

func (o *outputBuffer) Len() int {
	return o.b.Len()
}

// tail returns the last n bytes written so far (or fewer, if the
// buffer is shorter).
func (o *outputBuffer) tail(n int) string {
	s := o.b.String()
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

func (o *outputBuffer) endsWith(suffix string) bool {
	return strings.HasSuffix(o.b.String(), suffix)
}

// ensureBlankLineSeparator normalizes the buffer's tail so that a
// following block element starts on its own blank line: if the buffer
// is empty, no separator is needed; otherwise enough "\n" are appended
// so the tail becomes exactly "\n\n" (spec §4.F heading/paragraph
// separator rule).
func (o *outputBuffer) ensureBlankLineSeparator() {
	if o.b.Len() == 0 {
		return
	}
	s := o.b.String()
	switch {
	case strings.HasSuffix(s, "\n\n"):
		// already separated
	case strings.HasSuffix(s, "\n"):
		o.WriteString("\n")
	default:
		o.WriteString("\n\n")
	}
}

// ensureSingleNewline normalizes the tail to end with exactly one "\n",
// collapsing a trailing blank line to a single line break. Used by the
// blockquote handler's "reduce to single \n" rule (spec §4.F).
func (o *outputBuffer) ensureSingleNewline() {
	s := o.b.String()
	switch {
	case strings.HasSuffix(s, "\n\n"):
		trimmed := strings.TrimRight(s, "\n")
		*o = outputBuffer{}
		o.b.WriteString(trimmed)
		o.WriteString("\n")
	case strings.HasSuffix(s, "\n"):
		// already single
	case s == "":
		// nothing to do
	default:
		o.WriteString("\n")
	}
}
