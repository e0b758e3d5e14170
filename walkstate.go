package mdconv

// ListFrame records one level of list nesting (spec §3 WalkState).
type ListFrame struct {
	Ordered bool
	Start   int
	Index   int // how many items have been emitted so far at this level
	Marker  byte
	Tight   bool
}

// WalkState is the mutable traversal context threaded down the
// recursive walk by value. A handler that needs its children to see a
// modification (entering a <strong>, descending a list level) clones
// the state via the with* helpers before recursing; the clone's
// changes never leak back up to the caller because Go passes structs
// by value and the with* helpers never mutate the receiver in place.
// See spec §3, §9 ("Shared immutable context, mutable threaded state").
type WalkState struct {
	InlineDepth      int
	ListDepth        int
	ListStack        []ListFrame
	BlockquoteDepth  int
	InCode           bool
	InStrong         bool
	InEmphasis       bool
	InHeading        bool
	InTableCell      bool
	InRuby           bool
	ConvertAsInline  bool

	HeadingAllowInlineImages bool
}

func newWalkState(opts *ConversionOptions) WalkState {
	return WalkState{
		ConvertAsInline:          opts.ConvertAsInline,
		HeadingAllowInlineImages: opts.AllowImagesInHeadings,
	}
}

func (s WalkState) withInline() WalkState {
	s.InlineDepth++
	return s
}

func (s WalkState) withCode(v bool) WalkState {
	s.InCode = v
	return s
}

func (s WalkState) withStrong(v bool) WalkState {
	s.InStrong = v
	return s
}

func (s WalkState) withEmphasis(v bool) WalkState {
	s.InEmphasis = v
	return s
}

func (s WalkState) withHeading(v bool) WalkState {
	s.InHeading = v
	return s
}

func (s WalkState) withTableCell(v bool) WalkState {
	s.InTableCell = v
	return s
}

func (s WalkState) withRuby(v bool) WalkState {
	s.InRuby = v
	return s
}

func (s WalkState) withBlockquote() WalkState {
	s.BlockquoteDepth++
	return s
}

// withListFrame pushes f onto a fresh copy of the list stack so that
// siblings and ancestors of the element that pushed it never observe
// the mutation (spec §3 invariant on WalkState cloning).
func (s WalkState) withListFrame(f ListFrame) WalkState {
	s.ListDepth++
	stack := make([]ListFrame, len(s.ListStack), len(s.ListStack)+1)
	copy(stack, s.ListStack)
	s.ListStack = append(stack, f)
	return s
}

// topFrame returns a pointer into a caller-owned copy of the current
// innermost list frame, or nil if not inside a list.
func (s *WalkState) topFrame() *ListFrame {
	if len(s.ListStack) == 0 {
		return nil
	}
	return &s.ListStack[len(s.ListStack)-1]
}

// continuationIndent is the string prepended to non-first lines of a
// list item's content so the rendered markdown stays nested (spec
// Glossary: "continuation indent").
func continuationIndent(opts *ConversionOptions, depth int) string {
	if depth <= 0 {
		return ""
	}
	unit := byte(' ')
	if opts.ListIndentType == IndentTabs {
		unit = '\t'
	}
	n := opts.ListIndentWidth * depth
	out := make([]byte, n)
	for i := range out {
		out[i] = unit
	}
	return string(out)
}
