package mdconv

import "fmt"

// HeadingStyle selects how <h1>-<h6> are rendered. Spec §4.A.
type HeadingStyle string

const (
	HeadingATX       HeadingStyle = "atx"
	HeadingATXClosed HeadingStyle = "atx_closed"
	HeadingUnderlined HeadingStyle = "underlined"
)

// ListIndentType selects the character used to build list continuation
// indents.
type ListIndentType string

const (
	IndentSpaces ListIndentType = "spaces"
	IndentTabs   ListIndentType = "tabs"
)

// CodeBlockStyle selects how <pre>/<code> blocks are rendered.
type CodeBlockStyle string

const (
	CodeIndented  CodeBlockStyle = "indented"
	CodeBackticks CodeBlockStyle = "backticks"
	CodeTildes    CodeBlockStyle = "tildes"
)

// NewlineStyle selects how <br> is rendered.
type NewlineStyle string

const (
	NewlineSpaces    NewlineStyle = "spaces"
	NewlineBackslash NewlineStyle = "backslash"
)

// HighlightStyle selects how <mark> is rendered.
type HighlightStyle string

const (
	HighlightDoubleEqual HighlightStyle = "double_equal"
	HighlightHTML        HighlightStyle = "html"
	HighlightBold        HighlightStyle = "bold"
	HighlightNone        HighlightStyle = "none"
)

// WhitespaceMode selects how text inside <pre>/<code> is reproduced.
type WhitespaceMode string

const (
	WhitespaceNormalized WhitespaceMode = "normalized"
	WhitespaceStrict     WhitespaceMode = "strict"
)

// PreprocessingPreset selects a tag/attribute allow-list used by the
// sanitizer (spec §4.B step 5).
type PreprocessingPreset string

const (
	PresetMinimal    PreprocessingPreset = "minimal"
	PresetStandard   PreprocessingPreset = "standard"
	PresetAggressive PreprocessingPreset = "aggressive"
)

// PreprocessingOptions configures the byte-level normalization pass
// (spec §4.B).
type PreprocessingOptions struct {
	Enabled                  bool
	Preset                   PreprocessingPreset
	RemoveNavigation         bool
	RemoveForms              bool
	ExcludedNavigationClasses []string
	ExtraNavigationClasses    []string
	PreserveTags              map[string]bool

	// ExtraNavigationRules holds expr-lang boolean expressions evaluated
	// per-element (against an environment exposing the fields Tag, ID,
	// Class, Role and Classes) to
	// decide whether an element counts as navigation chrome, generalizing
	// the class/role/id allow-deny list for callers who need richer
	// matching than a class list affords. See navrules.go.
	ExtraNavigationRules []string
}

// ConversionOptions is the immutable configuration for a single
// conversion run (spec §4.A, §3). Construct with DefaultOptions and
// override fields; call Validate before use (Convert does this for
// you).
type ConversionOptions struct {
	HeadingStyle HeadingStyle

	ListIndentWidth int
	ListIndentType  ListIndentType
	Bullets         string

	StrongEmSymbol string

	EscapeAsterisks   bool
	EscapeUnderscores bool
	EscapeMisc        bool

	CodeBlockStyle CodeBlockStyle
	CodeLanguage   string

	NewlineStyle NewlineStyle

	Autolinks    bool
	DefaultTitle bool

	HighlightStyle HighlightStyle

	SubSymbol string
	SupSymbol string

	BrInTables bool

	Wrap      bool
	WrapWidth int

	WhitespaceMode WhitespaceMode
	StripNewlines  bool

	ConvertAsInline bool

	// AllowImagesInHeadings controls whether an <img> nested inside a
	// heading renders as Markdown image syntax. Headings otherwise
	// flatten to plain text, so by default an image there contributes
	// only its alt text (spec §4.F/§4.K).
	AllowImagesInHeadings bool

	PreserveTags map[string]bool
	StripTags    map[string]bool

	// Encoding is a hint for the source byte encoding (e.g. "windows-1252").
	// Empty means the charset declared by a <meta> tag near the start of
	// the input is used, or UTF-8 if none is declared. See encoding.go.
	Encoding string

	HOCRSpatialTables bool

	Preprocessing PreprocessingOptions
}

// DefaultOptions returns the documented defaults (spec §4.A).
func DefaultOptions() ConversionOptions {
	return ConversionOptions{
		HeadingStyle:      HeadingATX,
		ListIndentWidth:   2,
		ListIndentType:    IndentSpaces,
		Bullets:           "*+-",
		StrongEmSymbol:    "*",
		EscapeAsterisks:   false,
		EscapeUnderscores: false,
		EscapeMisc:        false,
		CodeBlockStyle:    CodeIndented,
		CodeLanguage:      "",
		NewlineStyle:      NewlineSpaces,
		Autolinks:         false,
		DefaultTitle:      true,
		HighlightStyle:    HighlightDoubleEqual,
		SubSymbol:         "",
		SupSymbol:         "",
		BrInTables:        true,
		Wrap:              false,
		WrapWidth:         80,
		WhitespaceMode:    WhitespaceNormalized,
		StripNewlines:     false,
		ConvertAsInline:   false,
		AllowImagesInHeadings: false,
		PreserveTags:      map[string]bool{},
		StripTags:         map[string]bool{"script": true, "style": true},
		Encoding:          "",
		HOCRSpatialTables: true,
		Preprocessing: PreprocessingOptions{
			Enabled:          true,
			Preset:           PresetStandard,
			RemoveNavigation: true,
			RemoveForms:      false,
			PreserveTags:     map[string]bool{},
		},
	}
}

// Validate checks the options for internal consistency, following the
// same descriptive-error-over-panic convention chtml/checker.go uses for
// shape mismatches (spec §4.A).
func (o *ConversionOptions) Validate() error {
	if o.ListIndentWidth < 1 {
		return &PreprocessingError{Field: "ListIndentWidth", Err: fmt.Errorf("must be >= 1, got %d", o.ListIndentWidth)}
	}
	if o.Bullets == "" {
		return &PreprocessingError{Field: "Bullets", Err: fmt.Errorf("must be non-empty")}
	}
	if o.Wrap && o.WrapWidth < 1 {
		return &PreprocessingError{Field: "WrapWidth", Err: fmt.Errorf("must be >= 1 when Wrap is set, got %d", o.WrapWidth)}
	}
	switch o.HeadingStyle {
	case HeadingATX, HeadingATXClosed, HeadingUnderlined:
	default:
		return invalidEnum("HeadingStyle", string(o.HeadingStyle))
	}
	switch o.ListIndentType {
	case IndentSpaces, IndentTabs:
	default:
		return invalidEnum("ListIndentType", string(o.ListIndentType))
	}
	switch o.CodeBlockStyle {
	case CodeIndented, CodeBackticks, CodeTildes:
	default:
		return invalidEnum("CodeBlockStyle", string(o.CodeBlockStyle))
	}
	switch o.NewlineStyle {
	case NewlineSpaces, NewlineBackslash:
	default:
		return invalidEnum("NewlineStyle", string(o.NewlineStyle))
	}
	switch o.HighlightStyle {
	case HighlightDoubleEqual, HighlightHTML, HighlightBold, HighlightNone:
	default:
		return invalidEnum("HighlightStyle", string(o.HighlightStyle))
	}
	switch o.WhitespaceMode {
	case WhitespaceNormalized, WhitespaceStrict:
	default:
		return invalidEnum("WhitespaceMode", string(o.WhitespaceMode))
	}
	if o.StrongEmSymbol != "*" && o.StrongEmSymbol != "_" {
		return invalidEnum("StrongEmSymbol", o.StrongEmSymbol)
	}
	return nil
}

func invalidEnum(field, got string) error {
	return &PreprocessingError{Field: field, Err: fmt.Errorf("invalid value %q", got)}
}

// closingSymbol mirrors spec §4.A's rule for HTML-tag-shaped sub/sup
// symbols: a value that starts with "<" and not "</" has its closing form
// derived by replacing the first "<" with "</"; otherwise the symbol is
// its own mirror (repeated verbatim as both open and close).
func closingSymbol(sym string) string {
	if len(sym) > 1 && sym[0] == '<' && sym[1] != '/' {
		return "</" + sym[1:]
	}
	return sym
}
