package mdconv

import (
	"bytes"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// legalTagOpen matches a span of text that looks like a legal HTML
// construct start: an element tag, a closing tag, a comment, a DOCTYPE,
// or a processing instruction. Anything else starting with '<' is a bare
// bracket that must be escaped (spec §4.B step 2).
var legalTagOpen = regexp.MustCompile(`(?is)<(?:!--.*?-->|!doctype[^>]*>|\?[^>]*\?>|/?[a-zA-Z][^<>]*>)`)

var doctypeRe = regexp.MustCompile(`(?is)<!doctype[^>]*>`)

var scriptRe = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script\s*>`)
var styleRe = regexp.MustCompile(`(?is)<style\b[^>]*>.*?</style\s*>`)

var selfClosingRe = regexp.MustCompile(`(?is)<([a-zA-Z][a-zA-Z0-9]*)((?:\s[^<>]*)?)/>`)

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// preprocessResult is the output of the preprocessor: a parser-safe
// buffer plus a hint about whether the hOCR branch should run (spec
// §4.B, §4.E step 2).
type preprocessResult struct {
	Buffer  string
	IsHOCR  bool
}

// preprocess runs the full pipeline described in spec §4.B over raw
// input and returns an owned buffer ready for the real parse (§4.C).
func preprocess(raw string, opts *ConversionOptions) (preprocessResult, error) {
	buf := raw

	buf = doctypeRe.ReplaceAllString(buf, "")
	buf = repairBrackets(buf)
	buf = normalizeSelfClosing(buf)
	buf = scriptRe.ReplaceAllString(buf, "")
	buf = styleRe.ReplaceAllString(buf, "")

	if opts.Preprocessing.Enabled {
		sanitized, err := sanitizeHTML(buf, opts)
		if err != nil {
			return preprocessResult{}, &PreprocessingError{Err: err}
		}
		buf = sanitized
	}

	return preprocessResult{
		Buffer: buf,
		IsHOCR: detectHOCR(buf),
	}, nil
}

// repairBrackets escapes any '<' or '>' that does not participate in a
// well-formed tag/comment/doctype construct, per spec §4.B step 2. It
// must not drop any text following a bad bracket.
func repairBrackets(s string) string {
	matches := legalTagOpen.FindAllStringIndex(s, -1)
	if matches == nil {
		return escapeStrayBrackets(s)
	}
	var b strings.Builder
	pos := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		if start < pos {
			// Overlap with a previous match (shouldn't normally happen
			// given the regex is anchored at '<'); skip.
			continue
		}
		b.WriteString(escapeStrayBrackets(s[pos:start]))
		b.WriteString(s[start:end])
		pos = end
	}
	b.WriteString(escapeStrayBrackets(s[pos:]))
	return b.String()
}

func escapeStrayBrackets(s string) string {
	if !strings.ContainsAny(s, "<>") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// normalizeSelfClosing rewrites XHTML-style self-closing non-void
// elements (e.g. "<div/>") into paired tags, per spec §4.B step 3.
func normalizeSelfClosing(s string) string {
	return selfClosingRe.ReplaceAllStringFunc(s, func(m string) string {
		sub := selfClosingRe.FindStringSubmatch(m)
		tag, attrs := sub[1], sub[2]
		if voidElements[strings.ToLower(tag)] {
			return m
		}
		return "<" + tag + attrs + "></" + tag + ">"
	})
}

// detectHOCR matches spec §4.E step 2: presence of ocr_* classes or
// <meta name="ocr-*"> tags.
var hocrClassRe = regexp.MustCompile(`(?i)class\s*=\s*["'][^"']*\bocr(?:_|x_)[a-z]+\b`)
var hocrMetaRe = regexp.MustCompile(`(?i)<meta[^>]+name\s*=\s*["']ocr-[a-z]+["']`)

func detectHOCR(s string) bool {
	return hocrClassRe.MatchString(s) || hocrMetaRe.MatchString(s)
}

// sanitizeHTML parses buf, removes disallowed elements/attributes and
// navigation chrome per the active preset, and re-serializes the
// result. It round-trips through the external parser internally (spec
// §4.B step 5-7) because the allow-list and navigation heuristics need
// structural context a byte-level pass cannot see; the output is handed
// to the real parse step (§4.C) as a fresh buffer, same as any other
// preprocessing transform.
func sanitizeHTML(buf string, opts *ConversionOptions) (string, error) {
	doc, err := html.Parse(strings.NewReader(buf))
	if err != nil {
		return "", err
	}

	rules, err := compileNavRules(opts.Preprocessing.ExtraNavigationRules)
	if err != nil {
		return "", err
	}

	allowedTags, allowedAttrs := presetAllowLists(opts.Preprocessing.Preset)
	for t := range opts.Preprocessing.PreserveTags {
		allowedTags[t] = true
	}
	for t := range opts.PreserveTags {
		allowedTags[t] = true
	}

	s := &sanitizer{
		opts:        opts,
		allowedTags: allowedTags,
		allowedAttr: allowedAttrs,
		navRules:    rules,
		permissive:  opts.Preprocessing.Preset == PresetMinimal,
	}
	s.walk(doc)

	var out bytes.Buffer
	if err := html.Render(&out, doc); err != nil {
		return "", err
	}
	return out.String(), nil
}

type sanitizer struct {
	opts        *ConversionOptions
	allowedTags map[string]bool
	allowedAttr map[string]bool
	navRules    *compiledNavRules
	// permissive disables the tag allow-list gate entirely (the
	// "minimal" preset only performs structural cleanup and navigation
	// stripping, no tag filtering).
	permissive bool
}

func (s *sanitizer) walk(n *html.Node) {
	child := n.FirstChild
	for child != nil {
		next := child.NextSibling
		s.visit(n, child)
		child = next
	}
}

func (s *sanitizer) visit(parent, n *html.Node) {
	if n.Type != html.ElementNode {
		s.walk(n)
		return
	}
	tag := strings.ToLower(n.Data)

	if s.opts.Preprocessing.RemoveForms && tag == "form" {
		s.extractCheckboxes(parent, n)
		parent.RemoveChild(n)
		return
	}
	if s.opts.Preprocessing.RemoveNavigation && s.isNavigationChrome(n, tag) {
		parent.RemoveChild(n)
		return
	}
	if !s.permissive && !s.allowedTags[tag] && !voidElements[tag] && !svgElements[tag] {
		// Unknown/disallowed elements become transparent: descend first
		// so content survives, then unwrap the tag itself.
		s.walk(n)
		reparentChildren(parent, n)
		parent.RemoveChild(n)
		return
	}

	s.filterAttrs(n, tag)
	s.walk(n)
}

// extractCheckboxes hoists <input type="checkbox"> descendants of a
// form being removed out to just before the form, preserving task-list
// rendering (spec §4.B step 7).
func (s *sanitizer) extractCheckboxes(parent, form *html.Node) {
	var boxes []*html.Node
	var find func(*html.Node)
	find = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && strings.ToLower(c.Data) == "input" {
				if isCheckbox(c) {
					boxes = append(boxes, c)
					continue
				}
			}
			find(c)
		}
	}
	find(form)
	for _, b := range boxes {
		if b.Parent != nil {
			b.Parent.RemoveChild(b)
		}
		parent.InsertBefore(b, form)
	}
}

func isCheckbox(n *html.Node) bool {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, "type") && strings.EqualFold(a.Val, "checkbox") {
			return true
		}
	}
	return false
}

func reparentChildren(dst, src *html.Node) {
	for {
		c := src.FirstChild
		if c == nil {
			break
		}
		src.RemoveChild(c)
		dst.InsertBefore(c, src)
	}
}

var defaultNavClasses = map[string]bool{
	"nav": true, "navbar": true, "navigation": true, "menu": true,
	"breadcrumb": true, "breadcrumbs": true, "sidebar": true,
	"site-header": true, "site-footer": true, "skip-link": true,
	"pagination": true, "toc": true,
}

func (s *sanitizer) isNavigationChrome(n *html.Node, tag string) bool {
	if tag == "html" || tag == "head" || tag == "body" {
		return false
	}
	if tag == "nav" || tag == "aside" {
		return true
	}

	var id, class, role string
	for _, a := range n.Attr {
		switch strings.ToLower(a.Key) {
		case "id":
			id = a.Val
		case "class":
			class = a.Val
		case "role":
			role = a.Val
		}
	}

	if strings.EqualFold(role, "navigation") || strings.EqualFold(role, "banner") && tag != "header" {
		return true
	}

	excluded := map[string]bool{}
	for _, c := range s.opts.Preprocessing.ExcludedNavigationClasses {
		excluded[c] = true
	}
	extra := map[string]bool{}
	for _, c := range s.opts.Preprocessing.ExtraNavigationClasses {
		extra[c] = true
	}

	hasNavClass := false
	for _, tok := range splitFields(class) {
		if excluded[tok] {
			continue
		}
		if defaultNavClasses[tok] || extra[tok] {
			hasNavClass = true
			break
		}
	}
	hasNavID := false
	for tok := range defaultNavClasses {
		if strings.Contains(strings.ToLower(id), tok) {
			hasNavID = true
			break
		}
	}

	if tag == "footer" {
		return hasNavClass || hasNavID || strings.EqualFold(role, "navigation")
	}

	if s.navRules.matches(navRuleEnvFor(tag, id, class, role)) {
		return true
	}

	return hasNavClass
}

func (s *sanitizer) filterAttrs(n *html.Node, tag string) {
	out := n.Attr[:0]
	for _, a := range n.Attr {
		key := strings.ToLower(a.Key)
		if s.allowedAttr[key] || svgAttrs[key] {
			if key == "href" || key == "src" {
				if !schemeAllowed(a.Val) {
					continue
				}
			}
			out = append(out, a)
			continue
		}
	}
	n.Attr = out
}

func schemeAllowed(v string) bool {
	v = strings.TrimSpace(strings.ToLower(v))
	switch {
	case strings.HasPrefix(v, "http://"), strings.HasPrefix(v, "https://"),
		strings.HasPrefix(v, "mailto:"), strings.HasPrefix(v, "data:"),
		strings.HasPrefix(v, "#"), !strings.Contains(v, ":"):
		return true
	default:
		return false
	}
}

var svgElements = map[string]bool{
	"svg": true, "path": true, "circle": true, "rect": true, "line": true,
	"polygon": true, "polyline": true, "g": true, "text": true, "defs": true,
	"use": true, "title": true,
}

var svgAttrs = map[string]bool{
	"viewbox": true, "cx": true, "cy": true, "r": true, "x": true, "y": true,
	"d": true, "fill": true, "stroke": true, "points": true, "xmlns": true,
	"width": true, "height": true,
}

// presetAllowLists returns the tag/attribute allow-lists for a preset
// (spec §4.A, §4.B step 5). "minimal" is permissive (structural cleanup
// only); "standard" removes interactive chrome; "aggressive" keeps only
// core content-formatting tags.
func presetAllowLists(preset PreprocessingPreset) (tags, attrs map[string]bool) {
	commonAttrs := map[string]bool{
		"class": true, "name": true, "content": true, "type": true,
		"checked": true, "id": true, "style": true, "title": true,
		"href": true, "src": true, "alt": true, "rel": true, "target": true,
		"colspan": true, "rowspan": true, "align": true, "start": true,
		"lang": true, "datetime": true, "cite": true,
		"width": true, "height": true, "role": true, "property": true,
	}

	contentTags := []string{
		"html", "head", "body", "title", "meta", "link",
		"h1", "h2", "h3", "h4", "h5", "h6", "p", "div", "span", "br", "hr",
		"strong", "b", "em", "i", "code", "pre", "kbd", "samp", "mark",
		"del", "s", "ins", "u", "sub", "sup", "a", "img", "figure", "figcaption",
		"ul", "ol", "li", "dl", "dt", "dd",
		"table", "thead", "tbody", "tfoot", "tr", "th", "td", "caption",
		"blockquote", "q", "ruby", "rb", "rt", "rp", "rtc",
		"input", "label", "footer", "header", "section", "article", "main",
	}

	switch preset {
	case PresetMinimal:
		return map[string]bool{}, commonAttrs // empty allow-list; sanitizeHTML sets permissive for this preset, which skips the tag gate
	case PresetAggressive:
		t := map[string]bool{}
		for _, tag := range contentTags {
			switch tag {
			case "header", "footer", "section", "article", "main", "span", "div", "label", "input":
				continue
			}
			t[tag] = true
		}
		return t, commonAttrs
	default: // standard
		t := map[string]bool{}
		for _, tag := range contentTags {
			t[tag] = true
		}
		return t, commonAttrs
	}
}
