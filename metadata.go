package mdconv

import "strings"

// Metadata is the side-channel record built by metadataCollector across a
// single conversion (spec §3, §4.L).
type Metadata struct {
	Document DocumentMetadata
	Headers  []HeaderMetadata
	Links    []LinkMetadata
	Images   []ImageMetadata
}

type DocumentMetadata struct {
	Title        string
	Description  string
	Author       string
	Keywords     []string
	Language     string
	CanonicalURL string
	OpenGraph    map[string]string
	TwitterCard  map[string]string
}

type HeaderMetadata struct {
	Level int
	Text  string
	ID    string
}

// LinkKind classifies a LinkMetadata entry's href (spec §4.L).
type LinkKind string

const (
	LinkExternal LinkKind = "external"
	LinkInternal LinkKind = "internal"
	LinkAnchor   LinkKind = "anchor"
	LinkEmail    LinkKind = "email"
)

type LinkMetadata struct {
	Href  string
	Text  string
	Title string
	Rel   []string
	Kind  LinkKind
}

// ImageKind classifies an ImageMetadata entry's src (spec §4.L).
type ImageKind string

const (
	ImageExternal ImageKind = "external"
	ImageDataURI  ImageKind = "data_uri"
	ImageLocal    ImageKind = "local"
)

type ImageMetadata struct {
	Src    string
	Alt    string
	Title  string
	Width  int
	Height int
	Kind   ImageKind
}

// metadataCollector implements spec §4.L, observing elements as the
// walker visits them and preserving source order for headers/links.
type metadataCollector struct {
	doc     DocumentMetadata
	headers []HeaderMetadata
	links   []LinkMetadata
	images  []ImageMetadata
}

func newMetadataCollector() *metadataCollector {
	return &metadataCollector{
		doc: DocumentMetadata{
			OpenGraph:   map[string]string{},
			TwitterCard: map[string]string{},
		},
	}
}

// collectHead scans <head>'s direct <title>/<meta> children for document
// metadata, before the body walk begins.
func (mc *metadataCollector) collectHead(head *Node) {
	for c := head.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != ElementNode {
			continue
		}
		switch c.Tag {
		case "title":
			mc.doc.Title = strings.TrimSpace(c.TextContent())
		case "meta":
			mc.collectMeta(c)
		case "link":
			if rel, _ := c.Get("rel"); strings.EqualFold(rel, "canonical") {
				mc.doc.CanonicalURL, _ = c.Get("href")
			}
		}
	}
}

// collectLanguage reads the lang attribute off the document's <html>
// root, which sits outside both the <head> scan and the body-only walk.
func (mc *metadataCollector) collectLanguage(htmlEl *Node) {
	if lang, ok := htmlEl.Get("lang"); ok {
		mc.doc.Language = lang
	}
}

func (mc *metadataCollector) collectMeta(n *Node) {
	content, _ := n.Get("content")
	if name, ok := n.Get("name"); ok {
		switch strings.ToLower(name) {
		case "description":
			mc.doc.Description = content
		case "author":
			mc.doc.Author = content
		case "keywords":
			mc.doc.Keywords = splitKeywords(content)
		}
		return
	}
	if property, ok := n.Get("property"); ok {
		key := strings.ToLower(property)
		switch {
		case strings.HasPrefix(key, "og:"):
			mc.doc.OpenGraph[strings.TrimPrefix(key, "og:")] = content
		case strings.HasPrefix(key, "twitter:"):
			mc.doc.TwitterCard[strings.TrimPrefix(key, "twitter:")] = content
		}
	}
	if name, ok := n.Get("name"); ok && strings.HasPrefix(strings.ToLower(name), "twitter:") {
		mc.doc.TwitterCard[strings.TrimPrefix(strings.ToLower(name), "twitter:")] = content
	}
}

func splitKeywords(s string) []string {
	var out []string
	for _, k := range strings.Split(s, ",") {
		if t := strings.TrimSpace(k); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// observe is called from walk.go for every dispatched element, letting
// the collector pick out headings/links/images as they're encountered
// in document order.
func (mc *metadataCollector) observe(tag string, n *Node) {
	switch {
	case len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6':
		mc.observeHeading(int(tag[1]-'0'), n)
	case tag == "a":
		mc.observeLink(n)
	case tag == "img":
		mc.observeImage(n)
	}
}

func (mc *metadataCollector) observeHeading(level int, n *Node) {
	id, _ := n.Get("id")
	mc.headers = append(mc.headers, HeaderMetadata{
		Level: level,
		Text:  strings.TrimSpace(collapseInternalSpaces(n.TextContent())),
		ID:    id,
	})
}

func (mc *metadataCollector) observeLink(n *Node) {
	href, _ := n.Get("href")
	title, _ := n.Get("title")
	rel := splitFields(n.GetDefault("rel", ""))
	mc.links = append(mc.links, LinkMetadata{
		Href:  href,
		Text:  strings.TrimSpace(collapseInternalSpaces(n.TextContent())),
		Title: title,
		Rel:   rel,
		Kind:  linkKind(href),
	})
}

func linkKind(href string) LinkKind {
	switch {
	case strings.HasPrefix(href, "http://"), strings.HasPrefix(href, "https://"):
		return LinkExternal
	case strings.HasPrefix(href, "mailto:"):
		return LinkEmail
	case strings.HasPrefix(href, "#"):
		return LinkAnchor
	default:
		return LinkInternal
	}
}

func (mc *metadataCollector) observeImage(n *Node) {
	src, _ := n.Get("src")
	alt, _ := n.Get("alt")
	title, _ := n.Get("title")
	img := ImageMetadata{Src: src, Alt: alt, Title: title, Kind: imageKind(src)}
	if w, ok := n.Get("width"); ok {
		img.Width = atoiDefault(w, 0)
	}
	if h, ok := n.Get("height"); ok {
		img.Height = atoiDefault(h, 0)
	}
	mc.images = append(mc.images, img)
}

func imageKind(src string) ImageKind {
	switch {
	case strings.HasPrefix(src, "data:"):
		return ImageDataURI
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"), strings.HasPrefix(src, "//"):
		return ImageExternal
	default:
		return ImageLocal
	}
}

func atoiDefault(s string, def int) int {
	n := 0
	for _, r := range strings.TrimSpace(s) {
		if r < '0' || r > '9' {
			return def
		}
		n = n*10 + int(r-'0')
	}
	if n == 0 && s == "" {
		return def
	}
	return n
}

func (mc *metadataCollector) result() Metadata {
	return Metadata{
		Document: mc.doc,
		Headers:  mc.headers,
		Links:    mc.links,
		Images:   mc.images,
	}
}
