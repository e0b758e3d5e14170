package mdconv

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"strings"
)

// InlineImage records one image extracted from a data: URI or captured
// <svg> element during a conversion (spec glossary: InlineImage).
type InlineImage struct {
	Filename string
	Content  []byte
	MIME     string
	Alt      string
	Title    string

	// Width/Height are non-zero only when format_inferred_dimensions
	// succeeded (spec §4.K).
	Width  int
	Height int
}

// imageCollector implements spec §4.K, numbering extracted images
// sequentially per conversion under a configurable filename prefix.
type imageCollector struct {
	cfg      *InlineImageConfig
	images   []InlineImage
	warnings []Warning
	counter  int
}

func newImageCollector(cfg *InlineImageConfig) *imageCollector {
	if cfg == nil {
		cfg = &InlineImageConfig{}
	}
	return &imageCollector{cfg: cfg}
}

// renderImg implements spec §4.K's <img> handler.
func (w *walker) renderImg(n *Node, st WalkState) error {
	src, _ := n.Get("src")
	alt, _ := n.Get("alt")
	title, hasTitle := n.Get("title")

	if st.InHeading && !st.HeadingAllowInlineImages {
		w.buf.WriteString(alt)
		return nil
	}

	if w.images != nil && strings.HasPrefix(strings.ToLower(src), "data:image/") {
		if filename, ok := w.images.extract(src, alt, title); ok {
			w.writeImageMarkdown(filename, alt, title, true)
			return nil
		}
		w.buf.WriteString(serializeHTML(n))
		return nil
	}

	w.writeImageMarkdown(src, alt, title, hasTitle)
	return nil
}

// renderSVG implements spec §4.K's inline <svg> capture path.
func (w *walker) renderSVG(n *Node, st WalkState) error {
	if w.images == nil || !w.images.cfg.CaptureSVG {
		w.buf.WriteString(serializeHTML(n))
		return nil
	}

	svgText, err := serializeSVG(n)
	if err != nil {
		w.warnings = append(w.warnings, Warning{Kind: WarnRejectedSVG, Message: err.Error()})
		w.buf.WriteString(serializeHTML(n))
		return nil
	}

	w.images.counter++
	filename := fmt.Sprintf("%s%d.svg", w.images.cfg.FilenamePrefix, w.images.counter)
	alt, _ := n.Get("aria-label")
	title, hasTitle := n.Get("title")
	w.images.images = append(w.images.images, InlineImage{
		Filename: filename,
		Content:  []byte(svgText),
		MIME:     "image/svg+xml",
		Alt:      alt,
		Title:    title,
	})
	w.writeImageMarkdown(filename, alt, title, hasTitle)
	return nil
}

func (w *walker) writeImageMarkdown(src, alt, title string, hasTitle bool) {
	w.buf.WriteString("![" + escapeLinkLabelBrackets(alt) + "](" + escapeLinkHref(src))
	if hasTitle && title != "" {
		w.buf.WriteString(` "` + strings.ReplaceAll(title, `"`, `\"`) + `"`)
	}
	w.buf.WriteString(")")
}

// extract implements spec §4.K's decode/validate/infer/store pipeline
// for a single data:image/...;base64,... source, recording a Warning
// and reporting failure rather than aborting the conversion.
func (ic *imageCollector) extract(src, alt, title string) (string, bool) {
	mime, payload, ok := parseDataURI(src)
	if !ok {
		ic.warnings = append(ic.warnings, Warning{Kind: WarnUndecodableDataURI, Message: "malformed data URI"})
		return "", false
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		if raw, rawErr := base64.RawStdEncoding.DecodeString(payload); rawErr == nil {
			data, err = raw, nil
		}
	}
	if err != nil {
		ic.warnings = append(ic.warnings, Warning{Kind: WarnUndecodableDataURI, Message: err.Error()})
		return "", false
	}

	if ic.cfg.MaxDecodedSizeBytes > 0 && int64(len(data)) > ic.cfg.MaxDecodedSizeBytes {
		ic.warnings = append(ic.warnings, Warning{
			Kind:    WarnOversizedImage,
			Message: fmt.Sprintf("decoded image of %d bytes exceeds limit of %d", len(data), ic.cfg.MaxDecodedSizeBytes),
		})
		return "", false
	}

	ext := extensionForMIME(mime)
	ic.counter++
	filename := fmt.Sprintf("%s%d.%s", ic.cfg.FilenamePrefix, ic.counter, ext)
	width, height, _ := inferDimensions(ext, data)

	ic.images = append(ic.images, InlineImage{
		Filename: filename,
		Content:  data,
		MIME:     mime,
		Alt:      alt,
		Title:    title,
		Width:    width,
		Height:   height,
	})
	return filename, true
}

func parseDataURI(s string) (mime, payload string, ok bool) {
	if !strings.HasPrefix(s, "data:") {
		return "", "", false
	}
	rest := s[len("data:"):]
	comma := strings.IndexByte(rest, ',')
	if comma < 0 {
		return "", "", false
	}
	header, body := rest[:comma], rest[comma+1:]

	isBase64 := false
	parts := strings.Split(header, ";")
	for _, p := range parts[1:] {
		if p == "base64" {
			isBase64 = true
		}
	}
	if !isBase64 {
		return "", "", false
	}
	return parts[0], body, true
}

func extensionForMIME(mime string) string {
	switch strings.ToLower(mime) {
	case "image/png":
		return "png"
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	case "image/svg+xml":
		return "svg"
	case "image/bmp":
		return "bmp"
	default:
		if i := strings.LastIndex(mime, "/"); i >= 0 && i+1 < len(mime) {
			return mime[i+1:]
		}
		return "bin"
	}
}

// inferDimensions implements spec §4.K's optional width/height
// inference from raw bytes for the three formats it names.
func inferDimensions(ext string, data []byte) (width, height int, ok bool) {
	switch ext {
	case "png":
		return inferPNGDimensions(data)
	case "gif":
		return inferGIFDimensions(data)
	case "jpg", "jpeg":
		return inferJPEGDimensions(data)
	}
	return 0, 0, false
}

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func inferPNGDimensions(data []byte) (int, int, bool) {
	if len(data) < 24 || !bytes.Equal(data[:8], pngSignature) {
		return 0, 0, false
	}
	w := int(binary.BigEndian.Uint32(data[16:20]))
	h := int(binary.BigEndian.Uint32(data[20:24]))
	return w, h, true
}

func inferGIFDimensions(data []byte) (int, int, bool) {
	if len(data) < 10 || string(data[:3]) != "GIF" {
		return 0, 0, false
	}
	w := int(binary.LittleEndian.Uint16(data[6:8]))
	h := int(binary.LittleEndian.Uint16(data[8:10]))
	return w, h, true
}

// inferJPEGDimensions scans JFIF segment markers for the first SOF
// marker carrying the frame's pixel dimensions.
func inferJPEGDimensions(data []byte) (int, int, bool) {
	if len(data) < 4 || data[0] != 0xFF || data[1] != 0xD8 {
		return 0, 0, false
	}
	i := 2
	for i+9 < len(data) {
		if data[i] != 0xFF {
			i++
			continue
		}
		marker := data[i+1]
		if marker == 0x01 || (marker >= 0xD0 && marker <= 0xD7) {
			i += 2
			continue
		}
		if marker == 0xD9 {
			break
		}
		segLen := int(data[i+2])<<8 | int(data[i+3])
		isSOF := marker >= 0xC0 && marker <= 0xCF && marker != 0xC4 && marker != 0xC8 && marker != 0xCC
		if isSOF {
			if i+9 > len(data) {
				return 0, 0, false
			}
			h := int(data[i+5])<<8 | int(data[i+6])
			w := int(data[i+7])<<8 | int(data[i+8])
			return w, h, true
		}
		i += 2 + segLen
	}
	return 0, 0, false
}
