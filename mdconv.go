// Package mdconv converts parsed HTML documents into CommonMark-
// compliant Markdown text. It walks a node tree produced by an
// external HTML tokenizer (golang.org/x/net/html), threading a small
// piece of mutable traversal state down the recursion while dispatching
// each tag to a stateless handler by its normalized tag name.
package mdconv

import (
	"io"
	"log/slog"
)

// InlineImageConfig configures the inline-image extractor (spec §4.K).
type InlineImageConfig struct {
	// FilenamePrefix is prepended to the sequential number assigned to
	// each extracted image, e.g. "image-" -> "image-1.png".
	FilenamePrefix string

	// MaxDecodedSizeBytes caps the decoded payload size of a data: URI
	// image. Zero means unlimited.
	MaxDecodedSizeBytes int64

	// CaptureSVG enables extraction of inline <svg> elements as their
	// own image records.
	CaptureSVG bool
}

// Driver is the entry point for running conversions. Its zero value is
// ready to use; set Logger to receive structured diagnostics.
type Driver struct {
	// Logger receives structured warnings about absorbed conditions
	// (oversized images, undecodable data URIs). Defaults to a
	// discarding logger, matching pages.Handler's convention.
	Logger *slog.Logger
}

func (d *Driver) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// runResult collects everything a conversion can produce; individual
// entry points below pick the fields they advertise.
type runResult struct {
	markdown string
	images   []InlineImage
	warnings []Warning
	meta     *Metadata
}

// Convert renders html to Markdown using opts (spec §6).
func Convert(html string, opts ConversionOptions) (string, error) {
	var d Driver
	res, err := d.run(html, opts, nil, false, false)
	return res.markdown, err
}

// ConvertWithInlineImages renders html to Markdown, additionally
// extracting data: URI images (and, if enabled, inline SVG) into the
// returned InlineImage slice, with any non-fatal problems reported as
// Warnings (spec §4.K, §6).
func (d *Driver) ConvertWithInlineImages(html string, opts ConversionOptions, imgCfg InlineImageConfig) (string, []InlineImage, []Warning, error) {
	res, err := d.run(html, opts, &imgCfg, true, false)
	return res.markdown, res.images, res.warnings, err
}

// ConvertWithMetadata renders html to Markdown, additionally collecting
// document/heading/link/image metadata (spec §4.L, §6).
func (d *Driver) ConvertWithMetadata(html string, opts ConversionOptions) (string, Metadata, error) {
	res, err := d.run(html, opts, nil, false, true)
	meta := Metadata{}
	if res.meta != nil {
		meta = *res.meta
	}
	return res.markdown, meta, err
}

// ConvertWithInlineImages is the package-level convenience form of
// (*Driver).ConvertWithInlineImages using default logging.
func ConvertWithInlineImages(html string, opts ConversionOptions, imgCfg InlineImageConfig) (string, []InlineImage, []Warning, error) {
	var d Driver
	return d.ConvertWithInlineImages(html, opts, imgCfg)
}

// ConvertWithMetadata is the package-level convenience form of
// (*Driver).ConvertWithMetadata using default logging.
func ConvertWithMetadata(html string, opts ConversionOptions) (string, Metadata, error) {
	var d Driver
	return d.ConvertWithMetadata(html, opts)
}

func (d *Driver) run(htmlInput string, opts ConversionOptions, imgCfg *InlineImageConfig, wantImages, wantMeta bool) (runResult, error) {
	if err := opts.Validate(); err != nil {
		return runResult{}, err
	}

	raw := []byte(htmlInput)
	hint := opts.Encoding
	if hint == "" {
		hint = detectEncodingHint(raw)
	}
	decoded, err := decodeInput(raw, hint)
	if err != nil {
		return runResult{}, err
	}

	pre, err := preprocess(decoded, &opts)
	if err != nil {
		return runResult{}, err
	}

	if pre.IsHOCR {
		out, meta, err := convertHOCR(pre.Buffer, &opts)
		if err != nil {
			return runResult{}, err
		}
		return runResult{markdown: postProcess(out), meta: meta}, nil
	}

	doc, err := parseDocument(pre.Buffer)
	if err != nil {
		return runResult{}, err
	}

	dom := newDomContext()
	w := &walker{
		opts:   &opts,
		dom:    dom,
		buf:    &outputBuffer{},
		logger: d.logger(),
	}
	if wantImages {
		w.images = newImageCollector(imgCfg)
	}
	if wantMeta {
		w.meta = newMetadataCollector()
	}

	body := documentBody(doc)
	if w.meta != nil {
		if head := documentHead(doc); head != nil {
			w.meta.collectHead(head)
		}
		if htmlEl := documentHTML(doc); htmlEl != nil {
			w.meta.collectLanguage(htmlEl)
		}
	}

	st := newWalkState(&opts)
	if err := w.walkChildren(body, st); err != nil {
		return runResult{}, err
	}

	res := runResult{markdown: postProcess(w.buf.String())}
	if w.images != nil {
		res.images = w.images.images
		res.warnings = append(res.warnings, w.images.warnings...)
	}
	res.warnings = append(res.warnings, w.warnings...)
	for _, wn := range res.warnings {
		w.logger.Warn("mdconv: absorbed conversion warning", "kind", string(wn.Kind), "message", wn.Message)
	}
	if w.meta != nil {
		m := w.meta.result()
		res.meta = &m
	}
	return res, nil
}
