package mdconv

import (
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// convertHOCR implements spec §4.M: the specialized hOCR pipeline taken
// instead of the ordinary walk once the preprocessor's detectHOCR
// heuristic fires. It still goes through the same external HTML parser
// as the ordinary path (spec §4.C); only the walk that follows differs.
func convertHOCR(buf string, opts *ConversionOptions) (string, *Metadata, error) {
	doc, err := parseDocument(buf)
	if err != nil {
		return "", nil, err
	}

	var pairs []ocrMetaPair
	if head := documentHead(doc); head != nil {
		for c := head.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != ElementNode || c.Tag != "meta" {
				continue
			}
			name, ok := c.Get("name")
			if !ok || !strings.HasPrefix(strings.ToLower(name), "ocr-") {
				continue
			}
			content, _ := c.Get("content")
			pairs = append(pairs, ocrMetaPair{
				Key:   strings.TrimPrefix(strings.ToLower(name), "ocr-"),
				Value: content,
			})
		}
	}

	front, err := ocrFrontMatter(pairs)
	if err != nil {
		return "", nil, &ConversionError{Tag: "hocr", Err: err}
	}

	h := &hocrWalker{spatial: opts.HOCRSpatialTables}
	h.walk(documentBody(doc))

	out := front + strings.TrimRight(h.buf.String(), "\n") + "\n"
	return out, nil, nil
}

type ocrMetaPair struct {
	Key   string
	Value string
}

// ocrFrontMatter builds a YAML document from the <meta name="ocr-*">
// pairs using an explicit yaml.Node mapping rather than a plain map, so
// emission order matches source order instead of Go's randomized map
// iteration (spec §6 byte-for-byte output stability).
func ocrFrontMatter(pairs []ocrMetaPair) (string, error) {
	if len(pairs) == 0 {
		return "", nil
	}
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, p := range pairs {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: p.Key},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: p.Value},
		)
	}
	out, err := yaml.Marshal(node)
	if err != nil {
		return "", err
	}
	return "---\n" + string(out) + "---\n\n", nil
}

// hocrWalker renders the ocr_* class hierarchy into plain text,
// reconstructing ocr_table containers spatially (spec §4.M).
type hocrWalker struct {
	spatial bool
	buf     strings.Builder
}

func (h *hocrWalker) walk(n *Node) {
	if n == nil {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		h.visit(c)
	}
}

func (h *hocrWalker) visit(n *Node) {
	if n.Type != ElementNode {
		return
	}
	tokens := splitFields(n.GetDefault("class", ""))

	if h.spatial && hasOCRClass(tokens, "ocr_table") {
		h.renderOCRTable(n)
		return
	}
	if hasOCRClass(tokens, "ocrx_word") {
		h.appendWord(strings.TrimSpace(n.TextContent()))
		return
	}

	h.walk(n)

	switch {
	case hasOCRClass(tokens, "ocr_line"):
		h.ensureNewline()
	case hasOCRClass(tokens, "ocr_par"), hasOCRClass(tokens, "ocr_carea"), hasOCRClass(tokens, "ocr_page"):
		h.ensureBlankLine()
	}
}

func hasOCRClass(tokens []string, want string) bool {
	for _, t := range tokens {
		if t == want {
			return true
		}
	}
	return false
}

// appendWord implements spec §4.M's word-joining rule: a single space
// before each ocrx_word unless the tail is already whitespace or a
// formatting delimiter that shouldn't be followed by a gap.
func (h *hocrWalker) appendWord(word string) {
	if word == "" {
		return
	}
	s := h.buf.String()
	if s != "" {
		tail := s[len(s)-1]
		isSpace := tail == ' ' || tail == '\n' || tail == '\t'
		isOpeningDelim := strings.IndexByte("([{\"'", tail) >= 0
		if !isSpace && !isOpeningDelim {
			h.buf.WriteString(" ")
		}
	}
	h.buf.WriteString(word)
}

func (h *hocrWalker) ensureNewline() {
	s := h.buf.String()
	if s == "" || strings.HasSuffix(s, "\n") {
		return
	}
	h.buf.WriteString("\n")
}

func (h *hocrWalker) ensureBlankLine() {
	s := h.buf.String()
	switch {
	case s == "":
	case strings.HasSuffix(s, "\n\n"):
	case strings.HasSuffix(s, "\n"):
		h.buf.WriteString("\n")
	default:
		h.buf.WriteString("\n\n")
	}
}

type ocrWord struct {
	text           string
	x0, y0, x1, y1 int
}

// collectOCRWords gathers every ocrx_word descendant of an ocr_table
// container along with its bbox, skipping into an ocrx_word subtree
// without descending further (a word never nests another word).
func collectOCRWords(n *Node) []ocrWord {
	var out []ocrWord
	var walk func(*Node)
	walk = func(m *Node) {
		if m.Type == ElementNode {
			if hasOCRClass(splitFields(m.GetDefault("class", "")), "ocrx_word") {
				if x0, y0, x1, y1, ok := parseBBox(m.GetDefault("title", "")); ok {
					if text := strings.TrimSpace(m.TextContent()); text != "" {
						out = append(out, ocrWord{text, x0, y0, x1, y1})
					}
				}
				return
			}
		}
		for c := m.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

// parseBBox extracts the four integers following a "bbox" token from an
// hOCR title attribute, e.g. "bbox 10 20 100 40; x_wconf 96".
func parseBBox(title string) (x0, y0, x1, y1 int, ok bool) {
	idx := strings.Index(title, "bbox")
	if idx < 0 {
		return 0, 0, 0, 0, false
	}
	rest := title[idx+len("bbox"):]
	if semi := strings.IndexByte(rest, ';'); semi >= 0 {
		rest = rest[:semi]
	}
	nums := make([]int, 0, 4)
	for _, f := range strings.Fields(rest) {
		v, err := strconv.Atoi(f)
		if err != nil {
			break
		}
		nums = append(nums, v)
		if len(nums) == 4 {
			break
		}
	}
	if len(nums) < 4 {
		return 0, 0, 0, 0, false
	}
	return nums[0], nums[1], nums[2], nums[3], true
}

// renderOCRTable implements spec §4.M's spatial-table reconstruction:
// cluster words into rows by a line-height-derived threshold, cluster
// those rows' words into columns by a gap-distribution-derived
// threshold, then emit the result as a pipe table.
func (h *hocrWalker) renderOCRTable(n *Node) {
	words := collectOCRWords(n)
	if len(words) == 0 {
		return
	}

	rows := clusterOCRRows(words)
	cols := clusterOCRColumns(rows)
	if len(rows) == 0 || len(cols) == 0 {
		return
	}

	grid := make([][]string, len(rows))
	for ri, row := range rows {
		grid[ri] = make([]string, len(cols))
		for _, w := range row {
			ci := nearestOCRColumn(cols, w.x0)
			if grid[ri][ci] == "" {
				grid[ri][ci] = w.text
			} else {
				grid[ri][ci] += " " + w.text
			}
		}
	}

	widths := make([]int, len(cols))
	for _, r := range grid {
		for c, cell := range r {
			if l := len([]rune(cell)); l > widths[c] {
				widths[c] = l
			}
		}
	}
	for c := range widths {
		if widths[c] < 3 {
			widths[c] = 3
		}
	}

	h.ensureBlankLine()
	h.writeOCRRow(grid[0], widths)
	h.writeOCRSeparator(widths)
	for _, r := range grid[1:] {
		h.writeOCRRow(r, widths)
	}
	h.buf.WriteString("\n")
}

func clusterOCRRows(words []ocrWord) [][]ocrWord {
	sorted := append([]ocrWord(nil), words...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].y0 < sorted[j].y0 })

	heights := make([]int, len(sorted))
	for i, w := range sorted {
		heights[i] = w.y1 - w.y0
	}
	threshold := medianInt(heights) * 6 / 10
	if threshold < 1 {
		threshold = 1
	}

	var rows [][]ocrWord
	var cur []ocrWord
	rowY := -1
	for _, w := range sorted {
		if rowY == -1 || w.y0-rowY > threshold {
			if len(cur) > 0 {
				rows = append(rows, cur)
			}
			cur = []ocrWord{w}
			rowY = w.y0
		} else {
			cur = append(cur, w)
		}
	}
	if len(cur) > 0 {
		rows = append(rows, cur)
	}
	for _, r := range rows {
		sort.SliceStable(r, func(i, j int) bool { return r[i].x0 < r[j].x0 })
	}
	return rows
}

func clusterOCRColumns(rows [][]ocrWord) []int {
	var xs []int
	for _, r := range rows {
		for _, w := range r {
			xs = append(xs, w.x0)
		}
	}
	if len(xs) == 0 {
		return nil
	}
	sort.Ints(xs)

	gaps := make([]int, 0, len(xs)-1)
	for i := 1; i < len(xs); i++ {
		gaps = append(gaps, xs[i]-xs[i-1])
	}
	gapThreshold := medianInt(gaps) * 2
	if gapThreshold < 10 {
		gapThreshold = 10
	}

	cols := []int{xs[0]}
	for i := 1; i < len(xs); i++ {
		if xs[i]-cols[len(cols)-1] > gapThreshold {
			cols = append(cols, xs[i])
		}
	}
	return cols
}

func nearestOCRColumn(cols []int, x0 int) int {
	best, bestDist := 0, -1
	for i, c := range cols {
		d := x0 - c
		if d < 0 {
			d = -d
		}
		if bestDist == -1 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

func medianInt(xs []int) int {
	if len(xs) == 0 {
		return 0
	}
	sorted := append([]int(nil), xs...)
	sort.Ints(sorted)
	return sorted[len(sorted)/2]
}

func (h *hocrWalker) writeOCRRow(cells []string, widths []int) {
	h.buf.WriteString("|")
	for c, cell := range cells {
		h.buf.WriteString(" " + padRight(cell, widths[c]) + " |")
	}
	h.buf.WriteString("\n")
}

func (h *hocrWalker) writeOCRSeparator(widths []int) {
	h.buf.WriteString("|")
	for _, w := range widths {
		h.buf.WriteString(" " + strings.Repeat("-", w) + " |")
	}
	h.buf.WriteString("\n")
}
