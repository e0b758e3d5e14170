package mdconv

import (
	"strconv"
	"strings"
)

// renderTable implements spec §4.I's <table> handler.
func (w *walker) renderTable(n *Node, st WalkState) error {
	if w.opts.PreserveTags["table"] || containsNestedTable(n) {
		w.buf.ensureBlankLineSeparator()
		w.buf.WriteString(serializeHTML(n))
		w.buf.WriteString("\n\n")
		return nil
	}

	grid, trNodes, headerRowIdx, err := w.collectTableRows(n, st)
	if err != nil {
		return err
	}
	if len(grid) == 0 {
		return nil
	}

	numCols := 0
	for _, r := range grid {
		if len(r) > numCols {
			numCols = len(r)
		}
	}
	if numCols == 0 {
		return nil
	}
	for i := range grid {
		for len(grid[i]) < numCols {
			grid[i] = append(grid[i], "")
		}
	}

	var aligns []string
	if headerRowIdx >= 0 && headerRowIdx < len(trNodes) {
		aligns = w.tableAlignments(trNodes[headerRowIdx], numCols)
	} else {
		aligns = make([]string, numCols)
		for i := range aligns {
			aligns[i] = "---"
		}
	}

	widths := make([]int, numCols)
	for _, r := range grid {
		for c, cell := range r {
			if l := len([]rune(cell)); l > widths[c] {
				widths[c] = l
			}
		}
	}
	for c, a := range aligns {
		if len(a) > widths[c] {
			widths[c] = len(a)
		}
	}

	w.buf.ensureBlankLineSeparator()

	if caption := firstElementChildByTag(n, "caption"); caption != nil {
		text, err := w.collectInline(caption, st)
		if err == nil {
			text = strings.TrimSpace(collapseInternalSpaces(text))
			if text != "" {
				w.buf.WriteString("_" + text + "_\n\n")
			}
		}
	}

	if headerRowIdx >= 0 {
		w.emitTableRow(grid[headerRowIdx], widths)
		w.emitTableSeparator(aligns, widths)
		for i, r := range grid {
			if i == headerRowIdx {
				continue
			}
			w.emitTableRow(r, widths)
		}
	} else {
		// CommonMark pipe tables require a header; synthesize an empty
		// one so headerless HTML tables still parse back as tables.
		w.emitTableRow(make([]string, numCols), widths)
		w.emitTableSeparator(aligns, widths)
		for _, r := range grid {
			w.emitTableRow(r, widths)
		}
	}
	w.buf.WriteString("\n")
	return nil
}

// collectTableRows implements spec §4.I steps 1-2: gather rows from
// thead/tbody/tfoot (or bare <tr> children) and expand rowspan/colspan
// into a dense grid, duplicating spanned content rather than blanking it.
func (w *walker) collectTableRows(table *Node, st WalkState) ([][]string, []*Node, int, error) {
	var trNodes []*Node
	theadRows := 0

	collect := func(sec *Node) {
		for _, tr := range sec.ElementChildren() {
			if tr.Tag == "tr" {
				trNodes = append(trNodes, tr)
			}
		}
	}

	var thead, tbody, tfoot *Node
	for _, c := range table.ElementChildren() {
		switch c.Tag {
		case "thead":
			thead = c
		case "tbody":
			tbody = c
		case "tfoot":
			tfoot = c
		}
	}
	if thead != nil {
		collect(thead)
		theadRows = len(trNodes)
	}
	if tbody != nil {
		collect(tbody)
	}
	if tfoot != nil {
		collect(tfoot)
	}
	if thead == nil && tbody == nil && tfoot == nil {
		for _, c := range table.ElementChildren() {
			if c.Tag == "tr" {
				trNodes = append(trNodes, c)
			}
		}
	}

	grid := make([][]string, len(trNodes))
	occupied := make([][]bool, len(trNodes))
	ensureCol := func(r, col int) {
		for len(grid[r]) <= col {
			grid[r] = append(grid[r], "")
			occupied[r] = append(occupied[r], false)
		}
	}

	headerRowIdx := -1
	for ri, tr := range trNodes {
		col := 0
		for _, cell := range tr.ElementChildren() {
			if cell.Tag != "th" && cell.Tag != "td" {
				continue
			}
			if cell.Tag == "th" && headerRowIdx == -1 {
				headerRowIdx = ri
			}
			ensureCol(ri, col)
			for occupied[ri][col] {
				col++
				ensureCol(ri, col)
			}

			rowspan := attrInt(cell, "rowspan", 1)
			colspan := attrInt(cell, "colspan", 1)

			content, err := w.renderTableCell(cell, st)
			if err != nil {
				return nil, nil, -1, err
			}

			for dr := 0; dr < rowspan; dr++ {
				rr := ri + dr
				if rr >= len(trNodes) {
					break
				}
				for dc := 0; dc < colspan; dc++ {
					cc := col + dc
					ensureCol(rr, cc)
					grid[rr][cc] = content
					occupied[rr][cc] = true
				}
			}
			col += colspan
		}
	}

	if headerRowIdx == -1 && theadRows > 0 {
		headerRowIdx = 0
	}

	return grid, trNodes, headerRowIdx, nil
}

// renderTableCell implements spec §4.I step 5.
func (w *walker) renderTableCell(cell *Node, st WalkState) (string, error) {
	raw, err := w.collectInline(cell, st.withTableCell(true))
	if err != nil {
		return "", err
	}
	raw = strings.TrimSpace(raw)
	if w.opts.BrInTables {
		raw = strings.ReplaceAll(raw, "\n", "<br>")
	} else {
		raw = strings.Join(strings.Fields(raw), " ")
	}
	raw = strings.ReplaceAll(raw, "|", "\\|")
	return raw, nil
}

// tableAlignments implements spec §4.I step 4.
func (w *walker) tableAlignments(headerTR *Node, numCols int) []string {
	aligns := make([]string, numCols)
	for i := range aligns {
		aligns[i] = "---"
	}
	col := 0
	for _, cell := range headerTR.ElementChildren() {
		if cell.Tag != "th" && cell.Tag != "td" {
			continue
		}
		colspan := attrInt(cell, "colspan", 1)
		a := cellAlignment(cell)
		for dc := 0; dc < colspan && col+dc < numCols; dc++ {
			aligns[col+dc] = a
		}
		col += colspan
	}
	return aligns
}

func cellAlignment(cell *Node) string {
	align := strings.ToLower(strings.TrimSpace(cell.GetDefault("align", "")))
	if style, ok := cell.Get("style"); ok {
		if v := extractTextAlign(style); v != "" {
			align = v
		}
	}
	switch align {
	case "left":
		return ":---"
	case "right":
		return "---:"
	case "center":
		return ":---:"
	default:
		return "---"
	}
}

func extractTextAlign(style string) string {
	for _, decl := range strings.Split(style, ";") {
		parts := strings.SplitN(decl, ":", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.TrimSpace(strings.ToLower(parts[0])) == "text-align" {
			return strings.ToLower(strings.TrimSpace(parts[1]))
		}
	}
	return ""
}

// emitTableRow and emitTableSeparator implement spec §4.I step 6: pipe
// rows padded to each column's widest cell.
func (w *walker) emitTableRow(cells []string, widths []int) {
	w.buf.WriteString("|")
	for c, cell := range cells {
		w.buf.WriteString(" " + padRight(cell, widths[c]) + " |")
	}
	w.buf.WriteString("\n")
}

func (w *walker) emitTableSeparator(aligns []string, widths []int) {
	w.buf.WriteString("|")
	for c, a := range aligns {
		w.buf.WriteString(" " + padAlign(a, widths[c]) + " |")
	}
	w.buf.WriteString("\n")
}

func padRight(s string, width int) string {
	n := width - len([]rune(s))
	if n <= 0 {
		return s
	}
	return s + strings.Repeat(" ", n)
}

func padAlign(a string, width int) string {
	if len(a) >= width {
		return a
	}
	switch {
	case strings.HasPrefix(a, ":") && strings.HasSuffix(a, ":"):
		return ":" + strings.Repeat("-", width-2) + ":"
	case strings.HasPrefix(a, ":"):
		return ":" + strings.Repeat("-", width-1)
	case strings.HasSuffix(a, ":"):
		return strings.Repeat("-", width-1) + ":"
	default:
		return strings.Repeat("-", width)
	}
}

func attrInt(n *Node, name string, def int) int {
	v, ok := n.Get(name)
	if !ok {
		return def
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || i < 1 {
		return def
	}
	return i
}

func containsNestedTable(n *Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == ElementNode {
			if c.Tag == "table" {
				return true
			}
			if containsNestedTable(c) {
				return true
			}
		}
	}
	return false
}

func firstElementChildByTag(n *Node, tag string) *Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == ElementNode && c.Tag == tag {
			return c
		}
	}
	return nil
}
