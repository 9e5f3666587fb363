package geometry

import (
	"math"
	"sort"
	"strings"
)

// glyph is one positioned character, already flipped to top-down coordinates.
// Top is the baseline's distance from the top of the page.
type glyph struct {
	X, Top, W, Size float64
	S               string
}

func (g glyph) centerX() float64 { return g.X + g.W/2 }

// centerY sits inside the glyph box rather than on the baseline.
func (g glyph) centerY() float64 { return g.Top - g.Size/3 }

// ruling is a thin filled rectangle, in top-down coordinates.
type ruling struct {
	Top, Left, Bottom, Right float64
}

const (
	lineNudge     = 1.5
	rulingMaxThin = 2.0
	rulingMinLen  = 10.0
	edgeMerge     = 2.0
)

// layoutTable builds the rows of one region from the glyphs and rulings of a page.
func layoutTable(glyphs []glyph, rulings []ruling, region Region) ([]Row, error) {
	inside := glyphs[:0:0]
	for _, g := range glyphs {
		if region.Area == nil || region.Area.contains(g.centerX(), g.centerY()) {
			inside = append(inside, g)
		}
	}
	if region.Mode == Lattice {
		return latticeRows(inside, rulings, region.Area)
	}
	return streamRows(inside, region.Columns), nil
}

// groupLines sorts glyphs top to bottom and splits them into text lines.
// Glyphs whose baselines differ by less than lineNudge share a line.
func groupLines(glyphs []glyph) [][]glyph {
	sorted := append([]glyph(nil), glyphs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Top != sorted[j].Top {
			return sorted[i].Top < sorted[j].Top
		}
		return sorted[i].X < sorted[j].X
	})

	var lines [][]glyph
	lineTop := math.Inf(-1)
	for _, g := range sorted {
		if len(lines) == 0 || g.Top-lineTop >= lineNudge {
			lines = append(lines, nil)
			lineTop = g.Top
		}
		lines[len(lines)-1] = append(lines[len(lines)-1], g)
	}
	for _, line := range lines {
		sort.SliceStable(line, func(i, j int) bool { return line[i].X < line[j].X })
	}
	return lines
}

// joinGlyphs concatenates glyphs of one cell on one line. A gap wider than a
// sixth of the font size becomes a space.
func joinGlyphs(glyphs []glyph) string {
	var b strings.Builder
	var end float64
	for i, g := range glyphs {
		if i > 0 && g.X > end+g.Size/6 {
			b.WriteByte(' ')
		}
		b.WriteString(g.S)
		end = g.X + g.W
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// phrases splits a line into runs separated by gaps wider than two thirds of
// the font size. Used when a stream region has no column boundaries.
func phrases(line []glyph) [][]glyph {
	var out [][]glyph
	var end float64
	for i, g := range line {
		if i == 0 || g.X > end+g.Size*2/3 {
			out = append(out, nil)
		}
		out[len(out)-1] = append(out[len(out)-1], g)
		end = g.X + g.W
	}
	return out
}

func streamRows(glyphs []glyph, columns []float64) []Row {
	edges := append([]float64(nil), columns...)
	sort.Float64s(edges)

	var rows []Row
	for _, line := range groupLines(glyphs) {
		var row Row
		if len(edges) == 0 {
			for _, p := range phrases(line) {
				row = append(row, joinGlyphs(p))
			}
		} else {
			cells := make([][]glyph, len(edges)+1)
			for _, g := range line {
				i := sort.SearchFloat64s(edges, g.centerX())
				cells[i] = append(cells[i], g)
			}
			row = make(Row, len(cells))
			for i, c := range cells {
				row[i] = joinGlyphs(c)
			}
		}
		if !blank(row) {
			rows = append(rows, row)
		}
	}
	return rows
}

func latticeRows(glyphs []glyph, rulings []ruling, area *Rect) ([]Row, error) {
	var xs, ys []float64
	for _, r := range rulings {
		if area != nil && (r.Right < area.Left || r.Left > area.Right || r.Bottom < area.Top || r.Top > area.Bottom) {
			continue
		}
		w, h := r.Right-r.Left, r.Bottom-r.Top
		switch {
		case w <= rulingMaxThin && h >= rulingMinLen:
			xs = append(xs, (r.Left+r.Right)/2)
		case h <= rulingMaxThin && w >= rulingMinLen:
			ys = append(ys, (r.Top+r.Bottom)/2)
		}
	}
	xs, ys = mergeEdges(xs), mergeEdges(ys)
	if len(xs) < 2 || len(ys) < 2 {
		return nil, ErrNoRulings
	}

	var rows []Row
	for j := 0; j+1 < len(ys); j++ {
		var band []glyph
		for _, g := range glyphs {
			if cy := g.centerY(); cy > ys[j] && cy < ys[j+1] {
				band = append(band, g)
			}
		}
		row := make(Row, len(xs)-1)
		for _, line := range groupLines(band) {
			cells := make([][]glyph, len(xs)-1)
			for _, g := range line {
				i := sort.SearchFloat64s(xs, g.centerX()) - 1
				if i >= 0 && i < len(cells) {
					cells[i] = append(cells[i], g)
				}
			}
			for i, c := range cells {
				text := joinGlyphs(c)
				if text == "" {
					continue
				}
				if row[i] != "" {
					row[i] += " "
				}
				row[i] += text
			}
		}
		if !blank(row) {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// mergeEdges sorts positions and collapses those closer than edgeMerge.
func mergeEdges(v []float64) []float64 {
	sort.Float64s(v)
	var out []float64
	for _, x := range v {
		if len(out) > 0 && x-out[len(out)-1] < edgeMerge {
			continue
		}
		out = append(out, x)
	}
	return out
}

func blank(row Row) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
