// Package geometry turns page regions of a statement PDF into rows of cell
// strings. Coordinates are PDF points measured from the top-left corner of
// the page, the same convention the layout profiles are written in.
package geometry

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrPasswordRequired = errors.New("document is encrypted and no password was provided")
	ErrBadPassword      = errors.New("document password is incorrect")
	ErrCorrupt          = errors.New("document is corrupt or unreadable")
	ErrNoRulings        = errors.New("no table rulings found in region")
)

// Mode selects how cells are found inside a region.
type Mode int

const (
	// Stream places cells by explicit column boundaries, one row per text line.
	Stream Mode = iota
	// Lattice places cells by the ruling lines drawn on the page.
	Lattice
)

func (m Mode) String() string {
	if m == Lattice {
		return "lattice"
	}
	return "stream"
}

// ParseMode maps a config value onto a Mode. Empty means stream.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "stream":
		return Stream, nil
	case "lattice":
		return Lattice, nil
	}
	return Stream, fmt.Errorf("unknown extraction mode %q", s)
}

// Rect is an extraction area.
type Rect struct {
	Top, Left, Bottom, Right float64
}

func (r Rect) contains(x, y float64) bool {
	return x >= r.Left && x <= r.Right && y >= r.Top && y <= r.Bottom
}

// Region describes one extraction: the area to read (nil for the whole page)
// and, in stream mode, the x boundaries between columns. n boundaries yield
// n+1 cells per row.
type Region struct {
	Mode    Mode
	Area    *Rect
	Columns []float64
}

// Row is one extracted table row. Empty cells are "".
type Row []string

// Cell returns the trimmed cell at i, or "" when the row is shorter.
func (r Row) Cell(i int) string {
	if i < 0 || i >= len(r) {
		return ""
	}
	return strings.TrimSpace(r[i])
}

// Empty reports whether cell i is missing or blank.
func (r Row) Empty(i int) bool {
	return r.Cell(i) == ""
}

// Table is the set of rows read from one page region.
type Table struct {
	Page int
	Rows []Row
}

// Document is a paged source of tables. *PDF implements it; parsers accept
// the interface so tests can feed synthetic pages.
type Document interface {
	NumPage() int
	Table(page int, region Region) (Table, error)
}
