package geometry

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dslipak/pdf"
)

// PDF is an opened statement document.
type PDF struct {
	reader *pdf.Reader
	closer io.Closer
}

// Open opens the statement at path. An encrypted file needs its password: a
// missing one fails with ErrPasswordRequired and a wrong one with
// ErrBadPassword. Neither is retried with a blank password.
func Open(path, password string) (*PDF, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	doc, err := NewPDF(f, info.Size(), password)
	if err != nil {
		f.Close()
		return nil, err
	}
	doc.closer = f
	return doc, nil
}

// NewPDF reads a document from r. r must stay readable until the PDF is done with.
func NewPDF(r io.ReaderAt, size int64, password string) (doc *PDF, err error) {
	defer func() {
		if p := recover(); p != nil {
			doc, err = nil, fmt.Errorf("%w: %v", ErrCorrupt, p)
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err == nil {
		return &PDF{reader: reader}, nil
	}
	if !errors.Is(err, pdf.ErrInvalidPassword) {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}

	offered := false
	reader, err = pdf.NewReaderEncrypted(r, size, func() string {
		if offered {
			return ""
		}
		offered = true
		return password
	})
	if errors.Is(err, pdf.ErrInvalidPassword) {
		return nil, ErrBadPassword
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return &PDF{reader: reader}, nil
}

// Close releases the underlying file when the PDF was opened from a path.
func (d *PDF) Close() error {
	if d.closer == nil {
		return nil
	}
	return d.closer.Close()
}

// NumPage returns the number of pages.
func (d *PDF) NumPage() int {
	return d.reader.NumPage()
}

// Table extracts region from page (1-based).
func (d *PDF) Table(page int, region Region) (table Table, err error) {
	if page < 1 || page > d.NumPage() {
		return Table{}, fmt.Errorf("page %d out of range 1..%d", page, d.NumPage())
	}
	p := d.reader.Page(page)
	if p.V.IsNull() {
		return Table{}, fmt.Errorf("%w: page %d missing", ErrCorrupt, page)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: page %d: %v", ErrCorrupt, page, r)
		}
	}()

	left, top := pageOrigin(p)
	content := p.Content()

	glyphs := make([]glyph, 0, len(content.Text))
	for _, t := range content.Text {
		glyphs = append(glyphs, glyph{X: t.X - left, Top: top - t.Y, W: t.W, Size: t.FontSize, S: t.S})
	}
	rulings := make([]ruling, 0, len(content.Rect))
	for _, r := range content.Rect {
		rulings = append(rulings, ruling{
			Top:    top - r.Max.Y,
			Bottom: top - r.Min.Y,
			Left:   r.Min.X - left,
			Right:  r.Max.X - left,
		})
	}

	rows, err := layoutTable(glyphs, rulings, region)
	if err != nil {
		return Table{Page: page}, fmt.Errorf("page %d: %w", page, err)
	}
	return Table{Page: page, Rows: rows}, nil
}

// pageOrigin returns the left edge and top edge of the page's MediaBox,
// following inheritance through the page tree. A4 portrait is assumed when
// no box is present.
func pageOrigin(p pdf.Page) (left, top float64) {
	for v := p.V; !v.IsNull(); v = v.Key("Parent") {
		box := v.Key("MediaBox")
		if box.Kind() == pdf.Array && box.Len() == 4 {
			return box.Index(0).Float64(), box.Index(3).Float64()
		}
	}
	return 0, 842
}
