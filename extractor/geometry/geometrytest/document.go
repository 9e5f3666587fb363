// Package geometrytest provides an in-memory geometry.Document for tests.
package geometrytest

import (
	"fmt"

	"github.com/vidishraj/akkountant/extractor/geometry"
)

// Call is one Table request made against a Document.
type Call struct {
	Page   int
	Region geometry.Region
}

// Document serves fixed rows per page. When Read is set it answers instead,
// which lets a test hand out different rows per region.
type Document struct {
	Pages  [][]geometry.Row
	Errors map[int]error
	Read   func(page int, region geometry.Region) ([]geometry.Row, error)
	Calls  []Call
}

// Static returns a Document whose page i+1 holds pages[i] for every region.
func Static(pages ...[]geometry.Row) *Document {
	return &Document{Pages: pages}
}

// Fail makes every read of page return err.
func (d *Document) Fail(page int, err error) *Document {
	if d.Errors == nil {
		d.Errors = map[int]error{}
	}
	d.Errors[page] = err
	return d
}

func (d *Document) NumPage() int { return len(d.Pages) }

func (d *Document) Table(page int, region geometry.Region) (geometry.Table, error) {
	d.Calls = append(d.Calls, Call{Page: page, Region: region})
	if err, ok := d.Errors[page]; ok {
		return geometry.Table{Page: page}, err
	}
	if page < 1 || page > len(d.Pages) {
		return geometry.Table{}, fmt.Errorf("page %d out of range", page)
	}
	if d.Read != nil {
		rows, err := d.Read(page, region)
		return geometry.Table{Page: page, Rows: rows}, err
	}
	return geometry.Table{Page: page, Rows: d.Pages[page-1]}, nil
}
