package boi_debit

import (
	"github.com/vidishraj/akkountant/extractor/common"
	"github.com/vidishraj/akkountant/extractor/geometry"
	"github.com/vidishraj/akkountant/extractor/statement"
)

// Bank is the key of the Bank of India savings account statement.
const Bank = "BOI_DEBIT"

const (
	colDate      = 0
	colNarration = 2
	colDebit     = 3
	colCredit    = 4
)

func New() (statement.Format, error) {
	p, err := statement.LoadProfile(Bank)
	if err != nil {
		return statement.Format{}, err
	}
	read := func(c *statement.Collector) func(geometry.Table) error {
		return func(t geometry.Table) error {
			processTable(t, p.Patterns, c)
			return nil
		}
	}
	return statement.Format{
		Bank: Bank,
		FirstPage: func(doc geometry.Document, c *statement.Collector) error {
			return statement.ForEachPage(doc, 1, 1, p.FirstPage, read(c))
		},
		// Continuation pages have no header block, the table runs from the top.
		MiddlePages: func(doc geometry.Document, c *statement.Collector) error {
			return statement.ForEachPage(doc, 2, doc.NumPage(), p.MiddlePages, read(c))
		},
		LastPage: statement.NoOp,
	}, nil
}

// processTable reads dd-Mon-yyyy rows. The bank prints "-" in the unused
// amount column.
func processTable(t geometry.Table, pt statement.Patterns, c *statement.Collector) {
	for _, row := range t.Rows {
		cell := row.Cell(colDate)
		if pt.Date == nil || !pt.Date.MatchString(cell) {
			continue
		}
		date, err := common.NormalizeDate(cell, pt.DateFormat)
		if err != nil {
			c.Skip(t.Page, row, err)
			continue
		}
		amount, err := statement.SignedAmount(row.Cell(colDebit), row.Cell(colCredit), pt.EmptyMarker)
		if err != nil {
			c.Skip(t.Page, row, err)
			continue
		}
		c.Add(date, row.Cell(colNarration), amount)
	}
}
