package hdfc_credit

import (
	"github.com/vidishraj/akkountant/extractor/geometry"
	"github.com/vidishraj/akkountant/extractor/statement"
)

// Bank is the key of the HDFC Millennia credit card statement.
const Bank = "Millenia_Credit"

var columns = statement.Columns{Date: 0, Description: 1, Amount: 2}

func New() (statement.Format, error) {
	p, err := statement.LoadProfile(Bank)
	if err != nil {
		return statement.Format{}, err
	}
	return statement.Format{
		Bank: Bank,
		FirstPage: func(doc geometry.Document, c *statement.Collector) error {
			return statement.ForEachPage(doc, 1, 1, p.FirstPage, read(p, c))
		},
		MiddlePages: func(doc geometry.Document, c *statement.Collector) error {
			return statement.ForEachPage(doc, 2, doc.NumPage()-1, p.MiddlePages, read(p, c))
		},
		// The closing page shares the continuation layout. It usually holds
		// only reward points and terms, which never match the date column.
		LastPage: func(doc geometry.Document, c *statement.Collector) error {
			return statement.ForEachPage(doc, doc.NumPage(), doc.NumPage(), p.MiddlePages, read(p, c))
		},
	}, nil
}

func read(p statement.Profile, c *statement.Collector) func(geometry.Table) error {
	return func(t geometry.Table) error {
		statement.CardRows(t, p.Patterns, columns, c)
		return nil
	}
}
