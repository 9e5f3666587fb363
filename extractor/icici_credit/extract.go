package icici_credit

import (
	log "github.com/sirupsen/logrus"
	"github.com/vidishraj/akkountant/extractor/geometry"
	"github.com/vidishraj/akkountant/extractor/statement"
)

// Bank is the key of the Amazon Pay ICICI credit card statement.
const Bank = "ICICI_AMAZON_PAY"

var columns = statement.Columns{Date: 0, Description: 2, Amount: 5}

func New() (statement.Format, error) {
	p, err := statement.LoadProfile(Bank)
	if err != nil {
		return statement.Format{}, err
	}
	return statement.Format{
		Bank: Bank,
		FirstPage: func(doc geometry.Document, c *statement.Collector) error {
			t, err := statement.ReadPage(doc, 1, p.FirstPage)
			if err != nil {
				return err
			}
			statement.CardRows(t, p.Patterns, columns, c)
			return nil
		},
		// Only the second page continues the transaction table, and only
		// when it opens with the table header.
		MiddlePages: func(doc geometry.Document, c *statement.Collector) error {
			t, err := statement.ReadPage(doc, 2, p.MiddlePages)
			if err != nil {
				return err
			}
			if len(t.Rows) == 0 || !startsWithHeader(t.Rows[0], p.Patterns) {
				log.WithField("bank", Bank).Debug("page 2 carries no transaction table")
				return nil
			}
			statement.CardRows(t, p.Patterns, columns, c)
			return nil
		},
		LastPage: statement.NoOp,
	}, nil
}

func startsWithHeader(row geometry.Row, pt statement.Patterns) bool {
	return len(pt.Header) > 0 && row.Cell(0) == pt.Header[0]
}
