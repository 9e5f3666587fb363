package yes_debit

import (
	"strings"

	"github.com/vidishraj/akkountant/extractor/geometry"
	"github.com/vidishraj/akkountant/extractor/statement"
)

// Bank is the key of the YES Bank savings account statement.
const Bank = "YES_BANK_DEBIT"

const (
	colDate        = 0
	colDescription = 2
	colDebit       = 4
	colCredit      = 5
)

func New() (statement.Format, error) {
	p, err := statement.LoadProfile(Bank)
	if err != nil {
		return statement.Format{}, err
	}
	return statement.Format{
		Bank: Bank,
		FirstPage: func(doc geometry.Document, c *statement.Collector) error {
			r := &reader{patterns: p.Patterns}
			for page := 1; page <= doc.NumPage(); page++ {
				t, err := statement.ReadPage(doc, page, p.FirstPage)
				if err != nil {
					return err
				}
				if r.process(t, c) {
					return nil
				}
			}
			return nil
		},
		MiddlePages: statement.NoOp,
		LastPage:    statement.NoOp,
	}, nil
}

// reader tracks the two-line table header, which must be seen before any
// row counts as a transaction.
type reader struct {
	patterns     statement.Patterns
	headerFirst  bool
	headerSecond bool
}

func (r *reader) headerCell(i int) string {
	if i < len(r.patterns.Header) {
		return r.patterns.Header[i]
	}
	return ""
}

func (r *reader) process(t geometry.Table, c *statement.Collector) bool {
	for i, row := range t.Rows {
		first := row.Cell(colDate)
		if first == r.headerCell(0) {
			r.headerFirst = true
		} else if r.headerFirst && first == r.headerCell(1) {
			r.headerSecond = true
		}
		if r.patterns.EndMarker != "" && first == r.patterns.EndMarker {
			return true
		}
		if !r.headerFirst || !r.headerSecond {
			continue
		}
		date, ok := r.patterns.MatchDate(first)
		if !ok {
			continue
		}
		amount, err := statement.SignedAmount(row.Cell(colDebit), row.Cell(colCredit), "")
		if err != nil {
			c.Skip(t.Page, row, err)
			continue
		}
		c.Add(date, describe(t.Rows, i), amount)
	}
	return false
}

// describe returns the description of row i. When the text wrapped around
// the dated line it is taken from the rows above and below.
func describe(rows []geometry.Row, i int) string {
	if desc := rows[i].Cell(colDescription); desc != "" {
		return desc
	}
	var parts []string
	if i > 0 {
		if above := rows[i-1].Cell(colDescription); above != "" && rows[i-1].Empty(colDate) {
			parts = append(parts, above)
		}
	}
	if i+1 < len(rows) {
		if below := rows[i+1].Cell(colDescription); below != "" && rows[i+1].Empty(colDate) {
			parts = append(parts, below)
		}
	}
	return strings.Join(parts, " ")
}
