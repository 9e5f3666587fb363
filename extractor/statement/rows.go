package statement

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/vidishraj/akkountant/extractor/common"
	"github.com/vidishraj/akkountant/extractor/geometry"
)

var errNoAmount = errors.New("neither debit nor credit column holds an amount")

// SignedAmount infers the sign of a row from separate debit and credit
// columns. A non-zero debit is money out and stays positive. A missing or
// 0.00 debit means the credit column holds the amount and it is negated.
// Cells equal to emptyMarker count as empty.
func SignedAmount(debit, credit, emptyMarker string) (decimal.Decimal, error) {
	debit, credit = strings.TrimSpace(debit), strings.TrimSpace(credit)
	if emptyMarker != "" {
		if debit == emptyMarker {
			debit = ""
		}
		if credit == emptyMarker {
			credit = ""
		}
	}

	if debit != "" {
		amount, err := common.ParseAmount(debit, "")
		if err != nil {
			return decimal.Zero, err
		}
		if !amount.IsZero() || credit == "" {
			return amount, nil
		}
	}
	if credit == "" {
		return decimal.Zero, errNoAmount
	}
	amount, err := common.ParseAmount(credit, "")
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Neg(), nil
}

// Columns locates the fields of a single-amount card statement row.
type Columns struct {
	Date, Description, Amount int
}

// CardRows reads rows where one amount column carries the credit marker.
// Rows without a date in the date column are ignored.
func CardRows(t geometry.Table, p Patterns, cols Columns, c *Collector) {
	for _, row := range t.Rows {
		date, ok := p.MatchDate(row.Cell(cols.Date))
		if !ok {
			continue
		}
		amount, err := common.ParseAmount(row.Cell(cols.Amount), p.CreditMarker)
		if err != nil {
			c.Skip(t.Page, row, err)
			continue
		}
		c.Add(date, row.Cell(cols.Description), amount)
	}
}
