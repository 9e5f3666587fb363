package yes_credit

import (
	"strings"

	"github.com/vidishraj/akkountant/extractor/common"
	"github.com/vidishraj/akkountant/extractor/geometry"
	"github.com/vidishraj/akkountant/extractor/statement"
)

// Bank is the key of the YES Bank ACE credit card statement.
const Bank = "YES_BANK_ACE"

const (
	colDate        = 0
	colDescription = 1
	colAmount      = 2
)

// New builds the YES ACE format. The transaction table can start on any
// page, so the first stage walks every page until the closing sentinel.
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

type reader struct {
	patterns statement.Patterns
	started  bool
}

// process reads one page and reports whether the end of the statement was reached.
func (r *reader) process(t geometry.Table, c *statement.Collector) bool {
	for _, row := range t.Rows {
		if r.patterns.IsHeader(row) {
			r.started = true
		}
		if !r.started {
			continue
		}
		if r.patterns.EndMarker != "" && strings.Contains(row.Cell(colDescription), r.patterns.EndMarker) {
			return true
		}
		date, ok := r.patterns.MatchDate(row.Cell(colDate))
		if !ok {
			continue
		}
		amount, err := common.ParseAmount(row.Cell(colAmount), r.patterns.CreditMarker)
		if err != nil {
			c.Skip(t.Page, row, err)
			continue
		}
		c.Add(date, r.description(row.Cell(colDescription)), amount)
	}
	return false
}

// description drops the trailing "Ref No:" block and its separator.
func (r *reader) description(desc string) string {
	if r.patterns.ReferenceMarker == "" {
		return desc
	}
	if i := strings.Index(desc, r.patterns.ReferenceMarker); i >= 0 {
		desc = strings.TrimRight(strings.TrimSpace(desc[:i]), " -,(")
	}
	return strings.TrimSpace(desc)
}
