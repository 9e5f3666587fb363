// Package epf reads the EPF member passbook. Its rows are contributions
// and are stored as deposits rather than bank transactions.
package epf

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/vidishraj/akkountant/extractor/common"
	"github.com/vidishraj/akkountant/extractor/geometry"
	"github.com/vidishraj/akkountant/extractor/statement"
)

const Bank = "EPF_STATEMENT"

const (
	colWageMonth   = 0
	colDate        = 1
	colDescription = 3
	colEmployee    = 6
	colEmployer    = 7
)

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
			processTable(t, p.Patterns, c)
			return nil
		},
		MiddlePages: statement.NoOp,
		LastPage:    statement.NoOp,
	}, nil
}

// processTable keeps rows whose first cell is a wage month such as Dec-2022.
// The contribution is the employee share plus the employer share.
func processTable(t geometry.Table, pt statement.Patterns, c *statement.Collector) {
	for _, row := range t.Rows {
		month := row.Cell(colWageMonth)
		if pt.Date == nil || !pt.Date.MatchString(month) {
			continue
		}
		date, err := common.NormalizeDate(row.Cell(colDate), pt.DateFormat)
		if err != nil {
			// credited without a posting date, use the wage month
			date, err = time.ParseInLocation("Jan-2006", month, time.Local)
			if err != nil {
				c.Skip(t.Page, row, err)
				continue
			}
		}
		employee, err := share(row.Cell(colEmployee))
		if err != nil {
			c.Skip(t.Page, row, err)
			continue
		}
		employer, err := share(row.Cell(colEmployer))
		if err != nil {
			c.Skip(t.Page, row, err)
			continue
		}
		c.Add(date, row.Cell(colDescription), employee.Add(employer))
	}
}

func share(cell string) (decimal.Decimal, error) {
	if cell == "" {
		return decimal.Zero, nil
	}
	return common.ParseAmount(cell, "")
}
