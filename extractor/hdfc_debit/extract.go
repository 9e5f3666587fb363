package hdfc_debit

import (
	"errors"

	log "github.com/sirupsen/logrus"
	"github.com/vidishraj/akkountant/extractor/geometry"
	"github.com/vidishraj/akkountant/extractor/statement"
)

const Bank = "HDFC_DEBIT"

// Column layout shared by the ruled and the stream tables.
const (
	colDate       = 0
	colNarration  = 1
	colReference  = 2
	colWithdrawal = 4
	colDeposit    = 5
)

// New builds the HDFC savings account format. The ruled table is read from
// every page in the first stage; statements printed without rulings drop to
// the stream layout.
func New() (statement.Format, error) {
	p, err := statement.LoadProfile(Bank)
	if err != nil {
		return statement.Format{}, err
	}
	return statement.Format{
		Bank:        Bank,
		FirstPage:   readAllPages(p),
		MiddlePages: statement.NoOp,
		LastPage:    statement.NoOp,
	}, nil
}

func readAllPages(p statement.Profile) statement.Rule {
	return func(doc geometry.Document, c *statement.Collector) error {
		first, err := statement.ReadPage(doc, 1, p.FirstPage)
		if errors.Is(err, geometry.ErrNoRulings) {
			log.WithField("bank", Bank).Info("no table rulings on first page, reading stream layout")
			return statement.ForEachPage(doc, 1, doc.NumPage(), p.Fallback, func(t geometry.Table) error {
				processStream(t, p.Patterns, c)
				return nil
			})
		}
		if err != nil {
			return err
		}
		processLattice(first, p.Patterns, c)

		for page := 2; page <= doc.NumPage(); page++ {
			t, err := statement.ReadPage(doc, page, p.FirstPage)
			if errors.Is(err, geometry.ErrNoRulings) {
				continue
			}
			if err != nil {
				return err
			}
			processLattice(t, p.Patterns, c)
		}
		log.WithField("bank", Bank).Infof("total transactions %d", len(c.Transactions))
		return nil
	}
}

func processLattice(t geometry.Table, pt statement.Patterns, c *statement.Collector) {
	for _, row := range t.Rows {
		date, ok := pt.MatchDate(row.Cell(colDate))
		if !ok {
			continue
		}
		amount, err := statement.SignedAmount(row.Cell(colWithdrawal), row.Cell(colDeposit), "")
		if err != nil {
			c.Skip(t.Page, row, err)
			continue
		}
		c.Add(date, row.Cell(colNarration), amount)
	}
}

// processStream reads the unruled layout. Long narrations wrap onto rows
// holding nothing but narration text, which continue the previous entry.
func processStream(t geometry.Table, pt statement.Patterns, c *statement.Collector) {
	for _, row := range t.Rows {
		if date, ok := pt.MatchFallbackDate(row.Cell(colDate)); ok {
			amount, err := statement.SignedAmount(row.Cell(colWithdrawal), row.Cell(colDeposit), "")
			if err != nil {
				c.Skip(t.Page, row, err)
				continue
			}
			c.Add(date, row.Cell(colNarration), amount)
			continue
		}
		if continuation(row) {
			c.AppendDescription(row.Cell(colNarration))
		}
	}
	log.WithFields(log.Fields{"bank": Bank, "page": t.Page}).Infof("finished table, transactions analysed: %d", len(c.Transactions))
}

func continuation(row geometry.Row) bool {
	return row.Empty(colDate) && row.Empty(colReference) && !row.Empty(colNarration) &&
		row.Empty(colWithdrawal) && row.Empty(colDeposit)
}
