// Package nps reads scheme holdings from an NPS transaction statement.
//
// The statement lists scheme names in an allocation table (rows carrying a
// percentage) and, separately, the units and NAV of each scheme in a table
// whose name column wraps over several lines. Holdings are emitted when the
// wrapped name accumulated so far equals the next expected scheme name.
package nps

import (
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/vidishraj/akkountant/extractor/common"
	"github.com/vidishraj/akkountant/extractor/geometry"
	"github.com/vidishraj/akkountant/extractor/statement"
)

const Bank = "NPS_STATEMENT"

const (
	colName     = 0
	colUnits    = 1
	colNAV      = 4
	lineCells   = 8
	colNameList = 1
	colPercent  = 2
)

// parser holds the tables gathered by the first two stages until the last
// stage has the scheme names to match them against.
type parser struct {
	profile statement.Profile
	first   []geometry.Table
	second  []geometry.Table
	names   []string
}

func New() (statement.Format, error) {
	p, err := statement.LoadProfile(Bank)
	if err != nil {
		return statement.Format{}, err
	}
	ps := &parser{profile: p}
	return statement.Format{
		Bank:        Bank,
		FirstPage:   ps.readFirstFormat,
		MiddlePages: ps.readSecondFormat,
		LastPage:    ps.finish,
	}, nil
}

func (p *parser) readFirstFormat(doc geometry.Document, c *statement.Collector) error {
	p.first, p.second, p.names = nil, nil, nil
	err := statement.ForEachPage(doc, 1, doc.NumPage(), p.profile.FirstPage, func(t geometry.Table) error {
		p.first = append(p.first, t)
		return nil
	})
	if err != nil {
		return err
	}
	if doc.NumPage() == 1 {
		return p.finish(doc, c)
	}
	return nil
}

func (p *parser) readSecondFormat(doc geometry.Document, c *statement.Collector) error {
	return statement.ForEachPage(doc, 2, doc.NumPage(), p.profile.MiddlePages, func(t geometry.Table) error {
		p.second = append(p.second, t)
		return nil
	})
}

func (p *parser) finish(doc geometry.Document, c *statement.Collector) error {
	if err := p.readNames(doc); err != nil {
		return err
	}
	p.match(p.first, c)
	p.match(p.second, c)
	if len(p.names) > 0 {
		log.WithField("bank", Bank).Infof("%d scheme names left unmatched", len(p.names))
	}
	return nil
}

// readNames collects scheme names from the allocation table. Only rows with
// a percentage in the last column name a scheme.
func (p *parser) readNames(doc geometry.Document) error {
	pct := p.profile.Patterns.Percentage
	return statement.ForEachPage(doc, 1, doc.NumPage(), p.profile.Names, func(t geometry.Table) error {
		for _, row := range t.Rows {
			if pct != nil && pct.MatchString(row.Cell(colPercent)) && !row.Empty(colNameList) {
				p.names = append(p.names, row.Cell(colNameList))
			}
		}
		return nil
	})
}

// match walks one set of tables and consumes the names it finds. Names
// matched here are dropped so a later table cannot match them again.
func (p *parser) match(tables []geometry.Table, c *statement.Collector) {
	pt := p.profile.Patterns
	started := false
	matched := 0
	var name strings.Builder
	var nav, units string

	emit := func() {
		if matched >= len(p.names) || strings.TrimSpace(name.String()) != p.names[matched] {
			return
		}
		if h, err := holding(p.names[matched], nav, units); err == nil {
			c.AddHolding(h)
		} else {
			log.WithField("bank", Bank).Debugf("unreadable units for %s: %v", p.names[matched], err)
		}
		matched++
		name.Reset()
		nav, units = "", ""
	}

	for _, t := range tables {
		for _, row := range t.Rows {
			if started {
				emit()
				switch {
				case validLine(row):
					name.WriteString(row.Cell(colName) + " ")
					nav, units = row.Cell(colNAV), row.Cell(colUnits)
				case nameOverflow(row) && row.Cell(colName) != pt.EndMarker:
					name.WriteString(row.Cell(colName) + " ")
				}
			}
			if pt.IsHeader(row) {
				started = true
			}
		}
	}
	if started {
		emit()
	}
	p.names = p.names[matched:]
}

func holding(name, nav, units string) (common.Holding, error) {
	n, err := common.ParseAmount(nav, "")
	if err != nil {
		return common.Holding{}, err
	}
	u, err := common.ParseAmount(units, "")
	if err != nil {
		return common.Holding{}, err
	}
	return common.Holding{Name: name, NAV: n, Quantity: u}, nil
}

// validLine is a holdings row: a name fragment and seven numeric cells.
func validLine(row geometry.Row) bool {
	if len(row) < lineCells || row.Empty(colName) {
		return false
	}
	for i := 1; i < lineCells; i++ {
		if _, err := common.ParseAmount(row.Cell(i), ""); err != nil {
			return false
		}
	}
	return true
}

// nameOverflow is a row carrying only the wrapped remainder of a name.
func nameOverflow(row geometry.Row) bool {
	if len(row) < lineCells || row.Empty(colName) {
		return false
	}
	for i := 1; i < lineCells; i++ {
		if !row.Empty(i) {
			return false
		}
	}
	return true
}
