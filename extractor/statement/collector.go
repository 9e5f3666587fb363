package statement

import (
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/vidishraj/akkountant/extractor/common"
	"github.com/vidishraj/akkountant/extractor/geometry"
)

// Collector accumulates what a parse has produced so far. It is returned
// even when the parse stops early.
type Collector struct {
	Bank         string
	Transactions []common.NormalizedTransaction
	Holdings     []common.Holding
	Skipped      int
}

// Add appends a transaction with its reference computed.
func (c *Collector) Add(date time.Time, description string, amount decimal.Decimal) {
	c.Transactions = append(c.Transactions, common.NewTransaction(date, description, amount))
}

// AppendDescription continues the last transaction's description onto text
// from the following row. The reference is recomputed. It reports false when
// there is nothing to continue.
func (c *Collector) AppendDescription(text string) bool {
	if len(c.Transactions) == 0 {
		return false
	}
	last := &c.Transactions[len(c.Transactions)-1]
	*last = common.NewTransaction(last.Date, last.Description+" "+text, last.Amount)
	return true
}

// AddHolding appends a security position.
func (c *Collector) AddHolding(h common.Holding) {
	c.Holdings = append(c.Holdings, h)
}

// Skip records a row that looked like a transaction but did not parse.
func (c *Collector) Skip(page int, row geometry.Row, err error) {
	c.Skipped++
	log.WithFields(log.Fields{"bank": c.Bank, "page": page}).Debugf("skipping row %q: %v", []string(row), err)
}
