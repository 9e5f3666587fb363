// Package rates serves monthly interest rates for deposit instruments from
// periodically refreshed JSON rate files.
package rates

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
)

// ErrUnavailable is returned when no fresh rate exists for a month.
var ErrUnavailable = errors.New("rate unavailable")

// Entry is one month of a rate file.
type Entry struct {
	Month string          `json:"Year"`
	Rate  decimal.Decimal `json:"Interest Rate"`
}

type file struct {
	Data []Entry `json:"data"`
}

// Table maps "YYYY-MM" to an annual percentage rate.
type Table struct {
	rates map[string]decimal.Decimal
}

// NewTable builds a table. When a month repeats the first entry wins.
func NewTable(entries []Entry) *Table {
	t := &Table{rates: make(map[string]decimal.Decimal, len(entries))}
	for _, e := range entries {
		if _, ok := t.rates[e.Month]; !ok {
			t.rates[e.Month] = e.Rate
		}
	}
	return t
}

// Parse reads a rate file.
func Parse(r io.Reader) (*Table, error) {
	var f file
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decoding rate file: %w", err)
	}
	return NewTable(f.Data), nil
}

// Rate returns the rate for month.
func (t *Table) Rate(month string) (decimal.Decimal, error) {
	r, ok := t.rates[month]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: no rate for %s", ErrUnavailable, month)
	}
	return r, nil
}

// Len is the number of months covered.
func (t *Table) Len() int {
	return len(t.rates)
}

// Encode writes entries in rate file form.
func Encode(w io.Writer, entries []Entry) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(file{Data: entries})
}
