// Package accrual computes monthly interest on provident-fund-style
// deposits. Interest accrues every month on the running principal and is
// folded into principal at the end of each financial year (March).
package accrual

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/vidishraj/akkountant/extractor/common"
	"github.com/vidishraj/akkountant/rates"
)

// ErrRateUnavailable means a month in the deposit history has no rate. The
// whole computation fails rather than assume 0%.
var ErrRateUnavailable = rates.ErrUnavailable

// ErrUnsupported is returned for instruments that do not accrue.
var ErrUnsupported = errors.New("instrument does not accrue interest")

// PPF deposits made after this day of the month start earning next month.
const cutoffDay = 4

var twelveHundred = decimal.NewFromInt(1200)

// RateProvider returns the annual percentage rate for a "YYYY-MM" month.
type RateProvider interface {
	RateForMonth(month string, instrument common.SecurityType) (decimal.Decimal, error)
}

// Entry is one month of the ledger. Balance is the principal the month's
// interest was earned on.
type Entry struct {
	Month    string          `json:"month"`
	Deposits decimal.Decimal `json:"deposits"`
	Balance  decimal.Decimal `json:"deposit_total"`
	Rate     decimal.Decimal `json:"rate"`
	Interest decimal.Decimal `json:"interest"`
}

// Summary is the full ledger plus totals.
type Summary struct {
	Instrument common.SecurityType `json:"instrument"`
	Entries    []Entry             `json:"transactions"`
	Deposits   []common.Deposit    `json:"deposits"`
	NetProfit  decimal.Decimal     `json:"net_profit"`
	Net        decimal.Decimal     `json:"net"`
	Unbanked   decimal.Decimal     `json:"unaccounted_profit"`
}

// empty is the result for a user without deposits.
func empty(instrument common.SecurityType) Summary {
	return Summary{Instrument: instrument, Entries: []Entry{}, Deposits: []common.Deposit{}}
}

// rule decides how deposits and the year-end fold enter the principal.
type rule struct {
	// deferDeposit reports whether a deposit made on day starts earning next month.
	deferDeposit func(day int) bool
	// deferFold routes the March fold through next month's bucket.
	deferFold bool
}

var rules = map[common.SecurityType]rule{
	common.PPF: {
		deferDeposit: func(day int) bool { return day > cutoffDay },
		deferFold:    true,
	},
	common.EPF: {
		deferDeposit: func(int) bool { return false },
	},
}

// Compute runs the monthly ledger for instrument from the month of the
// first deposit through the month of now.
func Compute(instrument common.SecurityType, deposits []common.Deposit, provider RateProvider, now time.Time) (Summary, error) {
	r, ok := rules[instrument]
	if !ok {
		return Summary{}, fmt.Errorf("%w: %s", ErrUnsupported, instrument)
	}
	if len(deposits) == 0 {
		return empty(instrument), nil
	}

	sorted := make([]common.Deposit, len(deposits))
	copy(sorted, deposits)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	byMonth := map[string][]common.Deposit{}
	for _, d := range sorted {
		key := monthKey(d.Date)
		byMonth[key] = append(byMonth[key], d)
	}

	var (
		principal = decimal.Zero
		pending   = decimal.Zero
		unbanked  = decimal.Zero
		profit    = decimal.Zero
		entries   []Entry
	)
	last := monthStart(now)
	for m := monthStart(sorted[0].Date); !m.After(last); m = m.AddDate(0, 1, 0) {
		month := monthKey(m)
		principal = principal.Add(pending)
		pending = decimal.Zero

		deposited := decimal.Zero
		for _, d := range byMonth[month] {
			deposited = deposited.Add(d.Amount)
			if r.deferDeposit(d.Date.Day()) {
				pending = pending.Add(d.Amount)
			} else {
				principal = principal.Add(d.Amount)
			}
		}

		rate, err := provider.RateForMonth(month, instrument)
		if err != nil {
			if errors.Is(err, ErrRateUnavailable) {
				return Summary{}, fmt.Errorf("%s accrual for %s: %w", instrument, month, err)
			}
			return Summary{}, fmt.Errorf("%s accrual for %s: %w: %v", instrument, month, ErrRateUnavailable, err)
		}
		interest := principal.Mul(rate).Div(twelveHundred)
		profit = profit.Add(interest)
		unbanked = unbanked.Add(interest)

		entries = append(entries, Entry{
			Month:    month,
			Deposits: deposited,
			Balance:  principal,
			Rate:     rate,
			Interest: interest,
		})

		if m.Month() == time.March {
			if r.deferFold {
				pending = pending.Add(unbanked)
			} else {
				principal = principal.Add(unbanked)
			}
			unbanked = decimal.Zero
		}
	}

	log.WithField("instrument", instrument).Debugf("accrued %d months over %d deposits", len(entries), len(sorted))
	return Summary{
		Instrument: instrument,
		Entries:    entries,
		Deposits:   sorted,
		NetProfit:  profit,
		Net:        principal.Add(pending),
		Unbanked:   unbanked,
	}, nil
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func monthKey(t time.Time) string {
	return t.Format("2006-01")
}
