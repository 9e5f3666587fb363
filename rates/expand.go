package rates

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const earliestYear = 1999

// Period is one row of a published rate listing, before expansion to months.
type Period struct {
	Period string `json:"period"`
	Rate   string `json:"rate"`
}

// Expand turns rate listing rows into monthly entries. Three period forms
// are understood:
//
//	01.04.1999 TO 14.01.2000   a day range, every month it touches
//	1986-87 TO 1998-99         a run of financial years
//	1983-84                    a single financial year
//
// Months before 1999 are dropped. Rows that cannot be read are returned as
// errors alongside the entries that could.
func Expand(rows []Period) ([]Entry, []error) {
	var (
		out  []Entry
		errs []error
	)
	for _, row := range rows {
		rate, err := decimal.NewFromString(strings.TrimSpace(row.Rate))
		if err != nil {
			errs = append(errs, fmt.Errorf("rate %q for %q: %w", row.Rate, row.Period, err))
			continue
		}
		start, end, err := periodBounds(strings.TrimSpace(row.Period))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for m := start; !m.After(end); m = m.AddDate(0, 1, 0) {
			if m.Year() >= earliestYear {
				out = append(out, Entry{Month: m.Format("2006-01"), Rate: rate})
			}
		}
	}
	return out, errs
}

// periodBounds returns the first day of the first and last months covered.
func periodBounds(period string) (time.Time, time.Time, error) {
	from, to, ranged := strings.Cut(period, " TO ")
	switch {
	case ranged && strings.Contains(period, "."):
		// the published listing carries a 31st of June
		if to == "31.06.2019" {
			to = "30.06.2019"
		}
		start, err := time.Parse("02.01.2006", from)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("period %q: %w", period, err)
		}
		end, err := time.Parse("02.01.2006", to)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("period %q: %w", period, err)
		}
		return monthOf(start), monthOf(end), nil
	case ranged:
		first, err := fiscalStart(from)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("period %q: %w", period, err)
		}
		last, err := fiscalStart(to)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("period %q: %w", period, err)
		}
		return fiscalYear(first), fiscalYear(last).AddDate(0, 11, 0), nil
	case strings.Contains(period, "-"):
		year, err := fiscalStart(period)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("period %q: %w", period, err)
		}
		return fiscalYear(year), fiscalYear(year).AddDate(0, 11, 0), nil
	}
	return time.Time{}, time.Time{}, fmt.Errorf("period %q: unrecognised form", period)
}

// fiscalStart reads the starting year of "1986-87".
func fiscalStart(s string) (int, error) {
	head, _, _ := strings.Cut(strings.TrimSpace(s), "-")
	return strconv.Atoi(head)
}

func fiscalYear(year int) time.Time {
	return time.Date(year, time.April, 1, 0, 0, 0, 0, time.UTC)
}

func monthOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
