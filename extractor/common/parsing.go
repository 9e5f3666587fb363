package common

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	nonNumericRegex     = regexp.MustCompile(`[^0-9.]`)
	currencyPrefixRegex = regexp.MustCompile(`(?i)^\s*(rs\.?|inr|₹)\s*`)
)

// CleanDecimal parses a string into a decimal.Decimal, removing non-numeric characters
func CleanDecimal(text string) (decimal.Decimal, error) {

	text = currencyPrefixRegex.ReplaceAllString(text, "")
	cleanText := nonNumericRegex.ReplaceAllString(text, "")
	if cleanText == "" {
		return decimal.Zero, nil
	}
	amount, err := decimal.NewFromString(cleanText)
	if err != nil {
		return decimal.Zero, err
	}

	return amount, nil
}

// ParseAmount parses a statement amount cell. A cell carrying creditMarker is
// money in and comes back negative. An empty marker disables the check.
func ParseAmount(text, creditMarker string) (decimal.Decimal, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	credit := creditMarker != "" && strings.Contains(text, creditMarker)
	if credit {
		text = strings.ReplaceAll(text, creditMarker, "")
	}
	if nonNumericRegex.ReplaceAllString(currencyPrefixRegex.ReplaceAllString(text, ""), "") == "" {
		return decimal.Zero, fmt.Errorf("no digits in amount %q", text)
	}
	amount, err := CleanDecimal(text)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", text, err)
	}
	if credit {
		amount = amount.Neg()
	}
	return amount, nil
}

// fallbackLayouts are tried in order when a format's own layout fails. Pure
// month-first layouts are left out: day-first statements would misparse.
var fallbackLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"02-01-2006 15:04:05",
	"02-01-2006 15:04",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"2006-01-02",
	"02-01-2006",
	"02/01/2006",
	"2/1/2006",
	"02 Jan 2006 15:04:05",
	"02 January 2006 15:04:05",
	"02 Jan 2006",
	"02 January 2006",
	"02-Jan-2006",
	"02-01-06",
	"02/01/06",
	"Jan 02, 2006",
	"Jan 2, 2006",
}

// NormalizeDate parses value with layout and then with the fallback list.
// The first successful parse wins.
func NormalizeDate(value, layout string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if layout != "" {
		if t, err := ParseDate(layout, value); err == nil {
			return t, nil
		}
	}
	for _, l := range fallbackLayouts {
		if t, err := ParseDate(l, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("date format of %q is not recognized", value)
}

// ParseDate parses a date string using a layout, handling common issues
func ParseDate(layout, value string) (time.Time, error) {
	return time.ParseInLocation(layout, value, time.Local)
}
