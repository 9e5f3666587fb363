package statement

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/vidishraj/akkountant/extractor/common"
	"github.com/vidishraj/akkountant/extractor/geometry"
)

// Profile is the layout profile of one statement format, read from
// statement.<BANK> in the config.
type Profile struct {
	Bank        string
	FirstPage   geometry.Region
	MiddlePages geometry.Region
	LastPage    geometry.Region
	Fallback    geometry.Region
	Names       geometry.Region
	Patterns    Patterns
}

// Patterns holds the row heuristics of a format.
type Patterns struct {
	Date               *regexp.Regexp
	DateFormat         string
	FallbackDate       *regexp.Regexp
	FallbackDateFormat string
	Percentage         *regexp.Regexp
	CreditMarker       string
	EndMarker          string
	EmptyMarker        string
	ReferenceMarker    string
	Header             []string
}

type regionConfig struct {
	Mode    string    `mapstructure:"mode"`
	Area    []float64 `mapstructure:"area"`
	Columns []float64 `mapstructure:"columns"`
}

// LoadProfile compiles the profile for bank from viper.
func LoadProfile(bank string) (Profile, error) {
	key := "statement." + bank
	if !viper.IsSet(key) {
		return Profile{}, fmt.Errorf("no layout profile configured for %s", bank)
	}

	p := Profile{Bank: bank}
	regions := []struct {
		name string
		dst  *geometry.Region
	}{
		{"first_page", &p.FirstPage},
		{"middle_pages", &p.MiddlePages},
		{"last_page", &p.LastPage},
		{"fallback", &p.Fallback},
		{"names", &p.Names},
	}
	for _, r := range regions {
		region, err := loadRegion(key + ".layout." + r.name)
		if err != nil {
			return Profile{}, fmt.Errorf("failed to load %s layout %s: %w", bank, r.name, err)
		}
		*r.dst = region
	}

	pk := key + ".patterns."
	var err error
	if p.Patterns.Date, err = compileOptional(viper.GetString(pk + "date")); err != nil {
		return Profile{}, fmt.Errorf("invalid %s date pattern: %w", bank, err)
	}
	if p.Patterns.FallbackDate, err = compileOptional(viper.GetString(pk + "fallback_date")); err != nil {
		return Profile{}, fmt.Errorf("invalid %s fallback date pattern: %w", bank, err)
	}
	if p.Patterns.Percentage, err = compileOptional(viper.GetString(pk + "percentage")); err != nil {
		return Profile{}, fmt.Errorf("invalid %s percentage pattern: %w", bank, err)
	}
	p.Patterns.DateFormat = viper.GetString(pk + "date_format")
	p.Patterns.FallbackDateFormat = viper.GetString(pk + "fallback_date_format")
	p.Patterns.CreditMarker = viper.GetString(pk + "credit_marker")
	p.Patterns.EndMarker = viper.GetString(pk + "end_marker")
	p.Patterns.EmptyMarker = viper.GetString(pk + "empty_marker")
	p.Patterns.ReferenceMarker = viper.GetString(pk + "reference_marker")
	if h := viper.GetString(pk + "header"); h != "" {
		p.Patterns.Header = strings.Split(h, "|")
	}
	return p, nil
}

func loadRegion(key string) (geometry.Region, error) {
	if !viper.IsSet(key) {
		return geometry.Region{}, nil
	}
	var rc regionConfig
	if err := viper.UnmarshalKey(key, &rc); err != nil {
		return geometry.Region{}, err
	}
	mode, err := geometry.ParseMode(rc.Mode)
	if err != nil {
		return geometry.Region{}, err
	}
	region := geometry.Region{Mode: mode, Columns: rc.Columns}
	switch len(rc.Area) {
	case 0:
	case 4:
		region.Area = &geometry.Rect{Top: rc.Area[0], Left: rc.Area[1], Bottom: rc.Area[2], Right: rc.Area[3]}
	default:
		return geometry.Region{}, fmt.Errorf("area needs 4 values [top, left, bottom, right], got %d", len(rc.Area))
	}
	return region, nil
}

func compileOptional(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}
	return regexp.Compile(pattern)
}

// MatchDate tests cell against the format's date pattern and parses it.
func (p Patterns) MatchDate(cell string) (time.Time, bool) {
	return matchDate(p.Date, p.DateFormat, cell)
}

// MatchFallbackDate is MatchDate for the fallback layout.
func (p Patterns) MatchFallbackDate(cell string) (time.Time, bool) {
	return matchDate(p.FallbackDate, p.FallbackDateFormat, cell)
}

func matchDate(re *regexp.Regexp, layout, cell string) (time.Time, bool) {
	cell = strings.TrimSpace(cell)
	if re == nil || !re.MatchString(cell) {
		return time.Time{}, false
	}
	if m := re.FindString(cell); m != "" {
		cell = m
	}
	t, err := common.NormalizeDate(cell, layout)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// IsHeader reports whether row starts with the format's header cells.
func (p Patterns) IsHeader(row geometry.Row) bool {
	if len(p.Header) == 0 {
		return false
	}
	for i, h := range p.Header {
		if row.Cell(i) != h {
			return false
		}
	}
	return true
}
