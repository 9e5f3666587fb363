package rates

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/vidishraj/akkountant/extractor/common"
)

const stampLayout = "20060102_150405"

// Store reads rate files named <INSTRUMENT>_rate_<YYYYMMDD_HHMMSS>.json
// from a directory and always serves the most recent one.
type Store struct {
	dir    string
	maxAge map[common.SecurityType]time.Duration
	now    func() time.Time

	mu    sync.Mutex
	cache map[string]*Table
}

// NewStore returns a store over dir. An instrument without a max age never
// goes stale.
func NewStore(dir string, maxAge map[common.SecurityType]time.Duration) *Store {
	if maxAge == nil {
		maxAge = map[common.SecurityType]time.Duration{}
	}
	return &Store{dir: dir, maxAge: maxAge, now: time.Now, cache: map[string]*Table{}}
}

// StoreFromConfig builds a store from rates.directory and rates.max_age.
func StoreFromConfig() *Store {
	ages := map[common.SecurityType]time.Duration{}
	for k := range viper.GetStringMap("rates.max_age") {
		ages[common.SecurityType(strings.ToUpper(k))] = viper.GetDuration("rates.max_age." + k)
	}
	return NewStore(viper.GetString("rates.directory"), ages)
}

func prefix(instrument common.SecurityType) string {
	return string(instrument) + "_rate_"
}

// Latest returns the newest rate file for instrument and its timestamp.
func (s *Store) Latest(instrument common.SecurityType) (string, time.Time, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: reading %s: %v", ErrUnavailable, s.dir, err)
	}
	var (
		best  string
		stamp time.Time
	)
	p := prefix(instrument)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, p) || !strings.HasSuffix(name, ".json") {
			continue
		}
		ts, err := time.ParseInLocation(stampLayout, strings.TrimSuffix(strings.TrimPrefix(name, p), ".json"), time.Local)
		if err != nil {
			log.WithField("file", name).Debug("skipping rate file with unreadable timestamp")
			continue
		}
		if best == "" || ts.After(stamp) {
			best, stamp = name, ts
		}
	}
	if best == "" {
		return "", time.Time{}, fmt.Errorf("%w: no %s rate file in %s", ErrUnavailable, instrument, s.dir)
	}
	return filepath.Join(s.dir, best), stamp, nil
}

// Table loads the current table for instrument, refusing stale files.
func (s *Store) Table(instrument common.SecurityType) (*Table, error) {
	path, stamp, err := s.Latest(instrument)
	if err != nil {
		return nil, err
	}
	if age, ok := s.maxAge[instrument]; ok && age > 0 && s.now().Sub(stamp) > age {
		return nil, fmt.Errorf("%w: %s rate file from %s is older than %s", ErrUnavailable, instrument, stamp.Format(time.DateOnly), age)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.cache[path]; ok {
		return t, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer f.Close()
	t, err := Parse(f)
	if err != nil {
		return nil, err
	}
	s.cache[path] = t
	return t, nil
}

// RateForMonth returns the annual percentage for month ("YYYY-MM").
func (s *Store) RateForMonth(month string, instrument common.SecurityType) (decimal.Decimal, error) {
	t, err := s.Table(instrument)
	if err != nil {
		return decimal.Zero, err
	}
	return t.Rate(month)
}

// Save writes entries as a new rate file and removes the ones it replaces.
func (s *Store) Save(instrument common.SecurityType, entries []Entry) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating rate directory: %w", err)
	}
	old, _, _ := s.Latest(instrument)

	path := filepath.Join(s.dir, prefix(instrument)+s.now().Format(stampLayout)+".json")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating rate file: %w", err)
	}
	if err := Encode(f, entries); err != nil {
		f.Close()
		return "", fmt.Errorf("writing rate file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("writing rate file: %w", err)
	}
	if old != "" && old != path {
		if err := os.Remove(old); err != nil {
			log.WithField("file", old).Warnf("could not remove replaced rate file: %v", err)
		}
	}
	return path, nil
}
