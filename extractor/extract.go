// Package extractor maps bank keys onto statement formats and runs them
// against files.
package extractor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/vidishraj/akkountant/extractor/boi_debit"
	"github.com/vidishraj/akkountant/extractor/common"
	"github.com/vidishraj/akkountant/extractor/epf"
	"github.com/vidishraj/akkountant/extractor/geometry"
	"github.com/vidishraj/akkountant/extractor/hdfc_credit"
	"github.com/vidishraj/akkountant/extractor/hdfc_debit"
	"github.com/vidishraj/akkountant/extractor/icici_credit"
	"github.com/vidishraj/akkountant/extractor/nps"
	"github.com/vidishraj/akkountant/extractor/statement"
	"github.com/vidishraj/akkountant/extractor/yes_credit"
	"github.com/vidishraj/akkountant/extractor/yes_debit"
)

var ErrUnknownBank = errors.New("unknown statement format")

// formats is the closed set of supported statements. Each call builds a
// fresh Format, so parsers holding per-file state are never shared.
var formats = map[string]func() (statement.Format, error){
	hdfc_debit.Bank:   hdfc_debit.New,
	hdfc_credit.Bank:  hdfc_credit.New,
	icici_credit.Bank: icici_credit.New,
	yes_credit.Bank:   yes_credit.New,
	yes_debit.Bank:    yes_debit.New,
	boi_debit.Bank:    boi_debit.New,
	epf.Bank:          epf.New,
	nps.Bank:          nps.New,
}

// Banks lists the supported statement keys.
func Banks() []string {
	banks := make([]string, 0, len(formats))
	for b := range formats {
		banks = append(banks, b)
	}
	sort.Strings(banks)
	return banks
}

// Lookup builds the format registered for bank.
func Lookup(bank string) (statement.Format, error) {
	build, ok := formats[bank]
	if !ok {
		return statement.Format{}, fmt.Errorf("%w: %q", ErrUnknownBank, bank)
	}
	f, err := build()
	if err != nil {
		return statement.Format{}, fmt.Errorf("failed to load format %s: %w", bank, err)
	}
	return f, nil
}

// ParseDocument parses an opened document as bank.
func ParseDocument(doc geometry.Document, bank string) (*statement.Collector, error) {
	f, err := Lookup(bank)
	if err != nil {
		return &statement.Collector{Bank: bank}, err
	}
	return statement.Parse(doc, f)
}

// ParseFile opens and parses the statement at path. Unknown banks and
// unreadable or locked files fail before any row is read.
func ParseFile(path, bank, password string) (*statement.Collector, error) {
	f, err := Lookup(bank)
	if err != nil {
		return &statement.Collector{Bank: bank}, err
	}
	doc, err := geometry.Open(path, password)
	if err != nil {
		return &statement.Collector{Bank: bank}, err
	}
	defer doc.Close()

	log.WithFields(log.Fields{"bank": bank, "file": filepath.Base(path), "pages": doc.NumPage()}).Info("parsing statement")
	return statement.Parse(doc, f)
}

// FileResult is the outcome of parsing one file of a path scan.
type FileResult struct {
	File         string                         `json:"file"`
	Bank         string                         `json:"bank"`
	Transactions []common.NormalizedTransaction `json:"transactions"`
	Holdings     []common.Holding               `json:"holdings,omitempty"`
	Error        string                         `json:"error,omitempty"`
}

// ExtractPath parses path, or every PDF directly inside it when path is a
// directory. Failures are reported per file.
func ExtractPath(path, bank, password string) ([]FileResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	files := []string{path}
	if info.IsDir() {
		log.Infof("scanning %s", path)
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read directory %s: %w", path, err)
		}
		files = files[:0]
		for _, e := range entries {
			if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
				files = append(files, filepath.Join(path, e.Name()))
			}
		}
	}

	results := make([]FileResult, 0, len(files))
	for _, file := range files {
		c, err := ParseFile(file, bank, password)
		if errors.Is(err, ErrUnknownBank) {
			return nil, err
		}
		result := FileResult{File: file, Bank: bank, Transactions: c.Transactions, Holdings: c.Holdings}
		if result.Transactions == nil {
			result.Transactions = []common.NormalizedTransaction{}
		}
		if err != nil {
			log.WithField("file", file).Warnf("parse stopped early: %v", err)
			result.Error = err.Error()
		}
		results = append(results, result)
	}
	return results, nil
}
