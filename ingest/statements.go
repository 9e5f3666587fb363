package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/vidishraj/akkountant/extractor"
	"github.com/vidishraj/akkountant/extractor/common"
	"github.com/vidishraj/akkountant/extractor/epf"
	"github.com/vidishraj/akkountant/extractor/geometry"
	"github.com/vidishraj/akkountant/extractor/nps"
	"github.com/vidishraj/akkountant/extractor/statement"
	"github.com/vidishraj/akkountant/integrations/gcs"
	"github.com/vidishraj/akkountant/portfolio"
	"github.com/vidishraj/akkountant/reconcile"
)

// StatementResult is the outcome of importing one statement file. Partial is
// set when parsing stopped early but earlier rows were still stored.
type StatementResult struct {
	reconcile.Result
	File     string `json:"file"`
	Bank     string `json:"bank"`
	FileID   string `json:"file_id,omitempty"`
	Holdings int    `json:"holdings,omitempty"`
	Partial  bool   `json:"partial,omitempty"`
	Error    string `json:"error,omitempty"`
}

// ParseStatement parses the file at path as bank and stores what it yields
// for user. An empty password falls back to the one stored for the bank.
func (s *Service) ParseStatement(ctx context.Context, user, bank, path, password string) (StatementResult, error) {
	res := StatementResult{File: filepath.Base(path), Bank: bank}
	if _, err := extractor.Lookup(bank); err != nil {
		return res, err
	}
	if password == "" {
		pw, err := s.Store.StatementPassword(ctx, user, bank)
		if err != nil {
			return res, err
		}
		password = pw
	}
	info, err := os.Stat(path)
	if err != nil {
		return res, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	c, perr := extractor.ParseFile(path, bank, password)
	return s.storeParsed(ctx, user, res, info.Size(), c, perr)
}

// ParseDocument stores an already opened document. name and size describe
// the file it came from.
func (s *Service) ParseDocument(ctx context.Context, user, bank, name string, size int64, doc geometry.Document) (StatementResult, error) {
	c, perr := extractor.ParseDocument(doc, bank)
	return s.storeParsed(ctx, user, StatementResult{File: name, Bank: bank}, size, c, perr)
}

func (s *Service) storeParsed(ctx context.Context, user string, res StatementResult, size int64, c *statement.Collector, perr error) (StatementResult, error) {
	logger := log.WithFields(log.Fields{"bank": res.Bank, "user": user, "file": res.File})
	if perr != nil {
		res.Error = perr.Error()
		if len(c.Transactions) == 0 && len(c.Holdings) == 0 {
			return res, perr
		}
		res.Partial = true
		logger.Warnf("storing partial statement: %v", perr)
	}

	res.FileID = uuid.NewString()
	err := s.Store.AddFileDetails(ctx, common.FileDetails{
		FileID:     res.FileID,
		UploadDate: s.Now(),
		FileName:   res.File,
		FileSize:   size,
		Bank:       res.Bank,
		User:       user,
	})
	if err != nil {
		return res, err
	}

	switch res.Bank {
	case epf.Bank:
		res.Result = s.insertDeposits(ctx, user, common.EPF, c.Transactions)
	case nps.Bank:
		imported, err := portfolio.ImportHoldings(ctx, s.Store, user, s.Now(), c.Holdings)
		res.Read = imported.Read
		res.Inserted = imported.Bought
		res.Holdings = imported.Bought
		if err != nil {
			return res, fmt.Errorf("failed to store NPS holdings: %w", err)
		}
	default:
		res.Result = reconcile.InsertBatch(ctx, s.Store, c.Transactions, nil, reconcile.Batch{
			Bank:   res.Bank,
			User:   user,
			Source: common.SourceStatement,
			FileID: res.FileID,
		})
	}

	if err := s.Store.SetStatementCount(ctx, res.FileID, res.Inserted); err != nil {
		logger.Warnf("could not update statement count: %v", err)
	}
	if perr != nil && statement.Fatal(perr) {
		return res, perr
	}
	return res, nil
}

// insertDeposits stores passbook rows as deposits. Re-importing a passbook
// counts every row as a duplicate.
func (s *Service) insertDeposits(ctx context.Context, user string, kind common.SecurityType, rows []common.NormalizedTransaction) reconcile.Result {
	res := reconcile.Result{Read: len(rows)}
	for _, row := range rows {
		r := s.Store.InsertDeposit(ctx, common.Deposit{
			BuyID:        uuid.NewString(),
			Date:         row.Date,
			Description:  row.Description,
			Amount:       row.Amount,
			UserID:       user,
			SecurityType: kind,
		})
		switch r.Outcome {
		case reconcile.Inserted:
			res.Inserted++
		case reconcile.Duplicate:
			res.Duplicates++
		default:
			res.Failed++
			log.WithField("user", user).Errorf("failed to insert deposit: %v", r.Err)
		}
	}
	return res
}

// ImportPath imports a file, every PDF in a directory, or a gs:// object or
// prefix. Per-file failures are reported in the results; an unknown bank
// stops the scan.
func (s *Service) ImportPath(ctx context.Context, user, bank, path, password string) ([]StatementResult, error) {
	if _, err := extractor.Lookup(bank); err != nil {
		return nil, err
	}
	files, cleanup, err := s.resolve(ctx, path)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	results := make([]StatementResult, 0, len(files))
	for _, f := range files {
		res, err := s.ParseStatement(ctx, user, bank, f, password)
		if err != nil {
			if errors.Is(err, extractor.ErrUnknownBank) {
				return results, err
			}
			log.WithField("file", f).Errorf("import failed: %v", err)
			res.Error = err.Error()
		}
		results = append(results, res)
	}
	return results, nil
}

func (s *Service) resolve(ctx context.Context, path string) ([]string, func(), error) {
	noop := func() {}
	if gcs.IsURL(path) {
		if s.Objects == nil {
			return nil, noop, fmt.Errorf("cannot fetch %s: no object storage configured", path)
		}
		if err := os.MkdirAll(s.TempDir, 0o755); err != nil {
			return nil, noop, fmt.Errorf("failed to create temp dir: %w", err)
		}
		dir, err := os.MkdirTemp(s.TempDir, "gcs-")
		if err != nil {
			return nil, noop, fmt.Errorf("failed to create temp dir: %w", err)
		}
		files, err := s.Objects.Fetch(ctx, path, dir)
		return files, func() { os.RemoveAll(dir) }, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, noop, fmt.Errorf("failed to stat path: %w", err)
	}
	if !info.IsDir() {
		return []string{path}, noop, nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, noop, fmt.Errorf("failed to read directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			files = append(files, filepath.Join(path, e.Name()))
		}
	}
	log.Infof("found %d PDF files in %s", len(files), path)
	return files, noop, nil
}
