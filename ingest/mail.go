package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/vidishraj/akkountant/extractor"
	"github.com/vidishraj/akkountant/extractor/common"
	"github.com/vidishraj/akkountant/extractor/email"
	"github.com/vidishraj/akkountant/reconcile"
)

// ReadEmailTransactions imports the bank's alert mails received between from
// and to. Bodies that match no alert pattern go to review.
func (s *Service) ReadEmailTransactions(ctx context.Context, user, bank string, from, to time.Time) (reconcile.Result, error) {
	if s.Mail == nil {
		return reconcile.Result{}, ErrNoMail
	}
	search, err := email.Search(bank)
	if err != nil {
		return reconcile.Result{}, err
	}
	bodies, err := s.Mail.Snippets(ctx, search, from, to)
	if err != nil {
		return reconcile.Result{}, fmt.Errorf("failed to read alert mails: %w", err)
	}
	log.WithFields(log.Fields{"bank": bank, "user": user, "mails": len(bodies)}).Info("read alert mails")

	txs, conflicts, err := email.Extract(bodies, bank)
	if err != nil {
		return reconcile.Result{}, err
	}
	return reconcile.InsertBatch(ctx, s.Store, txs, conflicts, reconcile.Batch{
		Bank:   bank,
		User:   user,
		Source: common.SourceEmail,
	}), nil
}

// ReadStatementsFromMail imports every PDF statement attached to the bank's
// statement mails between from and to. Attachments are staged under TempDir
// and removed after parsing.
func (s *Service) ReadStatementsFromMail(ctx context.Context, user, bank string, from, to time.Time) ([]StatementResult, error) {
	if s.Mail == nil {
		return nil, ErrNoMail
	}
	if _, err := extractor.Lookup(bank); err != nil {
		return nil, err
	}
	search := viper.GetString("statement." + bank + ".search")
	if search == "" {
		return nil, fmt.Errorf("no statement mail search configured for %s", bank)
	}

	atts, err := s.Mail.Attachments(ctx, search, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to read statement mails: %w", err)
	}
	if err := os.MkdirAll(s.TempDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}

	var results []StatementResult
	for _, att := range atts {
		if !strings.EqualFold(filepath.Ext(att.Filename), ".pdf") {
			continue
		}
		path := filepath.Join(s.TempDir, att.MessageID+"_"+filepath.Base(att.Filename))
		if err := os.WriteFile(path, att.Data, 0o600); err != nil {
			return results, fmt.Errorf("failed to stage attachment: %w", err)
		}

		res, err := s.ParseStatement(ctx, user, bank, path, "")
		res.File = att.Filename
		if err != nil {
			log.WithFields(log.Fields{"bank": bank, "file": att.Filename}).Errorf("statement import failed: %v", err)
			res.Error = err.Error()
		}
		results = append(results, res)

		if err := os.Remove(path); err != nil {
			log.Warnf("could not remove %s: %v", path, err)
		}
	}
	return results, nil
}
