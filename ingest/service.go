// Package ingest is the composition root of the import pipeline: it feeds
// parsed statements, mail alerts and trade books through the
// reconciliation engine into the store and answers accrual queries.
package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/vidishraj/akkountant/accrual"
	"github.com/vidishraj/akkountant/extractor/common"
	"github.com/vidishraj/akkountant/integrations/gmail"
	"github.com/vidishraj/akkountant/portfolio"
	"github.com/vidishraj/akkountant/reconcile"
)

// ErrNoMail is returned by mail operations when no mailbox is configured.
var ErrNoMail = errors.New("no mail provider configured")

// Store is everything the pipeline persists. Both the sqlite and postgres
// stores implement it.
type Store interface {
	reconcile.Store
	portfolio.TxRunner

	Transactions(ctx context.Context, user, bank string) ([]common.Transaction, error)
	ReviewItems(ctx context.Context, user string) ([]common.ReviewItem, error)

	InsertDeposit(ctx context.Context, dep common.Deposit) reconcile.InsertResult
	Deposits(ctx context.Context, user string, kind common.SecurityType) ([]common.Deposit, error)
	DeleteDeposit(ctx context.Context, user, buyID string) (bool, error)
	DeleteDeposits(ctx context.Context, user string, kind common.SecurityType) (int64, error)

	AddFileDetails(ctx context.Context, f common.FileDetails) error
	SetStatementCount(ctx context.Context, fileID string, count int) error
	Files(ctx context.Context, user string) ([]common.FileDetails, error)

	SetStatementPassword(ctx context.Context, user, bank, password string) error
	StatementPassword(ctx context.Context, user, bank string) (string, error)

	DeleteUser(ctx context.Context, user string) error
	Close() error
}

// Mail lists message snippets and attachments matching a search in a date
// range.
type Mail interface {
	Snippets(ctx context.Context, search string, from, to time.Time) ([]string, error)
	Attachments(ctx context.Context, search string, from, to time.Time) ([]gmail.Attachment, error)
}

// Objects copies remote statement files to a local directory.
type Objects interface {
	Fetch(ctx context.Context, url, dir string) ([]string, error)
}

// Service wires the pipeline. Mail and Objects are optional.
type Service struct {
	Store   Store
	Rates   accrual.RateProvider
	Mail    Mail
	Objects Objects
	TempDir string
	Now     func() time.Time
}

// New returns a service over store and rates.
func New(store Store, rates accrual.RateProvider) *Service {
	return &Service{Store: store, Rates: rates, TempDir: "tmp", Now: time.Now}
}
