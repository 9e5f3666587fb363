package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vidishraj/akkountant/accrual"
	"github.com/vidishraj/akkountant/extractor/common"
	"github.com/vidishraj/akkountant/portfolio"
	"github.com/vidishraj/akkountant/reconcile"
)

var (
	// ErrAmbiguous reports a PPF deposit on a day that already has one.
	ErrAmbiguous = errors.New("a deposit already exists for this date")
	// ErrNotFound reports a delete of a deposit that does not exist.
	ErrNotFound = errors.New("deposit not found")
)

// ImportTradeBook applies a broker trade book to the user's positions.
func (s *Service) ImportTradeBook(ctx context.Context, user, path string) (portfolio.ImportResult, error) {
	trades, err := portfolio.ReadTradeBook(path)
	if err != nil {
		return portfolio.ImportResult{}, err
	}
	return portfolio.ImportTrades(ctx, s.Store, user, trades)
}

// SellPosition records a manual sale against an open position.
func (s *Service) SellPosition(ctx context.Context, user, code string, kind common.SecurityType, date time.Time, qty, price decimal.Decimal) (portfolio.Sale, error) {
	return portfolio.SellPosition(ctx, s.Store, user, code, kind, date, qty, price)
}

// InsertDeposit adds a manual deposit and returns its buy ID.
func (s *Service) InsertDeposit(ctx context.Context, user string, kind common.SecurityType, date time.Time, description string, amount decimal.Decimal) (string, error) {
	if !amount.IsPositive() {
		return "", fmt.Errorf("deposit amount must be positive, got %s", amount)
	}
	dep := common.Deposit{
		BuyID:        uuid.NewString(),
		Date:         date,
		Description:  description,
		Amount:       amount,
		UserID:       user,
		SecurityType: kind,
	}
	r := s.Store.InsertDeposit(ctx, dep)
	switch r.Outcome {
	case reconcile.Inserted:
		return dep.BuyID, nil
	case reconcile.Duplicate:
		return "", ErrAmbiguous
	default:
		return "", r.Err
	}
}

// DeleteDeposit removes one deposit by buy ID.
func (s *Service) DeleteDeposit(ctx context.Context, user, buyID string) error {
	ok, err := s.Store.DeleteDeposit(ctx, user, buyID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// DeleteDeposits removes every deposit of kind and returns how many went.
func (s *Service) DeleteDeposits(ctx context.Context, user string, kind common.SecurityType) (int64, error) {
	return s.Store.DeleteDeposits(ctx, user, kind)
}

// AccrualSummary computes the month-by-month interest schedule of the
// user's deposits of kind up to now.
func (s *Service) AccrualSummary(ctx context.Context, user string, kind common.SecurityType) (accrual.Summary, error) {
	deposits, err := s.Store.Deposits(ctx, user, kind)
	if err != nil {
		return accrual.Summary{}, err
	}
	return accrual.Compute(kind, deposits, s.Rates, s.Now())
}

// SetStatementPassword stores the password used to open the bank's
// statements.
func (s *Service) SetStatementPassword(ctx context.Context, user, bank, password string) error {
	return s.Store.SetStatementPassword(ctx, user, bank, password)
}
