package portfolio

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/vidishraj/akkountant/extractor/common"
	"github.com/vidishraj/akkountant/reconcile"
)

// TradeBookBank is the bank recorded on transactions booked from a trade book.
const TradeBookBank = "TRADEBOOK"

// ImportResult counts a trade-book or holdings import.
type ImportResult struct {
	Read    int `json:"read"`
	Bought  int `json:"bought"`
	Sold    int `json:"sold"`
	Skipped int `json:"skipped"`
}

// ImportTrades applies trades for user in date order inside one store
// transaction. A trade is skipped when its ID is already recorded, or when
// its ledger transaction already exists. A sell with nothing to sell from
// aborts the whole import with ErrChronology and nothing is kept.
func ImportTrades(ctx context.Context, tx TxRunner, user string, trades []Trade) (ImportResult, error) {
	ordered := make([]Trade, len(trades))
	copy(ordered, trades)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Date.Before(ordered[j].Date) })

	res := ImportResult{Read: len(ordered)}
	var applied ImportResult
	err := tx.InTx(ctx, func(s Store) error {
		applied = ImportResult{Read: len(ordered)}
		for _, t := range ordered {
			if t.TradeID != "" {
				seen, err := s.TradeExists(ctx, t.TradeID)
				if err != nil {
					return fmt.Errorf("checking trade %s: %w", t.TradeID, err)
				}
				if seen {
					applied.Skipped++
					continue
				}
			}
			r := s.InsertTransaction(ctx, tradeTransaction(user, t))
			switch r.Outcome {
			case reconcile.Duplicate:
				log.WithFields(log.Fields{"user": user, "symbol": t.Symbol}).Warn("trade already in the ledger, skipping")
				applied.Skipped++
				continue
			case reconcile.Failed:
				return fmt.Errorf("booking trade of %s: %w", t.Symbol, r.Err)
			}

			buyID, err := apply(ctx, s, user, common.Stocks, t)
			if err != nil {
				return err
			}
			if t.TradeID != "" {
				if err := s.RecordTrade(ctx, t.TradeID, buyID); err != nil {
					return fmt.Errorf("recording trade %s: %w", t.TradeID, err)
				}
			}
			if t.Side == BuySide {
				applied.Bought++
			} else {
				applied.Sold++
			}
		}
		return nil
	})
	if err != nil {
		log.WithField("user", user).Errorf("trade book import rolled back: %v", err)
		return res, err
	}
	return applied, nil
}

// tradeTransaction is the ledger row of a trade: buys are money out and
// positive, sells negative. The broker trade ID is part of the description
// so distinct fills of the same size on one day stay distinct.
func tradeTransaction(user string, t Trade) common.Transaction {
	amount := t.Quantity.Mul(t.Price)
	if t.Side == SellSide {
		amount = amount.Neg()
	}
	desc := t.Symbol
	if t.TradeID != "" {
		desc += " " + t.TradeID
	}
	return common.Transaction{
		NormalizedTransaction: common.NewTransaction(t.Date, desc, amount),
		Source:                common.SourceTradeBook,
		Bank:                  TradeBookBank,
		User:                  user,
	}
}

// apply books one trade and returns the position it touched.
func apply(ctx context.Context, s Store, user string, kind common.SecurityType, t Trade) (string, error) {
	existing, err := s.Position(ctx, user, t.Symbol, kind)
	if err != nil {
		return "", fmt.Errorf("loading position %s: %w", t.Symbol, err)
	}

	var p Position
	switch t.Side {
	case BuySide:
		p = Buy(existing, user, t.Symbol, kind, t.Date, t.Quantity, t.Price)
	case SellSide:
		if existing == nil {
			return "", fmt.Errorf("%w: sell of %s on %s before any buy: %w", ErrChronology, t.Symbol, t.Date.Format(time.DateOnly), ErrNoPosition)
		}
		var sale Sale
		p, sale, err = Sell(*existing, t.Date, t.Quantity, t.Price)
		if errors.Is(err, ErrOversell) {
			return "", fmt.Errorf("%w: %s on %s: %w", ErrChronology, t.Symbol, t.Date.Format(time.DateOnly), err)
		}
		if err != nil {
			return "", err
		}
		if err := s.AddSale(ctx, sale); err != nil {
			return "", fmt.Errorf("saving sale of %s: %w", t.Symbol, err)
		}
	default:
		return "", fmt.Errorf("unknown trade side %q", t.Side)
	}

	if err := s.SavePosition(ctx, p); err != nil {
		return "", fmt.Errorf("saving position %s: %w", t.Symbol, err)
	}
	err = s.AddMovement(ctx, Movement{
		BuyID:    p.BuyID,
		User:     user,
		Type:     kind,
		Side:     t.Side,
		Date:     t.Date,
		Quantity: t.Quantity,
		Price:    t.Price,
	})
	if err != nil {
		return "", fmt.Errorf("saving movement for %s: %w", t.Symbol, err)
	}
	return p.BuyID, nil
}

// ImportHoldings buys every NPS holding at its NAV, dated date.
func ImportHoldings(ctx context.Context, tx TxRunner, user string, date time.Time, holdings []common.Holding) (ImportResult, error) {
	res := ImportResult{Read: len(holdings)}
	err := tx.InTx(ctx, func(s Store) error {
		for _, h := range holdings {
			if h.Quantity.LessThanOrEqual(decimal.Zero) {
				continue
			}
			_, err := apply(ctx, s, user, common.NPS, Trade{
				Symbol:   h.Name,
				Date:     date,
				Side:     BuySide,
				Quantity: h.Quantity,
				Price:    h.NAV,
			})
			if err != nil {
				return err
			}
			res.Bought++
		}
		return nil
	})
	if err != nil {
		return ImportResult{Read: len(holdings)}, err
	}
	return res, nil
}

// SellPosition books a single sell outside of an import.
func SellPosition(ctx context.Context, tx TxRunner, user, code string, kind common.SecurityType, date time.Time, qty, price decimal.Decimal) (Sale, error) {
	var sale Sale
	err := tx.InTx(ctx, func(s Store) error {
		existing, err := s.Position(ctx, user, code, kind)
		if err != nil {
			return err
		}
		if existing == nil {
			return fmt.Errorf("%w: %s", ErrNoPosition, code)
		}
		p, sl, err := Sell(*existing, date, qty, price)
		if err != nil {
			return err
		}
		sale = sl
		if err := s.AddSale(ctx, sale); err != nil {
			return err
		}
		if err := s.SavePosition(ctx, p); err != nil {
			return err
		}
		return s.AddMovement(ctx, Movement{BuyID: p.BuyID, User: user, Type: kind, Side: SellSide, Date: date, Quantity: qty, Price: price})
	})
	return sale, err
}
