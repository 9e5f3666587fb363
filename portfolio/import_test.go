package portfolio

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vidishraj/akkountant/extractor/common"
	"github.com/vidishraj/akkountant/reconcile"
)

type memState struct {
	positions map[string]Position
	sales     []Sale
	moves     []Movement
	trades    map[string]string
	ledger    map[string]common.Transaction
}

func (m memState) clone() memState {
	c := memState{positions: map[string]Position{}, trades: map[string]string{}, ledger: map[string]common.Transaction{}}
	for k, v := range m.positions {
		c.positions[k] = v
	}
	for k, v := range m.trades {
		c.trades[k] = v
	}
	for k, v := range m.ledger {
		c.ledger[k] = v
	}
	c.sales = append(c.sales, m.sales...)
	c.moves = append(c.moves, m.moves...)
	return c
}

// memLedger commits a working copy on success and drops it on error.
type memLedger struct {
	state memState
	work  *memState
}

func newMemLedger() *memLedger {
	return &memLedger{state: memState{positions: map[string]Position{}, trades: map[string]string{}, ledger: map[string]common.Transaction{}}}
}

func (l *memLedger) InTx(_ context.Context, fn func(Store) error) error {
	work := l.state.clone()
	l.work = &work
	defer func() { l.work = nil }()
	if err := fn(l); err != nil {
		return err
	}
	l.state = work
	return nil
}

func key(user, code string, kind common.SecurityType) string {
	return user + "|" + code + "|" + string(kind)
}

func (l *memLedger) Position(_ context.Context, user, code string, kind common.SecurityType) (*Position, error) {
	p, ok := l.work.positions[key(user, code, kind)]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (l *memLedger) SavePosition(_ context.Context, p Position) error {
	l.work.positions[key(p.User, p.Code, p.Type)] = p
	return nil
}

func (l *memLedger) AddSale(_ context.Context, s Sale) error {
	l.work.sales = append(l.work.sales, s)
	return nil
}

func (l *memLedger) AddMovement(_ context.Context, m Movement) error {
	l.work.moves = append(l.work.moves, m)
	return nil
}

func (l *memLedger) TradeExists(_ context.Context, id string) (bool, error) {
	_, ok := l.work.trades[id]
	return ok, nil
}

func (l *memLedger) RecordTrade(_ context.Context, id, buyID string) error {
	l.work.trades[id] = buyID
	return nil
}

func (l *memLedger) InsertTransaction(_ context.Context, tx common.Transaction) reconcile.InsertResult {
	if _, ok := l.work.ledger[tx.ReferenceID]; ok {
		return reconcile.Dup()
	}
	l.work.ledger[tx.ReferenceID] = tx
	return reconcile.Ok()
}

func (l *memLedger) Positions(_ context.Context, user string, kind common.SecurityType) ([]Position, error) {
	var out []Position
	for _, p := range l.work.positions {
		if p.User == user && p.Type == kind {
			out = append(out, p)
		}
	}
	return out, nil
}

func trade(id string, day int, side Side, qty, price string) Trade {
	return Trade{
		TradeID:  id,
		Symbol:   "INFY",
		Date:     time.Date(2024, 1, day, 0, 0, 0, 0, time.Local),
		Side:     side,
		Quantity: decimal.RequireFromString(qty),
		Price:    decimal.RequireFromString(price),
	}
}

func TestImportTrades(t *testing.T) {
	l := newMemLedger()
	trades := []Trade{
		trade("T3", 20, SellSide, "5", "130"),
		trade("T1", 2, BuySide, "10", "100"),
		trade("T2", 10, BuySide, "10", "120"),
	}

	res, err := ImportTrades(context.Background(), l, "u1", trades)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Read: 3, Bought: 2, Sold: 1}, res)

	p := l.state.positions[key("u1", "INFY", common.Stocks)]
	assert.True(t, p.Quantity.Equal(decimal.NewFromInt(15)))
	assert.True(t, p.Price.Equal(decimal.NewFromInt(110)))
	require.Len(t, l.state.sales, 1)
	assert.True(t, l.state.sales[0].Profit.Equal(decimal.NewFromInt(100)))
	assert.Len(t, l.state.moves, 3)
	assert.Len(t, l.state.trades, 3)
	assert.Len(t, l.state.ledger, 3)

	again, err := ImportTrades(context.Background(), l, "u1", trades)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Read: 3, Skipped: 3}, again)
	assert.Len(t, l.state.moves, 3)
}

func TestImportTrades_BooksLedgerTransactions(t *testing.T) {
	l := newMemLedger()
	_, err := ImportTrades(context.Background(), l, "u1", []Trade{
		trade("T1", 2, BuySide, "10", "100"),
		trade("T2", 3, SellSide, "4", "110"),
	})
	require.NoError(t, err)

	amounts := map[string]string{}
	for _, tx := range l.state.ledger {
		assert.Equal(t, common.SourceTradeBook, tx.Source)
		assert.Equal(t, TradeBookBank, tx.Bank)
		amounts[tx.Description] = tx.Amount.String()
	}
	assert.Equal(t, map[string]string{"INFY T1": "1000", "INFY T2": "-440"}, amounts)
}

func TestImportTrades_ReimportWithoutTradeIDs(t *testing.T) {
	l := newMemLedger()
	book := []Trade{
		trade("", 2, BuySide, "10", "100"),
		trade("", 5, BuySide, "5", "100"),
	}

	res, err := ImportTrades(context.Background(), l, "u1", book)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Bought)

	// nothing recorded by trade ID, so the ledger hash is what stops the rerun
	again, err := ImportTrades(context.Background(), l, "u1", book)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Read: 2, Skipped: 2}, again)

	p := l.state.positions[key("u1", "INFY", common.Stocks)]
	assert.True(t, p.Quantity.Equal(decimal.NewFromInt(15)), p.Quantity.String())
	assert.Empty(t, l.state.trades)
}

func TestImportTrades_LedgerRolledBackWithBook(t *testing.T) {
	l := newMemLedger()
	_, err := ImportTrades(context.Background(), l, "u1", []Trade{
		trade("T1", 2, BuySide, "5", "100"),
		trade("T2", 3, SellSide, "50", "120"),
	})
	require.ErrorIs(t, err, ErrChronology)
	assert.Empty(t, l.state.ledger)
}

func TestImportTrades_SellBeforeBuyRollsBack(t *testing.T) {
	l := newMemLedger()
	_, err := ImportTrades(context.Background(), l, "u1", []Trade{trade("T0", 1, BuySide, "1", "10")})
	require.NoError(t, err)

	res, err := ImportTrades(context.Background(), l, "u1", []Trade{
		trade("T1", 2, BuySide, "5", "100"),
		trade("T2", 3, SellSide, "50", "120"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrChronology)
	assert.ErrorIs(t, err, ErrOversell)
	assert.Equal(t, 2, res.Read)

	// the earlier buy in the same book was undone
	p := l.state.positions[key("u1", "INFY", common.Stocks)]
	assert.True(t, p.Quantity.Equal(decimal.NewFromInt(1)))
	assert.NotContains(t, l.state.trades, "T1")
}

func TestImportTrades_SellWithoutPosition(t *testing.T) {
	l := newMemLedger()
	_, err := ImportTrades(context.Background(), l, "u1", []Trade{trade("T1", 2, SellSide, "1", "100")})
	assert.ErrorIs(t, err, ErrChronology)
	assert.ErrorIs(t, err, ErrNoPosition)
	assert.Empty(t, l.state.positions)
}

func TestImportHoldings(t *testing.T) {
	l := newMemLedger()
	day := time.Date(2024, 3, 31, 0, 0, 0, 0, time.Local)
	holdings := []common.Holding{
		{Name: "SBI PENSION FUND SCHEME E - TIER I", NAV: decimal.RequireFromString("45.1234"), Quantity: decimal.RequireFromString("120.5")},
		{Name: "EMPTY", NAV: decimal.NewFromInt(10), Quantity: decimal.Zero},
	}

	res, err := ImportHoldings(context.Background(), l, "u1", day, holdings)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Bought)

	var ps []Position
	err = l.InTx(context.Background(), func(s Store) error {
		var err error
		ps, err = s.Positions(context.Background(), "u1", common.NPS)
		return err
	})
	require.NoError(t, err)
	require.Len(t, ps, 1)
	assert.Equal(t, "45.1234", ps[0].Price.String())
}

func TestSellPosition(t *testing.T) {
	l := newMemLedger()
	_, err := ImportTrades(context.Background(), l, "u1", []Trade{trade("T1", 2, BuySide, "10", "100")})
	require.NoError(t, err)

	sale, err := SellPosition(context.Background(), l, "u1", "INFY", common.Stocks, time.Now(), decimal.NewFromInt(2), decimal.NewFromInt(90))
	require.NoError(t, err)
	assert.True(t, sale.Profit.Equal(decimal.NewFromInt(-20)))

	_, err = SellPosition(context.Background(), l, "u1", "TCS", common.Stocks, time.Now(), decimal.NewFromInt(1), decimal.NewFromInt(1))
	assert.ErrorIs(t, err, ErrNoPosition)
}
