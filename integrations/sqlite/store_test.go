package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vidishraj/akkountant/extractor/common"
	"github.com/vidishraj/akkountant/portfolio"
	"github.com/vidishraj/akkountant/reconcile"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func TestOpen_MigratesTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twice.db")
	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())
}

func TestInsertTransaction_Duplicate(t *testing.T) {
	db := openTemp(t)
	ctx := context.Background()
	tx := common.Transaction{
		NormalizedTransaction: common.NewTransaction(day(2024, 3, 1), "UPI-SWIGGY", decimal.RequireFromString("450.5")),
		Source:                common.SourceStatement,
		Bank:                  "HDFC_DEBIT",
		User:                  "u1",
	}

	assert.Equal(t, reconcile.Inserted, db.InsertTransaction(ctx, tx).Outcome)
	assert.Equal(t, reconcile.Duplicate, db.InsertTransaction(ctx, tx).Outcome)

	got, err := db.Transactions(ctx, "u1", "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, tx.ReferenceID, got[0].ReferenceID)
	assert.True(t, got[0].Amount.Equal(decimal.RequireFromString("450.50")))
	assert.Equal(t, "2024-03-01", got[0].Date.Format("2006-01-02"))

	none, err := db.Transactions(ctx, "u1", "YES_BANK_ACE")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestInsertTransaction_UnknownFileFails(t *testing.T) {
	db := openTemp(t)
	tx := common.Transaction{
		NormalizedTransaction: common.NewTransaction(day(2024, 3, 1), "X", decimal.NewFromInt(1)),
		FileID:                "missing",
		User:                  "u1",
	}
	res := db.InsertTransaction(context.Background(), tx)
	assert.Equal(t, reconcile.Failed, res.Outcome)
	assert.Error(t, res.Err)
}

func TestReviewItems(t *testing.T) {
	db := openTemp(t)
	ctx := context.Background()
	item := common.ReviewItem{User: "u1", Content: "unmatched alert"}

	assert.Equal(t, reconcile.Inserted, db.AddReviewItem(ctx, item).Outcome)
	assert.Equal(t, reconcile.Duplicate, db.AddReviewItem(ctx, item).Outcome)
	items, err := db.ReviewItems(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []common.ReviewItem{item}, items)
}

func TestDeposits_PPFOnePerDay(t *testing.T) {
	db := openTemp(t)
	ctx := context.Background()
	dep := func(id string, kind common.SecurityType, d time.Time, amount int64, desc string) common.Deposit {
		return common.Deposit{BuyID: id, Date: d, Description: desc, Amount: decimal.NewFromInt(amount), UserID: "u1", SecurityType: kind}
	}

	assert.Equal(t, reconcile.Inserted, db.InsertDeposit(ctx, dep("a", common.PPF, day(2024, 4, 3), 1000, "april")).Outcome)
	assert.Equal(t, reconcile.Duplicate, db.InsertDeposit(ctx, dep("b", common.PPF, day(2024, 4, 3), 500, "again")).Outcome)
	assert.Equal(t, reconcile.Inserted, db.InsertDeposit(ctx, dep("c", common.EPF, day(2024, 4, 3), 500, "epf")).Outcome)
	assert.Equal(t, reconcile.Inserted, db.InsertDeposit(ctx, dep("d", common.EPF, day(2024, 4, 3), 700, "epf")).Outcome)
	assert.Equal(t, reconcile.Duplicate, db.InsertDeposit(ctx, dep("e", common.EPF, day(2024, 4, 3), 700, "epf")).Outcome)

	ppf, err := db.Deposits(ctx, "u1", common.PPF)
	require.NoError(t, err)
	require.Len(t, ppf, 1)
	assert.Equal(t, common.PPF, ppf[0].SecurityType)
	assert.Equal(t, 3, ppf[0].Date.Day())

	ok, err := db.DeleteDeposit(ctx, "u1", "a")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = db.DeleteDeposit(ctx, "u1", "a")
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := db.DeleteDeposits(ctx, "u1", common.EPF)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestFilesAndPasswords(t *testing.T) {
	db := openTemp(t)
	ctx := context.Background()
	require.NoError(t, db.AddFileDetails(ctx, common.FileDetails{
		FileID: "f1", UploadDate: day(2024, 5, 1), FileName: "stmt.pdf", FileSize: 2048, Bank: "HDFC_DEBIT", User: "u1",
	}))
	require.NoError(t, db.SetStatementCount(ctx, "f1", 12))
	files, err := db.Files(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, 12, files[0].StatementCount)

	pw, err := db.StatementPassword(ctx, "u1", "HDFC_DEBIT")
	require.NoError(t, err)
	assert.Empty(t, pw)
	require.NoError(t, db.SetStatementPassword(ctx, "u1", "HDFC_DEBIT", "one"))
	require.NoError(t, db.SetStatementPassword(ctx, "u1", "HDFC_DEBIT", "two"))
	pw, err = db.StatementPassword(ctx, "u1", "HDFC_DEBIT")
	require.NoError(t, err)
	assert.Equal(t, "two", pw)
}

func TestLedger_RollsBack(t *testing.T) {
	db := openTemp(t)
	ctx := context.Background()
	trades := []portfolio.Trade{
		{TradeID: "T1", Symbol: "INFY", Date: day(2024, 1, 2), Side: portfolio.BuySide, Quantity: decimal.NewFromInt(10), Price: decimal.NewFromInt(100)},
		{TradeID: "T2", Symbol: "INFY", Date: day(2024, 1, 3), Side: portfolio.BuySide, Quantity: decimal.NewFromInt(10), Price: decimal.NewFromInt(120)},
	}
	res, err := portfolio.ImportTrades(ctx, db, "u1", trades)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Bought)

	p, err := db.Position(ctx, "u1", "INFY", common.Stocks)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.True(t, p.Price.Equal(decimal.NewFromInt(110)))

	_, err = portfolio.ImportTrades(ctx, db, "u1", []portfolio.Trade{
		{TradeID: "T3", Symbol: "INFY", Date: day(2024, 1, 4), Side: portfolio.BuySide, Quantity: decimal.NewFromInt(5), Price: decimal.NewFromInt(100)},
		{TradeID: "T4", Symbol: "TCS", Date: day(2024, 1, 5), Side: portfolio.SellSide, Quantity: decimal.NewFromInt(1), Price: decimal.NewFromInt(100)},
	})
	require.True(t, errors.Is(err, portfolio.ErrChronology), "got %v", err)

	p, err = db.Position(ctx, "u1", "INFY", common.Stocks)
	require.NoError(t, err)
	assert.True(t, p.Quantity.Equal(decimal.NewFromInt(20)), "rolled back import must not change the position")
	seen, err := db.TradeExists(ctx, "T3")
	require.NoError(t, err)
	assert.False(t, seen)

	open, err := db.Positions(ctx, "u1", common.Stocks)
	require.NoError(t, err)
	assert.Len(t, open, 1)
}

func TestLedger_TradeBookDedupLayers(t *testing.T) {
	db := openTemp(t)
	ctx := context.Background()
	book := []portfolio.Trade{
		{TradeID: "T1", Symbol: "INFY", Date: day(2024, 1, 2), Side: portfolio.BuySide, Quantity: decimal.NewFromInt(10), Price: decimal.NewFromInt(100)},
		{Symbol: "TCS", Date: day(2024, 1, 3), Side: portfolio.BuySide, Quantity: decimal.NewFromInt(2), Price: decimal.NewFromInt(3500)},
	}
	res, err := portfolio.ImportTrades(ctx, db, "u1", book)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Bought)

	// T1 is caught by its trade ID, the TCS row by its ledger hash
	again, err := portfolio.ImportTrades(ctx, db, "u1", book)
	require.NoError(t, err)
	assert.Equal(t, portfolio.ImportResult{Read: 2, Skipped: 2}, again)

	txs, err := db.Transactions(ctx, "u1", portfolio.TradeBookBank)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	for _, tx := range txs {
		assert.Equal(t, common.SourceTradeBook, tx.Source)
	}

	p, err := db.Position(ctx, "u1", "TCS", common.Stocks)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.True(t, p.Quantity.Equal(decimal.NewFromInt(2)), p.Quantity.String())
}

func TestDeleteUser(t *testing.T) {
	db := openTemp(t)
	ctx := context.Background()
	tx := common.Transaction{NormalizedTransaction: common.NewTransaction(day(2024, 3, 1), "X", decimal.NewFromInt(1)), User: "u1"}
	require.Equal(t, reconcile.Inserted, db.InsertTransaction(ctx, tx).Outcome)
	require.NoError(t, db.DeleteUser(ctx, "u1"))

	got, err := db.Transactions(ctx, "u1", "")
	require.NoError(t, err)
	assert.Empty(t, got)
}
