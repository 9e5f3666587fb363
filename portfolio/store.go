package portfolio

import (
	"context"

	"github.com/vidishraj/akkountant/extractor/common"
	"github.com/vidishraj/akkountant/reconcile"
)

// Store is the persistence a ledger needs. Position returns nil, nil when
// the user holds no such security.
type Store interface {
	Position(ctx context.Context, user, code string, kind common.SecurityType) (*Position, error)
	SavePosition(ctx context.Context, p Position) error
	AddSale(ctx context.Context, s Sale) error
	AddMovement(ctx context.Context, m Movement) error
	TradeExists(ctx context.Context, tradeID string) (bool, error)
	RecordTrade(ctx context.Context, tradeID, buyID string) error
	Positions(ctx context.Context, user string, kind common.SecurityType) ([]Position, error)
	InsertTransaction(ctx context.Context, tx common.Transaction) reconcile.InsertResult
}

// TxRunner runs fn inside one store transaction. A non-nil error from fn
// rolls back everything fn wrote.
type TxRunner interface {
	InTx(ctx context.Context, fn func(Store) error) error
}
