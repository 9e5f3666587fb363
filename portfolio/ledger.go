// Package portfolio tracks brokered security positions: weighted-average
// buys, profit-booking sells and the all-or-nothing trade-book import.
package portfolio

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vidishraj/akkountant/extractor/common"
)

var (
	// ErrOversell is returned when a sell exceeds the open quantity.
	ErrOversell = errors.New("sell quantity exceeds available quantity")
	// ErrNoPosition is returned when selling a security never bought.
	ErrNoPosition = errors.New("no open position")
	// ErrChronology aborts a trade-book import whose sells precede their buys.
	ErrChronology = errors.New("trade out of chronological order")
)

// Side is the direction of a trade.
type Side string

const (
	BuySide  Side = "buy"
	SellSide Side = "sell"
)

// Position is a user's open holding of one security.
type Position struct {
	BuyID    string              `json:"buy_id"`
	User     string              `json:"user"`
	Code     string              `json:"code"`
	Type     common.SecurityType `json:"type"`
	Date     time.Time           `json:"date"`
	Quantity decimal.Decimal     `json:"quantity"`
	Price    decimal.Decimal     `json:"price"`
}

// Invested is the cost of the open quantity.
func (p Position) Invested() decimal.Decimal {
	return p.Quantity.Mul(p.Price)
}

// Sale is one sell booked against a position.
type Sale struct {
	SellID   string          `json:"sell_id"`
	BuyID    string          `json:"buy_id"`
	Date     time.Time       `json:"date"`
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Profit   decimal.Decimal `json:"profit"`
}

// Movement is the buy/sell history row kept for every applied trade.
type Movement struct {
	BuyID    string              `json:"buy_id"`
	User     string              `json:"user"`
	Type     common.SecurityType `json:"type"`
	Side     Side                `json:"side"`
	Date     time.Time           `json:"date"`
	Quantity decimal.Decimal     `json:"quantity"`
	Price    decimal.Decimal     `json:"price"`
}

// Buy adds qty at price to existing, or opens a new position when existing
// is nil. The price becomes the quantity-weighted average.
func Buy(existing *Position, user, code string, kind common.SecurityType, date time.Time, qty, price decimal.Decimal) Position {
	if existing == nil || existing.Quantity.IsZero() {
		p := Position{BuyID: uuid.NewString(), User: user, Code: code, Type: kind, Date: date, Quantity: qty, Price: price}
		if existing != nil {
			p.BuyID = existing.BuyID
		}
		return p
	}
	p := *existing
	total := p.Quantity.Add(qty)
	p.Price = p.Quantity.Mul(p.Price).Add(qty.Mul(price)).Div(total)
	p.Quantity = total
	return p
}

// Sell books qty at price against p and returns the reduced position.
func Sell(p Position, date time.Time, qty, price decimal.Decimal) (Position, Sale, error) {
	if qty.GreaterThan(p.Quantity) {
		return p, Sale{}, fmt.Errorf("%w: selling %s of %s, holding %s", ErrOversell, qty, p.Code, p.Quantity)
	}
	sale := Sale{
		SellID:   uuid.NewString(),
		BuyID:    p.BuyID,
		Date:     date,
		Quantity: qty,
		Price:    price,
		Profit:   qty.Mul(price).Sub(qty.Mul(p.Price)),
	}
	p.Quantity = p.Quantity.Sub(qty)
	return p, sale, nil
}
