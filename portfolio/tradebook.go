package portfolio

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/vidishraj/akkountant/extractor/common"
	"github.com/xuri/excelize/v2"
)

// HeaderRow is the 1-based row holding the column titles in a broker trade
// book export.
const HeaderRow = 15

var tradeColumns = []string{"Symbol", "ISIN", "Trade Date", "Exchange", "Trade Type", "Quantity", "Price", "Trade ID"}

// Trade is one row of a trade book.
type Trade struct {
	TradeID  string          `json:"trade_id"`
	Symbol   string          `json:"symbol"`
	ISIN     string          `json:"isin"`
	Date     time.Time       `json:"date"`
	Exchange string          `json:"exchange"`
	Side     Side            `json:"side"`
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// ReadTradeBook reads the first sheet of an xlsx trade book.
func ReadTradeBook(path string) ([]Trade, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trade book %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("trade book %s has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	return parseTradeRows(rows)
}

func parseTradeRows(rows [][]string) ([]Trade, error) {
	if len(rows) < HeaderRow {
		return nil, fmt.Errorf("trade book has %d rows, header expected on row %d", len(rows), HeaderRow)
	}
	index := map[string]int{}
	for i, h := range rows[HeaderRow-1] {
		index[strings.TrimSpace(h)] = i
	}
	for _, c := range tradeColumns {
		if _, ok := index[c]; !ok {
			return nil, fmt.Errorf("trade book header is missing %q", c)
		}
	}

	var trades []Trade
	for n, row := range rows[HeaderRow:] {
		cell := func(name string) string {
			i := index[name]
			if i < len(row) {
				return strings.TrimSpace(row[i])
			}
			return ""
		}
		if cell("Symbol") == "" {
			continue
		}
		line := HeaderRow + n + 1
		date, err := common.NormalizeDate(cell("Trade Date"), "2006-01-02")
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		qty, err := common.CleanDecimal(cell("Quantity"))
		if err != nil {
			return nil, fmt.Errorf("row %d: quantity %q: %w", line, cell("Quantity"), err)
		}
		price, err := common.CleanDecimal(cell("Price"))
		if err != nil {
			return nil, fmt.Errorf("row %d: price %q: %w", line, cell("Price"), err)
		}
		side := Side(strings.ToLower(cell("Trade Type")))
		if side != BuySide && side != SellSide {
			return nil, fmt.Errorf("row %d: unknown trade type %q", line, cell("Trade Type"))
		}
		trades = append(trades, Trade{
			TradeID:  cell("Trade ID"),
			Symbol:   cell("Symbol"),
			ISIN:     cell("ISIN"),
			Date:     date,
			Exchange: cell("Exchange"),
			Side:     side,
			Quantity: qty,
			Price:    price,
		})
	}
	log.Debugf("read %d trades", len(trades))
	return trades, nil
}
