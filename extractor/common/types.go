package common

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sources recorded against stored transactions.
const (
	SourceStatement = "statement"
	SourceEmail     = "email"
	SourceTradeBook = "tradebook"
)

// SecurityType names a deposit or holding instrument.
type SecurityType string

const (
	EPF    SecurityType = "EPF"
	PPF    SecurityType = "PPF"
	Gold   SecurityType = "GOLD"
	NPS    SecurityType = "NPS"
	Stocks SecurityType = "STOCKS"
)

// NormalizedTransaction is the shape every statement and email parser emits.
// Debits (money out) are positive and credits (money in) are negative.
type NormalizedTransaction struct {
	ReferenceID string          `json:"reference"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// Transaction is a NormalizedTransaction as persisted for a user.
type Transaction struct {
	NormalizedTransaction
	Tag    string `json:"tag,omitempty"`
	FileID string `json:"file_id,omitempty"`
	Source string `json:"source"`
	Bank   string `json:"bank"`
	User   string `json:"user"`
}

// ReviewItem is a raw source item that matched no known pattern.
type ReviewItem struct {
	User    string `json:"user"`
	Content string `json:"content"`
}

// Deposit is one contribution to a provident-fund-style instrument.
type Deposit struct {
	BuyID        string          `json:"buy_id"`
	Date         time.Time       `json:"date"`
	Description  string          `json:"description"`
	Amount       decimal.Decimal `json:"amount"`
	UserID       string          `json:"user_id"`
	SecurityType SecurityType    `json:"security_type"`
}

// Holding is a scheme position read off an NPS statement.
type Holding struct {
	Name     string          `json:"name"`
	NAV      decimal.Decimal `json:"nav"`
	Quantity decimal.Decimal `json:"quantity"`
}

// FileDetails records one imported statement file.
type FileDetails struct {
	FileID         string    `json:"file_id"`
	UploadDate     time.Time `json:"upload_date"`
	FileName       string    `json:"file_name"`
	FileSize       int64     `json:"file_size"`
	StatementCount int       `json:"statement_count"`
	Bank           string    `json:"bank"`
	User           string    `json:"user"`
}
