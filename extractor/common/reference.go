package common

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CanonicalDateLayout is the date form hashed into reference IDs and stored.
const CanonicalDateLayout = "2006-01-02 15:04:05"

// ReferenceID derives the natural key of a transaction. The amount is rounded
// to two places before hashing, so 10.001 and 10.00 collide.
func ReferenceID(date time.Time, description string, amount decimal.Decimal) string {
	combined := fmt.Sprintf("%s|%s|%s", date.Format(CanonicalDateLayout), description, amount.StringFixed(2))
	sum := md5.Sum([]byte(combined))
	return hex.EncodeToString(sum[:])
}

// NewTransaction builds a NormalizedTransaction with its reference computed.
func NewTransaction(date time.Time, description string, amount decimal.Decimal) NormalizedTransaction {
	description = strings.TrimSpace(description)
	return NormalizedTransaction{
		ReferenceID: ReferenceID(date, description, amount),
		Date:        date,
		Description: description,
		Amount:      amount,
	}
}
