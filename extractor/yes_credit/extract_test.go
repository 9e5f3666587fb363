package yes_credit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vidishraj/akkountant/config"
	"github.com/vidishraj/akkountant/extractor/geometry"
	"github.com/vidishraj/akkountant/extractor/geometry/geometrytest"
	"github.com/vidishraj/akkountant/extractor/statement"
)

func setupTestConfig(t *testing.T) statement.Format {
	t.Helper()
	config.UseDefaults()
	f, err := New()
	require.NoError(t, err)
	return f
}

func TestExtract_HeaderAndSentinel(t *testing.T) {
	f := setupTestConfig(t)
	doc := geometrytest.Static(
		[]geometry.Row{
			{"12/01/2024", "Statement Date", ""},
			{"Date", "Transaction Details", "Amount (Rs.)"},
			{"03/01/2024", "MYNTRA DESIGNS - Ref No: 1234567890", "1,999.00 Dr"},
		},
		[]geometry.Row{
			{"08/01/2024", "PAYMENT RECEIVED - Ref No: 99887766", "5,000.00 Cr"},
			{"", "End of the statement", ""},
			{"09/01/2024", "AFTER THE END", "1.00 Dr"},
		},
		[]geometry.Row{{"10/01/2024", "NEVER READ", "1.00 Dr"}},
	)

	c, err := statement.Parse(doc, f)
	require.NoError(t, err)
	require.Len(t, c.Transactions, 2)

	assert.Equal(t, "MYNTRA DESIGNS", c.Transactions[0].Description)
	assert.Equal(t, "1999", c.Transactions[0].Amount.String())
	assert.Equal(t, "PAYMENT RECEIVED", c.Transactions[1].Description)
	assert.Equal(t, "-5000", c.Transactions[1].Amount.String())
	// the sentinel stops before page 3
	assert.Len(t, doc.Calls, 2)
}

func TestExtract_NoHeaderNoRows(t *testing.T) {
	f := setupTestConfig(t)
	doc := geometrytest.Static([]geometry.Row{{"03/01/2024", "MYNTRA", "1,999.00 Dr"}})

	c, err := statement.Parse(doc, f)
	require.NoError(t, err)
	assert.Empty(t, c.Transactions)
}
