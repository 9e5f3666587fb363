package yes_debit

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

func header() []geometry.Row {
	return []geometry.Row{
		{"Transaction", "Value", "", "Cheque", "Withdrawals", "Deposits", "Balance"},
		{"Date", "Date", "Description", "No/Reference", "", "", ""},
	}
}

func TestExtract_DebitCreditColumns(t *testing.T) {
	f := setupTestConfig(t)
	rows := append(header(),
		geometry.Row{"04/02/2024", "04/02/2024", "UPI/BIGBASKET", "4035", "1,150.00", "0.00", "20,000.00"},
		geometry.Row{"06/02/2024", "06/02/2024", "NEFT/EMPLOYER", "N123", "0.00", "60,000.00", "80,000.00"},
		geometry.Row{"07/02/2024", "07/02/2024", "IMPS/RENT", "I99", "25,000.00", "", "55,000.00"},
	)

	c, err := statement.Parse(geometrytest.Static(rows), f)
	require.NoError(t, err)
	require.Len(t, c.Transactions, 3)
	assert.Equal(t, "1150", c.Transactions[0].Amount.String())
	assert.Equal(t, "-60000", c.Transactions[1].Amount.String())
	assert.Equal(t, "25000", c.Transactions[2].Amount.String())
}

func TestExtract_WrappedDescription(t *testing.T) {
	f := setupTestConfig(t)
	rows := append(header(),
		geometry.Row{"", "", "UPI/P2M/4035/", "", "", "", ""},
		geometry.Row{"04/02/2024", "04/02/2024", "", "4035", "300.00", "0.00", "19,700.00"},
		geometry.Row{"", "", "CHAAYOS", "", "", "", ""},
	)

	c, err := statement.Parse(geometrytest.Static(rows), f)
	require.NoError(t, err)
	require.Len(t, c.Transactions, 1)
	assert.Equal(t, "UPI/P2M/4035/ CHAAYOS", c.Transactions[0].Description)
}

func TestExtract_StopsAtOpeningBalance(t *testing.T) {
	f := setupTestConfig(t)
	rows := append(header(),
		geometry.Row{"04/02/2024", "04/02/2024", "UPI/BIGBASKET", "4035", "1,150.00", "0.00", "20,000.00"},
		geometry.Row{"Opening Ba", "", "", "", "", "", ""},
		geometry.Row{"05/02/2024", "05/02/2024", "SUMMARY LINE", "", "1.00", "0.00", ""},
	)
	doc := geometrytest.Static(rows, rows)

	c, err := statement.Parse(doc, f)
	require.NoError(t, err)
	assert.Len(t, c.Transactions, 1)
	assert.Len(t, doc.Calls, 1)
}

func TestExtract_RowsBeforeHeaderIgnored(t *testing.T) {
	f := setupTestConfig(t)
	rows := []geometry.Row{{"04/02/2024", "04/02/2024", "STATEMENT PERIOD", "", "1.00", "", ""}}

	c, err := statement.Parse(geometrytest.Static(rows), f)
	require.NoError(t, err)
	assert.Empty(t, c.Transactions)
}
