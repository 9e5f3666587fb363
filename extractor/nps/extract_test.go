package nps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vidishraj/akkountant/config"
	"github.com/vidishraj/akkountant/extractor/geometry"
	"github.com/vidishraj/akkountant/extractor/geometry/geometrytest"
	"github.com/vidishraj/akkountant/extractor/statement"
)

var blank7 = []string{"", "", "", "", "", "", ""}

func line(cells ...string) geometry.Row { return geometry.Row(cells) }

func overflow(name string) geometry.Row { return append(geometry.Row{name}, blank7...) }

func holdingsHeader() geometry.Row {
	return line("Scheme Name", "TotalUnits", "BlockedUnits", "FreeUnits", "NAV", "Value", "Contribution", "Gain")
}

// statementDoc serves a two page statement. Regions are told apart by their
// first column boundary.
func statementDoc(names []geometry.Row, first, second map[int][]geometry.Row) *geometrytest.Document {
	doc := geometrytest.Static(nil, nil)
	doc.Read = func(page int, region geometry.Region) ([]geometry.Row, error) {
		switch {
		case region.Area != nil:
			if page == 1 {
				return names, nil
			}
			return nil, nil
		case region.Columns[0] == 237:
			return first[page], nil
		default:
			return second[page], nil
		}
	}
	return doc
}

func TestExtract_MatchesWrappedNames(t *testing.T) {
	config.UseDefaults()
	f, err := New()
	require.NoError(t, err)

	names := []geometry.Row{
		{"Scheme", "Scheme Name", "Allocation"},
		{"1", "SBI PENSION FUND SCHEME E - TIER I", "50.00%"},
		{"2", "HDFC PENSION FUND SCHEME C - TIER I", "30.00%"},
		{"3", "ICICI PRU PENSION FUND SCHEME G - TIER I", "20%"},
	}
	first := map[int][]geometry.Row{1: {
		holdingsHeader(),
		line("SBI PENSION FUND SCHEME E -", "1,234.5678", "0.0000", "1,234.5678", "45.1234", "55,700.00", "40,000.00", "15,700.00"),
		overflow("TIER I"),
		line("HDFC PENSION FUND SCHEME C -", "500.0000", "0.0000", "500.0000", "30.5000", "15,250.00", "12,000.00", "3,250.00"),
		overflow("TIER I"),
		overflow("Note"),
	}}
	second := map[int][]geometry.Row{2: {
		holdingsHeader(),
		line("ICICI PRU PENSION FUND SCHEME G -", "250.0000", "0.0000", "250.0000", "28.0000", "7,000.00", "6,000.00", "1,000.00"),
		overflow("TIER I"),
	}}
	doc := statementDoc(names, first, second)

	c, err := statement.Parse(doc, f)
	require.NoError(t, err)
	require.Len(t, c.Holdings, 3)

	assert.Equal(t, "SBI PENSION FUND SCHEME E - TIER I", c.Holdings[0].Name)
	assert.Equal(t, "45.1234", c.Holdings[0].NAV.String())
	assert.Equal(t, "1234.5678", c.Holdings[0].Quantity.String())
	assert.Equal(t, "HDFC PENSION FUND SCHEME C - TIER I", c.Holdings[1].Name)
	assert.Equal(t, "ICICI PRU PENSION FUND SCHEME G - TIER I", c.Holdings[2].Name)
	assert.Equal(t, "250", c.Holdings[2].Quantity.String())
	assert.Empty(t, c.Transactions)
}

func TestExtract_ConsumedNameDoesNotMatchTwice(t *testing.T) {
	config.UseDefaults()
	f, err := New()
	require.NoError(t, err)

	names := []geometry.Row{{"1", "SBI PENSION FUND SCHEME E - TIER I", "100%"}}
	sbi := []geometry.Row{
		holdingsHeader(),
		line("SBI PENSION FUND SCHEME E -", "10.0000", "0.0000", "10.0000", "45.0000", "450.00", "400.00", "50.00"),
		overflow("TIER I"),
	}
	doc := statementDoc(names, map[int][]geometry.Row{1: sbi}, map[int][]geometry.Row{2: sbi})

	c, err := statement.Parse(doc, f)
	require.NoError(t, err)
	assert.Len(t, c.Holdings, 1)
}

func TestExtract_RowsBeforeHeaderIgnored(t *testing.T) {
	config.UseDefaults()
	f, err := New()
	require.NoError(t, err)

	names := []geometry.Row{{"1", "SBI PENSION FUND SCHEME E - TIER I", "100%"}}
	rows := []geometry.Row{
		line("SBI PENSION FUND SCHEME E -", "10.0000", "0.0000", "10.0000", "45.0000", "450.00", "400.00", "50.00"),
		overflow("TIER I"),
	}
	doc := statementDoc(names, map[int][]geometry.Row{1: rows}, nil)

	c, err := statement.Parse(doc, f)
	require.NoError(t, err)
	assert.Empty(t, c.Holdings)
}

func TestValidLine(t *testing.T) {
	assert.True(t, validLine(line("X", "1", "2", "3", "4", "5", "6", "7")))
	assert.False(t, validLine(line("X", "1", "2", "", "4", "5", "6", "7")))
	assert.False(t, validLine(line("X", "1", "2")))
	assert.True(t, nameOverflow(overflow("TIER II")))
	assert.False(t, nameOverflow(line("X", "1", "", "", "", "", "", "")))
}
