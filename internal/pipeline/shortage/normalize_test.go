package shortage

import (
	"testing"
	"time"

	"github.com/andresuchdata/shipment-priority/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeColumnName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Part No.", "partno"},
		{" stdpack_max ", "stdpackmax"},
		{"Non-Useable Inventory", "nonuseableinventory"},
		{"Inv/FG", "invfg"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeColumnName(tt.in), tt.in)
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want *float64
	}{
		{name: "plain", in: "42", want: f(42)},
		{name: "thousands separator", in: "1,250", want: f(1250)},
		{name: "decimal", in: " 12.5 ", want: f(12.5)},
		{name: "empty", in: "", want: nil},
		{name: "text", in: "n/a", want: nil},
		{name: "nan", in: "NaN", want: nil},
		{name: "infinity", in: "inf", want: nil},
		{name: "negative infinity", in: "-Infinity", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseNumber(tt.in)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func TestNormalizeReference(t *testing.T) {
	raw := domain.RawTable{
		Header: []string{"PartNo", "STDPACK_MIN", "stdpack_max", "Customer", "Desc", "Rate"},
		Rows: [][]string{
			{" p1 ", "20", "50", "FORD", "Bracket", ""},
			{"P2", "0", "", "MAGNA", "", "80"},
			{"p1", "10", "10", "ACME", "dup", "100"},
			{"", "1", "1", "X", "", ""},
		},
	}

	refs, issues := NewNormalizer(100).NormalizeReference(raw)

	require.Len(t, refs, 2)
	assert.Equal(t, "P1", refs[0].PartNumber)
	require.NotNil(t, refs[0].Pack())
	assert.Equal(t, 50.0, *refs[0].Pack())
	assert.Equal(t, 100.0, refs[0].ProductionRatePercent)
	assert.Equal(t, "Bracket", refs[0].Description)

	// Scenario B: stdpack_min=0 and stdpack_max=null leaves the pack unknown.
	assert.Equal(t, "P2", refs[1].PartNumber)
	assert.Nil(t, refs[1].Pack())
	assert.True(t, refs[1].PackMissing())
	assert.Equal(t, domain.DefaultDescription, refs[1].Description)
	assert.Equal(t, 80.0, refs[1].ProductionRatePercent)

	require.Len(t, issues, 1)
	var contract *domain.DataContractError
	assert.ErrorAs(t, issues[0], &contract)
}

func TestNormalizeReferenceMissingPartColumn(t *testing.T) {
	raw := domain.RawTable{
		Header: []string{"sku", "stdpack_min"},
		Rows:   [][]string{{"A", "1"}},
	}

	refs, issues := NewNormalizer(100).NormalizeReference(raw)

	assert.Empty(t, refs)
	require.Len(t, issues, 1)
	assert.True(t, IsMissingColumn(issues[0]))
}

func TestNormalizeDemandDetectsDateColumns(t *testing.T) {
	raw := domain.RawTable{
		Header: []string{"Demand Type", "Part No", "Inv FG", "Non Useable Inventory", "Primary Customer", "10/21/2024", "13/45/2024", "10/22/2024 (Tue)", "Notes"},
		Rows: [][]string{
			{" Customer Releases ", "p1", "1,200", "15", "FORD", "100", "7", "", "x"},
		},
	}

	table, issues := NewNormalizer(100).NormalizeDemand(raw)

	require.Len(t, table.Dates, 2)
	assert.Equal(t, time.Date(2024, 10, 21, 0, 0, 0, 0, time.UTC), table.Dates[0])
	assert.Equal(t, time.Date(2024, 10, 22, 0, 0, 0, 0, time.UTC), table.Dates[1])
	assert.True(t, table.HasPartNumber)
	assert.True(t, table.HasOnHand)
	assert.True(t, table.HasDemandType)

	require.Len(t, table.Rows, 1)
	row := table.Rows[0]
	assert.Equal(t, "P1", row.PartNumber)
	assert.Equal(t, CustomerReleases, row.DemandType)
	assert.Equal(t, 1200.0, *row.OnHand)
	assert.Equal(t, 100.0, *row.Quantities[0])
	assert.Nil(t, row.Quantities[1])

	require.Len(t, issues, 1)
	var dateErr *domain.DateParseError
	assert.ErrorAs(t, issues[0], &dateErr)
}

func TestNormalizeFloor(t *testing.T) {
	raw := domain.RawTable{
		Header: []string{"Part Number", "Part Count", "Container Status"},
		Rows: [][]string{
			{"p1", "40", "EN PISO"},
			{"p1", "bad", "Quality Hold"},
			{"p2", "10", "whatever"},
		},
	}

	table, issues := NewNormalizer(100).NormalizeFloor(raw)

	assert.Empty(t, issues)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, domain.BucketOnFloor, table.Rows[0].Bucket)
	assert.Equal(t, 0.0, table.Rows[1].QuantityPieces)
	assert.Equal(t, domain.BucketQualityHold, table.Rows[1].Bucket)
	assert.Equal(t, domain.BucketOther, table.Rows[2].Bucket)
}

func TestNormalizeFloorWithoutQuantity(t *testing.T) {
	raw := domain.RawTable{
		Header: []string{"Part No", "Status"},
		Rows:   [][]string{{"P1", "HOLD"}},
	}

	table, issues := NewNormalizer(100).NormalizeFloor(raw)

	assert.Empty(t, table.Rows)
	require.Len(t, issues, 1)
	assert.True(t, IsMissingColumn(issues[0]))
}

func TestNormalizeEmptyTables(t *testing.T) {
	n := NewNormalizer(100)

	refs, refIssues := n.NormalizeReference(domain.RawTable{})
	demand, demandIssues := n.NormalizeDemand(domain.RawTable{})
	floor, floorIssues := n.NormalizeFloor(domain.RawTable{})

	assert.Empty(t, refs)
	assert.Empty(t, demand.Rows)
	assert.Empty(t, floor.Rows)
	assert.Empty(t, refIssues)
	assert.Empty(t, demandIssues)
	assert.Empty(t, floorIssues)
}

func f(v float64) *float64 { return &v }
