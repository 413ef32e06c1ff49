package shortage

import (
	"testing"
	"time"

	"github.com/andresuchdata/shipment-priority/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	day1 = time.Date(2024, 10, 21, 0, 0, 0, 0, time.UTC)
	day2 = day1.AddDate(0, 0, 1)
	day3 = day1.AddDate(0, 0, 2)
)

func demandRaw(rows ...[]string) domain.RawTable {
	return domain.RawTable{
		Header: []string{"Demand Type", "Part No", "Inv FG", "Non Useable Inventory", "Primary Customer", "10/21/2024", "10/22/2024"},
		Rows:   rows,
	}
}

func reference(parts ...domain.PartReference) []domain.PartReference { return parts }

func aggregateRaw(t *testing.T, refs []domain.PartReference, raw domain.RawTable) (Aggregate, []error) {
	t.Helper()
	table, _ := NewNormalizer(100).NormalizeDemand(raw)
	return NewAggregator().Aggregate(refs, table)
}

func TestAggregateFiltersCustomerReleases(t *testing.T) {
	refs := reference(
		domain.PartReference{PartNumber: "P1", PackSizeMax: f(10), Customer: "REF", ProductionRatePercent: 100},
		domain.PartReference{PartNumber: "P2", PackSizeMax: f(10), ProductionRatePercent: 100},
	)

	tests := []struct {
		name       string
		demandType string
		wantKept   bool
	}{
		{name: "mixed case with padding", demandType: " Customer Releases ", wantKept: true},
		{name: "trailing whitespace variant", demandType: "customer releases\t", wantKept: true},
		{name: "other demand type", demandType: "Scheduled Orders", wantKept: false},
		{name: "inner whitespace differs", demandType: "customer  releases", wantKept: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := demandRaw([]string{tt.demandType, "P1", "5", "", "", "10", "20"})
			agg, issues := aggregateRaw(t, refs, raw)
			assert.Empty(t, issues)
			if !tt.wantKept {
				assert.Empty(t, agg.Baseline)
				assert.Empty(t, agg.Demand)
				return
			}
			require.Len(t, agg.Baseline, 1)
			assert.Equal(t, "P1", agg.Baseline[0].PartNumber)
		})
	}
}

func TestAggregateScenarioD(t *testing.T) {
	refs := reference(domain.PartReference{PartNumber: "P1", PackSizeMax: f(10), ProductionRatePercent: 100})
	raw := demandRaw(
		[]string{" Customer Releases ", "P1", "50", "", "", "10", "20"},
		[]string{"Scheduled Orders", "P1", "999", "", "", "1000", "1000"},
	)

	agg, _ := aggregateRaw(t, refs, raw)

	require.Len(t, agg.Baseline, 1)
	assert.Equal(t, 50.0, agg.Baseline[0].OnHandInventoryPieces)
	require.Len(t, agg.Demand, 2)
	assert.Equal(t, 10.0, agg.Demand[0].QuantityPieces)
	assert.Equal(t, 20.0, agg.Demand[1].QuantityPieces)
}

func TestAggregateJoinAndCollapse(t *testing.T) {
	refs := reference(
		domain.PartReference{PartNumber: "P1", PackSizeMax: f(10), Customer: "REF CUSTOMER", Description: "Door", ProductionRatePercent: 90},
		domain.PartReference{PartNumber: "P2", PackSizeMin: f(5), ProductionRatePercent: 100},
	)
	raw := domain.RawTable{
		Header: []string{"Demand Type", "Part No", "Inv FG", "Non Useable Inventory", "Primary Customer", "10/22/2024", "10/21/2024", "10/22/2024"},
		Rows: [][]string{
			{"customer releases", "p2", "", "", "", "1", "2", "3"},
			{"customer releases", "P1", "", "", "MAGNA", "5", "", "1"},
			{"customer releases", "P1", "120", "30", "FORD", "5", "7", ""},
			{"customer releases", "P1", "80", "", "FORD", "", "", ""},
			{"customer releases", "UNKNOWN", "10", "", "", "9", "9", "9"},
		},
	}

	agg, issues := aggregateRaw(t, refs, raw)

	assert.Empty(t, issues)
	require.Len(t, agg.Baseline, 2)

	p2 := agg.Baseline[0]
	assert.Equal(t, "P2", p2.PartNumber)
	assert.Equal(t, 0.0, p2.OnHandInventoryPieces)
	assert.Equal(t, "", p2.Customer)
	assert.Equal(t, 5.0, *p2.Pack)

	p1 := agg.Baseline[1]
	assert.Equal(t, "P1", p1.PartNumber)
	assert.Equal(t, 120.0, p1.OnHandInventoryPieces, "first non-missing on-hand, never summed")
	assert.Equal(t, "FORD", p1.Customer, "most frequent demand customer overrides reference")
	assert.Equal(t, "Door", p1.Description)
	assert.Equal(t, 90.0, p1.ProductionRatePercent)
	require.NotNil(t, p1.ReportedNonUsablePieces)
	assert.Equal(t, 30.0, *p1.ReportedNonUsablePieces)

	want := []domain.DemandEntry{
		{PartNumber: "P2", Date: day1, QuantityPieces: 2},
		{PartNumber: "P2", Date: day2, QuantityPieces: 4},
		{PartNumber: "P1", Date: day1, QuantityPieces: 7},
		{PartNumber: "P1", Date: day2, QuantityPieces: 11},
	}
	assert.Equal(t, want, agg.Demand)
}

func TestAggregateCustomerFallsBackToReference(t *testing.T) {
	refs := reference(domain.PartReference{PartNumber: "P1", PackSizeMax: f(10), Customer: "MAGNA SEATING", ProductionRatePercent: 100})
	raw := demandRaw([]string{"customer releases", "P1", "-20", "", "", "1", "1"})

	agg, _ := aggregateRaw(t, refs, raw)

	require.Len(t, agg.Baseline, 1)
	assert.Equal(t, "MAGNA SEATING", agg.Baseline[0].Customer)
	assert.Equal(t, 0.0, agg.Baseline[0].OnHandInventoryPieces, "negative stock clamps to zero")
}

func TestAggregateMissingColumns(t *testing.T) {
	refs := reference(domain.PartReference{PartNumber: "P1", PackSizeMax: f(10)})

	tests := []struct {
		name   string
		header []string
	}{
		{name: "no date columns", header: []string{"Demand Type", "Part No", "Inv FG"}},
		{name: "no on-hand column", header: []string{"Demand Type", "Part No", "10/21/2024"}},
		{name: "no part column", header: []string{"Demand Type", "Inv FG", "10/21/2024"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := domain.RawTable{Header: tt.header, Rows: [][]string{{"customer releases", "P1", "5"}}}
			agg, issues := aggregateRaw(t, refs, raw)
			assert.Empty(t, agg.Baseline)
			assert.Empty(t, agg.Demand)
			require.NotEmpty(t, issues)
			assert.True(t, IsMissingColumn(issues[0]))
		})
	}
}

func TestAggregateEmptyReference(t *testing.T) {
	raw := demandRaw([]string{"customer releases", "P1", "5", "", "", "1", "1"})

	agg, issues := aggregateRaw(t, nil, raw)

	assert.Empty(t, agg.Baseline)
	assert.Empty(t, agg.Demand)
	require.Len(t, issues, 1)
}

func TestMostFrequent(t *testing.T) {
	assert.Equal(t, "", mostFrequent(map[string]int{}))
	assert.Equal(t, "B", mostFrequent(map[string]int{"A": 1, "B": 3}))
	assert.Equal(t, "A", mostFrequent(map[string]int{"C": 2, "A": 2, "B": 2}))
}

func TestSummarizeNonUsable(t *testing.T) {
	refs := reference(
		domain.PartReference{PartNumber: "P1", PackSizeMax: f(50)},
		domain.PartReference{PartNumber: "P2"},
	)
	baseline := []domain.PartBaseline{
		{PartNumber: "P1", ReportedNonUsablePieces: f(300)},
	}
	floor := FloorTable{Rows: []domain.FloorInventoryRow{
		{PartNumber: "P1", Bucket: domain.BucketOnFloor, QuantityPieces: 120},
		{PartNumber: "P2", Bucket: domain.BucketOnFloor, QuantityPieces: 40},
		{PartNumber: "P1", Bucket: domain.BucketQualityHold, QuantityPieces: 30},
		{PartNumber: "P1", Bucket: domain.BucketPossibleDefect, QuantityPieces: 20},
		{PartNumber: "P1", Bucket: domain.BucketOther, QuantityPieces: 10},
		{PartNumber: "P3", Bucket: domain.BucketOther, QuantityPieces: 5},
	}}

	summaries := NewAggregator().SummarizeNonUsable(refs, baseline, floor)

	require.Len(t, summaries, 3)
	p1 := summaries[0]
	assert.Equal(t, "P1", p1.PartNumber)
	assert.Equal(t, 120.0, p1.OnFloorPieces)
	assert.Equal(t, 2, p1.OnFloorContainers)
	assert.Equal(t, 30.0, p1.QualityHoldPieces)
	assert.Equal(t, 20.0, p1.PossibleDefectPieces)
	assert.Equal(t, 10.0, p1.OtherPieces)
	assert.Equal(t, 180.0, p1.TotalPieces)
	require.NotNil(t, p1.DeltaPieces)
	assert.Equal(t, 120.0, *p1.DeltaPieces)

	p2 := summaries[1]
	assert.Equal(t, 0, p2.OnFloorContainers, "no pack means zero containers")
	assert.Nil(t, p2.DeltaPieces)

	assert.Equal(t, "P3", summaries[2].PartNumber)
	assert.Nil(t, summaries[2].Pack)
}
