package shortage

import (
	"errors"
	"math"
	"sort"
	"time"

	"github.com/andresuchdata/shipment-priority/internal/domain"
)

// Aggregator joins reference and demand into per-part baselines and a
// collapsed demand series.
type Aggregator struct{}

// NewAggregator returns an Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

type partAccumulator struct {
	onHand         *float64
	nonUsable      *float64
	customerCounts map[string]int
	byDate         map[time.Time]float64
}

// Aggregate filters demand to customer releases, drops parts missing from the
// reference, and collapses duplicate dates by summing. A demand table without
// a part, on-hand or date column yields an empty result and an error.
func (a *Aggregator) Aggregate(refs []domain.PartReference, demand DemandTable) (Aggregate, []error) {
	var issues []error

	if len(refs) == 0 {
		return Aggregate{}, []error{&domain.DataContractError{Reason: "reference table is empty"}}
	}

	if !demand.HasPartNumber {
		issues = append(issues, missingDemandColumn(fieldPartNumber, "part no", "part number"))
	}
	if !demand.HasOnHand {
		issues = append(issues, missingDemandColumn(fieldOnHand, "inv fg"))
	}
	if len(demand.Dates) == 0 {
		issues = append(issues, missingDemandColumn("date", "MM/DD/YYYY"))
	}
	if len(issues) > 0 {
		return Aggregate{}, issues
	}

	refIndex := make(map[string]domain.PartReference, len(refs))
	for _, ref := range refs {
		refIndex[ref.PartNumber] = ref
	}

	order := make([]string, 0)
	acc := make(map[string]*partAccumulator)
	for _, row := range demand.Rows {
		if demand.HasDemandType && row.DemandType != CustomerReleases {
			continue
		}
		if _, ok := refIndex[row.PartNumber]; !ok {
			continue
		}

		pa, ok := acc[row.PartNumber]
		if !ok {
			pa = &partAccumulator{
				customerCounts: make(map[string]int),
				byDate:         make(map[time.Time]float64, len(demand.Dates)),
			}
			acc[row.PartNumber] = pa
			order = append(order, row.PartNumber)
		}

		// Rows for one part repeat the same snapshot; take the first value seen.
		if pa.onHand == nil && row.OnHand != nil {
			v := *row.OnHand
			pa.onHand = &v
		}
		if pa.nonUsable == nil && row.NonUsable != nil {
			v := *row.NonUsable
			pa.nonUsable = &v
		}
		if row.Customer != "" {
			pa.customerCounts[row.Customer]++
		}
		for j, date := range demand.Dates {
			var qty float64
			if j < len(row.Quantities) {
				qty = valueOr(row.Quantities[j], 0)
			}
			pa.byDate[date] += qty
		}
	}

	result := Aggregate{
		Baseline: make([]domain.PartBaseline, 0, len(order)),
	}
	for _, part := range order {
		ref := refIndex[part]
		pa := acc[part]

		customer := mostFrequent(pa.customerCounts)
		if customer == "" {
			customer = ref.Customer
		}

		result.Baseline = append(result.Baseline, domain.PartBaseline{
			PartNumber:              part,
			OnHandInventoryPieces:   math.Max(0, valueOr(pa.onHand, 0)),
			Customer:                customer,
			Pack:                    ref.Pack(),
			PackMissing:             ref.PackMissing(),
			Description:             ref.Description,
			ProductionRatePercent:   ref.ProductionRatePercent,
			ReportedNonUsablePieces: pa.nonUsable,
		})

		dates := make([]time.Time, 0, len(pa.byDate))
		for date := range pa.byDate {
			dates = append(dates, date)
		}
		sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
		for _, date := range dates {
			result.Demand = append(result.Demand, domain.DemandEntry{
				PartNumber:     part,
				Date:           date,
				QuantityPieces: pa.byDate[date],
			})
		}
	}

	return result, issues
}

// mostFrequent returns the most common value; ties go to the lexicographically smallest.
func mostFrequent(counts map[string]int) string {
	var (
		best  string
		count int
	)
	for value, n := range counts {
		if n > count || (n == count && value < best) {
			best, count = value, n
		}
	}
	return best
}

func missingDemandColumn(field string, candidates ...string) error {
	return &domain.MissingColumnError{Table: TableDemand, Field: field, Candidates: candidates}
}

// IsMissingColumn reports whether err is a MissingColumnError.
func IsMissingColumn(err error) bool {
	var target *domain.MissingColumnError
	return errors.As(err, &target)
}
