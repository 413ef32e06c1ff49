package shortage

import (
	"github.com/andresuchdata/shipment-priority/internal/domain"
	"github.com/shopspring/decimal"
)

// SummarizeNonUsable buckets floor inventory per part in first-appearance order.
// Pack sizes come from the reference; the reported figure for the delta comes
// from the baseline built off the demand feed.
func (a *Aggregator) SummarizeNonUsable(refs []domain.PartReference, baseline []domain.PartBaseline, floor FloorTable) []domain.NonUsableSummary {
	if len(floor.Rows) == 0 {
		return nil
	}

	packs := make(map[string]*float64, len(refs))
	for _, ref := range refs {
		packs[ref.PartNumber] = ref.Pack()
	}
	reported := make(map[string]*float64, len(baseline))
	for _, b := range baseline {
		reported[b.PartNumber] = b.ReportedNonUsablePieces
	}

	order := make([]string, 0)
	byPart := make(map[string]*domain.NonUsableSummary)
	for _, row := range floor.Rows {
		summary, ok := byPart[row.PartNumber]
		if !ok {
			summary = &domain.NonUsableSummary{PartNumber: row.PartNumber, Pack: packs[row.PartNumber]}
			byPart[row.PartNumber] = summary
			order = append(order, row.PartNumber)
		}
		switch row.Bucket {
		case domain.BucketOnFloor:
			summary.OnFloorPieces += row.QuantityPieces
		case domain.BucketQualityHold:
			summary.QualityHoldPieces += row.QuantityPieces
		case domain.BucketPossibleDefect:
			summary.PossibleDefectPieces += row.QuantityPieces
		default:
			summary.OtherPieces += row.QuantityPieces
		}
	}

	out := make([]domain.NonUsableSummary, 0, len(order))
	for _, part := range order {
		s := byPart[part]
		s.OnFloorContainers = wholeContainers(s.OnFloorPieces, s.Pack)
		s.TotalPieces = s.OnFloorPieces + s.QualityHoldPieces + s.PossibleDefectPieces + s.OtherPieces
		if r := reported[part]; r != nil {
			rep := *r
			delta := rep - s.TotalPieces
			s.ReportedPieces = &rep
			s.DeltaPieces = &delta
		}
		out = append(out, *s)
	}
	return out
}

// wholeContainers is floor(pieces/pack), 0 when pack is unusable.
func wholeContainers(pieces float64, pack *float64) int {
	if pack == nil || *pack <= 0 || pieces <= 0 {
		return 0
	}
	return int(decimal.NewFromFloat(pieces).Div(decimal.NewFromFloat(*pack)).Floor().IntPart())
}
