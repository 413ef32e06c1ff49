package source

import (
	"context"
	"strconv"

	"github.com/andresuchdata/shipment-priority/internal/domain"
)

// ReferenceHeader is the column layout of the reference table.
var ReferenceHeader = []string{"partno", "stdpack_min", "stdpack_max", "customer", "desc", "rate"}

// ReferenceStoreLoader renders the reference store as a raw table so it goes
// through the same normalization as a spreadsheet.
type ReferenceStoreLoader struct {
	refs ReferenceLister
}

func NewReferenceStoreLoader(refs ReferenceLister) *ReferenceStoreLoader {
	return &ReferenceStoreLoader{refs: refs}
}

func (l *ReferenceStoreLoader) Name() string { return schemeStore + storeReferences }

func (l *ReferenceStoreLoader) Load(ctx context.Context) (domain.RawTable, error) {
	refs, err := l.refs.List(ctx)
	if err != nil {
		return domain.RawTable{}, err
	}
	return ReferenceTable(refs), nil
}

// ReferenceTable converts reference records to rows in ReferenceHeader order.
func ReferenceTable(refs []domain.PartReference) domain.RawTable {
	table := domain.RawTable{
		Header: append([]string(nil), ReferenceHeader...),
		Rows:   make([][]string, 0, len(refs)),
	}
	for _, ref := range refs {
		table.Rows = append(table.Rows, []string{
			ref.PartNumber,
			formatOptional(ref.PackSizeMin),
			formatOptional(ref.PackSizeMax),
			ref.Customer,
			ref.Description,
			strconv.FormatFloat(ref.ProductionRatePercent, 'f', -1, 64),
		})
	}
	return table
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
