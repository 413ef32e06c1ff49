package shortage

import (
	"time"

	"github.com/andresuchdata/shipment-priority/internal/domain"
)

// Canonical field names resolved from raw headers.
const (
	fieldPartNumber = "part number"
	fieldPackMin    = "stdpack_min"
	fieldPackMax    = "stdpack_max"
	fieldCustomer   = "customer"
	fieldDesc       = "description"
	fieldRate       = "rate"
	fieldDemandType = "demand type"
	fieldOnHand     = "inv fg"
	fieldNonUsable  = "non useable inventory"
	fieldQuantity   = "quantity"
	fieldStatus     = "status"
)

// Table names used in reports.
const (
	TableReference = "reference"
	TableDemand    = "demand"
	TableFloor     = "floor"
)

// CustomerReleases is the only demand type that feeds the projection.
const CustomerReleases = "customer releases"

// DemandRow is one normalized line of the demand feed.
type DemandRow struct {
	PartNumber string
	// DemandType is trimmed and lower-cased.
	DemandType string
	OnHand     *float64
	NonUsable  *float64
	Customer   string
	// Quantities is aligned with DemandTable.Dates.
	Quantities []*float64
}

// DemandTable is the normalized demand feed. Dates may repeat when the
// source carries duplicate date columns.
type DemandTable struct {
	Dates []time.Time
	Rows  []DemandRow

	HasPartNumber bool
	HasOnHand     bool
	HasDemandType bool
}

// FloorTable is the normalized floor-inventory snapshot.
type FloorTable struct {
	Rows []domain.FloorInventoryRow
}

// Aggregate is the joined view the projector consumes.
type Aggregate struct {
	Baseline []domain.PartBaseline
	// Demand holds one entry per (part, date), grouped by part in baseline order
	// and sorted by date within each part.
	Demand []domain.DemandEntry
}
