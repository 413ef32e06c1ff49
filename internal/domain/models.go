package domain

import (
	"math"
	"time"
)

// DateLayout is the calendar-date format used in API payloads and exports.
const DateLayout = "2006-01-02"

// DefaultDescription is used when a reference row carries no description.
const DefaultDescription = "N/A"

// RawTable is an untyped tabular source as read from a spreadsheet or CSV file.
type RawTable struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// IsEmpty reports whether the table has no header and no rows.
func (t RawTable) IsEmpty() bool {
	return len(t.Header) == 0 && len(t.Rows) == 0
}

// PartReference is one row of the reference table.
type PartReference struct {
	PartNumber            string   `json:"partno" db:"partno"`
	PackSizeMin           *float64 `json:"stdpack_min" db:"stdpack_min"`
	PackSizeMax           *float64 `json:"stdpack_max" db:"stdpack_max"`
	Customer              string   `json:"customer" db:"customer"`
	Description           string   `json:"desc" db:"description"`
	ProductionRatePercent float64  `json:"rate" db:"rate"`
}

// Pack returns the container size: stdpack_max when positive, else stdpack_min when positive.
func (p PartReference) Pack() *float64 {
	if validPack(p.PackSizeMax) {
		v := *p.PackSizeMax
		return &v
	}
	if validPack(p.PackSizeMin) {
		v := *p.PackSizeMin
		return &v
	}
	return nil
}

// PackMissing reports whether no usable pack size is known for the part.
func (p PartReference) PackMissing() bool {
	return p.Pack() == nil
}

func validPack(v *float64) bool {
	return v != nil && *v > 0 && !math.IsInf(*v, 1)
}

// DemandEntry is the ordered quantity for one part on one calendar date.
type DemandEntry struct {
	PartNumber     string    `json:"part_number"`
	Date           time.Time `json:"date"`
	QuantityPieces float64   `json:"quantity_pieces"`
}

// FloorInventoryRow is one container on the floor snapshot.
type FloorInventoryRow struct {
	PartNumber     string          `json:"part_number"`
	Status         string          `json:"status"`
	Bucket         InventoryBucket `json:"bucket"`
	QuantityPieces float64         `json:"quantity_pieces"`
}

// PartBaseline is the per-part starting point for the projection.
type PartBaseline struct {
	PartNumber            string   `json:"part_number"`
	OnHandInventoryPieces float64  `json:"on_hand_inventory_pieces"`
	Customer              string   `json:"customer"`
	Pack                  *float64 `json:"pack"`
	PackMissing           bool     `json:"pack_missing"`
	Description           string   `json:"description"`
	ProductionRatePercent float64  `json:"production_rate_percent"`
	// ReportedNonUsablePieces is the non-usable figure carried by the demand feed, if any.
	ReportedNonUsablePieces *float64 `json:"reported_non_usable_pieces,omitempty"`
}

// ShortageEvent is a single production requirement for a part on a shipment date.
type ShortageEvent struct {
	PartNumber                 string    `json:"part_number"`
	ShipmentDate               time.Time `json:"shipment_date"`
	InventoryBeforeEvent       float64   `json:"inventory_before_event"`
	DemandPieces               float64   `json:"demand_pieces"`
	ShortagePieces             float64   `json:"shortage_pieces"`
	Pack                       *float64  `json:"pack"`
	ContainersRequired         *int      `json:"containers_required"`
	ContainersRequiredCapped   int       `json:"containers_required_capped"`
	PerShiftCapacityContainers int       `json:"per_shift_capacity_containers"`
	IsFirstShortageForPart     bool      `json:"is_first_shortage_for_part"`
	Customer                   string    `json:"customer"`
	Description                string    `json:"description"`
	ProductionRatePercent      float64   `json:"production_rate_percent"`
}

// QueueEntry is a ShortageEvent placed in the production queue.
type QueueEntry struct {
	ShortageEvent
	Position             int `json:"position"`
	PartPriorityRank     int `json:"part_priority_rank"`
	CustomerPriorityRank int `json:"customer_priority_rank"`
}

// NonUsableSummary is the per-part breakdown of floor stock that cannot ship.
type NonUsableSummary struct {
	PartNumber           string   `json:"part_number"`
	Pack                 *float64 `json:"pack"`
	OnFloorPieces        float64  `json:"on_floor_pieces"`
	OnFloorContainers    int      `json:"on_floor_containers"`
	QualityHoldPieces    float64  `json:"quality_hold_pieces"`
	PossibleDefectPieces float64  `json:"possible_defect_pieces"`
	OtherPieces          float64  `json:"other_pieces"`
	TotalPieces          float64  `json:"total_pieces"`
	ReportedPieces       *float64 `json:"reported_pieces,omitempty"`
	DeltaPieces          *float64 `json:"delta_pieces,omitempty"`
}
