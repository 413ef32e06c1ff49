package shortage

import (
	"math"
	"sort"
	"time"

	"github.com/andresuchdata/shipment-priority/internal/domain"
	"github.com/shopspring/decimal"
)

// DefaultShiftHours is the standard production hours per shift used for capacity.
const DefaultShiftHours = 22.5

// Window restricts projection to shipment dates in [From, To]. Nil bounds are open.
type Window struct {
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`
}

// Contains reports whether date falls inside the window.
func (w Window) Contains(date time.Time) bool {
	if w.From != nil && date.Before(*w.From) {
		return false
	}
	if w.To != nil && date.After(*w.To) {
		return false
	}
	return true
}

// Projector replays each part's demand against its on-hand inventory.
type Projector struct {
	shiftHours decimal.Decimal
	window     Window
}

// NewProjector returns a Projector using shiftHours for capacity and window to
// select shipment dates.
func NewProjector(shiftHours float64, window Window) *Projector {
	if shiftHours <= 0 {
		shiftHours = DefaultShiftHours
	}
	return &Projector{
		shiftHours: decimal.NewFromFloat(shiftHours),
		window:     window,
	}
}

// projectionState is the ledger carried through one part's fold.
type projectionState struct {
	balance   float64
	firstSeen bool
}

type stepOutcome struct {
	inventoryBefore float64
	shortage        float64
	first           bool
}

// step consumes one shipment. A shortfall resets the balance to zero; a
// covered shipment is subtracted from it.
func (s projectionState) step(demand float64) (projectionState, stepOutcome) {
	out := stepOutcome{inventoryBefore: s.balance}
	shortage := math.Max(0, demand-s.balance)
	if shortage > 0 {
		out.shortage = shortage
		out.first = !s.firstSeen
		return projectionState{balance: 0, firstSeen: true}, out
	}
	return projectionState{balance: s.balance - demand, firstSeen: s.firstSeen}, out
}

// Project emits one ShortageEvent per shortfall, grouped by part in baseline
// order and sorted by date within a part. Parts with duplicate dates are
// skipped and reported.
func (p *Projector) Project(baseline []domain.PartBaseline, demand []domain.DemandEntry) ([]domain.ShortageEvent, []error) {
	var issues []error

	byPart := make(map[string][]domain.DemandEntry)
	for _, entry := range demand {
		if !p.window.Contains(entry.Date) {
			continue
		}
		byPart[entry.PartNumber] = append(byPart[entry.PartNumber], entry)
	}

	events := make([]domain.ShortageEvent, 0)
	for _, part := range baseline {
		entries := byPart[part.PartNumber]
		if len(entries) == 0 {
			continue
		}

		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Date.Before(entries[j].Date) })
		if dup, ok := firstDuplicateDate(entries); ok {
			issues = append(issues, &domain.DataContractError{
				PartNumber: part.PartNumber,
				Reason:     "duplicate demand date " + dup.Format(domain.DateLayout) + "; part skipped",
			})
			continue
		}

		partEvents := p.projectPart(part, entries)
		if len(partEvents) > 0 && !validPack(part.Pack) {
			issues = append(issues, &domain.InvalidPackError{PartNumber: part.PartNumber})
		}
		events = append(events, partEvents...)
	}

	return events, issues
}

// projectPart folds a part's date-sorted demand into shortage events.
func (p *Projector) projectPart(part domain.PartBaseline, entries []domain.DemandEntry) []domain.ShortageEvent {
	capacity := p.perShiftCapacity(part.ProductionRatePercent, part.Pack)
	state := projectionState{balance: math.Max(0, part.OnHandInventoryPieces)}

	var events []domain.ShortageEvent
	for _, entry := range entries {
		var out stepOutcome
		state, out = state.step(entry.QuantityPieces)
		if out.shortage <= 0 {
			continue
		}

		required := containersRequired(out.shortage, part.Pack)
		capped := 0
		if required != nil {
			capped = min(*required, capacity)
		}

		events = append(events, domain.ShortageEvent{
			PartNumber:                 part.PartNumber,
			ShipmentDate:               entry.Date,
			InventoryBeforeEvent:       out.inventoryBefore,
			DemandPieces:               entry.QuantityPieces,
			ShortagePieces:             out.shortage,
			Pack:                       part.Pack,
			ContainersRequired:         required,
			ContainersRequiredCapped:   capped,
			PerShiftCapacityContainers: capacity,
			IsFirstShortageForPart:     out.first,
			Customer:                   part.Customer,
			Description:                part.Description,
			ProductionRatePercent:      part.ProductionRatePercent,
		})
	}
	return events
}

// perShiftCapacity is floor((rate/100 * shiftHours) / pack), 0 when pack is unusable.
func (p *Projector) perShiftCapacity(ratePercent float64, pack *float64) int {
	if !validPack(pack) {
		return 0
	}
	hours := decimal.NewFromFloat(ratePercent).Div(decimal.NewFromInt(100)).Mul(p.shiftHours)
	return int(hours.Div(decimal.NewFromFloat(*pack)).Floor().IntPart())
}

// containersRequired is ceil(shortage/pack), nil when pack is unusable.
func containersRequired(shortage float64, pack *float64) *int {
	if !validPack(pack) {
		return nil
	}
	n := int(decimal.NewFromFloat(shortage).Div(decimal.NewFromFloat(*pack)).Ceil().IntPart())
	return &n
}

func validPack(pack *float64) bool {
	return pack != nil && *pack > 0
}

func firstDuplicateDate(sorted []domain.DemandEntry) (time.Time, bool) {
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Date.Equal(sorted[i-1].Date) {
			return sorted[i].Date, true
		}
	}
	return time.Time{}, false
}
