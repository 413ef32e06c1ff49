package pipeline

import (
	"time"

	"github.com/andresuchdata/shipment-priority/internal/domain"
	"github.com/andresuchdata/shipment-priority/internal/pipeline/shortage"
)

// Inputs are the three raw tables one planning run consumes.
type Inputs struct {
	Reference domain.RawTable
	Demand    domain.RawTable
	Floor     domain.RawTable
}

// PipelineConfig holds the tunables of a planning run.
type PipelineConfig struct {
	ShiftHours         float64 // Standard production hours per shift
	DefaultRatePercent float64 // Production rate when the reference leaves it blank
	From               *time.Time
	To                 *time.Time
	// HorizonDays, when positive and To is unset, ends the window that many
	// days after the earliest demand date (inclusive of that date).
	HorizonDays int
}

// DefaultPipelineConfig returns the standard shift and rate settings.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		ShiftHours:         shortage.DefaultShiftHours,
		DefaultRatePercent: 100,
	}
}

// Result is everything a planning run produces. Report carries the issues
// raised along the way; the data fields are always well-typed, possibly empty.
type Result struct {
	RunID       string                    `json:"run_id"`
	Status      domain.PlanStatus         `json:"status"`
	Message     string                    `json:"message"`
	GeneratedAt time.Time                 `json:"generated_at"`
	Duration    time.Duration             `json:"duration"`
	Window      shortage.Window           `json:"window"`
	Baseline    []domain.PartBaseline     `json:"baseline"`
	Demand      []domain.DemandEntry      `json:"demand"`
	Events      []domain.ShortageEvent    `json:"events"`
	Queue       []domain.QueueEntry       `json:"queue"`
	NonUsable   []domain.NonUsableSummary `json:"non_usable"`
	Report      domain.Report             `json:"report"`
}

// DemandDates returns the distinct demand dates in ascending order.
func (r Result) DemandDates() []time.Time {
	seen := make(map[time.Time]struct{})
	var dates []time.Time
	for _, d := range r.Demand {
		if _, ok := seen[d.Date]; ok {
			continue
		}
		seen[d.Date] = struct{}{}
		dates = append(dates, d.Date)
	}
	sortDates(dates)
	return dates
}
