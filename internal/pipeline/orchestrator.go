package pipeline

import (
	"fmt"
	"sort"
	"time"

	"github.com/andresuchdata/shipment-priority/internal/domain"
	"github.com/andresuchdata/shipment-priority/internal/pipeline/shortage"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Orchestrator runs normalize, aggregate, project and sequence over one set of inputs.
type Orchestrator struct {
	cfg        PipelineConfig
	normalizer *shortage.Normalizer
	aggregator *shortage.Aggregator
	sequencer  *shortage.Sequencer
	sequence   func(events []domain.ShortageEvent) []domain.QueueEntry
	now        func() time.Time
}

// NewOrchestrator creates a new Orchestrator.
func NewOrchestrator(cfg PipelineConfig) *Orchestrator {
	if cfg.ShiftHours <= 0 {
		cfg.ShiftHours = shortage.DefaultShiftHours
	}
	if cfg.DefaultRatePercent <= 0 {
		cfg.DefaultRatePercent = 100
	}
	o := &Orchestrator{
		cfg:        cfg,
		normalizer: shortage.NewNormalizer(cfg.DefaultRatePercent),
		aggregator: shortage.NewAggregator(),
		sequencer:  shortage.NewSequencer(),
		now:        time.Now,
	}
	o.sequence = o.sequencer.Sequence
	return o
}

// Config returns the orchestrator's settings.
func (o *Orchestrator) Config() PipelineConfig {
	return o.cfg
}

// WithWindow returns a copy of the orchestrator restricted to [from, to].
func (o *Orchestrator) WithWindow(from, to *time.Time) *Orchestrator {
	cfg := o.cfg
	if from != nil {
		cfg.From = from
	}
	if to != nil {
		cfg.To = to
	}
	clone := NewOrchestrator(cfg)
	clone.now = o.now
	clone.sequence = o.sequence
	return clone
}

// Run executes one planning pass. It never fails: stage problems land in
// Result.Report and the affected data comes back empty.
func (o *Orchestrator) Run(in Inputs) (result Result) {
	start := o.now()
	result = Result{
		RunID:       uuid.NewString(),
		GeneratedAt: start,
		Baseline:    []domain.PartBaseline{},
		Demand:      []domain.DemandEntry{},
		Events:      []domain.ShortageEvent{},
		Queue:       []domain.QueueEntry{},
		NonUsable:   []domain.NonUsableSummary{},
	}

	defer func() {
		aborted := false
		if r := recover(); r != nil {
			aborted = true
			log.Error().Interface("panic", r).Str("run_id", result.RunID).Msg("planning run aborted")
			result.Report.Add(domain.StageProject, &domain.DataContractError{Reason: fmt.Sprintf("planning run aborted: %v", r)})
			result.Events = []domain.ShortageEvent{}
			result.Queue = []domain.QueueEntry{}
		}
		result.Status = planStatus(result, aborted)
		result.Message = result.Status.Message()
		result.Duration = o.now().Sub(start)
		logReport(result)
	}()

	refs, issues := o.normalizer.NormalizeReference(in.Reference)
	result.Report.AddAll(domain.StageNormalize, issues)

	demand, issues := o.normalizer.NormalizeDemand(in.Demand)
	result.Report.AddAll(domain.StageNormalize, issues)

	floor, issues := o.normalizer.NormalizeFloor(in.Floor)
	result.Report.AddAll(domain.StageNormalize, issues)

	agg, issues := o.aggregator.Aggregate(refs, demand)
	result.Report.AddAll(domain.StageAggregate, issues)
	if agg.Baseline != nil {
		result.Baseline = agg.Baseline
	}
	if agg.Demand != nil {
		result.Demand = agg.Demand
	}
	if summaries := o.aggregator.SummarizeNonUsable(refs, agg.Baseline, floor); summaries != nil {
		result.NonUsable = summaries
	}

	result.Window = o.window(agg.Demand)
	events, issues := shortage.NewProjector(o.cfg.ShiftHours, result.Window).Project(agg.Baseline, agg.Demand)
	result.Report.AddAll(domain.StageProject, issues)
	result.Events = events

	result.Queue = o.sequence(events)
	return result
}

// window resolves the configured bounds, applying HorizonDays from the
// start date (or the earliest demand date) when no end is set.
func (o *Orchestrator) window(demand []domain.DemandEntry) shortage.Window {
	w := shortage.Window{From: o.cfg.From, To: o.cfg.To}
	if w.To != nil || o.cfg.HorizonDays <= 0 {
		return w
	}

	start := w.From
	if start == nil {
		for _, d := range demand {
			if start == nil || d.Date.Before(*start) {
				date := d.Date
				start = &date
			}
		}
	}
	if start == nil {
		return w
	}
	end := start.AddDate(0, 0, o.cfg.HorizonDays-1)
	w.To = &end
	return w
}

func planStatus(r Result, aborted bool) domain.PlanStatus {
	switch {
	case aborted:
		return domain.PlanStatusFailed
	case len(r.Baseline) == 0:
		return domain.PlanStatusNoData
	case len(r.Events) == 0:
		return domain.PlanStatusNoShortages
	default:
		return domain.PlanStatusOK
	}
}

func logReport(r Result) {
	for _, issue := range r.Report.Issues {
		evt := log.Warn()
		if issue.Severity == domain.SeverityError {
			evt = log.Error()
		}
		evt.Str("run_id", r.RunID).
			Str("stage", string(issue.Stage)).
			Str("kind", issue.Kind).
			Msg(issue.Message)
	}
	log.Info().
		Str("run_id", r.RunID).
		Str("status", string(r.Status)).
		Int("parts", len(r.Baseline)).
		Int("events", len(r.Events)).
		Int("issues", len(r.Report.Issues)).
		Dur("duration", r.Duration).
		Msg("planning run completed")
}

func sortDates(dates []time.Time) {
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
}
