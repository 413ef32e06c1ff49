package service

import (
	"context"
	"time"

	"github.com/andresuchdata/shipment-priority/internal/cache"
	"github.com/andresuchdata/shipment-priority/internal/domain"
	"github.com/andresuchdata/shipment-priority/internal/metrics"
	"github.com/andresuchdata/shipment-priority/internal/pipeline"
	"github.com/andresuchdata/shipment-priority/internal/source"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Source roles.
const (
	SourceReference = "reference"
	SourceDemand    = "demand"
	SourceFloor     = "floor"
)

// SourceSet is where each input table comes from.
type SourceSet struct {
	Reference source.Loader
	Demand    source.Loader
	Floor     source.Loader
}

// Freshness is how long a fetched copy of each source may be reused.
type Freshness struct {
	Reference time.Duration
	Demand    time.Duration
	Floor     time.Duration
}

// PlanRequest narrows a run to a date range and optionally bypasses the cache.
type PlanRequest struct {
	From         *time.Time
	To           *time.Time
	ForceRefresh bool
}

// SourceStatus describes how one input was obtained for a run.
type SourceStatus struct {
	Role      string    `json:"role"`
	Location  string    `json:"location"`
	FetchedAt time.Time `json:"fetched_at"`
	Cached    bool      `json:"cached"`
	Rows      int       `json:"rows"`
	Error     string    `json:"error,omitempty"`
}

// PlanResult is a pipeline result plus the provenance of its inputs.
type PlanResult struct {
	pipeline.Result
	Sources []SourceStatus `json:"sources"`
}

type plannedSource struct {
	role   string
	loader source.Loader
	window time.Duration
}

type PlannerService struct {
	sources      []plannedSource
	cache        cache.SourceCache
	orchestrator *pipeline.Orchestrator
	now          func() time.Time
}

func NewPlannerService(sources SourceSet, freshness Freshness, cacheImpl cache.SourceCache, orchestrator *pipeline.Orchestrator) *PlannerService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopSourceCache()
	}
	if orchestrator == nil {
		orchestrator = pipeline.NewOrchestrator(pipeline.DefaultPipelineConfig())
	}
	return &PlannerService{
		sources: []plannedSource{
			{role: SourceReference, loader: sources.Reference, window: freshness.Reference},
			{role: SourceDemand, loader: sources.Demand, window: freshness.Demand},
			{role: SourceFloor, loader: sources.Floor, window: freshness.Floor},
		},
		cache:        cacheImpl,
		orchestrator: orchestrator,
		now:          time.Now,
	}
}

// Plan loads the three sources concurrently and runs the pipeline. A source
// that cannot be loaded degrades to an empty table and a report issue; the
// only error returned is context cancellation.
func (s *PlannerService) Plan(ctx context.Context, req PlanRequest) (*PlanResult, error) {
	start := time.Now()

	tables := make([]domain.RawTable, len(s.sources))
	statuses := make([]SourceStatus, len(s.sources))
	loadErrs := make([]error, len(s.sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range s.sources {
		g.Go(func() error {
			tables[i], statuses[i], loadErrs[i] = s.load(gctx, src, req.ForceRefresh)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	orchestrator := s.orchestrator
	if req.From != nil || req.To != nil {
		orchestrator = orchestrator.WithWindow(req.From, req.To)
	}
	result := orchestrator.Run(pipeline.Inputs{
		Reference: tables[0],
		Demand:    tables[1],
		Floor:     tables[2],
	})

	var loadReport domain.Report
	loadReport.AddAll(domain.StageLoad, loadErrs)
	result.Report.Issues = append(loadReport.Issues, result.Report.Issues...)

	metrics.RecordPlanRun(time.Since(start), string(result.Status), len(result.Events))
	for _, issue := range result.Report.Issues {
		metrics.RecordDataIssue(string(issue.Stage), issue.Kind)
	}

	return &PlanResult{Result: result, Sources: statuses}, nil
}

// Refresh drops every cached source so the next Plan refetches.
func (s *PlannerService) Refresh(ctx context.Context) error {
	return s.cache.InvalidateAll(ctx)
}

// Invalidate drops the cached table for one source role.
func (s *PlannerService) Invalidate(ctx context.Context, role string) error {
	for _, src := range s.sources {
		if src.role == role && src.loader != nil {
			return s.cache.Invalidate(ctx, sourceKey(src))
		}
	}
	return nil
}

// InvalidateReference drops the cached reference table.
func (s *PlannerService) InvalidateReference(ctx context.Context) error {
	return s.Invalidate(ctx, SourceReference)
}

func (s *PlannerService) load(ctx context.Context, src plannedSource, force bool) (domain.RawTable, SourceStatus, error) {
	status := SourceStatus{Role: src.role}
	if src.loader == nil {
		err := &domain.SourceUnavailableError{Source: src.role, Err: errNoSource}
		status.Error = err.Error()
		return domain.RawTable{}, status, err
	}
	status.Location = src.loader.Name()
	key := sourceKey(src)

	if !force {
		entry, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			log.Warn().Err(err).Str("source", src.role).Msg("planner: cache get failed")
		}
		if ok && cache.IsFresh(s.now(), entry.FetchedAt, src.window) {
			metrics.RecordCacheOperation("get", "hit")
			status.FetchedAt = entry.FetchedAt
			status.Cached = true
			status.Rows = len(entry.Table.Rows)
			return entry.Table, status, nil
		}
		metrics.RecordCacheOperation("get", "miss")
	}

	start := time.Now()
	table, err := source.Fetch(ctx, src.loader)
	if err != nil {
		metrics.RecordSourceLoad(src.role, time.Since(start), "error")
		status.Error = err.Error()
		return domain.RawTable{}, status, err
	}
	metrics.RecordSourceLoad(src.role, time.Since(start), "ok")

	entry := cache.Entry{Table: table, FetchedAt: s.now()}
	if err := s.cache.Set(ctx, key, entry, src.window); err != nil {
		log.Warn().Err(err).Str("source", src.role).Msg("planner: cache set failed")
	}

	status.FetchedAt = entry.FetchedAt
	status.Rows = len(table.Rows)
	return table, status, nil
}

func sourceKey(src plannedSource) cache.Key {
	return cache.Key{Source: src.loader.Name(), Params: map[string]string{"role": src.role}}
}
