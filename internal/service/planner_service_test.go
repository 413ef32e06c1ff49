package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andresuchdata/shipment-priority/internal/cache"
	"github.com/andresuchdata/shipment-priority/internal/domain"
	"github.com/andresuchdata/shipment-priority/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingLoader struct {
	name  string
	table domain.RawTable
	err   error
	calls atomic.Int32
}

func (l *countingLoader) Name() string { return l.name }

func (l *countingLoader) Load(ctx context.Context) (domain.RawTable, error) {
	l.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return domain.RawTable{}, err
	}
	return l.table, l.err
}

func referenceLoader() *countingLoader {
	return &countingLoader{name: "ref.csv", table: domain.RawTable{
		Header: []string{"partno", "stdpack_max", "customer", "rate"},
		Rows:   [][]string{{"P1", "10", "FORD", "100"}},
	}}
}

func demandLoader() *countingLoader {
	return &countingLoader{name: "prp.csv", table: domain.RawTable{
		Header: []string{"Part No", "Demand Type", "INV FG", "10/21/2024", "10/22/2024"},
		Rows:   [][]string{{"P1", "Customer Releases", "120", "100", "50"}},
	}}
}

func floorLoader() *countingLoader {
	return &countingLoader{name: "live.csv", table: domain.RawTable{
		Header: []string{"Part No", "Quantity", "Container Status"},
		Rows:   [][]string{{"P1", "15", "Quality Hold"}},
	}}
}

func newPlanner(ref, demand, floor *countingLoader, window time.Duration) *PlannerService {
	return NewPlannerService(
		SourceSet{Reference: ref, Demand: demand, Floor: floor},
		Freshness{Reference: window, Demand: window, Floor: window},
		cache.NewMemorySourceCache(),
		pipeline.NewOrchestrator(pipeline.DefaultPipelineConfig()),
	)
}

func TestPlanProducesQueue(t *testing.T) {
	svc := newPlanner(referenceLoader(), demandLoader(), floorLoader(), time.Hour)

	res, err := svc.Plan(context.Background(), PlanRequest{})
	require.NoError(t, err)

	assert.Equal(t, domain.PlanStatusOK, res.Status)
	require.Len(t, res.Events, 1)
	assert.Equal(t, 30.0, res.Events[0].ShortagePieces)
	assert.True(t, res.Events[0].IsFirstShortageForPart)
	require.Len(t, res.Queue, 1)
	assert.Equal(t, 1, res.Queue[0].Position)

	require.Len(t, res.NonUsable, 1)
	assert.Equal(t, 15.0, res.NonUsable[0].QualityHoldPieces)

	require.Len(t, res.Sources, 3)
	assert.Equal(t, SourceReference, res.Sources[0].Role)
	assert.Equal(t, "prp.csv", res.Sources[1].Location)
	assert.False(t, res.Sources[1].Cached)
	assert.Equal(t, 1, res.Sources[2].Rows)
}

func TestPlanUsesCacheWithinFreshness(t *testing.T) {
	ref, demand, floor := referenceLoader(), demandLoader(), floorLoader()
	svc := newPlanner(ref, demand, floor, time.Hour)
	ctx := context.Background()

	_, err := svc.Plan(ctx, PlanRequest{})
	require.NoError(t, err)
	res, err := svc.Plan(ctx, PlanRequest{})
	require.NoError(t, err)

	assert.EqualValues(t, 1, demand.calls.Load())
	for _, s := range res.Sources {
		assert.True(t, s.Cached, s.Role)
	}

	_, err = svc.Plan(ctx, PlanRequest{ForceRefresh: true})
	require.NoError(t, err)
	assert.EqualValues(t, 2, demand.calls.Load())

	require.NoError(t, svc.Refresh(ctx))
	_, err = svc.Plan(ctx, PlanRequest{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, demand.calls.Load())
	assert.EqualValues(t, 3, ref.calls.Load())
}

func TestPlanRefetchesAfterWindowExpires(t *testing.T) {
	demand := demandLoader()
	svc := newPlanner(referenceLoader(), demand, floorLoader(), 30*time.Minute)
	now := time.Date(2024, 10, 21, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	_, err := svc.Plan(context.Background(), PlanRequest{})
	require.NoError(t, err)

	now = now.Add(29 * time.Minute)
	_, err = svc.Plan(context.Background(), PlanRequest{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, demand.calls.Load())

	now = now.Add(2 * time.Minute)
	_, err = svc.Plan(context.Background(), PlanRequest{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, demand.calls.Load())
}

func TestPlanZeroFreshnessAlwaysLoads(t *testing.T) {
	demand := demandLoader()
	svc := newPlanner(referenceLoader(), demand, floorLoader(), 0)

	for i := 0; i < 3; i++ {
		_, err := svc.Plan(context.Background(), PlanRequest{})
		require.NoError(t, err)
	}
	assert.EqualValues(t, 3, demand.calls.Load())
}

func TestInvalidateReference(t *testing.T) {
	ref, demand := referenceLoader(), demandLoader()
	svc := newPlanner(ref, demand, floorLoader(), time.Hour)
	ctx := context.Background()

	_, err := svc.Plan(ctx, PlanRequest{})
	require.NoError(t, err)
	require.NoError(t, svc.InvalidateReference(ctx))
	_, err = svc.Plan(ctx, PlanRequest{})
	require.NoError(t, err)

	assert.EqualValues(t, 2, ref.calls.Load())
	assert.EqualValues(t, 1, demand.calls.Load())
}

func TestInvalidateByRole(t *testing.T) {
	ref, demand, floor := referenceLoader(), demandLoader(), floorLoader()
	svc := newPlanner(ref, demand, floor, time.Hour)
	ctx := context.Background()

	_, err := svc.Plan(ctx, PlanRequest{})
	require.NoError(t, err)
	require.NoError(t, svc.Invalidate(ctx, SourceDemand))
	require.NoError(t, svc.Invalidate(ctx, "unknown"))
	_, err = svc.Plan(ctx, PlanRequest{})
	require.NoError(t, err)

	assert.EqualValues(t, 1, ref.calls.Load())
	assert.EqualValues(t, 2, demand.calls.Load())
	assert.EqualValues(t, 1, floor.calls.Load())
}

func TestPlanDegradesFailedSource(t *testing.T) {
	demand := &countingLoader{name: "https://example.com/prp.csv", err: errors.New("connection refused")}
	svc := newPlanner(referenceLoader(), demand, floorLoader(), time.Hour)

	res, err := svc.Plan(context.Background(), PlanRequest{})
	require.NoError(t, err)

	assert.Equal(t, domain.PlanStatusNoData, res.Status)
	assert.Empty(t, res.Queue)
	require.NotEmpty(t, res.Report.Issues)
	first := res.Report.Issues[0]
	assert.Equal(t, domain.StageLoad, first.Stage)
	assert.Equal(t, domain.KindSourceUnavailable, first.Kind)
	assert.Contains(t, first.Message, "connection refused")
	assert.Contains(t, res.Sources[1].Error, "connection refused")
}

func TestPlanWithoutConfiguredSource(t *testing.T) {
	svc := NewPlannerService(SourceSet{Reference: referenceLoader(), Demand: demandLoader()}, Freshness{}, nil, nil)

	res, err := svc.Plan(context.Background(), PlanRequest{})
	require.NoError(t, err)
	assert.Equal(t, domain.PlanStatusOK, res.Status, "floor data only feeds the non-usable summary")
	assert.Equal(t, 1, res.Report.Count(domain.KindSourceUnavailable))
	assert.NotEmpty(t, res.Sources[2].Error)
}

func TestPlanHonorsWindow(t *testing.T) {
	svc := newPlanner(referenceLoader(), demandLoader(), floorLoader(), time.Hour)
	to := time.Date(2024, 10, 21, 0, 0, 0, 0, time.UTC)

	res, err := svc.Plan(context.Background(), PlanRequest{To: &to})
	require.NoError(t, err)
	assert.Equal(t, domain.PlanStatusNoShortages, res.Status)
	assert.Empty(t, res.Events)
}

func TestPlanCanceled(t *testing.T) {
	svc := newPlanner(referenceLoader(), demandLoader(), floorLoader(), time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Plan(ctx, PlanRequest{})
	assert.ErrorIs(t, err, context.Canceled)
}
