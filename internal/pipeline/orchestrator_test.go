package pipeline

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/andresuchdata/shipment-priority/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleInputs() Inputs {
	return Inputs{
		Reference: domain.RawTable{
			Header: []string{"partno", "stdpack_min", "stdpack_max", "customer", "desc", "rate"},
			Rows: [][]string{
				{"P1", "25", "50", "FORD", "Bracket", "100"},
				{"P2", "0", "", "MAGNA", "Seal", ""},
				{"P3", "5", "5", "ACME", "Clip", "100"},
			},
		},
		Demand: domain.RawTable{
			Header: []string{"Demand Type", "Part No", "Inv FG", "Non Useable Inventory", "Primary Customer", "10/21/2024", "10/22/2024", "10/23/2024"},
			Rows: [][]string{
				{"Customer Releases", "P1", "120", "40", "FORD MOTOR CO", "100", "80", "40"},
				{"Customer Releases", "P2", "0", "", "", "10", "", ""},
				{"Customer Releases", "P3", "1000", "", "ACME", "1", "1", "1"},
				{"Scheduled Orders", "P3", "1000", "", "ACME", "5000", "5000", "5000"},
			},
		},
		Floor: domain.RawTable{
			Header: []string{"Part No", "Quantity", "Container Status"},
			Rows: [][]string{
				{"P1", "50", "EN PISO"},
				{"P1", "10", "HOLD"},
			},
		},
	}
}

func TestRunEndToEnd(t *testing.T) {
	result := NewOrchestrator(DefaultPipelineConfig()).Run(sampleInputs())

	assert.Equal(t, domain.PlanStatusOK, result.Status)
	assert.NotEmpty(t, result.RunID)
	require.Len(t, result.Baseline, 3)
	require.Len(t, result.Events, 3)

	require.Len(t, result.Queue, 3)
	assert.Equal(t, "P1", result.Queue[0].PartNumber)
	assert.True(t, result.Queue[0].IsFirstShortageForPart)
	assert.Equal(t, "P2", result.Queue[1].PartNumber)
	assert.Nil(t, result.Queue[1].ContainersRequired)
	assert.Equal(t, "P1", result.Queue[2].PartNumber)
	assert.False(t, result.Queue[2].IsFirstShortageForPart)

	assert.Equal(t, 1, result.Report.Count(domain.KindInvalidPack))

	require.Len(t, result.NonUsable, 1)
	assert.Equal(t, 1, result.NonUsable[0].OnFloorContainers)
	require.NotNil(t, result.NonUsable[0].DeltaPieces)
	assert.Equal(t, -20.0, *result.NonUsable[0].DeltaPieces)
}

func TestRunScenarioEEmptyReference(t *testing.T) {
	in := sampleInputs()
	in.Reference = domain.RawTable{}

	result := NewOrchestrator(DefaultPipelineConfig()).Run(in)

	assert.Empty(t, result.Baseline)
	assert.Empty(t, result.Events)
	assert.Empty(t, result.Queue)
	assert.Equal(t, domain.PlanStatusNoData, result.Status)
	assert.Equal(t, domain.PlanStatusNoData.Message(), result.Message)
	assert.NotEqual(t, domain.PlanStatusNoShortages.Message(), result.Message)
}

func TestRunNoShortages(t *testing.T) {
	in := sampleInputs()
	in.Demand.Rows = in.Demand.Rows[2:3]

	result := NewOrchestrator(DefaultPipelineConfig()).Run(in)

	assert.Equal(t, domain.PlanStatusNoShortages, result.Status)
	assert.Len(t, result.Baseline, 1)
	assert.Empty(t, result.Queue)
}

func TestRunAllInputsEmpty(t *testing.T) {
	result := NewOrchestrator(DefaultPipelineConfig()).Run(Inputs{})

	assert.Equal(t, domain.PlanStatusNoData, result.Status)
	assert.NotNil(t, result.Queue)
	assert.NotNil(t, result.NonUsable)
}

func TestRunIsIdempotent(t *testing.T) {
	o := NewOrchestrator(DefaultPipelineConfig())

	first, err := json.Marshal(o.Run(sampleInputs()).Queue)
	require.NoError(t, err)
	second, err := json.Marshal(o.Run(sampleInputs()).Queue)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRunHorizon(t *testing.T) {
	cfg := DefaultPipelineConfig()
	cfg.HorizonDays = 2

	result := NewOrchestrator(cfg).Run(sampleInputs())

	require.NotNil(t, result.Window.To)
	assert.Equal(t, time.Date(2024, 10, 22, 0, 0, 0, 0, time.UTC), *result.Window.To)
	for _, ev := range result.Events {
		assert.False(t, ev.ShipmentDate.After(*result.Window.To))
	}
	assert.Len(t, result.Events, 2)
}

func TestWithWindow(t *testing.T) {
	in := sampleInputs()
	in.Demand.Rows[0][2] = "50"
	from := time.Date(2024, 10, 22, 0, 0, 0, 0, time.UTC)
	o := NewOrchestrator(DefaultPipelineConfig()).WithWindow(&from, nil)

	result := o.Run(in)

	require.Len(t, result.Events, 2)
	assert.Equal(t, "P1", result.Events[0].PartNumber)
	assert.Equal(t, from, result.Events[0].ShipmentDate)
	assert.Equal(t, 30.0, result.Events[0].ShortagePieces, "stock is not consumed by demand before the window")
	assert.True(t, result.Events[0].IsFirstShortageForPart, "first shortage is relative to the window")
}

func TestDemandDates(t *testing.T) {
	result := NewOrchestrator(DefaultPipelineConfig()).Run(sampleInputs())

	dates := result.DemandDates()

	require.Len(t, dates, 3)
	assert.True(t, dates[0].Before(dates[1]))
}

func eventsFor(events []domain.ShortageEvent, part string) []domain.ShortageEvent {
	var out []domain.ShortageEvent
	for _, ev := range events {
		if ev.PartNumber == part {
			out = append(out, ev)
		}
	}
	return out
}

func TestRunTreatsNonFiniteCellsAsMissing(t *testing.T) {
	tests := []struct {
		name       string
		edit       func(in *Inputs)
		wantP1     int
		wantIssues int
	}{
		{
			name: "infinite pack on another part",
			edit: func(in *Inputs) {
				in.Reference.Rows = append(in.Reference.Rows, []string{"P9", "", "inf", "ACME", "Widget", "Infinity"})
				in.Demand.Rows = append(in.Demand.Rows, []string{"Customer Releases", "P9", "0", "", "ACME", "10", "", ""})
			},
			wantP1:     2,
			wantIssues: 2,
		},
		{
			name: "nan demand cell",
			edit: func(in *Inputs) {
				in.Demand.Rows[0] = []string{"Customer Releases", "P1", "120", "40", "FORD MOTOR CO", "NaN", "500", "500"}
			},
			wantP1:     2,
			wantIssues: 1,
		},
		{
			name: "nan on hand",
			edit: func(in *Inputs) {
				in.Demand.Rows[0][2] = "NaN"
			},
			wantP1:     3,
			wantIssues: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := sampleInputs()
			tt.edit(&in)

			result := NewOrchestrator(DefaultPipelineConfig()).Run(in)

			assert.Equal(t, domain.PlanStatusOK, result.Status)
			assert.Len(t, eventsFor(result.Events, "P1"), tt.wantP1)
			assert.Equal(t, tt.wantIssues, result.Report.Count(domain.KindInvalidPack))
			assert.Zero(t, result.Report.Count(domain.KindDataContract))

			_, err := json.Marshal(result)
			require.NoError(t, err)
		})
	}
}

func TestRunAbortedIsReportedAsFailed(t *testing.T) {
	o := NewOrchestrator(DefaultPipelineConfig())
	o.sequence = func([]domain.ShortageEvent) []domain.QueueEntry {
		panic("sequencer exploded")
	}

	result := o.Run(sampleInputs())

	assert.Equal(t, domain.PlanStatusFailed, result.Status)
	assert.NotEqual(t, domain.PlanStatusNoShortages, result.Status)
	assert.Equal(t, domain.PlanStatusFailed.Message(), result.Message)
	assert.Empty(t, result.Events)
	assert.Empty(t, result.Queue)
	assert.NotEmpty(t, result.Baseline)
	require.Equal(t, 1, result.Report.Count(domain.KindDataContract))
	assert.Contains(t, result.Report.Issues[len(result.Report.Issues)-1].Message, "sequencer exploded")
}
