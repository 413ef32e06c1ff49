package domain

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func TestPartReferencePack(t *testing.T) {
	tests := []struct {
		name        string
		min, max    *float64
		want        *float64
		wantMissing bool
	}{
		{name: "max wins when positive", min: ptr(20), max: ptr(50), want: ptr(50)},
		{name: "falls back to min", min: ptr(20), max: ptr(0), want: ptr(20)},
		{name: "min only", min: ptr(30), max: nil, want: ptr(30)},
		{name: "zero min and null max", min: ptr(0), max: nil, wantMissing: true},
		{name: "negative values", min: ptr(-1), max: ptr(-5), wantMissing: true},
		{name: "both null", wantMissing: true},
		{name: "infinite max falls back to min", min: ptr(20), max: ptr(math.Inf(1)), want: ptr(20)},
		{name: "nan and infinite", min: ptr(math.NaN()), max: ptr(math.Inf(1)), wantMissing: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref := PartReference{PartNumber: "P", PackSizeMin: tt.min, PackSizeMax: tt.max}
			assert.Equal(t, tt.wantMissing, ref.PackMissing())
			if tt.wantMissing {
				assert.Nil(t, ref.Pack())
				return
			}
			require.NotNil(t, ref.Pack())
			assert.Equal(t, *tt.want, *ref.Pack())
		})
	}
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status string
		want   InventoryBucket
	}{
		{"EN CELL 3", BucketOnFloor},
		{"en piso", BucketOnFloor},
		{"Production", BucketOnFloor},
		{"Quality Hold", BucketQualityHold},
		{"QA", BucketQualityHold},
		{"calidad", BucketQualityHold},
		{"Suspect", BucketPossibleDefect},
		{"SCRAP", BucketPossibleDefect},
		{"posible defectuoso", BucketPossibleDefect},
		{"In transit", BucketOther},
		{"", BucketOther},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyStatus(tt.status))
		})
	}
}

func TestPlanStatusMessagesDiffer(t *testing.T) {
	assert.NotEqual(t, PlanStatusNoData.Message(), PlanStatusNoShortages.Message())
	assert.Contains(t, PlanStatusNoData.Message(), "No data available")
	assert.Contains(t, PlanStatusNoShortages.Message(), "No shortages")
	assert.Contains(t, PlanStatusFailed.Message(), "failed")
	assert.NotEqual(t, PlanStatusFailed.Message(), PlanStatusNoShortages.Message())
}

func TestReportClassifiesIssues(t *testing.T) {
	var r Report
	r.Add(StageLoad, &SourceUnavailableError{Source: "demand", Err: errors.New("timeout")})
	r.Add(StageProject, &InvalidPackError{PartNumber: "P2"})
	r.Add(StageNormalize, &DateParseError{Header: "13/45/2024"})
	r.Add(StageAggregate, nil)

	require.Len(t, r.Issues, 3)
	assert.True(t, r.HasErrors())
	assert.Equal(t, 1, r.Count(KindSourceUnavailable))
	assert.Equal(t, 1, r.Count(KindInvalidPack))
	assert.Equal(t, SeverityWarning, r.Issues[2].Severity)
}
