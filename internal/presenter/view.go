package presenter

import (
	"time"

	"github.com/andresuchdata/shipment-priority/internal/domain"
	"github.com/andresuchdata/shipment-priority/internal/pipeline"
)

// View is a planning result shaped for display.
type View struct {
	RunID       string            `json:"run_id"`
	Status      domain.PlanStatus `json:"status"`
	Message     string            `json:"message"`
	GeneratedAt time.Time         `json:"generated_at"`
	Threshold   int               `json:"threshold"`
	Rows        []Row             `json:"rows"`
	Urgent      int               `json:"urgent"`
	Sequence    string            `json:"sequence"`
	Parts       []PartTotal       `json:"parts"`
	Days        []DailySequence   `json:"days"`
	DataIssues  []DataIssue       `json:"data_issues"`
	Issues      []domain.Issue    `json:"issues"`
}

// Build renders a pipeline result. A threshold below 1 falls back to DefaultThreshold.
func Build(result pipeline.Result, threshold int) View {
	if threshold < 1 {
		threshold = DefaultThreshold
	}

	rows := Rows(result.Queue, threshold)
	urgent := 0
	for _, r := range rows {
		if r.Urgent {
			urgent++
		}
	}

	issues := result.Report.Issues
	if issues == nil {
		issues = []domain.Issue{}
	}

	return View{
		RunID:       result.RunID,
		Status:      result.Status,
		Message:     result.Status.Message(),
		GeneratedAt: result.GeneratedAt,
		Threshold:   threshold,
		Rows:        rows,
		Urgent:      urgent,
		Sequence:    RenderSequence(result.Queue),
		Parts:       GroupByPart(result.Queue),
		Days:        DailySequences(result.Queue),
		DataIssues:  DataIssues(result.Queue),
		Issues:      issues,
	}
}
