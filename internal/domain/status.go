package domain

import "strings"

// InventoryBucket is the non-usable category of a floor container.
type InventoryBucket string

const (
	BucketOnFloor        InventoryBucket = "ON_FLOOR"
	BucketQualityHold    InventoryBucket = "QUALITY_HOLD"
	BucketPossibleDefect InventoryBucket = "POSSIBLE_DEFECT"
	BucketOther          InventoryBucket = "OTHER"
)

// Checked in order; the first bucket with a matching keyword wins.
var bucketKeywords = []struct {
	bucket   InventoryBucket
	keywords []string
}{
	{BucketOnFloor, []string{"CELL", "PISO", "FLOOR", "PROD"}},
	{BucketQualityHold, []string{"QUALITY", "HOLD", "QA", "CALIDAD"}},
	{BucketPossibleDefect, []string{"DEFECT", "SCRAP", "SUSPECT", "DEFECTUOSO"}},
}

// ClassifyStatus maps a free-text container status into an inventory bucket.
func ClassifyStatus(status string) InventoryBucket {
	upper := strings.ToUpper(strings.TrimSpace(status))
	if upper == "" {
		return BucketOther
	}
	for _, group := range bucketKeywords {
		for _, kw := range group.keywords {
			if strings.Contains(upper, kw) {
				return group.bucket
			}
		}
	}
	return BucketOther
}

// PlanStatus summarizes the outcome of a planning run.
type PlanStatus string

const (
	PlanStatusNoData      PlanStatus = "no_data"
	PlanStatusNoShortages PlanStatus = "no_shortages"
	PlanStatusOK          PlanStatus = "ok"
	// PlanStatusFailed marks a run that aborted part way; its data is not a plan.
	PlanStatusFailed      PlanStatus = "failed"
)

var planStatusMessages = map[PlanStatus]string{
	PlanStatusNoData:      "No data available: check the reference, demand and floor sources",
	PlanStatusNoShortages: "No shortages found for the selected horizon",
	PlanStatusOK:          "Production sequence ready",
	PlanStatusFailed:      "Planning run failed: see the data issues and retry",
}

// Message returns the operator-facing text for the status.
func (s PlanStatus) Message() string {
	if msg, ok := planStatusMessages[s]; ok {
		return msg
	}
	return string(s)
}
