package domain

import "errors"

// Stage names the pipeline step that raised an issue.
type Stage string

const (
	StageLoad      Stage = "load"
	StageNormalize Stage = "normalize"
	StageAggregate Stage = "aggregate"
	StageProject   Stage = "project"
	StageSequence  Stage = "sequence"
)

// Severity of a report issue.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Issue is a non-fatal condition surfaced alongside a plan.
type Issue struct {
	Stage    Stage    `json:"stage"`
	Severity Severity `json:"severity"`
	Kind     string   `json:"kind"`
	Message  string   `json:"message"`
	Err      error    `json:"-"`
}

// Report collects the issues raised during one planning run.
type Report struct {
	Issues []Issue `json:"issues"`
}

// Add records err under the given stage. Nil errors are ignored.
func (r *Report) Add(stage Stage, err error) {
	if err == nil {
		return
	}
	kind, severity := classify(err)
	r.Issues = append(r.Issues, Issue{
		Stage:    stage,
		Severity: severity,
		Kind:     kind,
		Message:  err.Error(),
		Err:      err,
	})
}

// AddAll records every error in errs under the given stage.
func (r *Report) AddAll(stage Stage, errs []error) {
	for _, err := range errs {
		r.Add(stage, err)
	}
}

// HasErrors reports whether any issue has error severity.
func (r Report) HasErrors() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Count returns the number of issues of the given kind.
func (r Report) Count(kind string) int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Kind == kind {
			n++
		}
	}
	return n
}

// Issue kinds.
const (
	KindSourceUnavailable = "source_unavailable"
	KindMissingColumn     = "missing_column"
	KindInvalidPack       = "invalid_pack"
	KindDateParse         = "date_parse"
	KindDataContract      = "data_contract"
	KindOther             = "other"
)

func classify(err error) (string, Severity) {
	var (
		sourceErr   *SourceUnavailableError
		columnErr   *MissingColumnError
		packErr     *InvalidPackError
		dateErr     *DateParseError
		contractErr *DataContractError
	)
	switch {
	case errors.As(err, &sourceErr):
		return KindSourceUnavailable, SeverityError
	case errors.As(err, &columnErr):
		return KindMissingColumn, SeverityError
	case errors.As(err, &packErr):
		return KindInvalidPack, SeverityWarning
	case errors.As(err, &dateErr):
		return KindDateParse, SeverityWarning
	case errors.As(err, &contractErr):
		return KindDataContract, SeverityWarning
	default:
		return KindOther, SeverityWarning
	}
}
