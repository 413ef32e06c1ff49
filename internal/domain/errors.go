package domain

import (
	"fmt"
	"strings"
)

// SourceUnavailableError means a remote fetch or local read failed.
type SourceUnavailableError struct {
	Source string
	Err    error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("source %s unavailable: %v", e.Source, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error { return e.Err }

// MissingColumnError means a semantic column could not be located in a table header.
type MissingColumnError struct {
	Table      string
	Field      string
	Candidates []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s table: no column found for %s (looked for %s)",
		e.Table, e.Field, strings.Join(e.Candidates, ", "))
}

// InvalidPackError means a part with demand has no positive pack size.
type InvalidPackError struct {
	PartNumber string
}

func (e *InvalidPackError) Error() string {
	return fmt.Sprintf("part %s has no valid pack size; container count left empty", e.PartNumber)
}

// DateParseError means a date-shaped header could not be parsed.
type DateParseError struct {
	Header string
	Err    error
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("date column %q excluded: %v", e.Header, e.Err)
}

func (e *DateParseError) Unwrap() error { return e.Err }

// DataContractError means the input broke an assumption the pipeline relies on.
type DataContractError struct {
	PartNumber string
	Reason     string
}

func (e *DataContractError) Error() string {
	if e.PartNumber == "" {
		return e.Reason
	}
	return fmt.Sprintf("part %s: %s", e.PartNumber, e.Reason)
}
