// Package presenter turns a production queue into what operators read: the
// filtered floor sequence, per-part totals, per-day text and CSV exports.
package presenter

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/andresuchdata/shipment-priority/internal/domain"
)

// SequenceSeparator joins steps of a rendered sequence.
const SequenceSeparator = " → "

const noContainersText = "No containers to produce."

// Row is a queue entry with its semaphore.
type Row struct {
	domain.QueueEntry
	Semaphore Semaphore `json:"semaphore"`
	Urgent    bool      `json:"urgent"`
}

// PartTotal sums the containers to produce for one part.
type PartTotal struct {
	PartNumber  string    `json:"part_number"`
	Customer    string    `json:"customer"`
	Description string    `json:"description"`
	Containers  int       `json:"containers"`
	Events      int       `json:"events"`
	FirstDate   time.Time `json:"first_date"`
}

// DailySequence is the floor sequence for one shipment date.
type DailySequence struct {
	Date    time.Time           `json:"date"`
	Entries []domain.QueueEntry `json:"entries"`
	Text    string              `json:"text"`
}

// DataIssue flags a part whose containers could not be computed.
type DataIssue struct {
	PartNumber string `json:"part_number"`
	Customer   string `json:"customer"`
	Reason     string `json:"reason"`
	Events     int    `json:"events"`
}

// Sequence keeps the entries that actually need production this shift.
func Sequence(queue []domain.QueueEntry) []domain.QueueEntry {
	out := make([]domain.QueueEntry, 0, len(queue))
	for _, e := range queue {
		if e.ContainersRequiredCapped > 0 {
			out = append(out, e)
		}
	}
	return out
}

// GroupByPart totals capped containers per part, in queue order.
func GroupByPart(queue []domain.QueueEntry) []PartTotal {
	index := make(map[string]int)
	totals := make([]PartTotal, 0)
	for _, e := range Sequence(queue) {
		i, ok := index[e.PartNumber]
		if !ok {
			i = len(totals)
			index[e.PartNumber] = i
			totals = append(totals, PartTotal{
				PartNumber:  e.PartNumber,
				Customer:    e.Customer,
				Description: e.Description,
				FirstDate:   e.ShipmentDate,
			})
		}
		totals[i].Containers += e.ContainersRequiredCapped
		totals[i].Events++
		if e.ShipmentDate.Before(totals[i].FirstDate) {
			totals[i].FirstDate = e.ShipmentDate
		}
	}
	return totals
}

// RenderSequence writes the floor sequence as "N containers of PART (CUSTOMER)"
// steps. Entries with nothing to produce are skipped.
func RenderSequence(queue []domain.QueueEntry) string {
	steps := make([]string, 0, len(queue))
	for _, e := range Sequence(queue) {
		steps = append(steps, fmt.Sprintf("%d containers of %s (%s)", e.ContainersRequiredCapped, e.PartNumber, e.Customer))
	}
	if len(steps) == 0 {
		return noContainersText
	}
	return strings.Join(steps, SequenceSeparator)
}

// DailySequences splits the queue by shipment date, ascending, keeping queue
// order within each day.
func DailySequences(queue []domain.QueueEntry) []DailySequence {
	index := make(map[time.Time]int)
	days := make([]DailySequence, 0)
	for _, e := range queue {
		i, ok := index[e.ShipmentDate]
		if !ok {
			i = len(days)
			index[e.ShipmentDate] = i
			days = append(days, DailySequence{Date: e.ShipmentDate})
		}
		days[i].Entries = append(days[i].Entries, e)
	}

	for i := range days {
		days[i].Text = RenderSequence(days[i].Entries)
	}
	sortByDate(days)
	return days
}

// Rows attaches a semaphore to every queue entry.
func Rows(queue []domain.QueueEntry, threshold int) []Row {
	rows := make([]Row, 0, len(queue))
	for _, e := range queue {
		s := Classify(e.ContainersRequired, threshold)
		rows = append(rows, Row{QueueEntry: e, Semaphore: s, Urgent: s.Urgent()})
	}
	return rows
}

// DataIssues lists parts whose shortage could not be converted to containers.
func DataIssues(queue []domain.QueueEntry) []DataIssue {
	index := make(map[string]int)
	issues := make([]DataIssue, 0)
	for _, e := range queue {
		if e.ContainersRequired != nil {
			continue
		}
		i, ok := index[e.PartNumber]
		if !ok {
			i = len(issues)
			index[e.PartNumber] = i
			issues = append(issues, DataIssue{
				PartNumber: e.PartNumber,
				Customer:   e.Customer,
				Reason:     "pack size missing or not positive",
			})
		}
		issues[i].Events++
	}
	return issues
}

func sortByDate(days []DailySequence) {
	sort.SliceStable(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })
}
