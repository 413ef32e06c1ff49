package shortage

import (
	"testing"

	"github.com/andresuchdata/shipment-priority/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomerPriorityRank(t *testing.T) {
	tests := []struct {
		customer string
		want     int
	}{
		{"FORD MOTOR CO", 0},
		{"ford", 0},
		{"MAGNA EXTERIORS", 1},
		{"Magna Seating", 1},
		{"ACME", 2},
		{"", 999},
		{"   ", 999},
	}
	for _, tt := range tests {
		t.Run(tt.customer, func(t *testing.T) {
			assert.Equal(t, tt.want, CustomerPriorityRank(tt.customer))
		})
	}
}

func event(part, customer string, first bool, day int) domain.ShortageEvent {
	return domain.ShortageEvent{
		PartNumber:             part,
		Customer:               customer,
		IsFirstShortageForPart: first,
		ShipmentDate:           day1.AddDate(0, 0, day),
	}
}

func keys(queue []domain.QueueEntry) []string {
	out := make([]string, len(queue))
	for i, q := range queue {
		out[i] = q.PartNumber + "@" + q.ShipmentDate.Format("01-02") + ":" + q.Customer
	}
	return out
}

func TestSequenceOrdering(t *testing.T) {
	events := []domain.ShortageEvent{
		event("A", "ACME", true, 3),
		event("A", "ACME", false, 5),
		event("B", "FORD", false, 2),
		event("B", "FORD", true, 1),
		event("C", "", true, 0),
	}

	queue := NewSequencer().Sequence(events)

	assert.Equal(t, []string{
		"A@10-24:ACME",
		"B@10-22:FORD",
		"C@10-21:",
		"A@10-26:ACME",
		"B@10-23:FORD",
	}, keys(queue))

	for i, q := range queue {
		assert.Equal(t, i+1, q.Position)
	}
	assert.Equal(t, 0, queue[0].PartPriorityRank)
	assert.Equal(t, 1, queue[1].PartPriorityRank)
	assert.Equal(t, 2, queue[2].PartPriorityRank)
	assert.Equal(t, 999, queue[2].CustomerPriorityRank)
}

func TestSequenceScenarioC(t *testing.T) {
	// Same part, none first: the FORD event sorts ahead of MAGNA even though
	// it ships later.
	events := []domain.ShortageEvent{
		event("P", "MAGNA EXTERIORS", false, 0),
		event("P", "ACME", false, 0),
		event("P", "FORD MOTOR CO", false, 4),
		event("P", "", false, 0),
	}

	queue := NewSequencer().Sequence(events)

	require.Len(t, queue, 4)
	assert.Equal(t, "FORD MOTOR CO", queue[0].Customer)
	assert.Equal(t, "MAGNA EXTERIORS", queue[1].Customer)
	assert.Equal(t, "ACME", queue[2].Customer)
	assert.Equal(t, "", queue[3].Customer)
}

func TestSequenceStability(t *testing.T) {
	events := []domain.ShortageEvent{
		{PartNumber: "P", Customer: "ACME", ShipmentDate: day1, Description: "first"},
		{PartNumber: "P", Customer: "ACME", ShipmentDate: day1, Description: "second"},
		{PartNumber: "Q", Customer: "FORD", ShipmentDate: day1, Description: "third"},
		{PartNumber: "P", Customer: "ACME", ShipmentDate: day1, Description: "fourth"},
	}

	s := NewSequencer()
	first := s.Sequence(events)
	second := s.Sequence(events)

	assert.Equal(t, first, second)
	assert.Equal(t, "first", first[0].Description)
	assert.Equal(t, "second", first[1].Description)
	assert.Equal(t, "fourth", first[2].Description)
	assert.Equal(t, "third", first[3].Description)
}

func TestSequenceEmpty(t *testing.T) {
	assert.Empty(t, NewSequencer().Sequence(nil))
}
