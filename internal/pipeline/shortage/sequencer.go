package shortage

import (
	"sort"
	"strings"

	"github.com/andresuchdata/shipment-priority/internal/domain"
)

const (
	customerRankKeyOEM       = 0
	customerRankSecondaryOEM = 1
	customerRankOther        = 2
	customerRankUnknown      = 999
)

// CustomerPriorityRank tiers a customer name: FORD, then MAGNA, then everyone
// else, with unknown customers last.
func CustomerPriorityRank(customer string) int {
	upper := strings.ToUpper(strings.TrimSpace(customer))
	switch {
	case upper == "":
		return customerRankUnknown
	case strings.Contains(upper, "FORD"):
		return customerRankKeyOEM
	case strings.Contains(upper, "MAGNA"):
		return customerRankSecondaryOEM
	default:
		return customerRankOther
	}
}

// Sequencer orders shortage events into the production queue.
type Sequencer struct{}

// NewSequencer returns a Sequencer.
func NewSequencer() *Sequencer {
	return &Sequencer{}
}

// Sequence orders events by first shortage, part rank, customer rank and date.
// Part rank is the order in which each part first appears in events. The sort
// is stable, so equal keys keep their input order.
func (s *Sequencer) Sequence(events []domain.ShortageEvent) []domain.QueueEntry {
	queue := make([]domain.QueueEntry, 0, len(events))
	partRank := make(map[string]int)
	for _, ev := range events {
		rank, ok := partRank[ev.PartNumber]
		if !ok {
			rank = len(partRank)
			partRank[ev.PartNumber] = rank
		}
		queue = append(queue, domain.QueueEntry{
			ShortageEvent:        ev,
			PartPriorityRank:     rank,
			CustomerPriorityRank: CustomerPriorityRank(ev.Customer),
		})
	}

	sort.SliceStable(queue, func(i, j int) bool {
		a, b := queue[i], queue[j]
		if a.IsFirstShortageForPart != b.IsFirstShortageForPart {
			return a.IsFirstShortageForPart
		}
		if a.PartPriorityRank != b.PartPriorityRank {
			return a.PartPriorityRank < b.PartPriorityRank
		}
		if a.CustomerPriorityRank != b.CustomerPriorityRank {
			return a.CustomerPriorityRank < b.CustomerPriorityRank
		}
		return a.ShipmentDate.Before(b.ShipmentDate)
	})

	for i := range queue {
		queue[i].Position = i + 1
	}
	return queue
}
