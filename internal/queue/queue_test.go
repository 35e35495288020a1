package queue

import (
	"testing"
	"time"

	"github.com/carryhub/carry-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

func ticket(id uint64, typ model.AvailabilityType, createdOffset time.Duration) model.Ticket {
	return model.Ticket{
		ID:             id,
		Mode:           "fallen",
		Status:         model.TicketStatusWaiting,
		AvailableType:  typ,
		AvailableStart: base,
		CreatedAt:      base.Add(createdOffset),
	}
}

func window(id uint64, start, end time.Duration) model.Ticket {
	e := base.Add(end)
	return model.Ticket{
		ID:             id,
		Mode:           "fallen",
		Status:         model.TicketStatusWaiting,
		AvailableStart: base.Add(start),
		AvailableEnd:   &e,
		CreatedAt:      base.Add(time.Duration(id) * time.Minute),
	}
}

func TestRank(t *testing.T) {
	assert.Equal(t, 0, Rank(model.AvailabilityNow))
	assert.Equal(t, 1, Rank(model.AvailabilitySoon))
	assert.Equal(t, 2, Rank(model.AvailabilityLater))
	assert.Equal(t, 3, Rank(model.AvailabilityScheduled))
	assert.Equal(t, 4, Rank(model.AvailabilityType("bogus")))
}

func TestOrderByRankThenCreation(t *testing.T) {
	tickets := []model.Ticket{
		ticket(1, model.AvailabilityScheduled, 0),
		ticket(2, model.AvailabilityNow, 3*time.Minute),
		ticket(3, model.AvailabilitySoon, 1*time.Minute),
		ticket(4, model.AvailabilityNow, 2*time.Minute),
		ticket(5, model.AvailabilityLater, 4*time.Minute),
	}
	Order(tickets)

	ids := make([]uint64, len(tickets))
	for i, tt := range tickets {
		ids[i] = tt.ID
	}
	// now tickets first in FIFO order, then soon, later, scheduled
	assert.Equal(t, []uint64{4, 2, 3, 5, 1}, ids)
}

func TestOrderTieBreaksFIFO(t *testing.T) {
	tickets := []model.Ticket{
		ticket(2, model.AvailabilityNow, time.Minute),
		ticket(1, model.AvailabilityNow, 0),
	}
	Order(tickets)
	assert.Equal(t, uint64(1), tickets[0].ID)
	assert.Equal(t, uint64(2), tickets[1].ID)
}

func TestPositionFollowsCreationOrder(t *testing.T) {
	first := ticket(1, model.AvailabilityScheduled, 0)
	second := ticket(2, model.AvailabilityNow, time.Minute)
	waiting := []model.Ticket{first, second}

	// creation-time only: the scheduled ticket arrived first and keeps the
	// smaller position even though "now" outranks it for service order
	assert.Equal(t, 1, Position(&first, waiting))
	assert.Equal(t, 2, Position(&second, waiting))
}

func TestPositionIgnoresOtherModes(t *testing.T) {
	target := ticket(3, model.AvailabilityNow, 2*time.Minute)
	other := ticket(1, model.AvailabilityNow, 0)
	other.Mode = "easy"
	sameMode := ticket(2, model.AvailabilityNow, time.Minute)

	assert.Equal(t, 2, Position(&target, []model.Ticket{other, sameMode, target}))
}

func TestCompatibleOverlap(t *testing.T) {
	source := window(1, 0, 4*time.Hour)
	overlapping := window(2, 2*time.Hour, 6*time.Hour)
	touching := window(3, 4*time.Hour, 8*time.Hour) // half-open: no overlap
	disjoint := window(4, 9*time.Hour, 10*time.Hour)

	got := Compatible(&source, []model.Ticket{overlapping, touching, disjoint})
	require.Len(t, got, 1)
	assert.Equal(t, uint64(2), got[0].ID)
}

func TestCompatibleExclusions(t *testing.T) {
	source := window(1, 0, 4*time.Hour)

	self := source
	wrongMode := window(2, time.Hour, 2*time.Hour)
	wrongMode.Mode = "easy"
	claimed := window(3, time.Hour, 2*time.Hour)
	claimed.Status = model.TicketStatusClaimed
	merged := window(4, time.Hour, 2*time.Hour)
	mergedInto := uint64(9)
	merged.Status = model.TicketStatusMerged
	merged.MergedInto = &mergedInto

	got := Compatible(&source, []model.Ticket{self, wrongMode, claimed, merged})
	assert.Empty(t, got)
}

func TestCompatibleSymmetric(t *testing.T) {
	a := window(1, 0, 4*time.Hour)
	b := window(2, 2*time.Hour, 6*time.Hour)

	fromA := Compatible(&a, []model.Ticket{b})
	fromB := Compatible(&b, []model.Ticket{a})
	require.Len(t, fromA, 1)
	require.Len(t, fromB, 1)
	assert.Equal(t, b.ID, fromA[0].ID)
	assert.Equal(t, a.ID, fromB[0].ID)
}

func TestCompatibleOpenEndedWindow(t *testing.T) {
	// nil end is treated as start+4h for overlap purposes
	source := model.Ticket{
		ID:             1,
		Mode:           "fallen",
		Status:         model.TicketStatusWaiting,
		AvailableStart: base,
		CreatedAt:      base,
	}
	inside := window(2, 3*time.Hour, 5*time.Hour)
	outside := window(3, 4*time.Hour, 5*time.Hour)

	got := Compatible(&source, []model.Ticket{inside, outside})
	require.Len(t, got, 1)
	assert.Equal(t, uint64(2), got[0].ID)
}

func TestCompatibleOrderedByCreation(t *testing.T) {
	source := window(9, 0, 4*time.Hour)
	late := window(5, time.Hour, 2*time.Hour)
	early := window(2, time.Hour, 2*time.Hour)

	got := Compatible(&source, []model.Ticket{late, early})
	require.Len(t, got, 2)
	assert.Equal(t, uint64(2), got[0].ID)
	assert.Equal(t, uint64(5), got[1].ID)
}

func TestFilterAvailableNow(t *testing.T) {
	tickets := []model.Ticket{
		ticket(1, model.AvailabilityNow, 0),
		ticket(2, model.AvailabilityScheduled, time.Minute),
		ticket(3, model.AvailabilityNow, 2*time.Minute),
	}
	got := FilterAvailableNow(tickets)
	require.Len(t, got, 2)
	assert.Equal(t, uint64(1), got[0].ID)
	assert.Equal(t, uint64(3), got[1].ID)
}
