package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTicketTransitions(t *testing.T) {
	assert.True(t, TicketBooked.CanTransitionTo(TicketPendingCancellation))
	assert.True(t, TicketPendingCancellation.CanTransitionTo(TicketCancelled))

	assert.False(t, TicketBooked.CanTransitionTo(TicketCancelled))
	assert.False(t, TicketPendingCancellation.CanTransitionTo(TicketBooked))
	assert.False(t, TicketCancelled.CanTransitionTo(TicketBooked))
	assert.False(t, TicketCancelled.CanTransitionTo(TicketPendingCancellation))
}

func TestDiscountUsableOn(t *testing.T) {
	day := func(s string) time.Time {
		d, err := time.Parse("2006-01-02", s)
		if err != nil {
			t.Fatal(err)
		}
		return d
	}
	code := DiscountCode{Percentage: 20, StartDate: day("2025-03-01"), EndDate: day("2025-03-31")}

	assert.True(t, code.UsableOn(day("2025-03-01")))
	assert.True(t, code.UsableOn(day("2025-03-31").Add(23*time.Hour)))
	assert.False(t, code.UsableOn(day("2025-02-28")))
	assert.False(t, code.UsableOn(day("2025-04-01")))

	used := day("2025-03-10")
	code.UsedAt = &used
	assert.False(t, code.UsableOn(day("2025-03-15")))
}

func TestScheduleBookable(t *testing.T) {
	assert.True(t, ScheduleScheduled.Bookable())
	assert.True(t, ScheduleDelayed.Bookable())
	assert.False(t, ScheduleCancelled.Bookable())
	assert.False(t, ScheduleDeparted.Bookable())
}
