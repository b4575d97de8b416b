package model

import "time"

// ScheduleStatus is the operational state of a departure.
type ScheduleStatus string

const (
	ScheduleScheduled ScheduleStatus = "SCHEDULED"
	ScheduleDelayed   ScheduleStatus = "DELAYED"
	ScheduleCancelled ScheduleStatus = "CANCELLED"
	ScheduleDeparted  ScheduleStatus = "DEPARTED"
)

// Bookable reports whether seats on a departure in this state may still be
// sold.  Delayed trains stay bookable.
func (s ScheduleStatus) Bookable() bool {
	return s == ScheduleScheduled || s == ScheduleDelayed
}

// Schedule is one departure of a train over a route; the route distance
// drives pricing and times are UTC.  Apart from Status it is immutable once
// its seat inventory has been generated.  TrainID refers to the fleet
// system.
type Schedule struct {
	ID          uint64         `db:"id" json:"id"`                     // schedules.id
	TrainID     uint64         `db:"train_id" json:"train_id"`         // schedules.train_id
	RouteID     uint64         `db:"route_id" json:"route_id"`         // schedules.route_id
	DepartureAt time.Time      `db:"departure_at" json:"departure_at"` // schedules.departure_at
	ArrivalAt   time.Time      `db:"arrival_at" json:"arrival_at"`     // schedules.arrival_at
	Status      ScheduleStatus `db:"status" json:"status"`             // schedules.status
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`     // schedules.created_at
}

// Route is the read-only slice of the route catalogue the engine needs.
type Route struct {
	ID         uint64  `db:"id" json:"id"`
	Name       string  `db:"name" json:"name"`
	DistanceKm float64 `db:"distance_km" json:"distance_km"`
}
