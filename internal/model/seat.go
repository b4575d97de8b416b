package model

import "time"

// SeatRecord is one physical seat of one schedule.  IsAvailable is false
// exactly while a BOOKED or PENDING_CANCELLATION ticket references the
// (ScheduleID, SeatNumber) pair.
type SeatRecord struct {
	ID          uint64    `db:"id" json:"id"`
	ScheduleID  uint64    `db:"schedule_id" json:"schedule_id"`
	SeatNumber  string    `db:"seat_number" json:"seat_number"`
	CoachNumber int       `db:"coach_number" json:"coach_number"`
	ClassType   string    `db:"class_type" json:"class_type"`
	Row         int       `db:"seat_row" json:"row"`
	Column      int       `db:"seat_col" json:"column"`
	IsAvailable bool      `db:"is_available" json:"is_available"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
