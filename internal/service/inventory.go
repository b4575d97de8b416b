package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/rail-seat-booking/internal/model"
	"github.com/iliyamo/rail-seat-booking/internal/repository"
)

// CoachLayout describes the seat grid of one coach.
type CoachLayout struct {
	CoachNumber int
	ClassType   string
	Rows        int
	Columns     int
}

const (
	maxRowsPerCoach    = 52
	maxColumnsPerCoach = 12
)

// InventoryService exposes the seat map of a schedule and generates it.
type InventoryService struct {
	engine
}

func NewInventoryService(store *repository.Store, opts Options) *InventoryService {
	return &InventoryService{engine: newEngine(store, opts)}
}

// ListSeats returns the seat map ordered by coach, row and column.  It is a
// snapshot for display; booking re-checks availability in its own
// transaction.
func (s *InventoryService) ListSeats(ctx context.Context, scheduleID uint64) ([]model.SeatRecord, error) {
	var seats []model.SeatRecord
	err := s.tx.read(ctx, func(ctx context.Context) error {
		var err error
		seats, err = s.store.Seats.GetSeats(ctx, scheduleID)
		if err != nil {
			return err
		}
		if len(seats) == 0 {
			// distinguish an unknown schedule from one without seats yet
			if _, err := s.store.Schedules.GetByID(ctx, scheduleID); err != nil {
				return scheduleErr(err)
			}
		}
		return nil
	})
	return seats, err
}

// ProvisionSeats creates every seat of a schedule in one transaction.  A
// schedule can be provisioned once.
func (s *InventoryService) ProvisionSeats(ctx context.Context, scheduleID uint64, coaches []CoachLayout) ([]model.SeatRecord, error) {
	seats, err := BuildSeatMap(scheduleID, coaches)
	if err != nil {
		return nil, err
	}
	err = s.tx.inTx(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		if _, err := s.store.Schedules.GetRouteTx(ctx, tx, scheduleID); err != nil {
			return scheduleErr(err)
		}
		n, err := s.store.Seats.CountTx(ctx, tx, scheduleID)
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrAlreadyProvisioned
		}
		if err := s.store.Seats.CreateBulkTx(ctx, tx, seats); err != nil {
			if isDuplicateEntry(err) {
				return ErrAlreadyProvisioned
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.WithField("schedule_id", scheduleID).WithField("seats", len(seats)).Info("seat inventory provisioned")
	s.afterCommit(ctx, scheduleID, nil)
	return seats, nil
}

// BuildSeatMap lays out seats coach by coach in the order given.  Row
// letters continue across coaches (coach 1 uses A–J, coach 2 continues at
// K) so seat numbers such as "K3" are unique within a schedule.
func BuildSeatMap(scheduleID uint64, coaches []CoachLayout) ([]model.SeatRecord, error) {
	if scheduleID == 0 || len(coaches) == 0 {
		return nil, ErrInvalidInput
	}
	seen := make(map[int]bool, len(coaches))
	total := 0
	for _, c := range coaches {
		switch {
		case c.CoachNumber <= 0:
			return nil, fmt.Errorf("%w: coach number must be positive", ErrInvalidInput)
		case seen[c.CoachNumber]:
			return nil, fmt.Errorf("%w: coach %d listed twice", ErrInvalidInput, c.CoachNumber)
		case strings.TrimSpace(c.ClassType) == "":
			return nil, fmt.Errorf("%w: coach %d has no class", ErrInvalidInput, c.CoachNumber)
		case c.Rows <= 0 || c.Rows > maxRowsPerCoach || c.Columns <= 0 || c.Columns > maxColumnsPerCoach:
			return nil, fmt.Errorf("%w: coach %d grid out of range", ErrInvalidInput, c.CoachNumber)
		}
		seen[c.CoachNumber] = true
		total += c.Rows * c.Columns
	}

	seats := make([]model.SeatRecord, 0, total)
	rowOffset := 0
	for _, c := range coaches {
		class := strings.ToUpper(strings.TrimSpace(c.ClassType))
		for r := 0; r < c.Rows; r++ {
			label := indexToRowLabel(rowOffset + r)
			for col := 1; col <= c.Columns; col++ {
				seats = append(seats, model.SeatRecord{
					ScheduleID:  scheduleID,
					SeatNumber:  label + strconv.Itoa(col),
					CoachNumber: c.CoachNumber,
					ClassType:   class,
					Row:         r + 1,
					Column:      col,
					IsAvailable: true,
				})
			}
		}
		rowOffset += c.Rows
	}
	return seats, nil
}

// indexToRowLabel converts a zero-based index to an alphabetical row label
// like A, B, ..., Z, AA, AB.
func indexToRowLabel(i int) string {
	if i < 0 {
		return ""
	}
	res := []rune{}
	for {
		res = append(res, rune('A'+i%26))
		i = i/26 - 1
		if i < 0 {
			break
		}
	}
	for j, k := 0, len(res)-1; j < k; j, k = j+1, k-1 {
		res[j], res[k] = res[k], res[j]
	}
	return string(res)
}
