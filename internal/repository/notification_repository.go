package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/rail-seat-booking/internal/model"
)

// NotificationRepo stores passenger notifications.  Rows are written by the
// engine and marked delivered by the notification consumer.
type NotificationRepo struct {
	db *sqlx.DB
}

func NewNotificationRepo(db *sqlx.DB) *NotificationRepo { return &NotificationRepo{db: db} }

// CreateTx inserts n and sets its ID.
func (r *NotificationRepo) CreateTx(ctx context.Context, tx *sqlx.Tx, n *model.Notification) error {
	const q = `INSERT INTO notifications (passenger_id, message, type, created_at) VALUES (?, ?, ?, ?)`
	id, err := lastID(tx.ExecContext(ctx, q, n.PassengerID, n.Message, n.Type, n.CreatedAt))
	if err != nil {
		return err
	}
	n.ID = id
	return nil
}

// MarkDelivered stamps a notification as delivered.  Already delivered
// rows are left untouched and reported as ErrConflict.
func (r *NotificationRepo) MarkDelivered(ctx context.Context, id uint64, at time.Time) error {
	const q = `UPDATE notifications SET delivered_at = ? WHERE id = ? AND delivered_at IS NULL`
	return expectOne(r.db.ExecContext(ctx, q, at, id))
}
