package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/rail-seat-booking/internal/model"
)

// AuditRepo appends to cancellation_audit.
type AuditRepo struct {
	db *sqlx.DB
}

func NewAuditRepo(db *sqlx.DB) *AuditRepo { return &AuditRepo{db: db} }

// CreateTx inserts e and sets its ID.
func (r *AuditRepo) CreateTx(ctx context.Context, tx *sqlx.Tx, e *model.AuditEntry) error {
	const q = `INSERT INTO cancellation_audit (ticket_id, admin_id, action, from_status, to_status, created_at)
	           VALUES (?, ?, ?, ?, ?, ?)`
	id, err := lastID(tx.ExecContext(ctx, q, e.TicketID, e.AdminID, e.Action, e.FromStatus, e.ToStatus, e.CreatedAt))
	if err != nil {
		return err
	}
	e.ID = id
	return nil
}

// ListByTicket returns the audit trail of a ticket, oldest first.
func (r *AuditRepo) ListByTicket(ctx context.Context, ticketID uint64) ([]model.AuditEntry, error) {
	const q = `SELECT id, ticket_id, admin_id, action, from_status, to_status, created_at
	           FROM cancellation_audit WHERE ticket_id = ? ORDER BY id`
	out := []model.AuditEntry{}
	if err := r.db.SelectContext(ctx, &out, q, ticketID); err != nil {
		return nil, err
	}
	return out, nil
}
