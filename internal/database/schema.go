package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// LiveSeatIndex is the unique index that allows at most one live ticket
// (BOOKED or PENDING_CANCELLATION) per schedule seat.
const LiveSeatIndex = "uq_tickets_live_seat"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS routes (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(120) NOT NULL,
		distance_km DECIMAL(10,2) NOT NULL
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS schedules (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		train_id BIGINT UNSIGNED NOT NULL,
		route_id BIGINT UNSIGNED NOT NULL,
		departure_at DATETIME NOT NULL,
		arrival_at DATETIME NOT NULL,
		status ENUM('SCHEDULED','DELAYED','CANCELLED','DEPARTED') NOT NULL DEFAULT 'SCHEDULED',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		CONSTRAINT fk_schedules_route FOREIGN KEY (route_id) REFERENCES routes(id)
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS fares (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		coach_number INT NOT NULL,
		class_type VARCHAR(32) NOT NULL,
		per_km_fare_cents BIGINT NOT NULL,
		UNIQUE KEY uq_fares_coach_class (coach_number, class_type)
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS seat_inventory (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		schedule_id BIGINT UNSIGNED NOT NULL,
		seat_number VARCHAR(16) NOT NULL,
		coach_number INT NOT NULL,
		class_type VARCHAR(32) NOT NULL,
		seat_row INT NOT NULL,
		seat_col INT NOT NULL,
		is_available BOOLEAN NOT NULL DEFAULT TRUE,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_seat_inventory_seat (schedule_id, seat_number),
		CONSTRAINT fk_seat_inventory_schedule FOREIGN KEY (schedule_id) REFERENCES schedules(id)
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS payments (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		amount_cents BIGINT NOT NULL,
		status ENUM('COMPLETED','REFUNDED','FAILED') NOT NULL,
		transaction_ref VARCHAR(64) NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_payments_ref (transaction_ref)
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		passenger_id BIGINT UNSIGNED NOT NULL,
		payment_id BIGINT UNSIGNED NOT NULL,
		cancellation_reason VARCHAR(500) NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_bookings_payment (payment_id),
		CONSTRAINT fk_bookings_payment FOREIGN KEY (payment_id) REFERENCES payments(id)
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS tickets (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		booking_id BIGINT UNSIGNED NOT NULL,
		passenger_id BIGINT UNSIGNED NOT NULL,
		schedule_id BIGINT UNSIGNED NOT NULL,
		seat_number VARCHAR(16) NOT NULL,
		price_cents BIGINT NOT NULL,
		status ENUM('BOOKED','PENDING_CANCELLATION','CANCELLED') NOT NULL,
		booked_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		live_seat_key VARCHAR(48) GENERATED ALWAYS AS (
			CASE WHEN status IN ('BOOKED','PENDING_CANCELLATION')
			THEN CONCAT(schedule_id, ':', seat_number) END
		) STORED,
		UNIQUE KEY ` + LiveSeatIndex + ` (live_seat_key),
		KEY idx_tickets_passenger (passenger_id),
		CONSTRAINT fk_tickets_booking FOREIGN KEY (booking_id) REFERENCES bookings(id),
		CONSTRAINT fk_tickets_schedule FOREIGN KEY (schedule_id) REFERENCES schedules(id)
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS discount_codes (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		code VARCHAR(64) NOT NULL,
		passenger_id BIGINT UNSIGNED NOT NULL,
		percentage INT NOT NULL,
		start_date DATE NOT NULL,
		end_date DATE NOT NULL,
		used_at DATETIME NULL,
		UNIQUE KEY uq_discount_codes_owner (code, passenger_id)
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		passenger_id BIGINT UNSIGNED NOT NULL,
		message VARCHAR(500) NOT NULL,
		type VARCHAR(64) NOT NULL,
		created_at DATETIME NOT NULL,
		delivered_at DATETIME NULL,
		KEY idx_notifications_passenger (passenger_id)
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS cancellation_audit (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		ticket_id BIGINT UNSIGNED NOT NULL,
		admin_id BIGINT UNSIGNED NOT NULL,
		action VARCHAR(64) NOT NULL,
		from_status VARCHAR(32) NOT NULL,
		to_status VARCHAR(32) NOT NULL,
		created_at DATETIME NOT NULL,
		KEY idx_cancellation_audit_ticket (ticket_id)
	) ENGINE=InnoDB`,
}

// Migrate creates any missing tables.  Statements are idempotent so it is
// safe to run on every start.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate statement %d: %w", i+1, err)
		}
	}
	return nil
}
