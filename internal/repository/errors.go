// Package repository holds the MySQL data access for the booking engine.
// Methods with a Tx suffix run inside a caller-owned transaction; the
// caller commits or rolls back.  Lookups that find nothing return the
// entity's sentinel error, and conditional updates that match no row
// return ErrConflict.
package repository

import (
	"database/sql"
	"errors"
)

// ErrConflict is returned when a conditional UPDATE affected zero rows
// because the row was no longer in the state the caller expected.
var ErrConflict = errors.New("conflict")

// notFound maps sql.ErrNoRows to the given sentinel.
func notFound(err, sentinel error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel
	}
	return err
}

// expectOne turns a zero RowsAffected into ErrConflict.
func expectOne(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

// lastID returns the auto-increment id of an INSERT.
func lastID(res sql.Result, err error) (uint64, error) {
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}
