package service

import "errors"

// Errors returned by the booking engine.  Messages are safe to show to the
// passenger and never carry other passengers' identifiers.
var (
	ErrSeatUnavailable        = errors.New("seat is no longer available")
	ErrFareNotFound           = errors.New("no fare is defined for this coach and class")
	ErrInvalidDiscount        = errors.New("discount code is invalid, expired or already used")
	ErrReasonRequired         = errors.New("a cancellation reason is required")
	ErrTicketNotCancellable   = errors.New("ticket cannot be cancelled in its current state")
	ErrNotPendingCancellation = errors.New("ticket has no pending cancellation")
	ErrTimeout                = errors.New("the operation timed out, please retry")
	ErrStoreUnavailable       = errors.New("booking store is unavailable, please retry")

	ErrSeatNotFound        = errors.New("seat not found")
	ErrScheduleNotFound    = errors.New("schedule not found")
	ErrScheduleNotBookable = errors.New("schedule is not open for booking")
	ErrTicketNotFound      = errors.New("ticket not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrAlreadyProvisioned  = errors.New("schedule already has seats")
)

var domainErrors = []error{
	ErrSeatUnavailable, ErrFareNotFound, ErrInvalidDiscount, ErrReasonRequired,
	ErrTicketNotCancellable, ErrNotPendingCancellation, ErrTimeout, ErrStoreUnavailable,
	ErrSeatNotFound, ErrScheduleNotFound, ErrScheduleNotBookable, ErrTicketNotFound,
	ErrInvalidInput, ErrAlreadyProvisioned,
}

func isDomainError(err error) bool {
	for _, d := range domainErrors {
		if errors.Is(err, d) {
			return true
		}
	}
	return false
}

// Retryable reports whether the caller may safely retry the operation.
// Both cases guarantee that nothing was committed.
func Retryable(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrStoreUnavailable)
}
