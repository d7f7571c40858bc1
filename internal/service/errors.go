// Package service implements the booking domain: sign-up, seat claims,
// changes and cancellations, plus the movie → schedule → seat selection
// workflow that feeds them.  Every state change runs in one transaction
// that is committed on success and rolled back on any failure.
package service

import (
	"errors"
	"fmt"
)

// Validation errors.  They are recovered locally by the caller: the
// message is shown and control returns to the menu.
var (
	ErrUnknownUser     = errors.New("unknown user")
	ErrDuplicateUser   = errors.New("user id already in use")
	ErrInvalidSchedule = errors.New("schedule does not belong to the chosen movie")
	ErrInvalidSeat     = errors.New("seat does not belong to this screen")
	ErrSeatTaken       = errors.New("seat already booked for this schedule")
	ErrBookingNotFound = errors.New("booking not found")
	ErrNotOwner        = errors.New("booking belongs to another user")
	ErrNoMovies        = errors.New("no movies available")
	ErrNoSchedules     = errors.New("no schedules for this movie")
	ErrNoSeats         = errors.New("no seats on this screen")
	ErrCancelDeclined  = errors.New("cancellation not confirmed")
)

// ErrPersistence wraps database failures on reads and writes.  Writes
// that fail this way have been rolled back.
var ErrPersistence = errors.New("persistence failure")

// ErrEmptyInput signals a blank answer to a prompt, which is an implicit
// cancel of the current operation.
var ErrEmptyInput = errors.New("empty input")

var validationErrors = []error{
	ErrUnknownUser, ErrDuplicateUser, ErrInvalidSchedule, ErrInvalidSeat,
	ErrSeatTaken, ErrBookingNotFound, ErrNotOwner, ErrNoMovies,
	ErrNoSchedules, ErrNoSeats, ErrCancelDeclined,
}

// IsValidation reports whether err is one of the validation errors.
func IsValidation(err error) bool {
	for _, v := range validationErrors {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}

// IsNoMatchingBooking reports whether err means "this user has no such
// booking".  Missing and foreign bookings are deliberately
// indistinguishable to the caller.
func IsNoMatchingBooking(err error) bool {
	return errors.Is(err, ErrBookingNotFound) || errors.Is(err, ErrNotOwner)
}

// retryableSeat reports whether a seat choice can simply be asked again.
func retryableSeat(err error) bool {
	return errors.Is(err, ErrInvalidSeat) || errors.Is(err, ErrSeatTaken)
}

func persistence(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}
