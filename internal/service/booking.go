package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
	"github.com/iliyamo/movie-ticket-booking/internal/queue"
	"github.com/iliyamo/movie-ticket-booking/internal/repository"
)

// Row limits of the two booking list layouts.
const (
	ListLimitFull    = 15 // "my bookings" screen
	ListLimitCompact = 9  // preview above the change/cancel prompts
)

// EventPublisher receives booking events after a write commits.
type EventPublisher interface {
	Publish(ctx context.Context, event queue.BookingEvent) error
}

// BookingService gatekeeps every state-changing operation on bookings.
// Each write runs as check → write → commit in a single transaction; a
// failed check or write rolls the transaction back.  The unique key on
// (schedule_id, seat_id) backs the availability check, so a concurrent
// claim that slips past the count surfaces as ErrSeatTaken rather than a
// second booking.
type BookingService struct {
	db        *sql.DB
	Users     *repository.UserRepo
	Schedules *repository.ScheduleRepo
	Seats     *repository.SeatRepo
	Bookings  *repository.BookingRepo
	Events    EventPublisher // optional
	Logger    *slog.Logger
}

// NewBookingService wires the repositories on db.  events may be nil.
func NewBookingService(db *sql.DB, events EventPublisher, logger *slog.Logger) *BookingService {
	if db == nil {
		panic("nil database passed to NewBookingService")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BookingService{
		db:        db,
		Users:     repository.NewUserRepo(db),
		Schedules: repository.NewScheduleRepo(db),
		Seats:     repository.NewSeatRepo(db),
		Bookings:  repository.NewBookingRepo(db),
		Events:    events,
		Logger:    logger,
	}
}

// inTx runs fn in a transaction.  fn returns already-classified errors;
// only Begin and Commit failures are wrapped here.
func (s *BookingService) inTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return persistence(op, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return persistence(op, err)
	}
	committed = true
	return nil
}

// RegisterUser signs up a new user.  The id is chosen by the customer.
// A pre-check gives an early ErrDuplicateUser; the primary key is the
// authority and a collision on insert reports the same error.
func (s *BookingService) RegisterUser(ctx context.Context, userID uint64, name, contact string) (model.User, error) {
	u := model.User{ID: userID, Name: strings.TrimSpace(name), Contact: strings.TrimSpace(contact)}
	if u.ID == 0 || u.Name == "" {
		return model.User{}, ErrEmptyInput
	}
	err := s.inTx(ctx, "register user", func(tx *sql.Tx) error {
		exists, err := s.Users.ExistsTx(ctx, tx, u.ID)
		if err != nil {
			return persistence("register user", err)
		}
		if exists {
			return ErrDuplicateUser
		}
		if err := s.Users.CreateTx(ctx, tx, u); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrDuplicateUser
			}
			return persistence("register user", err)
		}
		return nil
	})
	if err != nil {
		s.Logger.Info("sign-up rejected", "user_id", userID, "error", err)
		return model.User{}, err
	}
	s.Logger.Info("user registered", "user_id", u.ID)
	return u, nil
}

// LookupUser loads a signed-up user.  The shell calls it right after a
// user id is typed, so an unknown customer is turned away (or a taken
// sign-up id refused) before any further prompt.  Writes re-check inside
// their own transaction.
func (s *BookingService) LookupUser(ctx context.Context, userID uint64) (model.User, error) {
	if userID == 0 {
		return model.User{}, ErrUnknownUser
	}
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.User{}, ErrUnknownUser
		}
		return model.User{}, persistence("lookup user", err)
	}
	return u, nil
}

// checkSeatTx validates a (schedule, seat) target inside tx: the schedule
// must exist, the seat must be on its screen and no other booking than
// exceptID may hold it.
func (s *BookingService) checkSeatTx(ctx context.Context, tx *sql.Tx, op string, scheduleID, seatID, exceptID uint64) error {
	screen, err := s.Schedules.ScreenNoTx(ctx, tx, scheduleID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidSchedule
		}
		return persistence(op, err)
	}
	n, err := s.Seats.CountOnScreenTx(ctx, tx, seatID, screen)
	if err != nil {
		return persistence(op, err)
	}
	if n == 0 {
		return ErrInvalidSeat
	}
	taken, err := s.Bookings.CountForSeatTx(ctx, tx, scheduleID, seatID, exceptID)
	if err != nil {
		return persistence(op, err)
	}
	if taken > 0 {
		return ErrSeatTaken
	}
	return nil
}

// CreateBooking claims seatID for scheduleID on behalf of userID.
func (s *BookingService) CreateBooking(ctx context.Context, userID, scheduleID, seatID uint64) (model.Booking, error) {
	switch {
	case userID == 0:
		return model.Booking{}, ErrUnknownUser
	case scheduleID == 0:
		return model.Booking{}, ErrInvalidSchedule
	case seatID == 0:
		return model.Booking{}, ErrInvalidSeat
	}
	b := model.Booking{UserID: userID, ScheduleID: scheduleID, SeatID: seatID, Status: model.StatusPaymentComplete}
	const op = "create booking"
	err := s.inTx(ctx, op, func(tx *sql.Tx) error {
		ok, err := s.Users.ExistsTx(ctx, tx, userID)
		if err != nil {
			return persistence(op, err)
		}
		if !ok {
			return ErrUnknownUser
		}
		if err := s.checkSeatTx(ctx, tx, op, scheduleID, seatID, 0); err != nil {
			return err
		}
		if err := s.Bookings.CreateTx(ctx, tx, &b); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrSeatTaken
			}
			return persistence(op, err)
		}
		return nil
	})
	if err != nil {
		s.Logger.Info("booking rejected", "user_id", userID, "schedule_id", scheduleID, "seat_id", seatID, "error", err)
		return model.Booking{}, err
	}
	s.Logger.Info("booking created", "booking_id", b.ID, "user_id", userID, "schedule_id", scheduleID, "seat_id", seatID)
	s.publish(ctx, queue.BookingEvent{
		Type: queue.EventCreated, BookingID: b.ID, UserID: userID,
		ScheduleID: scheduleID, SeatID: seatID, Status: b.Status,
	})
	return b, nil
}

// ListBookingsForUser returns the user's bookings, newest first, capped
// at limit rows (limit <= 0 means all).
func (s *BookingService) ListBookingsForUser(ctx context.Context, userID uint64, limit int) ([]model.BookingDetail, error) {
	ok, err := s.Users.Exists(ctx, userID)
	if err != nil {
		return nil, persistence("list bookings", err)
	}
	if !ok {
		return nil, ErrUnknownUser
	}
	details, err := s.Bookings.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, persistence("list bookings", err)
	}
	return details, nil
}

// ownedBooking loads a booking and checks it belongs to userID.
func ownedBooking(b model.Booking, err error, userID uint64, op string) (model.Booking, error) {
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return b, ErrBookingNotFound
		}
		return b, persistence(op, err)
	}
	if b.UserID != userID {
		return b, ErrNotOwner
	}
	return b, nil
}

// VerifyOwnership checks, without locking or writing, that bookingID
// exists and belongs to userID.  It lets the caller reject a foreign
// booking before asking for a new seat or a confirmation; ChangeBooking
// and CancelBooking repeat the check inside their transaction.
func (s *BookingService) VerifyOwnership(ctx context.Context, userID, bookingID uint64) error {
	b, err := s.Bookings.GetByID(ctx, bookingID)
	_, err = ownedBooking(b, err, userID, "verify ownership")
	return err
}

// ChangeBooking moves the caller's booking to a new schedule and seat.
// The row is updated in place, which releases the old seat in the same
// statement.
func (s *BookingService) ChangeBooking(ctx context.Context, userID, bookingID, newScheduleID, newSeatID uint64) (model.Booking, error) {
	if newScheduleID == 0 {
		return model.Booking{}, ErrInvalidSchedule
	}
	if newSeatID == 0 {
		return model.Booking{}, ErrInvalidSeat
	}
	const op = "change booking"
	var prev model.Booking
	err := s.inTx(ctx, op, func(tx *sql.Tx) error {
		b, err := s.Bookings.GetByIDTx(ctx, tx, bookingID)
		if prev, err = ownedBooking(b, err, userID, op); err != nil {
			return err
		}
		if err := s.checkSeatTx(ctx, tx, op, newScheduleID, newSeatID, bookingID); err != nil {
			return err
		}
		if err := s.Bookings.MoveTx(ctx, tx, bookingID, newScheduleID, newSeatID); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrSeatTaken
			}
			return persistence(op, err)
		}
		return nil
	})
	if err != nil {
		s.Logger.Info("booking change rejected", "booking_id", bookingID, "user_id", userID, "error", err)
		return model.Booking{}, err
	}
	updated := prev
	updated.ScheduleID = newScheduleID
	updated.SeatID = newSeatID
	s.Logger.Info("booking changed", "booking_id", bookingID, "user_id", userID,
		"schedule_id", newScheduleID, "seat_id", newSeatID,
		"prev_schedule_id", prev.ScheduleID, "prev_seat_id", prev.SeatID)
	s.publish(ctx, queue.BookingEvent{
		Type: queue.EventChanged, BookingID: bookingID, UserID: userID,
		ScheduleID: newScheduleID, SeatID: newSeatID,
		PrevScheduleID: prev.ScheduleID, PrevSeatID: prev.SeatID, Status: updated.Status,
	})
	return updated, nil
}

// CancelBooking deletes the caller's booking.  confirmed carries the
// customer's answer to the "really cancel?" prompt; without it nothing
// is touched and ErrCancelDeclined is returned.
func (s *BookingService) CancelBooking(ctx context.Context, userID, bookingID uint64, confirmed bool) error {
	if !confirmed {
		return ErrCancelDeclined
	}
	const op = "cancel booking"
	var b model.Booking
	err := s.inTx(ctx, op, func(tx *sql.Tx) error {
		got, err := s.Bookings.GetByIDTx(ctx, tx, bookingID)
		if b, err = ownedBooking(got, err, userID, op); err != nil {
			return err
		}
		if err := s.Bookings.DeleteTx(ctx, tx, bookingID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrBookingNotFound
			}
			return persistence(op, err)
		}
		return nil
	})
	if err != nil {
		s.Logger.Info("booking cancel rejected", "booking_id", bookingID, "user_id", userID, "error", err)
		return err
	}
	s.Logger.Info("booking cancelled", "booking_id", bookingID, "user_id", userID)
	s.publish(ctx, queue.BookingEvent{
		Type: queue.EventCancelled, BookingID: bookingID, UserID: userID,
		ScheduleID: b.ScheduleID, SeatID: b.SeatID,
	})
	return nil
}

// publish hands the event to the publisher, if any.  The write has
// already committed, so failures are only logged.
func (s *BookingService) publish(ctx context.Context, ev queue.BookingEvent) {
	if s.Events == nil {
		return
	}
	ev.OccurredAt = time.Now().UTC().Format(time.RFC3339)
	if err := s.Events.Publish(ctx, ev); err != nil {
		s.Logger.Warn("booking event not published", "type", ev.Type, "booking_id", ev.BookingID, "error", err)
	}
}
