package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
	"github.com/iliyamo/movie-ticket-booking/internal/queue"
)

const (
	qCountUsers    = `SELECT count\(\*\) FROM users WHERE user_id=\?`
	qInsertUser    = `INSERT INTO users`
	qScreenNo      = `SELECT screen_no FROM schedules WHERE schedule_id = \?`
	qCountSeat     = `SELECT count\(\*\) FROM seats WHERE seat_id = \? AND screen_no = \?`
	qCountBooking  = `SELECT count\(\*\) FROM bookings WHERE schedule_id = \? AND seat_id = \?`
	qInsertBooking = `INSERT INTO bookings`
	qGetBooking    = `SELECT booking_id, user_id, schedule_id, seat_id, status FROM bookings WHERE booking_id = \?`
	qMoveBooking   = `UPDATE bookings SET schedule_id = \?, seat_id = \? WHERE booking_id = \?`
	qDeleteBooking = `DELETE FROM bookings WHERE booking_id = \?`
	qListBookings  = `FROM bookings b .* WHERE b.user_id = \? ORDER BY b.booking_id DESC`
)

type recordingPublisher struct {
	events []queue.BookingEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.BookingEvent) error {
	p.events = append(p.events, ev)
	return p.err
}

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newBookingService(t *testing.T) (*BookingService, sqlmock.Sqlmock, *recordingPublisher) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		db.Close()
	})
	pub := &recordingPublisher{}
	return NewBookingService(db, pub, quietLogger()), mock, pub
}

func countRow(n int) *sqlmock.Rows { return sqlmock.NewRows([]string{"count(*)"}).AddRow(n) }

func bookingRow(id, user, schedule, seat uint64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"booking_id", "user_id", "schedule_id", "seat_id", "status"}).
		AddRow(id, user, schedule, seat, model.StatusPaymentComplete)
}

var errDuplicateEntry = &mysql.MySQLError{Number: 1062, Message: "Duplicate entry '10-100' for key 'uq_bookings_schedule_seat'"}

// expectSeatChecks queues the schedule/seat/availability checks shared by
// create and change.
func expectSeatChecks(mock sqlmock.Sqlmock, scheduleID, seatID uint64, screen, booked int) {
	mock.ExpectQuery(qScreenNo).WithArgs(scheduleID).
		WillReturnRows(sqlmock.NewRows([]string{"screen_no"}).AddRow(screen))
	mock.ExpectQuery(qCountSeat).WithArgs(seatID, screen).WillReturnRows(countRow(1))
	mock.ExpectQuery(qCountBooking).WillReturnRows(countRow(booked))
}

// Scenario A: a valid, free seat is booked with status "payment complete".
func TestCreateBookingSucceeds(t *testing.T) {
	svc, mock, pub := newBookingService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(qCountUsers).WithArgs(1).WillReturnRows(countRow(1))
	expectSeatChecks(mock, 10, 100, 3, 0)
	mock.ExpectExec(qInsertBooking).
		WithArgs(1, 10, 100, model.StatusPaymentComplete).
		WillReturnResult(sqlmock.NewResult(55, 1))
	mock.ExpectCommit()

	b, err := svc.CreateBooking(context.Background(), 1, 10, 100)
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	if b.ID != 55 || b.Status != model.StatusPaymentComplete {
		t.Fatalf("unexpected booking: %+v", b)
	}
	if len(pub.events) != 1 || pub.events[0].Type != queue.EventCreated || pub.events[0].BookingID != 55 {
		t.Fatalf("expected one created event, got %+v", pub.events)
	}
}

// Scenario B: the second claim of (10,100) is rejected whether the
// re-check sees the first row or the unique key catches it.
func TestCreateBookingRejectsSecondClaim(t *testing.T) {
	t.Run("recheck sees first booking", func(t *testing.T) {
		svc, mock, pub := newBookingService(t)
		mock.ExpectBegin()
		mock.ExpectQuery(qCountUsers).WillReturnRows(countRow(1))
		expectSeatChecks(mock, 10, 100, 3, 1)
		mock.ExpectRollback()

		_, err := svc.CreateBooking(context.Background(), 1, 10, 100)
		if !errors.Is(err, ErrSeatTaken) {
			t.Fatalf("want ErrSeatTaken, got %v", err)
		}
		if len(pub.events) != 0 {
			t.Fatal("rejected booking must not publish")
		}
	})

	t.Run("unique key catches concurrent insert", func(t *testing.T) {
		svc, mock, _ := newBookingService(t)
		mock.ExpectBegin()
		mock.ExpectQuery(qCountUsers).WillReturnRows(countRow(1))
		expectSeatChecks(mock, 10, 100, 3, 0)
		mock.ExpectExec(qInsertBooking).WillReturnError(errDuplicateEntry)
		mock.ExpectRollback()

		_, err := svc.CreateBooking(context.Background(), 1, 10, 100)
		if !errors.Is(err, ErrSeatTaken) {
			t.Fatalf("want ErrSeatTaken, got %v", err)
		}
		if !IsValidation(err) {
			t.Fatal("seat conflict should be a validation error")
		}
	})
}

func TestCreateBookingUnknownUser(t *testing.T) {
	svc, mock, _ := newBookingService(t)
	mock.ExpectBegin()
	mock.ExpectQuery(qCountUsers).WithArgs(9).WillReturnRows(countRow(0))
	mock.ExpectRollback()

	if _, err := svc.CreateBooking(context.Background(), 9, 10, 100); !errors.Is(err, ErrUnknownUser) {
		t.Fatalf("want ErrUnknownUser, got %v", err)
	}
}

// A seat from another screen is never committed against the schedule.
func TestCreateBookingRejectsSeatFromOtherScreen(t *testing.T) {
	svc, mock, _ := newBookingService(t)
	mock.ExpectBegin()
	mock.ExpectQuery(qCountUsers).WillReturnRows(countRow(1))
	mock.ExpectQuery(qScreenNo).WithArgs(10).WillReturnRows(sqlmock.NewRows([]string{"screen_no"}).AddRow(3))
	mock.ExpectQuery(qCountSeat).WithArgs(200, 3).WillReturnRows(countRow(0))
	mock.ExpectRollback()

	if _, err := svc.CreateBooking(context.Background(), 1, 10, 200); !errors.Is(err, ErrInvalidSeat) {
		t.Fatalf("want ErrInvalidSeat, got %v", err)
	}
}

func TestCreateBookingUnknownSchedule(t *testing.T) {
	svc, mock, _ := newBookingService(t)
	mock.ExpectBegin()
	mock.ExpectQuery(qCountUsers).WillReturnRows(countRow(1))
	mock.ExpectQuery(qScreenNo).WithArgs(99).WillReturnRows(sqlmock.NewRows([]string{"screen_no"}))
	mock.ExpectRollback()

	if _, err := svc.CreateBooking(context.Background(), 1, 99, 100); !errors.Is(err, ErrInvalidSchedule) {
		t.Fatalf("want ErrInvalidSchedule, got %v", err)
	}
}

func TestCreateBookingPersistenceFailureRollsBack(t *testing.T) {
	svc, mock, _ := newBookingService(t)
	mock.ExpectBegin()
	mock.ExpectQuery(qCountUsers).WillReturnRows(countRow(1))
	expectSeatChecks(mock, 10, 100, 3, 0)
	mock.ExpectExec(qInsertBooking).WillReturnError(errors.New("lock wait timeout"))
	mock.ExpectRollback()

	_, err := svc.CreateBooking(context.Background(), 1, 10, 100)
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("want ErrPersistence, got %v", err)
	}
	if IsValidation(err) {
		t.Fatal("driver failure must not be reported as validation")
	}
}

func TestCreateBookingPublishFailureIsNotAnError(t *testing.T) {
	svc, mock, pub := newBookingService(t)
	pub.err = errors.New("broker down")
	mock.ExpectBegin()
	mock.ExpectQuery(qCountUsers).WillReturnRows(countRow(1))
	expectSeatChecks(mock, 10, 100, 3, 0)
	mock.ExpectExec(qInsertBooking).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	if _, err := svc.CreateBooking(context.Background(), 1, 10, 100); err != nil {
		t.Fatalf("publish failure leaked: %v", err)
	}
}

func TestCreateBookingZeroIDsSkipDatabase(t *testing.T) {
	svc, _, _ := newBookingService(t)
	ctx := context.Background()
	if _, err := svc.CreateBooking(ctx, 0, 10, 100); !errors.Is(err, ErrUnknownUser) {
		t.Fatalf("user 0: %v", err)
	}
	if _, err := svc.CreateBooking(ctx, 1, 0, 100); !errors.Is(err, ErrInvalidSchedule) {
		t.Fatalf("schedule 0: %v", err)
	}
	if _, err := svc.CreateBooking(ctx, 1, 10, 0); !errors.Is(err, ErrInvalidSeat) {
		t.Fatalf("seat 0: %v", err)
	}
}

func TestRegisterUser(t *testing.T) {
	svc, mock, _ := newBookingService(t)
	mock.ExpectBegin()
	mock.ExpectQuery(qCountUsers).WithArgs(1).WillReturnRows(countRow(0))
	mock.ExpectExec(qInsertUser).WithArgs(1, "Kim", "010-1234").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	u, err := svc.RegisterUser(context.Background(), 1, "  Kim ", "010-1234")
	if err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	if u.ID != 1 || u.Name != "Kim" {
		t.Fatalf("unexpected user: %+v", u)
	}
}

// Scenario E: an id already in use is rejected and nothing is inserted.
func TestRegisterUserDuplicate(t *testing.T) {
	t.Run("pre-check", func(t *testing.T) {
		svc, mock, _ := newBookingService(t)
		mock.ExpectBegin()
		mock.ExpectQuery(qCountUsers).WithArgs(1).WillReturnRows(countRow(1))
		mock.ExpectRollback()

		if _, err := svc.RegisterUser(context.Background(), 1, "Lee", ""); !errors.Is(err, ErrDuplicateUser) {
			t.Fatalf("want ErrDuplicateUser, got %v", err)
		}
	})
	t.Run("primary key", func(t *testing.T) {
		svc, mock, _ := newBookingService(t)
		mock.ExpectBegin()
		mock.ExpectQuery(qCountUsers).WithArgs(1).WillReturnRows(countRow(0))
		mock.ExpectExec(qInsertUser).WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry '1' for key 'PRIMARY'"})
		mock.ExpectRollback()

		if _, err := svc.RegisterUser(context.Background(), 1, "Lee", ""); !errors.Is(err, ErrDuplicateUser) {
			t.Fatalf("want ErrDuplicateUser, got %v", err)
		}
	})
}

func TestRegisterUserBlankName(t *testing.T) {
	svc, _, _ := newBookingService(t)
	if _, err := svc.RegisterUser(context.Background(), 5, "   ", "x"); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("want ErrEmptyInput, got %v", err)
	}
}

func TestListBookingsForUser(t *testing.T) {
	svc, mock, _ := newBookingService(t)
	start := time.Date(2026, 11, 2, 19, 10, 0, 0, time.Local)
	rows := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"booking_id", "title", "start_time", "row_code", "col_code", "status"}).
			AddRow(12, "Night Train to Busan", start, "C", 7, model.StatusPaymentComplete).
			AddRow(9, "Paper Moon Harbor", start.Add(-24*time.Hour), "A", 1, model.StatusPaymentComplete)
	}
	for i := 0; i < 2; i++ {
		mock.ExpectQuery(qCountUsers).WithArgs(1).WillReturnRows(countRow(1))
		mock.ExpectQuery(qListBookings + ` LIMIT \?`).WithArgs(1, ListLimitFull).WillReturnRows(rows())
	}

	first, err := svc.ListBookingsForUser(context.Background(), 1, ListLimitFull)
	if err != nil {
		t.Fatalf("ListBookingsForUser: %v", err)
	}
	if len(first) != 2 || first[0].ID != 12 || first[1].ID != 9 {
		t.Fatalf("unexpected order: %+v", first)
	}
	if first[0].Showtime != "11-02 19:10" || first[0].SeatLabel != "C-7" {
		t.Fatalf("unexpected formatting: %+v", first[0])
	}

	// idempotent read: no intervening writes, identical results
	second, err := svc.ListBookingsForUser(context.Background(), 1, ListLimitFull)
	if err != nil {
		t.Fatal(err)
	}
	if len(second) != len(first) {
		t.Fatalf("second read differs: %+v vs %+v", second, first)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("row %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestListBookingsUnknownUser(t *testing.T) {
	svc, mock, _ := newBookingService(t)
	mock.ExpectQuery(qCountUsers).WithArgs(4).WillReturnRows(countRow(0))
	if _, err := svc.ListBookingsForUser(context.Background(), 4, 0); !errors.Is(err, ErrUnknownUser) {
		t.Fatalf("want ErrUnknownUser, got %v", err)
	}
}

func TestChangeBookingMovesSeat(t *testing.T) {
	svc, mock, pub := newBookingService(t)
	mock.ExpectBegin()
	mock.ExpectQuery(qGetBooking).WithArgs(7).WillReturnRows(bookingRow(7, 1, 10, 100))
	expectSeatChecks(mock, 11, 101, 3, 0)
	mock.ExpectExec(qMoveBooking).WithArgs(11, 101, 7).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	b, err := svc.ChangeBooking(context.Background(), 1, 7, 11, 101)
	if err != nil {
		t.Fatalf("ChangeBooking: %v", err)
	}
	if b.ScheduleID != 11 || b.SeatID != 101 || b.UserID != 1 {
		t.Fatalf("unexpected booking: %+v", b)
	}
	if len(pub.events) != 1 || pub.events[0].PrevScheduleID != 10 || pub.events[0].PrevSeatID != 100 {
		t.Fatalf("changed event should name the released seat: %+v", pub.events)
	}
}

// Scenario C: another user's booking is rejected and left untouched.
func TestChangeBookingNotOwner(t *testing.T) {
	svc, mock, pub := newBookingService(t)
	mock.ExpectBegin()
	mock.ExpectQuery(qGetBooking).WithArgs(7).WillReturnRows(bookingRow(7, 1, 10, 100))
	mock.ExpectRollback()

	_, err := svc.ChangeBooking(context.Background(), 2, 7, 11, 101)
	if !errors.Is(err, ErrNotOwner) || !IsNoMatchingBooking(err) {
		t.Fatalf("want ErrNotOwner, got %v", err)
	}
	if len(pub.events) != 0 {
		t.Fatal("rejected change must not publish")
	}
}

func TestChangeBookingMissing(t *testing.T) {
	svc, mock, _ := newBookingService(t)
	mock.ExpectBegin()
	mock.ExpectQuery(qGetBooking).WithArgs(70).
		WillReturnRows(sqlmock.NewRows([]string{"booking_id", "user_id", "schedule_id", "seat_id", "status"}))
	mock.ExpectRollback()

	_, err := svc.ChangeBooking(context.Background(), 1, 70, 11, 101)
	if !errors.Is(err, ErrBookingNotFound) || !IsNoMatchingBooking(err) {
		t.Fatalf("want ErrBookingNotFound, got %v", err)
	}
}

func TestChangeBookingTargetTaken(t *testing.T) {
	t.Run("recheck", func(t *testing.T) {
		svc, mock, _ := newBookingService(t)
		mock.ExpectBegin()
		mock.ExpectQuery(qGetBooking).WillReturnRows(bookingRow(7, 1, 10, 100))
		expectSeatChecks(mock, 11, 101, 3, 1)
		mock.ExpectRollback()

		if _, err := svc.ChangeBooking(context.Background(), 1, 7, 11, 101); !errors.Is(err, ErrSeatTaken) {
			t.Fatalf("want ErrSeatTaken, got %v", err)
		}
	})
	t.Run("unique key", func(t *testing.T) {
		svc, mock, _ := newBookingService(t)
		mock.ExpectBegin()
		mock.ExpectQuery(qGetBooking).WillReturnRows(bookingRow(7, 1, 10, 100))
		expectSeatChecks(mock, 11, 101, 3, 0)
		mock.ExpectExec(qMoveBooking).WillReturnError(errDuplicateEntry)
		mock.ExpectRollback()

		if _, err := svc.ChangeBooking(context.Background(), 1, 7, 11, 101); !errors.Is(err, ErrSeatTaken) {
			t.Fatalf("want ErrSeatTaken, got %v", err)
		}
	})
}

// The availability re-check excludes the booking being moved, so keeping
// the same seat on another pass is not a conflict with itself.
func TestChangeBookingExcludesItselfFromAvailability(t *testing.T) {
	svc, mock, _ := newBookingService(t)
	mock.ExpectBegin()
	mock.ExpectQuery(qGetBooking).WillReturnRows(bookingRow(7, 1, 10, 100))
	mock.ExpectQuery(qScreenNo).WillReturnRows(sqlmock.NewRows([]string{"screen_no"}).AddRow(3))
	mock.ExpectQuery(qCountSeat).WillReturnRows(countRow(1))
	mock.ExpectQuery(qCountBooking+` AND booking_id <> \?`).WithArgs(10, 100, 7).WillReturnRows(countRow(0))
	mock.ExpectExec(qMoveBooking).WithArgs(10, 100, 7).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	if _, err := svc.ChangeBooking(context.Background(), 1, 7, 10, 100); err != nil {
		t.Fatalf("ChangeBooking to the same seat: %v", err)
	}
}

func TestCancelBooking(t *testing.T) {
	svc, mock, pub := newBookingService(t)
	mock.ExpectBegin()
	mock.ExpectQuery(qGetBooking).WithArgs(7).WillReturnRows(bookingRow(7, 1, 10, 100))
	mock.ExpectExec(qDeleteBooking).WithArgs(7).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := svc.CancelBooking(context.Background(), 1, 7, true); err != nil {
		t.Fatalf("CancelBooking: %v", err)
	}
	if len(pub.events) != 1 || pub.events[0].Type != queue.EventCancelled || pub.events[0].SeatID != 100 {
		t.Fatalf("unexpected events: %+v", pub.events)
	}
}

// Scenario D: answering "n" leaves the booking in place.
func TestCancelBookingDeclinedTouchesNothing(t *testing.T) {
	svc, _, pub := newBookingService(t)
	// nothing queued on the mock: any statement would fail
	if err := svc.CancelBooking(context.Background(), 1, 7, false); !errors.Is(err, ErrCancelDeclined) {
		t.Fatalf("want ErrCancelDeclined, got %v", err)
	}
	if len(pub.events) != 0 {
		t.Fatal("declined cancel must not publish")
	}
}

func TestCancelBookingNotOwner(t *testing.T) {
	svc, mock, _ := newBookingService(t)
	mock.ExpectBegin()
	mock.ExpectQuery(qGetBooking).WithArgs(7).WillReturnRows(bookingRow(7, 1, 10, 100))
	mock.ExpectRollback()

	if err := svc.CancelBooking(context.Background(), 2, 7, true); !IsNoMatchingBooking(err) {
		t.Fatalf("want no-matching-booking error, got %v", err)
	}
}

func TestCancelBookingCommitFailure(t *testing.T) {
	svc, mock, pub := newBookingService(t)
	mock.ExpectBegin()
	mock.ExpectQuery(qGetBooking).WillReturnRows(bookingRow(7, 1, 10, 100))
	mock.ExpectExec(qDeleteBooking).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit().WillReturnError(errors.New("connection reset"))

	if err := svc.CancelBooking(context.Background(), 1, 7, true); !errors.Is(err, ErrPersistence) {
		t.Fatalf("want ErrPersistence, got %v", err)
	}
	if len(pub.events) != 0 {
		t.Fatal("failed commit must not publish")
	}
}

func TestVerifyOwnership(t *testing.T) {
	svc, mock, _ := newBookingService(t)
	mock.ExpectQuery(qGetBooking).WithArgs(7).WillReturnRows(bookingRow(7, 1, 10, 100))
	mock.ExpectQuery(qGetBooking).WithArgs(7).WillReturnRows(bookingRow(7, 1, 10, 100))

	if err := svc.VerifyOwnership(context.Background(), 1, 7); err != nil {
		t.Fatalf("owner rejected: %v", err)
	}
	if err := svc.VerifyOwnership(context.Background(), 2, 7); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("want ErrNotOwner, got %v", err)
	}
}

func TestLookupUser(t *testing.T) {
	svc, mock, _ := newBookingService(t)
	const q = `SELECT user_id,name,contact FROM users WHERE user_id=\?`
	mock.ExpectQuery(q).WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "name", "contact"}).AddRow(3, "Lee", "010-5555"))
	mock.ExpectQuery(q).WithArgs(99).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "name", "contact"}))
	mock.ExpectQuery(q).WithArgs(4).WillReturnError(errors.New("server has gone away"))

	u, err := svc.LookupUser(context.Background(), 3)
	if err != nil || u.Name != "Lee" {
		t.Fatalf("LookupUser(3) = %+v, %v", u, err)
	}
	if _, err := svc.LookupUser(context.Background(), 99); !errors.Is(err, ErrUnknownUser) {
		t.Fatalf("want ErrUnknownUser, got %v", err)
	}
	if _, err := svc.LookupUser(context.Background(), 4); !errors.Is(err, ErrPersistence) {
		t.Fatalf("want ErrPersistence, got %v", err)
	}
	if _, err := svc.LookupUser(context.Background(), 0); !errors.Is(err, ErrUnknownUser) {
		t.Fatalf("user 0: want ErrUnknownUser, got %v", err)
	}
}
