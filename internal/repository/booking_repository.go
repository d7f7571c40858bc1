package repository

import (
    "context"
    "database/sql"
    "errors"
    "time"

    "github.com/iliyamo/movie-ticket-booking/internal/model"
)

// BookingRepo provides CRUD operations for bookings.  Each booking claims
// exactly one seat for one schedule.  Writes are only exposed as *Tx
// methods: every state change belongs to a caller-owned transaction
// that is committed or rolled back as a unit.
type BookingRepo struct {
    db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// CountForSeat counts bookings holding seatID for scheduleID.
func (r *BookingRepo) CountForSeat(ctx context.Context, scheduleID, seatID uint64) (int, error) {
    return count(ctx, r.db,
        `SELECT count(*) FROM bookings WHERE schedule_id = ? AND seat_id = ?`,
        scheduleID, seatID)
}

// CountForSeatTx counts bookings holding seatID for scheduleID inside the
// caller's transaction, ignoring the booking identified by exceptID.  Pass
// zero for exceptID when creating; pass the booking being moved when
// changing, so a booking never blocks itself.
func (r *BookingRepo) CountForSeatTx(ctx context.Context, tx *sql.Tx, scheduleID, seatID, exceptID uint64) (int, error) {
    return count(ctx, tx,
        `SELECT count(*) FROM bookings WHERE schedule_id = ? AND seat_id = ? AND booking_id <> ?`,
        scheduleID, seatID, exceptID)
}

// CreateTx inserts a booking within the scope of an existing transaction
// and populates the generated ID.  A unique-key collision on
// (schedule_id, seat_id) is returned as ErrDuplicate.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
    const q = `INSERT INTO bookings (user_id, schedule_id, seat_id, status) VALUES (?, ?, ?, ?)`
    result, err := tx.ExecContext(ctx, q, b.UserID, b.ScheduleID, b.SeatID, b.Status)
    if err != nil {
        if IsDuplicate(err) {
            return ErrDuplicate
        }
        return err
    }
    id, err := result.LastInsertId()
    if err != nil {
        return err
    }
    b.ID = uint64(id)
    return nil
}

const getBookingQ = `SELECT booking_id, user_id, schedule_id, seat_id, status FROM bookings WHERE booking_id = ?`

// GetByID loads a single booking.  ErrNotFound is returned when no row
// matches; ownership is left to the caller.
func (r *BookingRepo) GetByID(ctx context.Context, bookingID uint64) (model.Booking, error) {
    return getBooking(ctx, r.db, bookingID)
}

// GetByIDTx is GetByID inside the caller's transaction.
func (r *BookingRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, bookingID uint64) (model.Booking, error) {
    return getBooking(ctx, tx, bookingID)
}

func getBooking(ctx context.Context, q querier, bookingID uint64) (model.Booking, error) {
    var b model.Booking
    err := q.QueryRowContext(ctx, getBookingQ, bookingID).Scan(&b.ID, &b.UserID, &b.ScheduleID, &b.SeatID, &b.Status)
    if errors.Is(err, sql.ErrNoRows) {
        return b, ErrNotFound
    }
    return b, err
}

// MoveTx points an existing booking at a new schedule and seat.  The old
// seat is released by the same statement because the row is updated in
// place.  ErrDuplicate means the target seat was claimed concurrently.
func (r *BookingRepo) MoveTx(ctx context.Context, tx *sql.Tx, bookingID, scheduleID, seatID uint64) error {
    const q = `UPDATE bookings SET schedule_id = ?, seat_id = ? WHERE booking_id = ?`
    res, err := tx.ExecContext(ctx, q, scheduleID, seatID, bookingID)
    if err != nil {
        if IsDuplicate(err) {
            return ErrDuplicate
        }
        return err
    }
    // MySQL reports 0 affected rows when the values are unchanged, so only
    // a driver error is treated as failure here.
    _, err = res.RowsAffected()
    return err
}

// DeleteTx removes a booking.  ErrNotFound is returned when nothing was
// deleted.
func (r *BookingRepo) DeleteTx(ctx context.Context, tx *sql.Tx, bookingID uint64) error {
    res, err := tx.ExecContext(ctx, `DELETE FROM bookings WHERE booking_id = ?`, bookingID)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrNotFound
    }
    return nil
}

// ListByUser returns the user's bookings joined with movie title,
// showtime and seat, newest booking first.  limit caps the number of
// rows; zero or negative means no cap.  When the user has no bookings
// an empty slice is returned.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64, limit int) ([]model.BookingDetail, error) {
    q := `SELECT b.booking_id, m.title, sch.start_time, s.row_code, s.col_code, b.status
          FROM bookings b
          JOIN schedules sch ON sch.schedule_id = b.schedule_id
          JOIN movies m ON m.movie_id = sch.movie_id
          JOIN seats s ON s.seat_id = b.seat_id
          WHERE b.user_id = ?
          ORDER BY b.booking_id DESC`
    args := []interface{}{userID}
    if limit > 0 {
        q += ` LIMIT ?`
        args = append(args, limit)
    }
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    details := make([]model.BookingDetail, 0)
    for rows.Next() {
        var (
            d       model.BookingDetail
            start   time.Time
            rowCode string
            colCode int
        )
        if err := rows.Scan(&d.ID, &d.MovieTitle, &start, &rowCode, &colCode, &d.Status); err != nil {
            return nil, err
        }
        d.Showtime = start.Format(model.ShowtimeLayout)
        d.SeatLabel = model.SeatLabel(rowCode, colCode)
        details = append(details, d)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return details, nil
}
