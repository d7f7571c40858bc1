package repository // repository defines data access for seats

import (
	"context"      // context allows query cancellation and timeouts
	"database/sql" // sql provides DB primitives

	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

// SeatRepo provides methods to work with seats in the database.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo {
	return &SeatRepo{db: db}
}

// ListWithAvailability retrieves all seats of a screen ordered by
// row_code then col_code, each flagged as booked when a booking exists
// for the given schedule.  The flag is a snapshot; callers must
// re-check before claiming a seat.
func (r *SeatRepo) ListWithAvailability(ctx context.Context, screenNo int, scheduleID uint64) ([]model.SeatAvailability, error) {
	const q = `SELECT s.seat_id, s.screen_no, s.row_code, s.col_code,
	                  (SELECT count(*) FROM bookings b
	                   WHERE b.schedule_id = ? AND b.seat_id = s.seat_id) AS booked
	           FROM seats s
	           WHERE s.screen_no = ?
	           ORDER BY s.row_code, s.col_code`
	rows, err := r.db.QueryContext(ctx, q, scheduleID, screenNo)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]model.SeatAvailability, 0)
	for rows.Next() {
		var s model.SeatAvailability
		var booked int
		if err := rows.Scan(&s.ID, &s.ScreenNo, &s.RowCode, &s.ColCode, &booked); err != nil {
			return nil, err
		}
		s.Booked = booked > 0
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

const countSeatOnScreenQ = `SELECT count(*) FROM seats WHERE seat_id = ? AND screen_no = ?`

// CountOnScreen counts seats matching both the id and the screen.  Zero
// means the seat is not part of that screen's layout.
func (r *SeatRepo) CountOnScreen(ctx context.Context, seatID uint64, screenNo int) (int, error) {
	return count(ctx, r.db, countSeatOnScreenQ, seatID, screenNo)
}

// CountOnScreenTx is CountOnScreen inside the caller's transaction.
func (r *SeatRepo) CountOnScreenTx(ctx context.Context, tx *sql.Tx, seatID uint64, screenNo int) (int, error) {
	return count(ctx, tx, countSeatOnScreenQ, seatID, screenNo)
}
