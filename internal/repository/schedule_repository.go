package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

// ScheduleRepo reads showings.  Schedules are reference data; nothing in
// the booking flow writes to them.
type ScheduleRepo struct {
	db *sql.DB
}

// NewScheduleRepo constructs a ScheduleRepo with the given DB handle.
func NewScheduleRepo(db *sql.DB) *ScheduleRepo { return &ScheduleRepo{db: db} }

// ListByMovie returns the showings of a movie ordered by start time,
// with the movie title joined in for display.
func (r *ScheduleRepo) ListByMovie(ctx context.Context, movieID uint64) ([]model.Schedule, error) {
	const q = `SELECT sch.schedule_id, sch.movie_id, m.title, sch.screen_no, sch.start_time, sch.price
	           FROM schedules sch
	           JOIN movies m ON m.movie_id = sch.movie_id
	           WHERE sch.movie_id = ?
	           ORDER BY sch.start_time`
	rows, err := r.db.QueryContext(ctx, q, movieID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]model.Schedule, 0)
	for rows.Next() {
		var s model.Schedule
		if err := rows.Scan(&s.ID, &s.MovieID, &s.MovieTitle, &s.ScreenNo, &s.StartTime, &s.Price); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// CountForMovie counts schedules matching both ids.  A zero count means
// the chosen schedule does not belong to the chosen movie.
func (r *ScheduleRepo) CountForMovie(ctx context.Context, scheduleID, movieID uint64) (int, error) {
	return count(ctx, r.db,
		"SELECT count(*) FROM schedules WHERE schedule_id = ? AND movie_id = ?",
		scheduleID, movieID)
}

const screenNoQ = `SELECT screen_no FROM schedules WHERE schedule_id = ?`

// ScreenNo resolves the screen a schedule runs on.  ErrNotFound is
// returned for an unknown schedule.
func (r *ScheduleRepo) ScreenNo(ctx context.Context, scheduleID uint64) (int, error) {
	return screenNo(ctx, r.db, scheduleID)
}

// ScreenNoTx is ScreenNo inside the caller's transaction.
func (r *ScheduleRepo) ScreenNoTx(ctx context.Context, tx *sql.Tx, scheduleID uint64) (int, error) {
	return screenNo(ctx, tx, scheduleID)
}

func screenNo(ctx context.Context, q querier, scheduleID uint64) (int, error) {
	var n int
	err := q.QueryRowContext(ctx, screenNoQ, scheduleID).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return n, err
}
