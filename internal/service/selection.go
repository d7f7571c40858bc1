package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/iliyamo/movie-ticket-booking/internal/cache"
	"github.com/iliyamo/movie-ticket-booking/internal/model"
	"github.com/iliyamo/movie-ticket-booking/internal/repository"
)

// Chooser supplies the customer's picks to the selection workflow.  The
// presentation layer implements it; each method receives the rows it
// should display and returns the id the customer typed.  Returning
// ErrEmptyInput aborts the workflow.
type Chooser interface {
	ChooseMovie(ctx context.Context, movies []model.Movie) (uint64, error)
	ChooseSchedule(ctx context.Context, schedules []model.Schedule) (uint64, error)
	ChooseSeat(ctx context.Context, seats []model.SeatAvailability) (uint64, error)
	// Warn reports a rejected seat pick before the seat map is shown again.
	Warn(ctx context.Context, err error)
}

// Selection is the validated outcome of the workflow.
type Selection struct {
	MovieID    uint64
	ScheduleID uint64
	SeatID     uint64
	ScreenNo   int
}

// SelectionService narrows movie → schedule → seat.  What the customer
// sees may be stale by the time they answer, so every pick is validated
// again against the database when it is made.
type SelectionService struct {
	Movies    *repository.MovieRepo
	Schedules *repository.ScheduleRepo
	Seats     *repository.SeatRepo
	Bookings  *repository.BookingRepo
	Cache     *cache.Catalog // optional
	Logger    *slog.Logger
}

// NewSelectionService wires the repositories on db.  catalog may be nil.
func NewSelectionService(db *sql.DB, catalog *cache.Catalog, logger *slog.Logger) *SelectionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SelectionService{
		Movies:    repository.NewMovieRepo(db),
		Schedules: repository.NewScheduleRepo(db),
		Seats:     repository.NewSeatRepo(db),
		Bookings:  repository.NewBookingRepo(db),
		Cache:     catalog,
		Logger:    logger,
	}
}

// ListMovies returns all movies ordered by id.
func (s *SelectionService) ListMovies(ctx context.Context) ([]model.Movie, error) {
	movies, err := s.Cache.Movies(ctx, s.Movies.List)
	if err != nil {
		return nil, persistence("list movies", err)
	}
	return movies, nil
}

// ListSchedules returns the showings of a movie ordered by start time.
func (s *SelectionService) ListSchedules(ctx context.Context, movieID uint64) ([]model.Schedule, error) {
	schedules, err := s.Cache.Schedules(ctx, movieID, s.Schedules.ListByMovie)
	if err != nil {
		return nil, persistence("list schedules", err)
	}
	return schedules, nil
}

// ValidateSchedule checks that scheduleID is a showing of movieID.
func (s *SelectionService) ValidateSchedule(ctx context.Context, movieID, scheduleID uint64) error {
	if scheduleID == 0 {
		return ErrInvalidSchedule
	}
	n, err := s.Schedules.CountForMovie(ctx, scheduleID, movieID)
	if err != nil {
		return persistence("validate schedule", err)
	}
	if n == 0 {
		return ErrInvalidSchedule
	}
	return nil
}

// ScreenOf resolves the screen a schedule runs on.
func (s *SelectionService) ScreenOf(ctx context.Context, scheduleID uint64) (int, error) {
	screen, err := s.Schedules.ScreenNo(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, ErrInvalidSchedule
		}
		return 0, persistence("resolve screen", err)
	}
	return screen, nil
}

// SeatMap lists the seats of a screen with their booked flag for one
// schedule.  The flags are a snapshot for display only.
func (s *SelectionService) SeatMap(ctx context.Context, scheduleID uint64, screenNo int) ([]model.SeatAvailability, error) {
	seats, err := s.Seats.ListWithAvailability(ctx, screenNo, scheduleID)
	if err != nil {
		return nil, persistence("list seats", err)
	}
	return seats, nil
}

// ValidateSeat re-checks a seat pick at choice time: the seat must be on
// the schedule's screen and still unbooked for the schedule.
func (s *SelectionService) ValidateSeat(ctx context.Context, scheduleID uint64, screenNo int, seatID uint64) error {
	if seatID == 0 {
		return ErrInvalidSeat
	}
	n, err := s.Seats.CountOnScreen(ctx, seatID, screenNo)
	if err != nil {
		return persistence("validate seat", err)
	}
	if n == 0 {
		return ErrInvalidSeat
	}
	booked, err := s.Bookings.CountForSeat(ctx, scheduleID, seatID)
	if err != nil {
		return persistence("validate seat", err)
	}
	if booked > 0 {
		return ErrSeatTaken
	}
	return nil
}

// Select runs the whole workflow.  A rejected seat pick (not on this
// screen, or booked meanwhile) is reported through ch.Warn and the seat
// map is listed again; every other error ends the workflow.
func (s *SelectionService) Select(ctx context.Context, ch Chooser) (Selection, error) {
	var sel Selection

	movies, err := s.ListMovies(ctx)
	if err != nil {
		return sel, err
	}
	if len(movies) == 0 {
		return sel, ErrNoMovies
	}
	if sel.MovieID, err = ch.ChooseMovie(ctx, movies); err != nil {
		return sel, err
	}

	schedules, err := s.ListSchedules(ctx, sel.MovieID)
	if err != nil {
		return sel, err
	}
	if len(schedules) == 0 {
		return sel, ErrNoSchedules
	}
	if sel.ScheduleID, err = ch.ChooseSchedule(ctx, schedules); err != nil {
		return sel, err
	}
	if err := s.ValidateSchedule(ctx, sel.MovieID, sel.ScheduleID); err != nil {
		return sel, err
	}
	if sel.ScreenNo, err = s.ScreenOf(ctx, sel.ScheduleID); err != nil {
		return sel, err
	}

	for {
		seats, err := s.SeatMap(ctx, sel.ScheduleID, sel.ScreenNo)
		if err != nil {
			return sel, err
		}
		if len(seats) == 0 {
			return sel, ErrNoSeats
		}
		seatID, err := ch.ChooseSeat(ctx, seats)
		if err != nil {
			return sel, err
		}
		err = s.ValidateSeat(ctx, sel.ScheduleID, sel.ScreenNo, seatID)
		if err == nil {
			sel.SeatID = seatID
			return sel, nil
		}
		if !retryableSeat(err) {
			return sel, err
		}
		s.Logger.Debug("seat pick rejected", "schedule_id", sel.ScheduleID, "seat_id", seatID, "error", err)
		ch.Warn(ctx, err)
	}
}
