package shell

import (
	"context"
	"errors"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

// chooser answers the selection workflow from the terminal.
type chooser struct{ s *Shell }

func (c chooser) ChooseMovie(_ context.Context, movies []model.Movie) (uint64, error) {
	c.s.printMovies(movies)
	return c.s.promptID("movie id")
}

func (c chooser) ChooseSchedule(_ context.Context, schedules []model.Schedule) (uint64, error) {
	c.s.printSchedules(schedules)
	return c.s.promptID("schedule id")
}

// ChooseSeat keeps asking until it gets a number; the workflow
// validates the seat itself.
func (c chooser) ChooseSeat(_ context.Context, seats []model.SeatAvailability) (uint64, error) {
	c.s.printSeatMap(seats)
	for {
		id, err := c.s.promptID("seat id")
		if !errors.Is(err, errInvalidID) {
			return id, err
		}
		c.s.printWarn("invalid id")
	}
}

func (c chooser) Warn(_ context.Context, err error) {
	c.s.printWarn(err.Error() + ", choose another seat")
}
