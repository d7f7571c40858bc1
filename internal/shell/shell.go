// Package shell is the line-oriented terminal front end.  It reads one
// answer per prompt, hands the ids to the service layer and prints the
// outcome; it holds no booking rules of its own.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
	"github.com/iliyamo/movie-ticket-booking/internal/service"
	"github.com/iliyamo/movie-ticket-booking/internal/ticket"
)

// Bookings is the part of service.BookingService the shell drives.
type Bookings interface {
	LookupUser(ctx context.Context, userID uint64) (model.User, error)
	RegisterUser(ctx context.Context, userID uint64, name, contact string) (model.User, error)
	CreateBooking(ctx context.Context, userID, scheduleID, seatID uint64) (model.Booking, error)
	ListBookingsForUser(ctx context.Context, userID uint64, limit int) ([]model.BookingDetail, error)
	VerifyOwnership(ctx context.Context, userID, bookingID uint64) error
	ChangeBooking(ctx context.Context, userID, bookingID, newScheduleID, newSeatID uint64) (model.Booking, error)
	CancelBooking(ctx context.Context, userID, bookingID uint64, confirmed bool) error
}

// Selector runs the movie → schedule → seat workflow.
type Selector interface {
	Select(ctx context.Context, ch service.Chooser) (service.Selection, error)
}

// errInvalidID is reported for a zero or non-numeric id.
var errInvalidID = errors.New("invalid id")

// Shell is one interactive session.
type Shell struct {
	in       *bufio.Reader
	out      io.Writer
	bookings Bookings
	selector Selector
	tickets  *ticket.Issuer // nil disables ticket codes
	logger   *slog.Logger
	st       styles
}

// New builds a Shell reading from in and writing to out.
func New(in io.Reader, out io.Writer, bookings Bookings, selector Selector, tickets *ticket.Issuer, logger *slog.Logger) *Shell {
	if logger == nil {
		logger = slog.Default()
	}
	return &Shell{
		in:       bufio.NewReader(in),
		out:      out,
		bookings: bookings,
		selector: selector,
		tickets:  tickets,
		logger:   logger,
		st:       newStyles(out),
	}
}

// Run shows the menu until the customer picks exit or input ends.
func (s *Shell) Run(ctx context.Context) error {
	for {
		s.printMenu()
		choice, err := s.readLine("select")
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		var opErr error
		switch choice {
		case "1":
			opErr = s.signUp(ctx)
		case "2":
			opErr = s.book(ctx)
		case "3":
			opErr = s.myBookings(ctx)
		case "4":
			opErr = s.change(ctx)
		case "5":
			opErr = s.cancel(ctx)
		case "6":
			fmt.Fprintln(s.out, "bye")
			return nil
		default:
			continue
		}
		if errors.Is(opErr, io.EOF) {
			return nil
		}
		s.report(opErr)
	}
}

// readLine prints label and returns the trimmed answer.  io.EOF is
// returned only when no answer at all could be read.
func (s *Shell) readLine(label string) (string, error) {
	fmt.Fprintf(s.out, "%s> ", label)
	line, err := s.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// prompt reads a required answer; blank means ErrEmptyInput.
func (s *Shell) prompt(label string) (string, error) {
	answer, err := s.readLine(label)
	if err != nil {
		return "", err
	}
	if answer == "" {
		return "", service.ErrEmptyInput
	}
	return answer, nil
}

// promptID reads a positive numeric id.
func (s *Shell) promptID(label string) (uint64, error) {
	answer, err := s.prompt(label)
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseUint(answer, 10, 64)
	if err != nil || id == 0 {
		return 0, errInvalidID
	}
	return id, nil
}

// report prints the outcome of a menu operation.
func (s *Shell) report(err error) {
	switch {
	case err == nil, errors.Is(err, service.ErrEmptyInput):
	case errors.Is(err, errInvalidID):
		s.printWarn("invalid id")
	case service.IsNoMatchingBooking(err):
		s.printWarn("no such booking for this user")
	case errors.Is(err, service.ErrCancelDeclined):
		s.printWarn("cancellation aborted, booking kept")
	case service.IsValidation(err):
		s.printWarn(err.Error())
	case errors.Is(err, service.ErrPersistence):
		s.logger.Error("operation failed", "error", err)
		s.printFail("database error, nothing was changed")
	default:
		s.logger.Error("operation failed", "error", err)
		s.printFail(err.Error())
	}
}
