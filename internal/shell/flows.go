package shell

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
	"github.com/iliyamo/movie-ticket-booking/internal/service"
	"github.com/iliyamo/movie-ticket-booking/internal/ticket"
)

// signUp refuses a taken id before asking for name and contact.
func (s *Shell) signUp(ctx context.Context) error {
	id, err := s.promptID("user id")
	if err != nil {
		return err
	}
	if _, err := s.bookings.LookupUser(ctx, id); err == nil {
		return service.ErrDuplicateUser
	} else if !errors.Is(err, service.ErrUnknownUser) {
		return err
	}
	name, err := s.prompt("name")
	if err != nil {
		return err
	}
	contact, err := s.prompt("contact")
	if err != nil {
		return err
	}
	u, err := s.bookings.RegisterUser(ctx, id, name, contact)
	if err != nil {
		return err
	}
	s.printOK("welcome, %s (user id %d)", u.Name, u.ID)
	return nil
}

// book identifies the customer first and only then walks the catalog.
func (s *Shell) book(ctx context.Context) error {
	userID, err := s.promptID("user id")
	if err != nil {
		return err
	}
	u, err := s.bookings.LookupUser(ctx, userID)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, s.st.dim.Render("booking as "+u.Name))
	sel, err := s.selector.Select(ctx, chooser{s})
	if err != nil {
		return err
	}
	b, err := s.bookings.CreateBooking(ctx, u.ID, sel.ScheduleID, sel.SeatID)
	if err != nil {
		return err
	}
	s.printOK("booking %d confirmed (%s)", b.ID, b.Status)
	s.issueTicket(b)
	return nil
}

func (s *Shell) myBookings(ctx context.Context) error {
	userID, err := s.promptID("user id")
	if err != nil {
		return err
	}
	_, err = s.listBookings(ctx, userID, service.ListLimitFull)
	return err
}

// listBookings prints the user's bookings and reports whether there were
// any.
func (s *Shell) listBookings(ctx context.Context, userID uint64, limit int) (bool, error) {
	details, err := s.bookings.ListBookingsForUser(ctx, userID, limit)
	if err != nil {
		return false, err
	}
	if len(details) == 0 {
		s.printWarn("no bookings")
		return false, nil
	}
	s.printBookings(details)
	return true, nil
}

// pickOwnBooking runs the common head of change and cancel: who, which
// booking, and whether it is theirs.
func (s *Shell) pickOwnBooking(ctx context.Context, label string) (userID, bookingID uint64, err error) {
	if userID, err = s.promptID("user id"); err != nil {
		return 0, 0, err
	}
	found, err := s.listBookings(ctx, userID, service.ListLimitCompact)
	if err != nil || !found {
		return 0, 0, errNothingToDo(err)
	}
	if bookingID, err = s.promptID(label); err != nil {
		return 0, 0, err
	}
	if err := s.bookings.VerifyOwnership(ctx, userID, bookingID); err != nil {
		return 0, 0, err
	}
	return userID, bookingID, nil
}

// errNothingToDo turns "no bookings, already reported" into a silent
// return to the menu.
func errNothingToDo(err error) error {
	if err != nil {
		return err
	}
	return service.ErrEmptyInput
}

func (s *Shell) change(ctx context.Context) error {
	userID, bookingID, err := s.pickOwnBooking(ctx, "booking no. to change")
	if err != nil {
		return err
	}
	sel, err := s.selector.Select(ctx, chooser{s})
	if err != nil {
		return err
	}
	b, err := s.bookings.ChangeBooking(ctx, userID, bookingID, sel.ScheduleID, sel.SeatID)
	if err != nil {
		return err
	}
	s.printOK("booking %d changed, ticket reissued", b.ID)
	s.issueTicket(b)
	return nil
}

func (s *Shell) cancel(ctx context.Context) error {
	userID, bookingID, err := s.pickOwnBooking(ctx, "booking no. to cancel")
	if err != nil {
		return err
	}
	answer, err := s.prompt(fmt.Sprintf("cancel booking %d? (y/n)", bookingID))
	if err != nil {
		return err
	}
	confirmed := strings.EqualFold(answer, "y") || strings.EqualFold(answer, "yes")
	if err := s.bookings.CancelBooking(ctx, userID, bookingID, confirmed); err != nil {
		return err
	}
	s.printOK("booking %d cancelled", bookingID)
	return nil
}

// issueTicket prints a signed ticket code and its QR.  Ticket problems
// never undo a committed booking.
func (s *Shell) issueTicket(b model.Booking) {
	code, err := s.tickets.Issue(b)
	if errors.Is(err, ticket.ErrDisabled) {
		return
	}
	if err != nil {
		s.logger.Warn("ticket not issued", "booking_id", b.ID, "error", err)
		return
	}
	qr, err := ticket.RenderQR(code)
	if err != nil {
		s.logger.Warn("ticket QR not rendered", "booking_id", b.ID, "error", err)
	}
	s.printTicket(code, qr)
}
