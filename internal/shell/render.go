package shell

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

// styles holds the lipgloss styles, bound to a renderer for the shell's
// writer so colour is dropped when the output is not a terminal.
type styles struct {
	title  lipgloss.Style
	header lipgloss.Style
	ok     lipgloss.Style
	warn   lipgloss.Style
	fail   lipgloss.Style
	dim    lipgloss.Style
	booked lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		title:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		header: r.NewStyle().Bold(true).Underline(true),
		ok:     r.NewStyle().Foreground(lipgloss.Color("10")),
		warn:   r.NewStyle().Foreground(lipgloss.Color("11")),
		fail:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		dim:    r.NewStyle().Faint(true),
		booked: r.NewStyle().Foreground(lipgloss.Color("8")).Strikethrough(true),
	}
}

var menuEntries = []string{
	"1. Sign up",
	"2. Book a ticket",
	"3. My bookings",
	"4. Change booking",
	"5. Cancel booking",
	"6. Exit",
}

func (s *Shell) printMenu() {
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, s.st.title.Render("== Movie Ticket Booking =="))
	for _, e := range menuEntries {
		fmt.Fprintln(s.out, "  "+e)
	}
}

func (s *Shell) printOK(format string, args ...interface{}) {
	fmt.Fprintln(s.out, s.st.ok.Render(fmt.Sprintf(format, args...)))
}

func (s *Shell) printWarn(msg string) {
	fmt.Fprintln(s.out, s.st.warn.Render("! "+msg))
}

func (s *Shell) printFail(msg string) {
	fmt.Fprintln(s.out, s.st.fail.Render("x "+msg))
}

func (s *Shell) printMovies(movies []model.Movie) {
	fmt.Fprintln(s.out, s.st.header.Render(fmt.Sprintf("%-4s %-30s %-6s %s", "ID", "TITLE", "RATING", "MIN")))
	for _, m := range movies {
		fmt.Fprintf(s.out, "%-4d %-30s %-6s %d\n", m.ID, m.Title, m.Rating, m.Duration)
	}
}

func (s *Shell) printSchedules(schedules []model.Schedule) {
	fmt.Fprintln(s.out, s.st.header.Render(fmt.Sprintf("%-4s %-30s %-6s %-11s %s", "ID", "TITLE", "SCREEN", "START", "PRICE")))
	for _, sc := range schedules {
		fmt.Fprintf(s.out, "%-4d %-30s %-6d %-11s %d\n",
			sc.ID, sc.MovieTitle, sc.ScreenNo, sc.StartTime.Format(model.ShowtimeLayout), sc.Price)
	}
}

// printSeatMap prints one line per seat row.  Booked seats are struck
// through and marked with an asterisk so the map reads without colour.
func (s *Shell) printSeatMap(seats []model.SeatAvailability) {
	if len(seats) == 0 {
		return
	}
	fmt.Fprintln(s.out, s.st.header.Render(fmt.Sprintf("screen %d  (seat id, * = booked)", seats[0].ScreenNo)))
	var (
		line    strings.Builder
		current string
	)
	flush := func() {
		if line.Len() > 0 {
			fmt.Fprintln(s.out, line.String())
			line.Reset()
		}
	}
	for _, seat := range seats {
		if seat.RowCode != current {
			flush()
			current = seat.RowCode
			line.WriteString(fmt.Sprintf("%-2s ", seat.RowCode))
		}
		cell := fmt.Sprintf("%4d ", seat.ID)
		if seat.Booked {
			cell = s.st.booked.Render(fmt.Sprintf("%4d", seat.ID)) + "*"
		}
		line.WriteString(cell)
	}
	flush()
}

func (s *Shell) printBookings(details []model.BookingDetail) {
	fmt.Fprintln(s.out, s.st.header.Render(fmt.Sprintf("%-6s %-30s %-11s %-6s %s", "NO", "TITLE", "SHOWTIME", "SEAT", "STATUS")))
	for _, d := range details {
		fmt.Fprintf(s.out, "%-6d %-30s %-11s %-6s %s\n", d.ID, d.MovieTitle, d.Showtime, d.SeatLabel, d.Status)
	}
}

func (s *Shell) printTicket(code, qr string) {
	fmt.Fprintln(s.out, s.st.dim.Render("ticket code: "+code))
	if qr != "" {
		fmt.Fprint(s.out, qr)
	}
}
