package model

import "fmt"

// Seat describes a physical seat on a screen.  Seats are uniquely
// identified by their screen, row code and column code and are
// reused by every schedule running on that screen.
type Seat struct {
    ID       uint64 // seats.seat_id
    ScreenNo int    // seats.screen_no
    RowCode  string // seats.row_code
    ColCode  int    // seats.col_code
}

// Label returns the seat as printed on tickets, e.g. "C-7".
func (s Seat) Label() string { return SeatLabel(s.RowCode, s.ColCode) }

// SeatLabel formats a row/column pair the same way the booking list does.
func SeatLabel(row string, col int) string { return fmt.Sprintf("%s-%d", row, col) }

// SeatAvailability pairs a seat with the booked flag computed for one
// schedule at listing time.  The flag is informational only and may be
// stale by the time the customer picks a seat.
type SeatAvailability struct {
    Seat
    Booked bool
}
