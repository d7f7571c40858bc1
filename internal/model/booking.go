package model

// StatusPaymentComplete is the status written for every new booking.
// Status is a free-text column; no other states are modelled.
const StatusPaymentComplete = "payment complete"

// Booking records a single seat claim for a schedule.  At most one
// booking may exist for any (ScheduleID, SeatID) pair; the database
// enforces this with a unique key.
//
// Fields:
//  ID         – generated primary key.
//  UserID     – owner of the booking.
//  ScheduleID – showing the seat is claimed for.
//  SeatID     – seat being claimed.
//  Status     – free-text status (see StatusPaymentComplete).
type Booking struct {
    ID         uint64 // bookings.booking_id
    UserID     uint64 // bookings.user_id
    ScheduleID uint64 // bookings.schedule_id
    SeatID     uint64 // bookings.seat_id
    Status     string // bookings.status
}

// BookingDetail is a booking joined with its movie, showtime and seat,
// shaped for the "my bookings" listing.
type BookingDetail struct {
    ID         uint64
    MovieTitle string
    Showtime   string // formatted as MM-DD HH:MM
    SeatLabel  string // row-col
    Status     string
}
