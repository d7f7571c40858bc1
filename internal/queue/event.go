// Package queue defines message payloads exchanged over the message broker.
package queue

// QueueName is the durable queue carrying booking lifecycle events.
const QueueName = "booking.events"

// Event types carried in BookingEvent.Type.
const (
    EventCreated   = "booking.created"
    EventChanged   = "booking.changed"
    EventCancelled = "booking.cancelled"
)

// BookingEvent is published after a booking write commits.  It contains
// the ids involved so downstream consumers can log or notify without
// querying the primary database.  For changes, PrevScheduleID and
// PrevSeatID hold the released seat.
type BookingEvent struct {
    Type           string `json:"type"`
    BookingID      uint64 `json:"booking_id"`
    UserID         uint64 `json:"user_id"`
    ScheduleID     uint64 `json:"schedule_id"`
    SeatID         uint64 `json:"seat_id"`
    PrevScheduleID uint64 `json:"prev_schedule_id,omitempty"`
    PrevSeatID     uint64 `json:"prev_seat_id,omitempty"`
    Status         string `json:"status,omitempty"`
    OccurredAt     string `json:"occurred_at"`
}
