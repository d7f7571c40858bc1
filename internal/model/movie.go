package model

import "time"

// ShowtimeLayout is how start times are printed in listings (MM-DD HH:MM).
const ShowtimeLayout = "01-02 15:04"

// Movie is read-only reference data from the `movies` table.
type Movie struct {
    ID       uint64 // movies.movie_id
    Title    string // movies.title
    Rating   string // movies.rating
    Duration int    // movies.duration (minutes)
}

// Schedule is a single showing of a movie on a screen.  The seat
// layout used for booking comes from the screen, not the schedule,
// so two schedules on the same screen share seat rows.
//
// Fields:
//  ID         – primary key identifier.
//  MovieID    – movie being shown.
//  MovieTitle – joined from movies for listings (empty when not loaded).
//  ScreenNo   – physical screen the showing runs in.
//  StartTime  – when the showing begins.
//  Price      – ticket price in won.
type Schedule struct {
    ID         uint64    // schedules.schedule_id
    MovieID    uint64    // schedules.movie_id
    MovieTitle string    // movies.title
    ScreenNo   int       // schedules.screen_no
    StartTime  time.Time // schedules.start_time
    Price      int       // schedules.price
}
