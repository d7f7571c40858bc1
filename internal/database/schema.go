package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema lists the DDL statements that create the booking tables, in
// dependency order.  Every statement is idempotent.
//
// The unique key on bookings (schedule_id, seat_id) is the hard
// guarantee behind seat claims; application-level count checks only
// give the customer an early answer.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		user_id BIGINT UNSIGNED NOT NULL,
		name    VARCHAR(50)  NOT NULL,
		contact VARCHAR(50)  NOT NULL DEFAULT '',
		PRIMARY KEY (user_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS movies (
		movie_id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		title    VARCHAR(100) NOT NULL,
		rating   VARCHAR(20)  NOT NULL DEFAULT '',
		duration INT          NOT NULL DEFAULT 0,
		PRIMARY KEY (movie_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS schedules (
		schedule_id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		movie_id    BIGINT UNSIGNED NOT NULL,
		screen_no   INT      NOT NULL,
		start_time  DATETIME NOT NULL,
		price       INT      NOT NULL DEFAULT 0,
		PRIMARY KEY (schedule_id),
		KEY idx_schedules_movie_start (movie_id, start_time),
		CONSTRAINT fk_schedules_movie FOREIGN KEY (movie_id) REFERENCES movies (movie_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS seats (
		seat_id   BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		screen_no INT        NOT NULL,
		row_code  VARCHAR(4) NOT NULL,
		col_code  INT        NOT NULL,
		PRIMARY KEY (seat_id),
		UNIQUE KEY uq_seats_position (screen_no, row_code, col_code)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS bookings (
		booking_id  BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		user_id     BIGINT UNSIGNED NOT NULL,
		schedule_id BIGINT UNSIGNED NOT NULL,
		seat_id     BIGINT UNSIGNED NOT NULL,
		status      VARCHAR(30) NOT NULL,
		PRIMARY KEY (booking_id),
		UNIQUE KEY uq_bookings_schedule_seat (schedule_id, seat_id),
		KEY idx_bookings_user (user_id),
		CONSTRAINT fk_bookings_user FOREIGN KEY (user_id) REFERENCES users (user_id),
		CONSTRAINT fk_bookings_schedule FOREIGN KEY (schedule_id) REFERENCES schedules (schedule_id),
		CONSTRAINT fk_bookings_seat FOREIGN KEY (seat_id) REFERENCES seats (seat_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate applies Schema in order.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range Schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}
	return nil
}

// Seed inserts a small demo catalog: three movies, two screens with a
// 5x8 seat grid each and two showings per movie.  It runs in one
// transaction and does nothing when movies already exist.
func Seed(ctx context.Context, db *sql.DB) error {
	var n int
	if err := db.QueryRowContext(ctx, "SELECT count(*) FROM movies").Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	movies := []struct {
		title    string
		rating   string
		duration int
	}{
		{"The Last Projectionist", "12", 118},
		{"Night Train to Busan", "15", 102},
		{"Paper Moon Harbor", "ALL", 95},
	}
	for i, m := range movies {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO movies (title, rating, duration) VALUES (?,?,?)",
			m.title, m.rating, m.duration)
		if err != nil {
			return err
		}
		movieID, err := res.LastInsertId()
		if err != nil {
			return err
		}
		screen := i%2 + 1
		for _, start := range []string{"2026-11-02 10:30:00", "2026-11-02 19:10:00"} {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO schedules (movie_id, screen_no, start_time, price) VALUES (?,?,?,?)",
				movieID, screen, start, 12000); err != nil {
				return err
			}
		}
	}

	query := `INSERT INTO seats (screen_no, row_code, col_code) VALUES `
	args := make([]interface{}, 0, 2*5*8*3)
	first := true
	for screen := 1; screen <= 2; screen++ {
		for _, row := range []string{"A", "B", "C", "D", "E"} {
			for col := 1; col <= 8; col++ {
				if !first {
					query += ","
				}
				first = false
				query += "(?, ?, ?)"
				args = append(args, screen, row, col)
			}
		}
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
