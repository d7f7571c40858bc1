package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const countUserQ = "SELECT count(*) FROM users WHERE user_id=?"

// Exists reports whether a user with the given id has signed up.
func (r *UserRepo) Exists(ctx context.Context, id uint64) (bool, error) {
	n, err := count(ctx, r.DB, countUserQ, id)
	return n > 0, err
}

// ExistsTx is Exists inside the caller's transaction.
func (r *UserRepo) ExistsTx(ctx context.Context, tx *sql.Tx, id uint64) (bool, error) {
	n, err := count(ctx, tx, countUserQ, id)
	return n > 0, err
}

// CreateTx inserts a user.  A primary-key collision is reported as
// ErrDuplicate.
func (r *UserRepo) CreateTx(ctx context.Context, tx *sql.Tx, u model.User) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO users (user_id, name, contact) VALUES (?,?,?)",
		u.ID, strings.TrimSpace(u.Name), strings.TrimSpace(u.Contact))
	if err != nil {
		if IsDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id,name,contact FROM users WHERE user_id=? LIMIT 1",
		id).Scan(&u.ID, &u.Name, &u.Contact)
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrNotFound
	}
	return u, err
}
