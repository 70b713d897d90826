package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"lidar_maintenance/internal/models"
)

// UserSQLite stores the operator accounts allowed to upload reports and
// query the run audit over HTTP.
type UserSQLite struct {
	db *sql.DB
}

func NewUserSQLite(db *sql.DB) *UserSQLite { return &UserSQLite{db: db} }

var _ Authorization = (*UserSQLite)(nil)

const (
	createUserSQL = `INSERT INTO users (username, password_hash) VALUES (?, ?)`
	selectUserSQL = `SELECT id, username, password_hash FROM users WHERE username = ?`
)

// Create registers an operator account and returns its id.
func (r *UserSQLite) Create(username, passwordHash string) (int, error) {
	res, err := r.db.Exec(createUserSQL, username, passwordHash)
	if err != nil {
		return 0, fmt.Errorf("create operator %s: %w", username, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("operator id for %s: %w", username, err)
	}
	return int(id), nil
}

// GetByUsername looks an operator up. A missing account is (nil, nil), not
// an error: the auth service decides how loudly to fail.
func (r *UserSQLite) GetByUsername(username string) (*models.User, error) {
	var u models.User
	err := r.db.QueryRow(selectUserSQL, username).Scan(&u.ID, &u.Username, &u.PasswordHash)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("look up operator %s: %w", username, err)
	}
	return &u, nil
}
