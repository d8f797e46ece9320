package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"taskboard/internal/models"
)

// Postgres error codes the stores care about.
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// UserStore runs all SQL against the users table.
type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

// UserUpdate carries the fields of a partial user update. Nil means the
// field was not supplied. Password must already be hashed by the caller.
type UserUpdate struct {
	Name     *string
	Email    *string
	Password *string
}

// Create inserts a new user and returns its summary. The email pre-check
// gives the friendly error path; the unique constraint on users.email is
// the final authority and closes the race between concurrent registrations.
func (s *UserStore) Create(name, email, passwordHash string) (models.UserSummary, error) {
	var exists bool
	err := s.db.QueryRow("SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)", email).Scan(&exists)
	if err != nil {
		return models.UserSummary{}, fmt.Errorf("checking email: %w", err)
	}
	if exists {
		return models.UserSummary{}, ErrEmailExists
	}

	var u models.UserSummary
	err = s.db.QueryRow(
		"INSERT INTO users (name, email, password) VALUES ($1, $2, $3) RETURNING id, name, email",
		name, email, passwordHash,
	).Scan(&u.ID, &u.Name, &u.Email)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == uniqueViolation {
			return models.UserSummary{}, ErrEmailExists
		}
		return models.UserSummary{}, fmt.Errorf("inserting user: %w", err)
	}
	return u, nil
}

// GetByEmail returns the full row including the password hash. Callers must
// strip the hash before exposing the user.
func (s *UserStore) GetByEmail(email string) (models.User, error) {
	var u models.User
	err := s.db.QueryRow(
		"SELECT id, name, email, password, created_at, updated_at FROM users WHERE email = $1",
		email,
	).Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("fetching user by email: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByID(id int) (models.UserSummary, error) {
	var u models.UserSummary
	err := s.db.QueryRow(
		"SELECT id, name, email FROM users WHERE id = $1",
		id,
	).Scan(&u.ID, &u.Name, &u.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return models.UserSummary{}, ErrUserNotFound
	}
	if err != nil {
		return models.UserSummary{}, fmt.Errorf("fetching user: %w", err)
	}
	return u, nil
}

func (s *UserStore) List() ([]models.UserSummary, error) {
	rows, err := s.db.Query("SELECT id, name, email FROM users")
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	users := []models.UserSummary{}
	for rows.Next() {
		var u models.UserSummary
		if err := rows.Scan(&u.ID, &u.Name, &u.Email); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating users: %w", err)
	}
	return users, nil
}

// Update applies only the supplied fields and returns the updated summary.
func (s *UserStore) Update(id int, upd UserUpdate) (models.UserSummary, error) {
	if _, err := s.GetByID(id); err != nil {
		return models.UserSummary{}, err
	}

	set := []string{}
	args := []interface{}{}
	if upd.Name != nil {
		args = append(args, *upd.Name)
		set = append(set, fmt.Sprintf("name = $%d", len(args)))
	}
	if upd.Email != nil {
		args = append(args, *upd.Email)
		set = append(set, fmt.Sprintf("email = $%d", len(args)))
	}
	if upd.Password != nil {
		args = append(args, *upd.Password)
		set = append(set, fmt.Sprintf("password = $%d", len(args)))
	}
	set = append(set, "updated_at = CURRENT_TIMESTAMP")

	args = append(args, id)
	query := fmt.Sprintf(
		"UPDATE users SET %s WHERE id = $%d RETURNING id, name, email",
		strings.Join(set, ", "), len(args),
	)

	var u models.UserSummary
	err := s.db.QueryRow(query, args...).Scan(&u.ID, &u.Name, &u.Email)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == uniqueViolation {
			return models.UserSummary{}, ErrEmailExists
		}
		return models.UserSummary{}, fmt.Errorf("updating user: %w", err)
	}
	return u, nil
}

// Delete removes the user. Tasks referencing it get assignee_id nulled by
// the ON DELETE SET NULL constraint, not by application code.
func (s *UserStore) Delete(id int) error {
	res, err := s.db.Exec("DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}
