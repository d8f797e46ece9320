package store

import (
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserStore(t *testing.T) (*UserStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewUserStore(db), mock
}

const (
	userExistsQuery = "SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)"
	userInsertQuery = "INSERT INTO users (name, email, password) VALUES ($1, $2, $3) RETURNING id, name, email"
	userByIDQuery   = "SELECT id, name, email FROM users WHERE id = $1"
)

func TestUserStoreCreate(t *testing.T) {
	s, mock := newUserStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(userExistsQuery)).
		WithArgs("a@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(regexp.QuoteMeta(userInsertQuery)).
		WithArgs("A", "a@x.com", "hash").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email"}).AddRow(1, "A", "a@x.com"))

	u, err := s.Create("A", "a@x.com", "hash")
	require.NoError(t, err)
	assert.Equal(t, 1, u.ID)
	assert.Equal(t, "A", u.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserStoreCreateEmailExists(t *testing.T) {
	s, mock := newUserStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(userExistsQuery)).
		WithArgs("a@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	_, err := s.Create("A", "a@x.com", "hash")
	assert.ErrorIs(t, err, ErrEmailExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// The pre-check can lose a race; the unique constraint must still surface
// as the same conflict error.
func TestUserStoreCreateUniqueViolation(t *testing.T) {
	s, mock := newUserStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(userExistsQuery)).
		WithArgs("a@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(regexp.QuoteMeta(userInsertQuery)).
		WithArgs("A", "a@x.com", "hash").
		WillReturnError(&pq.Error{Code: "23505"})

	_, err := s.Create("A", "a@x.com", "hash")
	assert.ErrorIs(t, err, ErrEmailExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserStoreGetByIDNotFound(t *testing.T) {
	s, mock := newUserStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(userByIDQuery)).
		WithArgs(7).
		WillReturnError(sql.ErrNoRows)

	_, err := s.GetByID(7)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserStoreGetByEmailNotFound(t *testing.T) {
	s, mock := newUserStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, email, password, created_at, updated_at FROM users WHERE email = $1")).
		WithArgs("nobody@x.com").
		WillReturnError(sql.ErrNoRows)

	_, err := s.GetByEmail("nobody@x.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

// Only the supplied fields end up in the UPDATE statement.
func TestUserStoreUpdatePartial(t *testing.T) {
	s, mock := newUserStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(userByIDQuery)).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email"}).AddRow(7, "A", "a@x.com"))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE users SET name = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2 RETURNING id, name, email")).
		WithArgs("B", 7).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email"}).AddRow(7, "B", "a@x.com"))

	name := "B"
	u, err := s.Update(7, UserUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "B", u.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserStoreUpdateNotFound(t *testing.T) {
	s, mock := newUserStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(userByIDQuery)).
		WithArgs(7).
		WillReturnError(sql.ErrNoRows)

	name := "B"
	_, err := s.Update(7, UserUpdate{Name: &name})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserStoreDeleteNotFound(t *testing.T) {
	s, mock := newUserStore(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id = $1")).
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, s.Delete(7), ErrUserNotFound)
}

func TestUserStoreDelete(t *testing.T) {
	s, mock := newUserStore(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id = $1")).
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, s.Delete(7))
}
