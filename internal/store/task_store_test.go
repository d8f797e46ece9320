package store

import (
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard/internal/models"
)

func newTaskStore(t *testing.T) (*TaskStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewTaskStore(db), mock
}

var taskCols = []string{"id", "title", "description", "status", "assignee_id", "name", "due_date", "created_at", "updated_at"}

const (
	taskSelect         = "SELECT " + taskColumns + " " + taskFrom
	taskByIDQuery      = taskSelect + " WHERE t.id = $1"
	assigneeCheckQuery = "SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)"
)

func TestTaskFilterWhereClause(t *testing.T) {
	where, args := TaskFilter{}.whereClause()
	assert.Empty(t, where)
	assert.Empty(t, args)

	assignee := 3
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	where, args = TaskFilter{
		Status:     models.StatusPending,
		AssigneeID: &assignee,
		DueFrom:    &from,
		DueTo:      &to,
	}.whereClause()
	assert.Equal(t, " WHERE t.status = $1 AND t.assignee_id = $2 AND t.due_date >= $3 AND t.due_date <= $4", where)
	assert.Equal(t, []interface{}{models.StatusPending, 3, from, to}, args)
}

func TestTaskFilterNormalize(t *testing.T) {
	f := TaskFilter{}.normalize()
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, 20, f.Limit)

	f = TaskFilter{Page: -3, Limit: -5}.normalize()
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, 1, f.Limit)

	f = TaskFilter{Page: 2, Limit: 2}.normalize()
	assert.Equal(t, 2, f.Page)
	assert.Equal(t, 2, f.Limit)
}

func TestPercentCompleted(t *testing.T) {
	assert.Equal(t, 0, percentCompleted(0, 0))
	assert.Equal(t, 33, percentCompleted(1, 3))
	assert.Equal(t, 67, percentCompleted(2, 3))
	assert.Equal(t, 100, percentCompleted(3, 3))
	assert.Equal(t, 50, percentCompleted(1, 2))
}

// Count and data queries share the same predicates, and the offset follows
// (page-1)*limit.
func TestTaskStoreListPagination(t *testing.T) {
	s, mock := newTaskStore(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM tasks t WHERE t.status = $1")).
		WithArgs(models.StatusPending).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
	mock.ExpectQuery(regexp.QuoteMeta(taskSelect+" WHERE t.status = $1 ORDER BY t.due_date ASC LIMIT $2 OFFSET $3")).
		WithArgs(models.StatusPending, 2, 2).
		WillReturnRows(sqlmock.NewRows(taskCols).
			AddRow(3, "third", "d", "pending", nil, nil, now, now, now).
			AddRow(4, "fourth", "d", "pending", nil, nil, now, now, now))

	page, err := s.List(TaskFilter{Status: models.StatusPending, Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, page.Meta.Total)
	assert.Equal(t, 2, page.Meta.Page)
	assert.Equal(t, 2, page.Meta.Limit)
	require.Len(t, page.Data, 2)
	assert.Equal(t, "third", page.Data[0].Title)
	assert.Equal(t, "fourth", page.Data[1].Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskStoreDueSoonWindow(t *testing.T) {
	s, mock := newTaskStore(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(taskSelect+" WHERE t.due_date >= $1 AND t.due_date <= $2 AND t.status <> $3 ORDER BY t.due_date ASC")).
		WithArgs(now, now.Add(24*time.Hour), models.StatusCompleted).
		WillReturnRows(sqlmock.NewRows(taskCols).
			AddRow(1, "urgent", "d", "pending", 3, "A", now.Add(time.Hour), now, now))

	list, err := s.DueSoon(now)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "urgent", list[0].Title)
	require.NotNil(t, list[0].AssigneeID)
	assert.Equal(t, 3, *list[0].AssigneeID)
	require.NotNil(t, list[0].AssigneeName)
	assert.Equal(t, "A", *list[0].AssigneeName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskStoreStatsByStatus(t *testing.T) {
	s, mock := newTaskStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT status, COUNT(*) FROM tasks GROUP BY status")).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("pending", 3).
			AddRow("completed", 1))

	stats, err := s.StatsByStatus()
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Pending)
	assert.Equal(t, 0, stats.InProgress)
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 25, stats.PercentCompleted)
}

func TestTaskStoreStatsByStatusEmpty(t *testing.T) {
	s, mock := newTaskStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT status, COUNT(*) FROM tasks GROUP BY status")).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}))

	stats, err := s.StatsByStatus()
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Total)
	assert.Equal(t, 0, stats.PercentCompleted)
}

func TestTaskStoreStatsByUser(t *testing.T) {
	s, mock := newTaskStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT u.id, u.name, COUNT(t.id) FROM tasks t LEFT JOIN users u ON u.id = t.assignee_id GROUP BY u.id, u.name")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "count"}).
			AddRow(3, "A", 2).
			AddRow(nil, nil, 1))

	counts, err := s.StatsByUser()
	require.NoError(t, err)
	require.Len(t, counts, 2)
	require.NotNil(t, counts[0].UserID)
	assert.Equal(t, 3, *counts[0].UserID)
	assert.Equal(t, 2, counts[0].Count)
	assert.Nil(t, counts[1].UserID)
	assert.Nil(t, counts[1].UserName)
	assert.Equal(t, 1, counts[1].Count)
}

func TestTaskStoreCreateDefaultsStatus(t *testing.T) {
	s, mock := newTaskStore(t)
	due := time.Now().AddDate(0, 0, 7)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO tasks (title, description, status, assignee_id, due_date) VALUES ($1, $2, $3, $4, $5) RETURNING id")).
		WithArgs("T", "D", models.StatusPending, nil, due).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta(taskByIDQuery)).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows(taskCols).
			AddRow(1, "T", "D", "pending", nil, nil, due, now, now))

	task, err := s.Create(TaskCreate{Title: "T", Description: "D", DueDate: due})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, task.Status)
	assert.Nil(t, task.AssigneeID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskStoreCreateAssigneeMissing(t *testing.T) {
	s, mock := newTaskStore(t)
	assignee := 99

	mock.ExpectQuery(regexp.QuoteMeta(assigneeCheckQuery)).
		WithArgs(99).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	_, err := s.Create(TaskCreate{Title: "T", Description: "D", AssigneeID: &assignee, DueDate: time.Now()})
	assert.ErrorIs(t, err, ErrAssigneeNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskStoreGetByIDNotFound(t *testing.T) {
	s, mock := newTaskStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(taskByIDQuery)).
		WithArgs(404).
		WillReturnError(sql.ErrNoRows)

	_, err := s.GetByID(404)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

// An explicit null assignee clears the column; an omitted field never
// appears in the statement.
func TestTaskStoreUpdateClearsAssignee(t *testing.T) {
	s, mock := newTaskStore(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(taskByIDQuery)).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows(taskCols).
			AddRow(1, "T", "D", "pending", 3, "A", now, now, now))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE tasks SET assignee_id = NULL, updated_at = CURRENT_TIMESTAMP WHERE id = $1")).
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(taskByIDQuery)).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows(taskCols).
			AddRow(1, "T", "D", "pending", nil, nil, now, now, now))

	task, err := s.Update(1, TaskUpdate{AssigneeID: models.OptionalInt{Set: true, Valid: false}})
	require.NoError(t, err)
	assert.Nil(t, task.AssigneeID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskStoreUpdateStatusOnly(t *testing.T) {
	s, mock := newTaskStore(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(taskByIDQuery)).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows(taskCols).
			AddRow(1, "T", "D", "pending", nil, nil, now, now, now))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE tasks SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2")).
		WithArgs(models.StatusCompleted, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(taskByIDQuery)).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows(taskCols).
			AddRow(1, "T", "D", "completed", nil, nil, now, now, now))

	status := models.StatusCompleted
	task, err := s.Update(1, TaskUpdate{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, task.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskStoreUpdateAssigneeMissing(t *testing.T) {
	s, mock := newTaskStore(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(taskByIDQuery)).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows(taskCols).
			AddRow(1, "T", "D", "pending", nil, nil, now, now, now))
	mock.ExpectQuery(regexp.QuoteMeta(assigneeCheckQuery)).
		WithArgs(99).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	_, err := s.Update(1, TaskUpdate{AssigneeID: models.OptionalInt{Set: true, Valid: true, Value: 99}})
	assert.ErrorIs(t, err, ErrAssigneeNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskStoreDeleteNotFound(t *testing.T) {
	s, mock := newTaskStore(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM tasks WHERE id = $1")).
		WithArgs(404).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, s.Delete(404), ErrTaskNotFound)
}
