package store

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/lib/pq"

	"taskboard/internal/models"
)

// taskColumns is the read shape shared by every task query: the row plus
// the assignee's name from the users join.
const taskColumns = "t.id, t.title, t.description, t.status, t.assignee_id, u.name, t.due_date, t.created_at, t.updated_at"

const taskFrom = "FROM tasks t LEFT JOIN users u ON u.id = t.assignee_id"

// TaskStore runs all SQL against the tasks table.
type TaskStore struct {
	db *sql.DB
}

func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db}
}

// TaskCreate carries a validated create request. Status defaults to pending
// when empty.
type TaskCreate struct {
	Title       string
	Description string
	Status      string
	AssigneeID  *int
	DueDate     time.Time
}

// TaskUpdate carries the fields of a partial task update. Nil pointer means
// not supplied; AssigneeID distinguishes omitted, null and value.
type TaskUpdate struct {
	Title       *string
	Description *string
	Status      *string
	AssigneeID  models.OptionalInt
	DueDate     *time.Time
}

// TaskFilter is the optional filter set of a task listing, plus pagination.
type TaskFilter struct {
	Status     string
	AssigneeID *int
	DueFrom    *time.Time
	DueTo      *time.Time
	Page       int
	Limit      int
}

// whereClause renders the filter predicates once so the count query and the
// data query cannot drift apart.
func (f TaskFilter) whereClause() (string, []interface{}) {
	conds := []string{}
	args := []interface{}{}
	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, fmt.Sprintf("t.status = $%d", len(args)))
	}
	if f.AssigneeID != nil {
		args = append(args, *f.AssigneeID)
		conds = append(conds, fmt.Sprintf("t.assignee_id = $%d", len(args)))
	}
	if f.DueFrom != nil {
		args = append(args, *f.DueFrom)
		conds = append(conds, fmt.Sprintf("t.due_date >= $%d", len(args)))
	}
	if f.DueTo != nil {
		args = append(args, *f.DueTo)
		conds = append(conds, fmt.Sprintf("t.due_date <= $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// normalize clamps pagination to sane values: page and limit are at least 1,
// a missing limit becomes 20.
func (f TaskFilter) normalize() TaskFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit == 0 {
		f.Limit = 20
	}
	if f.Limit < 1 {
		f.Limit = 1
	}
	return f
}

func scanTask(row interface{ Scan(...interface{}) error }) (models.Task, error) {
	var (
		t            models.Task
		assigneeID   sql.NullInt64
		assigneeName sql.NullString
	)
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Status, &assigneeID, &assigneeName, &t.DueDate, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return models.Task{}, err
	}
	if assigneeID.Valid {
		id := int(assigneeID.Int64)
		t.AssigneeID = &id
	}
	if assigneeName.Valid {
		name := assigneeName.String
		t.AssigneeName = &name
	}
	return t, nil
}

// assigneeExists verifies the referenced user at write time. The FK
// constraint remains the final authority.
func (s *TaskStore) assigneeExists(id int) error {
	var exists bool
	err := s.db.QueryRow("SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)", id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking assignee: %w", err)
	}
	if !exists {
		return ErrAssigneeNotFound
	}
	return nil
}

func (s *TaskStore) Create(in TaskCreate) (models.Task, error) {
	if in.AssigneeID != nil {
		if err := s.assigneeExists(*in.AssigneeID); err != nil {
			return models.Task{}, err
		}
	}
	if in.Status == "" {
		in.Status = models.StatusPending
	}

	var id int
	err := s.db.QueryRow(
		"INSERT INTO tasks (title, description, status, assignee_id, due_date) VALUES ($1, $2, $3, $4, $5) RETURNING id",
		in.Title, in.Description, in.Status, assigneeArg(in.AssigneeID), in.DueDate,
	).Scan(&id)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == foreignKeyViolation {
			return models.Task{}, ErrAssigneeNotFound
		}
		return models.Task{}, fmt.Errorf("inserting task: %w", err)
	}
	return s.GetByID(id)
}

func (s *TaskStore) GetByID(id int) (models.Task, error) {
	row := s.db.QueryRow("SELECT "+taskColumns+" "+taskFrom+" WHERE t.id = $1", id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, ErrTaskNotFound
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("fetching task: %w", err)
	}
	return t, nil
}

// List returns one page of tasks matching the filter, ordered by due date
// ascending, along with the total count of matches.
func (s *TaskStore) List(f TaskFilter) (models.TaskPage, error) {
	f = f.normalize()
	where, args := f.whereClause()

	var total int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM tasks t"+where, args...).Scan(&total); err != nil {
		return models.TaskPage{}, fmt.Errorf("counting tasks: %w", err)
	}

	offset := (f.Page - 1) * f.Limit
	dataArgs := append(args, f.Limit, offset)
	query := fmt.Sprintf(
		"SELECT %s %s%s ORDER BY t.due_date ASC LIMIT $%d OFFSET $%d",
		taskColumns, taskFrom, where, len(args)+1, len(args)+2,
	)
	rows, err := s.db.Query(query, dataArgs...)
	if err != nil {
		return models.TaskPage{}, fmt.Errorf("listing tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return models.TaskPage{}, fmt.Errorf("scanning task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return models.TaskPage{}, fmt.Errorf("iterating tasks: %w", err)
	}

	return models.TaskPage{
		Data: tasks,
		Meta: models.PageMeta{Total: total, Page: f.Page, Limit: f.Limit},
	}, nil
}

// DueSoon returns non-completed tasks due within [now, now+24h], both ends
// inclusive, ordered by due date.
func (s *TaskStore) DueSoon(now time.Time) ([]models.Task, error) {
	rows, err := s.db.Query(
		"SELECT "+taskColumns+" "+taskFrom+
			" WHERE t.due_date >= $1 AND t.due_date <= $2 AND t.status <> $3 ORDER BY t.due_date ASC",
		now, now.Add(24*time.Hour), models.StatusCompleted,
	)
	if err != nil {
		return nil, fmt.Errorf("listing due-soon tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tasks: %w", err)
	}
	return tasks, nil
}

// StatsByStatus group-counts all tasks by status. Absent statuses report
// zero so total is always the sum of the three keys.
func (s *TaskStore) StatsByStatus() (models.StatusStats, error) {
	rows, err := s.db.Query("SELECT status, COUNT(*) FROM tasks GROUP BY status")
	if err != nil {
		return models.StatusStats{}, fmt.Errorf("counting tasks by status: %w", err)
	}
	defer rows.Close()

	var stats models.StatusStats
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return models.StatusStats{}, fmt.Errorf("scanning status count: %w", err)
		}
		switch status {
		case models.StatusPending:
			stats.Pending = count
		case models.StatusInProgress:
			stats.InProgress = count
		case models.StatusCompleted:
			stats.Completed = count
		}
	}
	if err := rows.Err(); err != nil {
		return models.StatusStats{}, fmt.Errorf("iterating status counts: %w", err)
	}

	stats.Total = stats.Pending + stats.InProgress + stats.Completed
	stats.PercentCompleted = percentCompleted(stats.Completed, stats.Total)
	return stats, nil
}

func percentCompleted(completed, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}

// StatsByUser counts tasks per assignee. The null group collects unassigned
// tasks.
func (s *TaskStore) StatsByUser() ([]models.UserTaskCount, error) {
	rows, err := s.db.Query(
		"SELECT u.id, u.name, COUNT(t.id) FROM tasks t LEFT JOIN users u ON u.id = t.assignee_id GROUP BY u.id, u.name",
	)
	if err != nil {
		return nil, fmt.Errorf("counting tasks by user: %w", err)
	}
	defer rows.Close()

	counts := []models.UserTaskCount{}
	for rows.Next() {
		var (
			userID   sql.NullInt64
			userName sql.NullString
			row      models.UserTaskCount
		)
		if err := rows.Scan(&userID, &userName, &row.Count); err != nil {
			return nil, fmt.Errorf("scanning user count: %w", err)
		}
		if userID.Valid {
			id := int(userID.Int64)
			row.UserID = &id
		}
		if userName.Valid {
			name := userName.String
			row.UserName = &name
		}
		counts = append(counts, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating user counts: %w", err)
	}
	return counts, nil
}

// Update applies only the supplied fields and returns the updated row.
func (s *TaskStore) Update(id int, upd TaskUpdate) (models.Task, error) {
	if _, err := s.GetByID(id); err != nil {
		return models.Task{}, err
	}
	if upd.AssigneeID.Set && upd.AssigneeID.Valid {
		if err := s.assigneeExists(upd.AssigneeID.Value); err != nil {
			return models.Task{}, err
		}
	}

	set := []string{}
	args := []interface{}{}
	if upd.Title != nil {
		args = append(args, *upd.Title)
		set = append(set, fmt.Sprintf("title = $%d", len(args)))
	}
	if upd.Description != nil {
		args = append(args, *upd.Description)
		set = append(set, fmt.Sprintf("description = $%d", len(args)))
	}
	if upd.Status != nil {
		args = append(args, *upd.Status)
		set = append(set, fmt.Sprintf("status = $%d", len(args)))
	}
	if upd.AssigneeID.Set {
		if upd.AssigneeID.Valid {
			args = append(args, upd.AssigneeID.Value)
			set = append(set, fmt.Sprintf("assignee_id = $%d", len(args)))
		} else {
			set = append(set, "assignee_id = NULL")
		}
	}
	if upd.DueDate != nil {
		args = append(args, *upd.DueDate)
		set = append(set, fmt.Sprintf("due_date = $%d", len(args)))
	}
	set = append(set, "updated_at = CURRENT_TIMESTAMP")

	args = append(args, id)
	query := fmt.Sprintf("UPDATE tasks SET %s WHERE id = $%d", strings.Join(set, ", "), len(args))
	if _, err := s.db.Exec(query, args...); err != nil {
		if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == foreignKeyViolation {
			return models.Task{}, ErrAssigneeNotFound
		}
		return models.Task{}, fmt.Errorf("updating task: %w", err)
	}
	return s.GetByID(id)
}

func (s *TaskStore) Delete(id int) error {
	res, err := s.db.Exec("DELETE FROM tasks WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	if affected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// assigneeArg converts an optional assignee to a driver-friendly value.
func assigneeArg(id *int) interface{} {
	if id == nil {
		return nil
	}
	return *id
}
