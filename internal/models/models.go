package models

import "time"

// Task status values. The tasks table carries a CHECK constraint with the
// same set.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// User is the full users row. Password holds the bcrypt hash and is never
// serialized.
type User struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserSummary is the external representation of a user.
type UserSummary struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Summary strips everything but the public fields.
func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}

// Task is a tasks row. AssigneeName is populated from the users join on
// reads and is null when the task is unassigned.
type Task struct {
	ID           int       `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Status       string    `json:"status"`
	AssigneeID   *int      `json:"assignee_id"`
	AssigneeName *string   `json:"assignee_name"`
	DueDate      time.Time `json:"due_date"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TaskPage is the paginated result of a filtered task listing.
type TaskPage struct {
	Data []Task   `json:"data"`
	Meta PageMeta `json:"meta"`
}

type PageMeta struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// StatusStats groups task counts per status. All three keys are always
// present so total is exactly their sum.
type StatusStats struct {
	Pending          int `json:"pending"`
	InProgress       int `json:"in_progress"`
	Completed        int `json:"completed"`
	Total            int `json:"total"`
	PercentCompleted int `json:"percent_completed"`
}

// UserTaskCount is one row of the per-user task aggregation. A null user
// represents unassigned tasks.
type UserTaskCount struct {
	UserID   *int    `json:"user_id"`
	UserName *string `json:"user_name"`
	Count    int     `json:"count"`
}
