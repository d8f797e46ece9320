package handlers

import (
	"database/sql"

	"taskboard/internal/store"
)

var (
	users *store.UserStore
	tasks *store.TaskStore
)

// Init wires the handlers to a database. Must be called before any route is
// served.
func Init(db *sql.DB) {
	users = store.NewUserStore(db)
	tasks = store.NewTaskStore(db)
}
