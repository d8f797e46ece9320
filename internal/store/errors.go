package store

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the stores. Handlers match them with
// errors.Is and map them to HTTP status codes.
var (
	// ErrNotFound is the generic missing-entity error; the entity-specific
	// variants below wrap it.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would violate a uniqueness
	// constraint.
	ErrDuplicate = errors.New("entity already exists")

	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = fmt.Errorf("%w: user", ErrNotFound)

	// ErrTaskNotFound indicates the requested task does not exist.
	ErrTaskNotFound = fmt.Errorf("%w: task", ErrNotFound)

	// ErrEmailExists indicates a user with the given email already exists.
	ErrEmailExists = fmt.Errorf("%w: email", ErrDuplicate)

	// ErrAssigneeNotFound indicates a task references a user id that does
	// not exist. Mapped to a 400, not a 404: the task operation itself is
	// the invalid part.
	ErrAssigneeNotFound = errors.New("assignee not found")
)

// IsNotFound reports whether err is any missing-entity error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
