package db

import (
	"fmt"

	"github.com/google/uuid"
)

// NotFoundError is returned when an update or delete matched no row owned
// by the requesting user.
type NotFoundError struct {
	Kind string
	ID   uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}
