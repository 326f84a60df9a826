package domain

import (
	"errors"
	"fmt"
)

var ErrEntityNotFound = errors.New("entity not found")

type notFoundError struct {
	EntityType string
	ID         string
}

func (e *notFoundError) Error() string {
	return fmt.Sprintf("%s with ID '%s' not found", e.EntityType, e.ID)
}

func (e *notFoundError) Is(target error) bool {
	return target == ErrEntityNotFound
}

func NewNotFoundError(entityType string, id fmt.Stringer) error {
	return &notFoundError{
		EntityType: entityType,
		ID:         id.String(),
	}
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrEntityNotFound)
}
