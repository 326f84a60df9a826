package actor

import (
	"errors"
	"strconv"
	"strings"
)

var (
	ErrInvalidActorID = errors.New("actor id must be a positive integer")
	ErrInvalidAction  = errors.New("action must be 1-64 characters of [a-z0-9_.:-]")
)

// ID is the opaque numeric account identifier of an actor.
type ID int64

func ParseID(value string) (ID, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, ErrInvalidActorID
	}
	id := ID(n)
	if err := id.Validate(); err != nil {
		return 0, err
	}
	return id, nil
}

func (id ID) Validate() error {
	if id <= 0 {
		return ErrInvalidActorID
	}
	return nil
}

func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ValidateAction checks the action identifier used to key cooldowns.
func ValidateAction(action string) error {
	if action == "" || len(action) > 64 {
		return ErrInvalidAction
	}
	for _, r := range action {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		case r == '_', r == '-', r == '.', r == ':':
		default:
			return ErrInvalidAction
		}
	}
	return nil
}
