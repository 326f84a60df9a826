package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"
)

// StringArray maps to a postgres TEXT[] column.
type StringArray []string

func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return pq.StringArray{}.Value()
	}
	return pq.StringArray(a).Value()
}

func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = StringArray{}
		return nil
	}
	var strs pq.StringArray
	if err := strs.Scan(value); err != nil {
		return fmt.Errorf("failed to scan string array: %w", err)
	}
	*a = StringArray(strs)
	return nil
}

// JSON stores any value in a JSONB column.
type JSON[T any] struct {
	Val T
}

func NewJSON[T any](v T) JSON[T] {
	return JSON[T]{Val: v}
}

func (j JSON[T]) Value() (driver.Value, error) {
	data, err := json.Marshal(j.Val)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (j *JSON[T]) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		var zero T
		j.Val = zero
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("expected []byte, got %T", value)
	}
	return json.Unmarshal(data, &j.Val)
}
