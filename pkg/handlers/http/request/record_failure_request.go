package request

import (
	"errors"
	"strings"
)

type RecordFailureRequest struct {
	Reason string `json:"reason"`
}

func (r *RecordFailureRequest) Validate() error {
	if strings.TrimSpace(r.Reason) == "" {
		return errors.New("reason is required")
	}
	return nil
}
