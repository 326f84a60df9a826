package request

import (
	"errors"

	"github.com/NeuralTrust/AltGuard/pkg/domain/activity"
)

type ReportActivityRequest struct {
	Type    string `json:"type"`
	Details string `json:"details"`
}

// Validate resolves the activity type; unknown types are rejected here so the
// engine never sees them.
func (r *ReportActivityRequest) Validate() (activity.Type, error) {
	if r.Type == "" {
		return "", errors.New("type is required")
	}
	return activity.ParseType(r.Type)
}
