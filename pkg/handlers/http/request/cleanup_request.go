package request

import "errors"

type CleanupRequest struct {
	OlderThanDays *int `json:"older_than_days"`
}

// Days returns the requested retention, falling back to def when the field
// is omitted.
func (r *CleanupRequest) Days(def int) (int, error) {
	if r.OlderThanDays == nil {
		return def, nil
	}
	if *r.OlderThanDays < 1 {
		return 0, errors.New("older_than_days must be at least 1")
	}
	return *r.OlderThanDays, nil
}
