package list

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/NeuralTrust/AltGuard/pkg/domain/actor"
)

const MaxReasonLength = 512

var ErrInvalidReason = errors.New("invalid list reason")

type Kind string

const (
	Blacklist Kind = "blacklist"
	Whitelist Kind = "whitelist"
)

func ParseKind(value string) (Kind, error) {
	switch Kind(value) {
	case Blacklist, Whitelist:
		return Kind(value), nil
	default:
		return "", fmt.Errorf("invalid list kind %q", value)
	}
}

// Entry is the membership record of one actor in a list.
type Entry struct {
	Kind    Kind      `json:"list"`
	ActorID actor.ID  `json:"actor_id"`
	Reason  string    `json:"reason"`
	AddedBy string    `json:"added_by,omitempty"`
	AddedAt time.Time `json:"added_at"`
}

// ValidateReason trims reason and rejects empty or oversized values.
func ValidateReason(reason string) (string, error) {
	r := strings.TrimSpace(reason)
	if r == "" {
		return "", fmt.Errorf("%w: reason is required", ErrInvalidReason)
	}
	if len(r) > MaxReasonLength {
		return "", fmt.Errorf("%w: reason exceeds %d characters", ErrInvalidReason, MaxReasonLength)
	}
	return r, nil
}
