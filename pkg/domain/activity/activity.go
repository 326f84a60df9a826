package activity

import (
	"errors"
	"fmt"
	"time"

	"github.com/NeuralTrust/AltGuard/pkg/domain/actor"
	"github.com/google/uuid"
)

var ErrUnknownActivityType = errors.New("unknown activity type")

type Type string

const (
	TypeNewAccount           Type = "new_account"
	TypeSimilarUsername      Type = "similar_username"
	TypeMultipleAttempts     Type = "multiple_attempts"
	TypeRapidRequests        Type = "rapid_requests"
	TypeBlacklistedPattern   Type = "blacklisted_pattern"
	TypeVerifiedAlt          Type = "verified_alt"
	TypeDuplicateFingerprint Type = "duplicate_fingerprint"
	TypeBlacklisted          Type = "blacklisted"
)

const DefaultSeverity = 5

var severities = map[Type]int{
	TypeNewAccount:           3,
	TypeSimilarUsername:      5,
	TypeMultipleAttempts:     4,
	TypeRapidRequests:        6,
	TypeBlacklistedPattern:   8,
	TypeVerifiedAlt:          10,
	TypeDuplicateFingerprint: 7,
	TypeBlacklisted:          DefaultSeverity,
}

// SeverityOf returns the fixed weight for t, or DefaultSeverity for types
// missing from the table.
func SeverityOf(t Type) int {
	if s, ok := severities[t]; ok {
		return s
	}
	return DefaultSeverity
}

func (t Type) Known() bool {
	_, ok := severities[t]
	return ok
}

// ParseType accepts only the types callers are allowed to report.
func ParseType(value string) (Type, error) {
	t := Type(value)
	if !t.Known() {
		return "", fmt.Errorf("%w: %q", ErrUnknownActivityType, value)
	}
	return t, nil
}

type SuspiciousActivity struct {
	ID        uuid.UUID `json:"id"`
	ActorID   actor.ID  `json:"actor_id"`
	Type      Type      `json:"type"`
	Details   string    `json:"details"`
	Timestamp time.Time `json:"timestamp"`
	Severity  int       `json:"severity"`
}

func New(id actor.ID, t Type, details string, now time.Time) SuspiciousActivity {
	return SuspiciousActivity{
		ID:        uuid.New(),
		ActorID:   id,
		Type:      t,
		Details:   details,
		Timestamp: now,
		Severity:  SeverityOf(t),
	}
}

// SumSeverity adds the severity of every entry at or after since.
func SumSeverity(entries []SuspiciousActivity, since time.Time) int {
	total := 0
	for _, e := range entries {
		if !e.Timestamp.Before(since) {
			total += e.Severity
		}
	}
	return total
}

func CountSince(entries []SuspiciousActivity, since time.Time) int {
	n := 0
	for _, e := range entries {
		if !e.Timestamp.Before(since) {
			n++
		}
	}
	return n
}
