package engine

type Reason string

const (
	ReasonAllowed       Reason = "allowed"
	ReasonBlacklisted   Reason = "blacklisted"
	ReasonCooldown      Reason = "cooldown"
	ReasonDailyLimit    Reason = "daily_limit"
	ReasonAccountTooNew Reason = "account_too_new"
	ReasonLowTrust      Reason = "low_trust"
)

// LowTrustFloor is the trust score below which every action is denied.
const LowTrustFloor = 30

// Decision is the outcome of an action check. A denial is a normal result,
// not an error.
type Decision struct {
	Allowed           bool   `json:"allowed"`
	Reason            Reason `json:"reason"`
	RetryAfterSeconds int64  `json:"retry_after_seconds,omitempty"`
}

func allow() Decision {
	return Decision{Allowed: true, Reason: ReasonAllowed}
}

func deny(reason Reason, retryAfter int64) Decision {
	return Decision{Allowed: false, Reason: reason, RetryAfterSeconds: retryAfter}
}
