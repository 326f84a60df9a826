package fingerprint

import (
	"strings"
	"time"

	"github.com/NeuralTrust/AltGuard/pkg/domain/actor"
)

const (
	MaxTrustScore     = 100
	MinTrustScore     = 0
	InitialTrustScore = MaxTrustScore
)

type ActionRecord struct {
	Action    string    `json:"action_id"`
	Timestamp time.Time `json:"timestamp"`
}

// Fingerprint is the durable scoring record of one actor. IdentityResolved is
// set once identity facts have been looked up, so the lookup is not repeated.
type Fingerprint struct {
	ActorID                actor.ID       `json:"actor_id"`
	DisplayName            string         `json:"display_name,omitempty"`
	ExternalIdentity       string         `json:"external_identity,omitempty"`
	AccountCreatedAt       *time.Time     `json:"account_created_at,omitempty"`
	AccountAgeHours        *float64       `json:"account_age_hours,omitempty"`
	FirstSeen              time.Time      `json:"first_seen"`
	LastActivity           time.Time      `json:"last_activity"`
	TrustScore             int            `json:"trust_score"`
	RiskLevel              RiskLevel      `json:"risk_level"`
	TotalSuccessfulActions int            `json:"total_successful_actions"`
	FailedAttempts         int            `json:"failed_attempts"`
	Flags                  Flags          `json:"flags"`
	ActionHistory          []ActionRecord `json:"action_history"`
	IdentityResolved       bool           `json:"identity_resolved"`
}

func New(id actor.ID, now time.Time) *Fingerprint {
	return &Fingerprint{
		ActorID:       id,
		FirstSeen:     now,
		LastActivity:  now,
		TrustScore:    InitialTrustScore,
		RiskLevel:     RiskLow,
		Flags:         Flags{},
		ActionHistory: []ActionRecord{},
	}
}

func ClampTrust(score int) int {
	if score < MinTrustScore {
		return MinTrustScore
	}
	if score > MaxTrustScore {
		return MaxTrustScore
	}
	return score
}

// AdjustTrust applies delta and clamps the result to [0,100].
func (f *Fingerprint) AdjustTrust(delta int) int {
	f.TrustScore = ClampTrust(f.TrustScore + delta)
	return f.TrustScore
}

func (f *Fingerprint) SetTrust(score int) {
	f.TrustScore = ClampTrust(score)
}

func (f *Fingerprint) RecalculateRiskLevel() RiskLevel {
	f.RiskLevel = RiskLevelFor(f.TrustScore, f.FailedAttempts, f.Flags)
	return f.RiskLevel
}

func (f *Fingerprint) AddFlag(flag Flag) {
	f.Flags = f.Flags.Add(flag)
}

func (f *Fingerprint) RemoveFlag(flag Flag) {
	f.Flags = f.Flags.Remove(flag)
}

func (f *Fingerprint) Touch(now time.Time) {
	if now.After(f.LastActivity) {
		f.LastActivity = now
	}
}

// FreezeAccountAge records the account creation time and derives the age
// once. Later calls are no-ops, so the age is never recomputed on read.
func (f *Fingerprint) FreezeAccountAge(createdAt time.Time, now time.Time) bool {
	if f.AccountAgeHours != nil {
		return false
	}
	created := createdAt.UTC()
	age := now.Sub(created).Hours()
	if age < 0 {
		age = 0
	}
	f.AccountCreatedAt = &created
	f.AccountAgeHours = &age
	return true
}

// IsAccountTooNew reports whether the frozen account age is below minHours.
// It reports false when the age is unknown.
func (f *Fingerprint) IsAccountTooNew(minHours float64) bool {
	return f.AccountAgeHours != nil && *f.AccountAgeHours < minHours
}

// RecordAction appends to the action history and drops entries older than
// keep.
func (f *Fingerprint) RecordAction(action string, now time.Time, keep time.Duration) {
	cutoff := now.Add(-keep)
	history := make([]ActionRecord, 0, len(f.ActionHistory)+1)
	for _, rec := range f.ActionHistory {
		if !rec.Timestamp.Before(cutoff) {
			history = append(history, rec)
		}
	}
	f.ActionHistory = append(history, ActionRecord{Action: action, Timestamp: now})
}

// ActionsOnDay counts history entries of any action that fall on the UTC
// calendar day containing now.
func (f *Fingerprint) ActionsOnDay(now time.Time) int {
	y, m, d := now.UTC().Date()
	count := 0
	for _, rec := range f.ActionHistory {
		ry, rm, rd := rec.Timestamp.UTC().Date()
		if ry == y && rm == m && rd == d {
			count++
		}
	}
	return count
}

// Names returns the normalized-comparable identity names of the fingerprint.
func (f *Fingerprint) Names() []string {
	var names []string
	if f.DisplayName != "" {
		names = append(names, f.DisplayName)
	}
	if f.ExternalIdentity != "" && !strings.EqualFold(f.ExternalIdentity, f.DisplayName) {
		names = append(names, f.ExternalIdentity)
	}
	return names
}

func (f *Fingerprint) Clone() *Fingerprint {
	if f == nil {
		return nil
	}
	c := *f
	if f.AccountCreatedAt != nil {
		t := *f.AccountCreatedAt
		c.AccountCreatedAt = &t
	}
	if f.AccountAgeHours != nil {
		h := *f.AccountAgeHours
		c.AccountAgeHours = &h
	}
	c.Flags = append(Flags{}, f.Flags...)
	c.ActionHistory = append([]ActionRecord{}, f.ActionHistory...)
	return &c
}
