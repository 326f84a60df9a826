package repository

import (
	"time"

	"github.com/NeuralTrust/AltGuard/pkg/domain/activity"
	"github.com/NeuralTrust/AltGuard/pkg/domain/actor"
	"github.com/NeuralTrust/AltGuard/pkg/domain/cooldown"
	"github.com/NeuralTrust/AltGuard/pkg/domain/fingerprint"
	"github.com/NeuralTrust/AltGuard/pkg/domain/list"
	"github.com/NeuralTrust/AltGuard/pkg/infra/database/types"
	"github.com/google/uuid"
)

type fingerprintRecord struct {
	ActorID                int64                                  `gorm:"column:actor_id;primaryKey"`
	DisplayName            string                                 `gorm:"column:display_name"`
	ExternalIdentity       string                                 `gorm:"column:external_identity"`
	AccountCreatedAt       *time.Time                             `gorm:"column:account_created_at"`
	AccountAgeHours        *float64                               `gorm:"column:account_age_hours"`
	FirstSeen              time.Time                              `gorm:"column:first_seen"`
	LastActivity           time.Time                              `gorm:"column:last_activity"`
	TrustScore             int                                    `gorm:"column:trust_score"`
	RiskLevel              string                                 `gorm:"column:risk_level"`
	TotalSuccessfulActions int                                    `gorm:"column:total_successful_actions"`
	FailedAttempts         int                                    `gorm:"column:failed_attempts"`
	Flags                  types.StringArray                      `gorm:"column:flags;type:text[]"`
	ActionHistory          types.JSON[[]fingerprint.ActionRecord] `gorm:"column:action_history;type:jsonb"`
	IdentityResolved       bool                                   `gorm:"column:identity_resolved"`
}

func (fingerprintRecord) TableName() string { return "fingerprints" }

func fingerprintToRecord(f *fingerprint.Fingerprint) *fingerprintRecord {
	history := f.ActionHistory
	if history == nil {
		history = []fingerprint.ActionRecord{}
	}
	return &fingerprintRecord{
		ActorID:                int64(f.ActorID),
		DisplayName:            f.DisplayName,
		ExternalIdentity:       f.ExternalIdentity,
		AccountCreatedAt:       f.AccountCreatedAt,
		AccountAgeHours:        f.AccountAgeHours,
		FirstSeen:              f.FirstSeen,
		LastActivity:           f.LastActivity,
		TrustScore:             f.TrustScore,
		RiskLevel:              string(f.RiskLevel),
		TotalSuccessfulActions: f.TotalSuccessfulActions,
		FailedAttempts:         f.FailedAttempts,
		Flags:                  types.StringArray(f.Flags.Strings()),
		ActionHistory:          types.NewJSON(history),
		IdentityResolved:       f.IdentityResolved,
	}
}

func (r *fingerprintRecord) toDomain() *fingerprint.Fingerprint {
	flags := fingerprint.Flags{}
	for _, raw := range r.Flags {
		flags = flags.Add(fingerprint.Flag(raw))
	}
	history := r.ActionHistory.Val
	if history == nil {
		history = []fingerprint.ActionRecord{}
	}
	return &fingerprint.Fingerprint{
		ActorID:                actor.ID(r.ActorID),
		DisplayName:            r.DisplayName,
		ExternalIdentity:       r.ExternalIdentity,
		AccountCreatedAt:       utcPtr(r.AccountCreatedAt),
		AccountAgeHours:        r.AccountAgeHours,
		FirstSeen:              r.FirstSeen.UTC(),
		LastActivity:           r.LastActivity.UTC(),
		TrustScore:             r.TrustScore,
		RiskLevel:              fingerprint.RiskLevel(r.RiskLevel),
		TotalSuccessfulActions: r.TotalSuccessfulActions,
		FailedAttempts:         r.FailedAttempts,
		Flags:                  flags,
		ActionHistory:          history,
		IdentityResolved:       r.IdentityResolved,
	}
}

type activityRecord struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ActorID    int64     `gorm:"column:actor_id"`
	Type       string    `gorm:"column:type"`
	Details    string    `gorm:"column:details"`
	Severity   int       `gorm:"column:severity"`
	OccurredAt time.Time `gorm:"column:occurred_at"`
}

func (activityRecord) TableName() string { return "suspicious_activities" }

func activityToRecord(a activity.SuspiciousActivity) *activityRecord {
	return &activityRecord{
		ID:         a.ID,
		ActorID:    int64(a.ActorID),
		Type:       string(a.Type),
		Details:    a.Details,
		Severity:   a.Severity,
		OccurredAt: a.Timestamp,
	}
}

func (r activityRecord) toDomain() activity.SuspiciousActivity {
	return activity.SuspiciousActivity{
		ID:        r.ID,
		ActorID:   actor.ID(r.ActorID),
		Type:      activity.Type(r.Type),
		Details:   r.Details,
		Timestamp: r.OccurredAt.UTC(),
		Severity:  r.Severity,
	}
}

type cooldownRecord struct {
	ActorID   int64     `gorm:"column:actor_id;primaryKey"`
	Action    string    `gorm:"column:action;primaryKey"`
	ExpiresAt time.Time `gorm:"column:expires_at"`
	Minutes   int       `gorm:"column:minutes"`
	SetAt     time.Time `gorm:"column:set_at"`
}

func (cooldownRecord) TableName() string { return "cooldowns" }

func cooldownToRecord(c cooldown.Cooldown) *cooldownRecord {
	return &cooldownRecord{
		ActorID:   int64(c.ActorID),
		Action:    c.Action,
		ExpiresAt: c.ExpiresAt,
		Minutes:   c.Minutes,
		SetAt:     c.SetAt,
	}
}

func (r cooldownRecord) toDomain() cooldown.Cooldown {
	return cooldown.Cooldown{
		ActorID:   actor.ID(r.ActorID),
		Action:    r.Action,
		ExpiresAt: r.ExpiresAt.UTC(),
		Minutes:   r.Minutes,
		SetAt:     r.SetAt.UTC(),
	}
}

type listEntryRecord struct {
	List    string    `gorm:"column:list;primaryKey"`
	ActorID int64     `gorm:"column:actor_id;primaryKey"`
	Reason  string    `gorm:"column:reason"`
	AddedBy string    `gorm:"column:added_by"`
	AddedAt time.Time `gorm:"column:added_at"`
}

func (listEntryRecord) TableName() string { return "list_entries" }

func listEntryToRecord(e list.Entry) *listEntryRecord {
	return &listEntryRecord{
		List:    string(e.Kind),
		ActorID: int64(e.ActorID),
		Reason:  e.Reason,
		AddedBy: e.AddedBy,
		AddedAt: e.AddedAt,
	}
}

func (r listEntryRecord) toDomain() list.Entry {
	return list.Entry{
		Kind:    list.Kind(r.List),
		ActorID: actor.ID(r.ActorID),
		Reason:  r.Reason,
		AddedBy: r.AddedBy,
		AddedAt: r.AddedAt.UTC(),
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
