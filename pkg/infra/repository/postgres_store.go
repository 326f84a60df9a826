package repository

import (
	"context"
	"errors"
	"time"

	"github.com/NeuralTrust/AltGuard/pkg/domain/activity"
	"github.com/NeuralTrust/AltGuard/pkg/domain/actor"
	"github.com/NeuralTrust/AltGuard/pkg/domain/cooldown"
	domain "github.com/NeuralTrust/AltGuard/pkg/domain/errors"
	"github.com/NeuralTrust/AltGuard/pkg/domain/fingerprint"
	"github.com/NeuralTrust/AltGuard/pkg/domain/list"
	"github.com/NeuralTrust/AltGuard/pkg/domain/store"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresStore struct {
	db *gorm.DB
}

var _ store.Store = (*PostgresStore)(nil)

func NewPostgresStore(db *gorm.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) LoadFingerprint(ctx context.Context, id actor.ID) (*fingerprint.Fingerprint, error) {
	var rec fingerprintRecord
	if err := s.db.WithContext(ctx).Where("actor_id = ?", int64(id)).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("fingerprint", id)
		}
		return nil, err
	}
	return rec.toDomain(), nil
}

func (s *PostgresStore) ListFingerprints(ctx context.Context) ([]*fingerprint.Fingerprint, error) {
	var recs []fingerprintRecord
	if err := s.db.WithContext(ctx).Order("actor_id").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]*fingerprint.Fingerprint, 0, len(recs))
	for i := range recs {
		out = append(out, recs[i].toDomain())
	}
	return out, nil
}

func (s *PostgresStore) ListActivities(ctx context.Context, id actor.ID) ([]activity.SuspiciousActivity, error) {
	var recs []activityRecord
	if err := s.db.WithContext(ctx).
		Where("actor_id = ?", int64(id)).
		Order("occurred_at").
		Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]activity.SuspiciousActivity, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *PostgresStore) CountActivitiesSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&activityRecord{}).
		Where("occurred_at >= ?", since).
		Count(&count).Error
	return count, err
}

func (s *PostgresStore) LoadCooldown(ctx context.Context, id actor.ID, action string) (*cooldown.Cooldown, error) {
	var rec cooldownRecord
	if err := s.db.WithContext(ctx).
		Where("actor_id = ? AND action = ?", int64(id), action).
		First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("cooldown", cooldown.Cooldown{ActorID: id, Action: action})
		}
		return nil, err
	}
	c := rec.toDomain()
	return &c, nil
}

func (s *PostgresStore) ListCooldowns(ctx context.Context) ([]cooldown.Cooldown, error) {
	var recs []cooldownRecord
	if err := s.db.WithContext(ctx).Order("actor_id, action").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]cooldown.Cooldown, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *PostgresStore) ListEntries(ctx context.Context, kind list.Kind) ([]list.Entry, error) {
	var recs []listEntryRecord
	if err := s.db.WithContext(ctx).
		Where("list = ?", string(kind)).
		Order("actor_id").
		Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]list.Entry, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *PostgresStore) SaveFingerprint(ctx context.Context, f *fingerprint.Fingerprint) error {
	return s.writer(s.db).SaveFingerprint(ctx, f)
}

func (s *PostgresStore) AppendActivity(ctx context.Context, a activity.SuspiciousActivity) error {
	return s.writer(s.db).AppendActivity(ctx, a)
}

func (s *PostgresStore) SaveCooldown(ctx context.Context, c cooldown.Cooldown) error {
	return s.writer(s.db).SaveCooldown(ctx, c)
}

func (s *PostgresStore) DeleteCooldown(ctx context.Context, id actor.ID, action string) error {
	return s.writer(s.db).DeleteCooldown(ctx, id, action)
}

func (s *PostgresStore) AddToList(ctx context.Context, e list.Entry) error {
	return s.writer(s.db).AddToList(ctx, e)
}

func (s *PostgresStore) RemoveFromList(ctx context.Context, kind list.Kind, id actor.ID) error {
	return s.writer(s.db).RemoveFromList(ctx, kind, id)
}

func (s *PostgresStore) Atomically(ctx context.Context, fn func(w store.Writer) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(s.writer(tx))
	})
}

func (s *PostgresStore) DeleteActivitiesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("occurred_at < ?", cutoff).
		Delete(&activityRecord{})
	return result.RowsAffected, result.Error
}

func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *PostgresStore) writer(db *gorm.DB) *gormWriter {
	return &gormWriter{db: db}
}

type gormWriter struct {
	db *gorm.DB
}

func (w *gormWriter) SaveFingerprint(ctx context.Context, f *fingerprint.Fingerprint) error {
	return w.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "actor_id"}},
		UpdateAll: true,
	}).Create(fingerprintToRecord(f)).Error
}

func (w *gormWriter) AppendActivity(ctx context.Context, a activity.SuspiciousActivity) error {
	return w.db.WithContext(ctx).Create(activityToRecord(a)).Error
}

func (w *gormWriter) SaveCooldown(ctx context.Context, c cooldown.Cooldown) error {
	return w.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "actor_id"}, {Name: "action"}},
		DoUpdates: clause.AssignmentColumns([]string{"expires_at", "minutes", "set_at"}),
	}).Create(cooldownToRecord(c)).Error
}

func (w *gormWriter) DeleteCooldown(ctx context.Context, id actor.ID, action string) error {
	return w.db.WithContext(ctx).
		Where("actor_id = ? AND action = ?", int64(id), action).
		Delete(&cooldownRecord{}).Error
}

func (w *gormWriter) AddToList(ctx context.Context, e list.Entry) error {
	return w.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "list"}, {Name: "actor_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"reason", "added_by", "added_at"}),
	}).Create(listEntryToRecord(e)).Error
}

func (w *gormWriter) RemoveFromList(ctx context.Context, kind list.Kind, id actor.ID) error {
	return w.db.WithContext(ctx).
		Where("list = ? AND actor_id = ?", string(kind), int64(id)).
		Delete(&listEntryRecord{}).Error
}
