package migrations

import (
	"github.com/NeuralTrust/AltGuard/pkg/infra/database"
	"gorm.io/gorm"
)

// Tables: fingerprints, suspicious_activities, cooldowns, list_entries
func init() {
	database.RegisterMigration(database.Migration{
		ID:   "20260901_initial_schema",
		Name: "Create fingerprints, suspicious_activities, cooldowns and list_entries",

		Up: func(db *gorm.DB) error {
			statements := []string{
				`CREATE TABLE IF NOT EXISTS fingerprints (
					actor_id                 BIGINT PRIMARY KEY,
					display_name             TEXT NOT NULL DEFAULT '',
					external_identity        TEXT NOT NULL DEFAULT '',
					account_created_at       TIMESTAMPTZ,
					account_age_hours        DOUBLE PRECISION,
					first_seen               TIMESTAMPTZ NOT NULL,
					last_activity            TIMESTAMPTZ NOT NULL,
					trust_score              INTEGER NOT NULL CHECK (trust_score BETWEEN 0 AND 100),
					risk_level               TEXT NOT NULL,
					total_successful_actions INTEGER NOT NULL DEFAULT 0,
					failed_attempts          INTEGER NOT NULL DEFAULT 0,
					flags                    TEXT[] NOT NULL DEFAULT '{}',
					action_history           JSONB NOT NULL DEFAULT '[]',
					identity_resolved        BOOLEAN NOT NULL DEFAULT FALSE
				);`,
				`CREATE INDEX IF NOT EXISTS idx_fingerprints_risk_level ON fingerprints (risk_level);`,
				`CREATE TABLE IF NOT EXISTS suspicious_activities (
					id          UUID PRIMARY KEY,
					actor_id    BIGINT NOT NULL,
					type        TEXT NOT NULL,
					details     TEXT NOT NULL DEFAULT '',
					severity    INTEGER NOT NULL,
					occurred_at TIMESTAMPTZ NOT NULL
				);`,
				`CREATE INDEX IF NOT EXISTS idx_suspicious_activities_actor ON suspicious_activities (actor_id, occurred_at);`,
				`CREATE INDEX IF NOT EXISTS idx_suspicious_activities_occurred_at ON suspicious_activities (occurred_at);`,
				`CREATE TABLE IF NOT EXISTS cooldowns (
					actor_id   BIGINT NOT NULL,
					action     TEXT NOT NULL,
					expires_at TIMESTAMPTZ NOT NULL,
					minutes    INTEGER NOT NULL,
					set_at     TIMESTAMPTZ NOT NULL,
					PRIMARY KEY (actor_id, action)
				);`,
				`CREATE TABLE IF NOT EXISTS list_entries (
					list     TEXT NOT NULL CHECK (list IN ('blacklist', 'whitelist')),
					actor_id BIGINT NOT NULL,
					reason   TEXT NOT NULL,
					added_by TEXT NOT NULL,
					added_at TIMESTAMPTZ NOT NULL,
					PRIMARY KEY (list, actor_id)
				);`,
			}
			for _, stmt := range statements {
				if err := db.Exec(stmt).Error; err != nil {
					return err
				}
			}
			return nil
		},

		Down: func(db *gorm.DB) error {
			for _, table := range []string{"list_entries", "cooldowns", "suspicious_activities", "fingerprints"} {
				if err := db.Exec("DROP TABLE IF EXISTS " + table).Error; err != nil {
					return err
				}
			}
			return nil
		},
	})
}
