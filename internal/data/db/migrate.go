package db

import (
	"fmt"

	types "github.com/yungbote/mysteryparty-backend/internal/domain"
	"gorm.io/gorm"
)

// ChangeChannel is the LISTEN/NOTIFY channel carrying changed conversation ids.
const ChangeChannel = "generation_job_changed"

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(types.Models()...)
}

func EnsureGenerationIndexes(db *gorm.DB) error {
	// Latest-row lookup per conversation.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_generation_job_conversation_updated
		ON generation_job (conversation_id, updated_at DESC);
	`).Error; err != nil {
		return fmt.Errorf("create idx_generation_job_conversation_updated: %w", err)
	}
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_mystery_character_package_position
		ON mystery_character (package_id, position);
	`).Error; err != nil {
		return fmt.Errorf("create idx_mystery_character_package_position: %w", err)
	}
	// Access tokens are unique once assigned.
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_mystery_package_host_token
		ON mystery_package (host_access_token)
		WHERE host_access_token <> '';
	`).Error; err != nil {
		return fmt.Errorf("create idx_mystery_package_host_token: %w", err)
	}
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_mystery_character_access_token
		ON mystery_character (access_token)
		WHERE access_token <> '';
	`).Error; err != nil {
		return fmt.Errorf("create idx_mystery_character_access_token: %w", err)
	}
	return nil
}

// EnsureChangeTriggers installs row triggers that NOTIFY ChangeChannel with the
// conversation id whenever a job row or a package row is written. Postgres only.
func EnsureChangeTriggers(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE OR REPLACE FUNCTION notify_generation_changed() RETURNS trigger AS $$
		BEGIN
			PERFORM pg_notify('` + ChangeChannel + `', NEW.conversation_id::text);
			RETURN NEW;
		END;
		$$ LANGUAGE plpgsql;
	`).Error; err != nil {
		return fmt.Errorf("create notify_generation_changed: %w", err)
	}
	for _, table := range []string{"generation_job", "mystery_package"} {
		trigger := table + "_changed"
		if err := db.Exec(fmt.Sprintf(`DROP TRIGGER IF EXISTS %s ON %s;`, trigger, table)).Error; err != nil {
			return fmt.Errorf("drop trigger %s: %w", trigger, err)
		}
		if err := db.Exec(fmt.Sprintf(`
			CREATE TRIGGER %s
			AFTER INSERT OR UPDATE ON %s
			FOR EACH ROW EXECUTE FUNCTION notify_generation_changed();
		`, trigger, table)).Error; err != nil {
			return fmt.Errorf("create trigger %s: %w", trigger, err)
		}
	}
	return nil
}

func (s *Service) AutoMigrateAll() error {
	s.log.Info("Auto migrating tables...")
	if err := AutoMigrateAll(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	if err := EnsureGenerationIndexes(s.db); err != nil {
		s.log.Error("Generation index migration failed", "error", err)
		return err
	}
	if s.SupportsNotify() {
		if err := EnsureChangeTriggers(s.db); err != nil {
			s.log.Error("Change trigger migration failed", "error", err)
			return err
		}
	}
	return nil
}
