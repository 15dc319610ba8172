package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/muniworks/land-office/internal/repository"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "000001_create_users",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.UserModel{}); err != nil {
					return err
				}
				return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_users_role_active ON users (role, is_active)`).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.UserModel{})
			},
		},
		{
			ID: "000002_create_entities",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.EntityModel{}); err != nil {
					return err
				}
				indexes := []string{
					`CREATE UNIQUE INDEX IF NOT EXISTS idx_entities_reference_code ON entities (reference_code)`,
					`CREATE INDEX IF NOT EXISTS idx_entities_kind_status_created ON entities (kind, status, created_at)`,
					`CREATE INDEX IF NOT EXISTS idx_entities_created_by ON entities (created_by)`,
					`CREATE INDEX IF NOT EXISTS idx_entities_sync_status ON entities (ago_sync_status) WHERE kind = 'PROPERTY'`,
				}
				for _, sql := range indexes {
					if err := tx.Exec(sql).Error; err != nil {
						return err
					}
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.EntityModel{})
			},
		},
		{
			ID: "000003_create_audit_logs",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.AuditLogModel{}); err != nil {
					return err
				}
				return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_audit_logs_entity ON audit_logs (entity_kind, entity_id, created_at)`).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.AuditLogModel{})
			},
		},
		{
			ID: "000004_create_activity_logs",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.ActivityLogModel{}); err != nil {
					return err
				}
				return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_activity_logs_entity ON activity_logs (entity_kind, entity_id, created_at)`).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.ActivityLogModel{})
			},
		},
		{
			ID: "000005_create_notifications",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.NotificationModel{}); err != nil {
					return err
				}
				indexes := []string{
					`CREATE INDEX IF NOT EXISTS idx_notifications_recipient_created ON notifications (recipient_id, created_at)`,
					`CREATE INDEX IF NOT EXISTS idx_notifications_recipient_unread ON notifications (recipient_id) WHERE is_read = false`,
				}
				for _, sql := range indexes {
					if err := tx.Exec(sql).Error; err != nil {
						return err
					}
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.NotificationModel{})
			},
		},
		{
			ID: "000006_create_sync_retries",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.SyncRetryModel{}); err != nil {
					return err
				}
				indexes := []string{
					`CREATE INDEX IF NOT EXISTS idx_sync_retries_due ON sync_retries (next_retry_at) WHERE status = 'PENDING'`,
					`CREATE INDEX IF NOT EXISTS idx_sync_retries_property ON sync_retries (property_id, attempt_number)`,
				}
				for _, sql := range indexes {
					if err := tx.Exec(sql).Error; err != nil {
						return err
					}
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.SyncRetryModel{})
			},
		},
	})

	return m.Migrate()
}
