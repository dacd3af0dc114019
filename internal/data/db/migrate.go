package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/contentpilot/contentpilot-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&domain.WorkspaceSnapshot{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
