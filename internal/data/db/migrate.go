package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/dietoteka/dietoteka-backend/internal/domain"
)

func Models() []interface{} {
	return []interface{}{
		&types.User{},
		&types.Session{},
		&types.Invitation{},
		&types.PasswordReset{},
		&types.WeightEntry{},
		&types.PzkCategory{},
		&types.PzkMaterial{},
		&types.MaterialPdf{},
		&types.MaterialVideo{},
		&types.ModuleAccess{},
		&types.PzkNote{},
		&types.PzkReview{},
		&types.PurchaseTransaction{},
		&types.AuditEvent{},
	}
}

func (s *Service) AutoMigrateAll() error {
	if err := AutoMigrate(s.db); err != nil {
		return err
	}
	s.log.Info("Auto migration complete")
	return nil
}

func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
