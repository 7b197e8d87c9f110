// Package repo – Settings repository.
//
// The global row is read at the start of every orchestrator pass so that
// operator changes take effect without a restart. A missing row is not an
// error: callers get the hardcoded defaults instead.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nkoureas/go-engage-backend/internal/domain"
)

// GetSettings returns the global settings row, or the hardcoded defaults
// when it has not been created yet.
func GetSettings(ctx context.Context, db *gorm.DB) (domain.Settings, error) {
	var s domain.Settings
	err := db.WithContext(ctx).First(&s, "id = ?", domain.SettingsID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.DefaultSettings(), nil
	}
	if err != nil {
		return domain.DefaultSettings(), err
	}
	return s, nil
}

// SaveSettings upserts the global settings row.
func SaveSettings(ctx context.Context, db *gorm.DB, s domain.Settings) (domain.Settings, error) {
	s.ID = domain.SettingsID
	s.UpdatedAt = time.Now().UTC()
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&s).Error
	return s, err
}
