// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Account
// model.
//
// The repository follows a "thin" approach: it performs persistence and simple
// query composition, leaving business rules to the services package.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nkoureas/go-engage-backend/internal/domain"
)

// CreateAccount inserts a new automation account.
func CreateAccount(ctx context.Context, db *gorm.DB, a *domain.Account) (*domain.Account, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.VoiceTone == "" {
		a.VoiceTone = "professional"
	}
	a.CreatedAt = time.Now().UTC()
	if err := db.WithContext(ctx).Create(a).Error; err != nil {
		return nil, err
	}
	return a, nil
}

// GetAccount fetches an account by ID.
func GetAccount(ctx context.Context, db *gorm.DB, id string) (*domain.Account, error) {
	var a domain.Account
	if err := db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// ListAccounts returns all accounts, newest first.
func ListAccounts(ctx context.Context, db *gorm.DB) ([]domain.Account, error) {
	var out []domain.Account
	err := db.WithContext(ctx).Order("created_at DESC").Find(&out).Error
	return out, err
}

// ListActiveAccounts returns accounts with automation enabled.
func ListActiveAccounts(ctx context.Context, db *gorm.DB) ([]domain.Account, error) {
	var out []domain.Account
	err := db.WithContext(ctx).Where("is_active = ?", true).Order("created_at").Find(&out).Error
	return out, err
}

// UpdateAccount persists changes to an existing account row.
func UpdateAccount(ctx context.Context, db *gorm.DB, a *domain.Account) error {
	return db.WithContext(ctx).Save(a).Error
}

// SetAccountActive toggles the automation flag. Deactivation halts every
// pass for the account without deleting its history.
func SetAccountActive(ctx context.Context, db *gorm.DB, id string, active bool) error {
	res := db.WithContext(ctx).Model(&domain.Account{}).Where("id = ?", id).Update("is_active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteAccount soft-deletes an account. Owned rows remain but every
// orchestrator query excludes them via the account join.
func DeleteAccount(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Delete(&domain.Account{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
