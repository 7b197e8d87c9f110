// Package repo – RateLimitCounter repository.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nkoureas/go-engage-backend/internal/domain"
)

// GetRateLimitCount returns the recorded action count for the given
// (account, action, day) key, or 0 when no row exists yet.
func GetRateLimitCount(ctx context.Context, db *gorm.DB, accountID, action, day string) (int, error) {
	var c domain.RateLimitCounter
	err := db.WithContext(ctx).
		First(&c, "account_id = ? AND action_type = ? AND day = ?", accountID, action, day).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return c.Count, nil
}

// IncrementRateLimit atomically bumps the counter for (account, action, day),
// creating the row at 1 on first use. The upsert on the natural unique key is
// what keeps counting correct when sweeps overlap in time.
func IncrementRateLimit(ctx context.Context, db *gorm.DB, accountID, action, day string) error {
	now := time.Now().UTC()
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "account_id"}, {Name: "action_type"}, {Name: "day"}},
		DoUpdates: clause.Assignments(map[string]any{
			"count":      gorm.Expr("count + 1"),
			"updated_at": now,
		}),
	}).Create(&domain.RateLimitCounter{
		ID:         uuid.NewString(),
		AccountID:  accountID,
		ActionType: action,
		Day:        day,
		Count:      1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}).Error
}

// ListDayCounters returns all counters recorded for an account on one day.
func ListDayCounters(ctx context.Context, db *gorm.DB, accountID, day string) ([]domain.RateLimitCounter, error) {
	var out []domain.RateLimitCounter
	err := db.WithContext(ctx).
		Where("account_id = ? AND day = ?", accountID, day).
		Find(&out).Error
	return out, err
}
