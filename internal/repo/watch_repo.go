// Package repo – WatchedAccount and Engagement repositories.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nkoureas/go-engage-backend/internal/domain"
)

// CreateWatchedAccount inserts a target profile to monitor for new posts.
func CreateWatchedAccount(ctx context.Context, db *gorm.DB, w *domain.WatchedAccount) (*domain.WatchedAccount, error) {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	if w.CheckIntervalMins <= 0 {
		w.CheckIntervalMins = 30
	}
	w.CreatedAt = time.Now().UTC()
	if err := db.WithContext(ctx).Create(w).Error; err != nil {
		return nil, err
	}
	return w, nil
}

// GetWatchedAccount fetches a watched target by ID.
func GetWatchedAccount(ctx context.Context, db *gorm.DB, id string) (*domain.WatchedAccount, error) {
	var w domain.WatchedAccount
	if err := db.WithContext(ctx).First(&w, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

// ListWatchedAccounts returns watched targets for one account, newest first.
func ListWatchedAccounts(ctx context.Context, db *gorm.DB, accountID string) ([]domain.WatchedAccount, error) {
	var out []domain.WatchedAccount
	err := db.WithContext(ctx).Where("account_id = ?", accountID).Order("created_at DESC").Find(&out).Error
	return out, err
}

// ListActiveWatches returns every active watched target belonging to an
// active account, with the owning account preloaded. This is the comment-bot
// pass worklist; per-target interval gating happens in the service.
func ListActiveWatches(ctx context.Context, db *gorm.DB) ([]domain.WatchedAccount, error) {
	var out []domain.WatchedAccount
	err := db.WithContext(ctx).
		Preload("Account").
		Joins("JOIN accounts ON accounts.id = watched_accounts.account_id AND accounts.is_active = ? AND accounts.deleted_at IS NULL", true).
		Where("watched_accounts.is_active = ?", true).
		Order("watched_accounts.created_at").
		Find(&out).Error
	return out, err
}

// UpdateWatchedAccount persists changes to an existing watched-target row.
func UpdateWatchedAccount(ctx context.Context, db *gorm.DB, w *domain.WatchedAccount) error {
	return db.WithContext(ctx).Save(w).Error
}

// DeactivateWatchedAccount soft-stops monitoring while preserving history.
func DeactivateWatchedAccount(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Model(&domain.WatchedAccount{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// TouchLastChecked stamps LastCheckedAt after a comment-bot pass over the
// target, regardless of per-post outcomes inside the pass.
func TouchLastChecked(ctx context.Context, db *gorm.DB, id string, at time.Time) error {
	return db.WithContext(ctx).Model(&domain.WatchedAccount{}).Where("id = ?", id).
		Update("last_checked_at", at).Error
}

// EngagementExists reports whether the watched target has already engaged
// with the given post URL.
func EngagementExists(ctx context.Context, db *gorm.DB, watchedID, postURL string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Engagement{}).
		Where("watched_account_id = ? AND post_url = ?", watchedID, postURL).
		Count(&n).Error
	return n > 0, err
}

// CreateEngagement records one reaction+comment and bumps the target's
// cumulative counter. Duplicates violate the (watched_account_id, post_url)
// unique index; classify with IsDuplicate.
func CreateEngagement(ctx context.Context, db *gorm.DB, e *domain.Engagement) (*domain.Engagement, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.CreatedAt = time.Now().UTC()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(e).Error; err != nil {
			return err
		}
		return tx.Model(&domain.WatchedAccount{}).Where("id = ?", e.WatchedAccountID).
			Update("total_engagements", gorm.Expr("total_engagements + 1")).Error
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// ListEngagements returns a page of engagements for a watched target,
// newest first, plus the total count.
func ListEngagements(ctx context.Context, db *gorm.DB, watchedID string, offset, limit int) ([]domain.Engagement, int64, error) {
	q := db.WithContext(ctx).Model(&domain.Engagement{}).Where("watched_account_id = ?", watchedID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []domain.Engagement
	err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&out).Error
	return out, total, err
}
