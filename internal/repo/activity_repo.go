// Package repo – ActivityLog repository. Rows are append-only.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nkoureas/go-engage-backend/internal/domain"
)

// AppendActivity records one job run or discrete action for the audit trail.
func AppendActivity(ctx context.Context, db *gorm.DB, accountID, action, status string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return db.WithContext(ctx).Create(&domain.ActivityLog{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Action:    action,
		Status:    status,
		Details:   details,
		CreatedAt: time.Now().UTC(),
	}).Error
}

// ListActivity returns a page of activity records, newest first, optionally
// scoped to one account, plus the total count.
func ListActivity(ctx context.Context, db *gorm.DB, accountID string, offset, limit int) ([]domain.ActivityLog, int64, error) {
	q := db.WithContext(ctx).Model(&domain.ActivityLog{})
	if accountID != "" {
		q = q.Where("account_id = ?", accountID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []domain.ActivityLog
	err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&out).Error
	return out, total, err
}
