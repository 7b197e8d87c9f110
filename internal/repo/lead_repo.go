// Package repo – Lead repository.
//
// Lead writes are atomic upserts keyed by the (account_id, linked_in_url)
// unique index, so overlapping sweeps (reply-bot pass, connection checker,
// DM flush) stay correct without long-held locks.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nkoureas/go-engage-backend/internal/domain"
)

// UpsertLeadOnMatch creates the lead for a fresh keyword match, or updates
// the observed connection status when the same person matched before on the
// same account. It returns the canonical row and whether it was newly
// created.
func UpsertLeadOnMatch(ctx context.Context, db *gorm.DB, l *domain.Lead) (*domain.Lead, bool, error) {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	l.CreatedAt = now
	l.UpdatedAt = now

	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "account_id"}, {Name: "linked_in_url"}},
		DoUpdates: clause.Assignments(map[string]any{
			"connection_status": l.ConnectionStatus,
			"name":              l.Name,
			"headline":          l.Headline,
			"updated_at":        now,
		}),
	}).Create(l).Error
	if err != nil {
		return nil, false, err
	}

	var got domain.Lead
	if err := db.WithContext(ctx).
		First(&got, "account_id = ? AND linked_in_url = ?", l.AccountID, l.LinkedInURL).Error; err != nil {
		return nil, false, err
	}
	return &got, got.ID == l.ID, nil
}

// GetLead fetches a lead by ID.
func GetLead(ctx context.Context, db *gorm.DB, id string) (*domain.Lead, error) {
	var l domain.Lead
	if err := db.WithContext(ctx).First(&l, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

// ListLeads returns a page of leads for an account, optionally filtered by
// connection and/or DM status, newest first, plus the total count.
func ListLeads(ctx context.Context, db *gorm.DB, accountID, connStatus, dmStatus string, offset, limit int) ([]domain.Lead, int64, error) {
	q := db.WithContext(ctx).Model(&domain.Lead{}).Where("account_id = ?", accountID)
	if connStatus != "" {
		q = q.Where("connection_status = ?", connStatus)
	}
	if dmStatus != "" {
		q = q.Where("dm_status = ?", dmStatus)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []domain.Lead
	err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&out).Error
	return out, total, err
}

// ListConnectionSweepLeads returns leads whose connection progress should be
// re-checked: requests in flight (pending) plus leads whose last check failed
// (unknown), none of which have been messaged yet. Accounts and originating
// posts are preloaded for the sweep.
func ListConnectionSweepLeads(ctx context.Context, db *gorm.DB) ([]domain.Lead, error) {
	var out []domain.Lead
	err := db.WithContext(ctx).
		Preload("Account").
		Preload("Post").
		Joins("JOIN accounts ON accounts.id = leads.account_id AND accounts.is_active = ? AND accounts.deleted_at IS NULL", true).
		Where("leads.connection_status IN ? AND leads.dm_status = ?",
			[]string{domain.ConnectionPending, domain.ConnectionUnknown}, domain.DMNotSent).
		Order("leads.updated_at").
		Find(&out).Error
	return out, err
}

// ListDMFlushLeads returns up to limit connected-but-unmessaged leads, the
// pending-DM flush worklist. The small batch keeps catch-up from bursting.
func ListDMFlushLeads(ctx context.Context, db *gorm.DB, limit int) ([]domain.Lead, error) {
	var out []domain.Lead
	err := db.WithContext(ctx).
		Preload("Account").
		Preload("Post").
		Joins("JOIN accounts ON accounts.id = leads.account_id AND accounts.is_active = ? AND accounts.deleted_at IS NULL", true).
		Where("leads.connection_status = ? AND leads.dm_status = ?", domain.ConnectionConnected, domain.DMNotSent).
		Order("leads.updated_at").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// MarkLeadConnectionPending records a successfully sent connection request.
func MarkLeadConnectionPending(ctx context.Context, db *gorm.DB, id string, at time.Time) error {
	return db.WithContext(ctx).Model(&domain.Lead{}).Where("id = ?", id).
		Updates(map[string]any{
			"connection_status":  domain.ConnectionPending,
			"connection_sent_at": at,
			"updated_at":         at,
		}).Error
}

// MarkLeadConnected records an observed transition to connected.
func MarkLeadConnected(ctx context.Context, db *gorm.DB, id string, at time.Time) error {
	return db.WithContext(ctx).Model(&domain.Lead{}).Where("id = ?", id).
		Updates(map[string]any{
			"connection_status": domain.ConnectionConnected,
			"connected_at":      at,
			"updated_at":        at,
		}).Error
}

// SetLeadConnectionStatus stores a freshly observed connection status without
// touching the funnel timestamps.
func SetLeadConnectionStatus(ctx context.Context, db *gorm.DB, id, status string) error {
	return db.WithContext(ctx).Model(&domain.Lead{}).Where("id = ?", id).
		Updates(map[string]any{"connection_status": status, "updated_at": time.Now().UTC()}).Error
}

// MarkLeadDMSent records a successfully delivered DM with its CTA.
func MarkLeadDMSent(ctx context.Context, db *gorm.DB, id, dmText string, at time.Time) error {
	return db.WithContext(ctx).Model(&domain.Lead{}).Where("id = ?", id).
		Updates(map[string]any{
			"dm_status":   domain.DMSent,
			"dm_text":     dmText,
			"dm_sent_at":  at,
			"cta_sent":    true,
			"cta_sent_at": at,
			"updated_at":  at,
		}).Error
}
