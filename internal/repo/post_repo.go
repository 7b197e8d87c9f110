// Package repo – MonitoredPost and ProcessedComment repositories.
//
// Error semantics:
//   - CreateProcessedComment relies on the (post_id, commenter_url,
//     comment_text) unique index; a duplicate insert surfaces as a raw DB
//     error that callers should classify with IsDuplicate and treat as
//     "already processed".
//   - On other DB errors (connectivity, constraints, etc.), the raw gorm
//     error is propagated.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nkoureas/go-engage-backend/internal/domain"
)

// CreateMonitoredPost inserts a post to watch for keyword matches.
func CreateMonitoredPost(ctx context.Context, db *gorm.DB, p *domain.MonitoredPost) (*domain.MonitoredPost, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = time.Now().UTC()
	if err := db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// GetMonitoredPost fetches a post by ID.
func GetMonitoredPost(ctx context.Context, db *gorm.DB, id string) (*domain.MonitoredPost, error) {
	var p domain.MonitoredPost
	if err := db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// ListMonitoredPosts returns posts for one account, newest first.
func ListMonitoredPosts(ctx context.Context, db *gorm.DB, accountID string) ([]domain.MonitoredPost, error) {
	var out []domain.MonitoredPost
	err := db.WithContext(ctx).Where("account_id = ?", accountID).Order("created_at DESC").Find(&out).Error
	return out, err
}

// ListActivePolls returns every active post belonging to an active account,
// with the owning account preloaded. This is the reply-bot pass worklist.
func ListActivePolls(ctx context.Context, db *gorm.DB) ([]domain.MonitoredPost, error) {
	var out []domain.MonitoredPost
	err := db.WithContext(ctx).
		Preload("Account").
		Joins("JOIN accounts ON accounts.id = monitored_posts.account_id AND accounts.is_active = ? AND accounts.deleted_at IS NULL", true).
		Where("monitored_posts.is_active = ?", true).
		Order("monitored_posts.created_at").
		Find(&out).Error
	return out, err
}

// UpdateMonitoredPost persists changes to an existing post row.
func UpdateMonitoredPost(ctx context.Context, db *gorm.DB, p *domain.MonitoredPost) error {
	return db.WithContext(ctx).Save(p).Error
}

// DeactivateMonitoredPost soft-stops polling while preserving history.
func DeactivateMonitoredPost(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Model(&domain.MonitoredPost{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FinishPollPass stamps LastPolledAt and bumps the cumulative counters after
// a polling pass. It runs even when individual actions inside the pass
// failed, so the aggregates always reflect what was seen.
func FinishPollPass(ctx context.Context, db *gorm.DB, postID string, comments, matches int, at time.Time) error {
	return db.WithContext(ctx).Model(&domain.MonitoredPost{}).Where("id = ?", postID).
		Updates(map[string]any{
			"last_polled_at": at,
			"total_comments": gorm.Expr("total_comments + ?", comments),
			"total_matches":  gorm.Expr("total_matches + ?", matches),
		}).Error
}

// IncrementPostLeads bumps the generated-leads counter for a post.
func IncrementPostLeads(ctx context.Context, db *gorm.DB, postID string) error {
	return db.WithContext(ctx).Model(&domain.MonitoredPost{}).Where("id = ?", postID).
		Update("total_leads", gorm.Expr("total_leads + 1")).Error
}

// ProcessedCommentExists reports whether the (post, commenter, text) triple
// has already been evaluated.
func ProcessedCommentExists(ctx context.Context, db *gorm.DB, postID, commenterURL, text string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.ProcessedComment{}).
		Where("post_id = ? AND commenter_url = ? AND comment_text = ?", postID, commenterURL, text).
		Count(&n).Error
	return n > 0, err
}

// CreateProcessedComment records one evaluated comment. Duplicates violate
// the unique index; classify with IsDuplicate.
func CreateProcessedComment(ctx context.Context, db *gorm.DB, pc *domain.ProcessedComment) (*domain.ProcessedComment, error) {
	if pc.ID == "" {
		pc.ID = uuid.NewString()
	}
	pc.CreatedAt = time.Now().UTC()
	if err := db.WithContext(ctx).Create(pc).Error; err != nil {
		return nil, err
	}
	return pc, nil
}

// AttachReply stores the posted reply text and timestamp on a processed
// comment. This is the only mutation a ProcessedComment row ever receives.
func AttachReply(ctx context.Context, db *gorm.DB, commentID, replyText string, at time.Time) error {
	return db.WithContext(ctx).Model(&domain.ProcessedComment{}).Where("id = ?", commentID).
		Updates(map[string]any{"reply_text": replyText, "replied_at": at}).Error
}

// ListProcessedComments returns a page of processed comments for a post,
// newest first, plus the total count.
func ListProcessedComments(ctx context.Context, db *gorm.DB, postID string, offset, limit int) ([]domain.ProcessedComment, int64, error) {
	q := db.WithContext(ctx).Model(&domain.ProcessedComment{}).Where("post_id = ?", postID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []domain.ProcessedComment
	err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&out).Error
	return out, total, err
}
