// Package services – AdminService
//
// This file implements the operator-facing CRUD surface behind the admin API:
// accounts, monitored posts, watched targets, leads, activity logs, settings,
// and funnel statistics. Methods validate inputs, map storage misses to
// service-level sentinel errors, and delegate persistence to the repo layer.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/nkoureas/go-engage-backend/internal/domain"
	"github.com/nkoureas/go-engage-backend/internal/limits"
	"github.com/nkoureas/go-engage-backend/internal/repo"
)

// AdminService exposes the operator CRUD and reporting operations.
type AdminService struct {
	DB    *gorm.DB
	Guard *limits.Guard
}

// NewAdminService constructs an AdminService.
func NewAdminService(db *gorm.DB, guard *limits.Guard) *AdminService {
	return &AdminService{DB: db, Guard: guard}
}

func validationErr(field, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrValidation, field, reason)
}

// --- Accounts ---

// AccountInput is the operator payload for creating or updating an account.
type AccountInput struct {
	Name           string   `json:"name"`
	APIToken       string   `json:"api_token"`
	IsActive       *bool    `json:"is_active"`
	VoiceTone      string   `json:"voice_tone"`
	VoiceTopics    []string `json:"voice_topics"`
	SampleComments []string `json:"sample_comments"`
}

// CreateAccount registers a new identity under automation.
func (s *AdminService) CreateAccount(ctx context.Context, in AccountInput) (*domain.Account, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, validationErr("name", "is required")
	}
	if strings.TrimSpace(in.APIToken) == "" {
		return nil, validationErr("api_token", "is required")
	}
	a := &domain.Account{
		Name:           strings.TrimSpace(in.Name),
		APIToken:       strings.TrimSpace(in.APIToken),
		IsActive:       true,
		VoiceTone:      in.VoiceTone,
		VoiceTopics:    in.VoiceTopics,
		SampleComments: in.SampleComments,
	}
	if a.VoiceTone == "" {
		a.VoiceTone = "professional"
	}
	if in.IsActive != nil {
		a.IsActive = *in.IsActive
	}
	return repo.CreateAccount(ctx, s.DB, a)
}

// GetAccount fetches one account.
func (s *AdminService) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	a, err := repo.GetAccount(ctx, s.DB, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAccountNotFound
	}
	return a, err
}

// ListAccounts returns all accounts, newest first.
func (s *AdminService) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	return repo.ListAccounts(ctx, s.DB)
}

// UpdateAccount applies a partial update to an account.
func (s *AdminService) UpdateAccount(ctx context.Context, id string, in AccountInput) (*domain.Account, error) {
	a, err := s.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) != "" {
		a.Name = strings.TrimSpace(in.Name)
	}
	if strings.TrimSpace(in.APIToken) != "" {
		a.APIToken = strings.TrimSpace(in.APIToken)
	}
	if in.VoiceTone != "" {
		a.VoiceTone = in.VoiceTone
	}
	if in.VoiceTopics != nil {
		a.VoiceTopics = in.VoiceTopics
	}
	if in.SampleComments != nil {
		a.SampleComments = in.SampleComments
	}
	if in.IsActive != nil {
		a.IsActive = *in.IsActive
	}
	if err := repo.UpdateAccount(ctx, s.DB, a); err != nil {
		return nil, err
	}
	return a, nil
}

// DeleteAccount soft-deletes an account; owned rows cascade at the database
// level only on hard delete, so history stays queryable.
func (s *AdminService) DeleteAccount(ctx context.Context, id string) error {
	err := repo.DeleteAccount(ctx, s.DB, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrAccountNotFound
	}
	return err
}

// AccountUsage returns today's used/limit pairs per action type.
func (s *AdminService) AccountUsage(ctx context.Context, id string) (map[string]limits.Usage, error) {
	if _, err := s.GetAccount(ctx, id); err != nil {
		return nil, err
	}
	return s.Guard.UsageFor(ctx, id)
}

// --- Monitored posts ---

// PostInput is the operator payload for creating or updating a monitored post.
type PostInput struct {
	AccountID  string   `json:"account_id"`
	PostURL    string   `json:"post_url"`
	PostTitle  string   `json:"post_title"`
	Keywords   []string `json:"keywords"`
	AutoReply  *bool    `json:"auto_reply"`
	CTAType    string   `json:"cta_type"`
	CTAValue   string   `json:"cta_value"`
	CTAMessage string   `json:"cta_message"`
	ReplyStyle string   `json:"reply_style"`
	IsActive   *bool    `json:"is_active"`
}

// CreatePost registers a post to monitor for keyword matches.
func (s *AdminService) CreatePost(ctx context.Context, in PostInput) (*domain.MonitoredPost, error) {
	if strings.TrimSpace(in.PostURL) == "" {
		return nil, validationErr("post_url", "is required")
	}
	if len(in.Keywords) == 0 {
		return nil, validationErr("keywords", "must not be empty")
	}
	if _, err := s.GetAccount(ctx, in.AccountID); err != nil {
		return nil, err
	}
	p := &domain.MonitoredPost{
		AccountID:  in.AccountID,
		PostURL:    strings.TrimSpace(in.PostURL),
		PostTitle:  in.PostTitle,
		Keywords:   in.Keywords,
		AutoReply:  true,
		CTAType:    in.CTAType,
		CTAValue:   in.CTAValue,
		CTAMessage: in.CTAMessage,
		ReplyStyle: in.ReplyStyle,
		IsActive:   true,
	}
	if in.AutoReply != nil {
		p.AutoReply = *in.AutoReply
	}
	return repo.CreateMonitoredPost(ctx, s.DB, p)
}

// GetPost fetches one monitored post.
func (s *AdminService) GetPost(ctx context.Context, id string) (*domain.MonitoredPost, error) {
	p, err := repo.GetMonitoredPost(ctx, s.DB, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPostNotFound
	}
	return p, err
}

// ListPosts returns all monitored posts of one account.
func (s *AdminService) ListPosts(ctx context.Context, accountID string) ([]domain.MonitoredPost, error) {
	if _, err := s.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}
	return repo.ListMonitoredPosts(ctx, s.DB, accountID)
}

// UpdatePost applies a partial update to a monitored post.
func (s *AdminService) UpdatePost(ctx context.Context, id string, in PostInput) (*domain.MonitoredPost, error) {
	p, err := s.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.PostURL) != "" {
		p.PostURL = strings.TrimSpace(in.PostURL)
	}
	if in.PostTitle != "" {
		p.PostTitle = in.PostTitle
	}
	if in.Keywords != nil {
		if len(in.Keywords) == 0 {
			return nil, validationErr("keywords", "must not be empty")
		}
		p.Keywords = in.Keywords
	}
	if in.AutoReply != nil {
		p.AutoReply = *in.AutoReply
	}
	if in.CTAType != "" {
		p.CTAType = in.CTAType
	}
	if in.CTAValue != "" {
		p.CTAValue = in.CTAValue
	}
	if in.CTAMessage != "" {
		p.CTAMessage = in.CTAMessage
	}
	if in.ReplyStyle != "" {
		p.ReplyStyle = in.ReplyStyle
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	if err := repo.UpdateMonitoredPost(ctx, s.DB, p); err != nil {
		return nil, err
	}
	return p, nil
}

// DeactivatePost soft-stops polling a post while preserving its history.
func (s *AdminService) DeactivatePost(ctx context.Context, id string) error {
	err := repo.DeactivateMonitoredPost(ctx, s.DB, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrPostNotFound
	}
	return err
}

// ListPostComments returns a page of processed comments for a post.
func (s *AdminService) ListPostComments(ctx context.Context, postID string, offset, limit int) ([]domain.ProcessedComment, int64, error) {
	if _, err := s.GetPost(ctx, postID); err != nil {
		return nil, 0, err
	}
	return repo.ListProcessedComments(ctx, s.DB, postID, offset, limit)
}

// --- Watched accounts ---

// WatchInput is the operator payload for creating or updating a watched target.
type WatchInput struct {
	AccountID         string `json:"account_id"`
	TargetURL         string `json:"target_url"`
	TargetName        string `json:"target_name"`
	TargetHeadline    string `json:"target_headline"`
	CommentStyle      string `json:"comment_style"`
	CheckIntervalMins int    `json:"check_interval_mins"`
	IsActive          *bool  `json:"is_active"`
}

// CreateWatch registers a target profile to monitor for new posts.
func (s *AdminService) CreateWatch(ctx context.Context, in WatchInput) (*domain.WatchedAccount, error) {
	if strings.TrimSpace(in.TargetURL) == "" {
		return nil, validationErr("target_url", "is required")
	}
	if strings.TrimSpace(in.TargetName) == "" {
		return nil, validationErr("target_name", "is required")
	}
	if _, err := s.GetAccount(ctx, in.AccountID); err != nil {
		return nil, err
	}
	w := &domain.WatchedAccount{
		AccountID:         in.AccountID,
		TargetURL:         strings.TrimSpace(in.TargetURL),
		TargetName:        strings.TrimSpace(in.TargetName),
		TargetHeadline:    in.TargetHeadline,
		CommentStyle:      in.CommentStyle,
		CheckIntervalMins: in.CheckIntervalMins,
		IsActive:          true,
	}
	if in.IsActive != nil {
		w.IsActive = *in.IsActive
	}
	return repo.CreateWatchedAccount(ctx, s.DB, w)
}

// GetWatch fetches one watched target.
func (s *AdminService) GetWatch(ctx context.Context, id string) (*domain.WatchedAccount, error) {
	w, err := repo.GetWatchedAccount(ctx, s.DB, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrWatchNotFound
	}
	return w, err
}

// ListWatches returns all watched targets of one account.
func (s *AdminService) ListWatches(ctx context.Context, accountID string) ([]domain.WatchedAccount, error) {
	if _, err := s.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}
	return repo.ListWatchedAccounts(ctx, s.DB, accountID)
}

// UpdateWatch applies a partial update to a watched target.
func (s *AdminService) UpdateWatch(ctx context.Context, id string, in WatchInput) (*domain.WatchedAccount, error) {
	w, err := s.GetWatch(ctx, id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.TargetURL) != "" {
		w.TargetURL = strings.TrimSpace(in.TargetURL)
	}
	if strings.TrimSpace(in.TargetName) != "" {
		w.TargetName = strings.TrimSpace(in.TargetName)
	}
	if in.TargetHeadline != "" {
		w.TargetHeadline = in.TargetHeadline
	}
	if in.CommentStyle != "" {
		w.CommentStyle = in.CommentStyle
	}
	if in.CheckIntervalMins > 0 {
		w.CheckIntervalMins = in.CheckIntervalMins
	}
	if in.IsActive != nil {
		w.IsActive = *in.IsActive
	}
	if err := repo.UpdateWatchedAccount(ctx, s.DB, w); err != nil {
		return nil, err
	}
	return w, nil
}

// DeactivateWatch soft-stops monitoring a target while preserving its history.
func (s *AdminService) DeactivateWatch(ctx context.Context, id string) error {
	err := repo.DeactivateWatchedAccount(ctx, s.DB, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrWatchNotFound
	}
	return err
}

// ListTargetEngagements returns a page of engagements for a watched target.
func (s *AdminService) ListTargetEngagements(ctx context.Context, watchID string, offset, limit int) ([]domain.Engagement, int64, error) {
	if _, err := s.GetWatch(ctx, watchID); err != nil {
		return nil, 0, err
	}
	return repo.ListEngagements(ctx, s.DB, watchID, offset, limit)
}

// --- Leads, logs, settings, stats ---

// ListLeads returns a page of an account's leads with optional status filters.
func (s *AdminService) ListLeads(ctx context.Context, accountID, connStatus, dmStatus string, offset, limit int) ([]domain.Lead, int64, error) {
	if _, err := s.GetAccount(ctx, accountID); err != nil {
		return nil, 0, err
	}
	return repo.ListLeads(ctx, s.DB, accountID, connStatus, dmStatus, offset, limit)
}

// GetLead fetches one lead.
func (s *AdminService) GetLead(ctx context.Context, id string) (*domain.Lead, error) {
	l, err := repo.GetLead(ctx, s.DB, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrLeadNotFound
	}
	return l, err
}

// ListActivity returns a page of activity records, optionally scoped to one
// account.
func (s *AdminService) ListActivity(ctx context.Context, accountID string, offset, limit int) ([]domain.ActivityLog, int64, error) {
	return repo.ListActivity(ctx, s.DB, accountID, offset, limit)
}

// GetSettings returns the global settings row (defaults when unset).
func (s *AdminService) GetSettings(ctx context.Context) (domain.Settings, error) {
	return repo.GetSettings(ctx, s.DB)
}

// UpdateSettings validates and upserts the global settings row. The next
// orchestrator pass picks the new values up automatically.
func (s *AdminService) UpdateSettings(ctx context.Context, in domain.Settings) (domain.Settings, error) {
	if in.MaxDailyComments <= 0 || in.MaxDailyConnections <= 0 || in.MaxDailyMessages <= 0 {
		return domain.Settings{}, validationErr("daily caps", "must be positive")
	}
	if in.ReplyBotIntervalMins <= 0 || in.CommentBotIntervalMins <= 0 ||
		in.ConnectionCheckMins <= 0 || in.DMFlushMins <= 0 {
		return domain.Settings{}, validationErr("trigger intervals", "must be positive")
	}
	if in.MinDelaySecs < 0 || (in.MaxDelaySecs != 0 && in.MaxDelaySecs < in.MinDelaySecs) {
		return domain.Settings{}, validationErr("delay override", "must satisfy 0 <= min <= max")
	}
	return repo.SaveSettings(ctx, s.DB, in)
}

// AccountStats returns the lead funnel and activity aggregates for one
// account.
func (s *AdminService) AccountStats(ctx context.Context, accountID string) (*repo.FunnelStats, error) {
	if _, err := s.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}
	return repo.AccountFunnelStats(ctx, s.DB, accountID)
}
