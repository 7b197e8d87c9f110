// Package domain defines the persistence models for the LinkedIn engagement
// automation: accounts under automation, monitored posts and their processed
// comments, watched target profiles and their engagements, captured leads,
// rate-limit counters, activity logs, and the global settings row. These types
// are mapped with GORM and form the core data layer of the application.
//
// Several unique indexes in this package are load-bearing for correctness,
// not performance: they are what makes re-polling, re-matching, and
// overlapping sweeps idempotent.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Account is a LinkedIn identity under automation. It owns monitored posts,
// watched targets, leads, rate-limit counters, and activity logs; all of them
// cascade-delete with the account. Deactivating an account halts every
// automation pass for it without deleting history.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Name: operator-facing label for the account.
//   - APIToken: per-account identification token for the action-execution service.
//   - IsActive: when false, orchestrators skip everything owned by this account.
//   - VoiceTone / VoiceTopics / SampleComments: voice settings fed into text generation.
type Account struct {
	ID             string         `json:"id"              gorm:"type:char(36);primaryKey"`
	Name           string         `json:"name"            gorm:"type:varchar(255);not null"`
	APIToken       string         `json:"-"               gorm:"type:varchar(255);not null"`
	IsActive       bool           `json:"is_active"       gorm:"not null;default:true"`
	VoiceTone      string         `json:"voice_tone"      gorm:"type:varchar(64);not null;default:'professional'"`
	VoiceTopics    []string       `json:"voice_topics"    gorm:"serializer:json"`
	SampleComments []string       `json:"sample_comments" gorm:"serializer:json"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-"               gorm:"index"`
}

// TableName returns the database table name for Account.
func (Account) TableName() string { return "accounts" }

// MonitoredPost is a post being watched for keyword-matching comments.
// Posts are soft-deactivated rather than hard-deleted so that processed
// comments and aggregate counters survive as history.
//
// Fields:
//   - Keywords: trigger words; matching is a case-insensitive substring check
//     and the first keyword in list order wins.
//   - AutoReply: when false, matches are recorded but no reply is posted
//     (human review path).
//   - CTAType / CTAValue / CTAMessage / ReplyStyle: offer content and custom
//     generation instructions used for replies and DMs.
//   - LastPolledAt: set after every polling pass, even when individual
//     actions inside the pass failed.
type MonitoredPost struct {
	ID            string         `json:"id"             gorm:"type:char(36);primaryKey"`
	AccountID     string         `json:"account_id"     gorm:"type:char(36);not null;index"`
	PostURL       string         `json:"post_url"       gorm:"type:varchar(512);not null"`
	PostTitle     string         `json:"post_title"     gorm:"type:varchar(255)"`
	Keywords      []string       `json:"keywords"       gorm:"serializer:json;not null"`
	AutoReply     bool           `json:"auto_reply"     gorm:"not null;default:true"`
	CTAType       string         `json:"cta_type"       gorm:"type:varchar(64)"`
	CTAValue      string         `json:"cta_value"      gorm:"type:varchar(512)"`
	CTAMessage    string         `json:"cta_message"    gorm:"type:text"`
	ReplyStyle    string         `json:"reply_style"    gorm:"type:text"`
	IsActive      bool           `json:"is_active"      gorm:"not null;default:true"`
	LastPolledAt  *time.Time     `json:"last_polled_at"`
	TotalComments int            `json:"total_comments" gorm:"not null;default:0"`
	TotalMatches  int            `json:"total_matches"  gorm:"not null;default:0"`
	TotalLeads    int            `json:"total_leads"    gorm:"not null;default:0"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-"              gorm:"index"`

	// Account is the owning identity. Posts are cascade-deleted with it.
	Account Account `json:"-" gorm:"foreignKey:AccountID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for MonitoredPost.
func (MonitoredPost) TableName() string { return "monitored_posts" }

// ProcessedComment is the immutable record of one comment already evaluated
// against a post's keywords. The unique index on (post_id, commenter_url,
// comment_text) is what guarantees that re-polling never evaluates the same
// comment twice. Rows are never updated except to attach reply metadata.
type ProcessedComment struct {
	ID                string     `json:"id"                 gorm:"type:char(36);primaryKey"`
	PostID            string     `json:"post_id"            gorm:"type:char(36);not null;index;uniqueIndex:ux_comment_post_commenter_text"`
	CommenterURL      string     `json:"commenter_url"      gorm:"type:varchar(512);not null;uniqueIndex:ux_comment_post_commenter_text"`
	CommenterName     string     `json:"commenter_name"     gorm:"type:varchar(255);not null"`
	CommenterHeadline string     `json:"commenter_headline" gorm:"type:varchar(512)"`
	CommentText       string     `json:"comment_text"       gorm:"type:varchar(2048);not null;uniqueIndex:ux_comment_post_commenter_text"`
	CommentTime       string     `json:"comment_time"       gorm:"type:varchar(64)"`
	MatchedKeyword    *string    `json:"matched_keyword"    gorm:"type:varchar(255)"`
	WasMatch          bool       `json:"was_match"          gorm:"not null;default:false"`
	ReplyText         *string    `json:"reply_text"         gorm:"type:text"`
	RepliedAt         *time.Time `json:"replied_at"`
	CreatedAt         time.Time  `json:"created_at"`

	// Post is the monitored post this comment was found under.
	Post MonitoredPost `json:"-" gorm:"foreignKey:PostID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for ProcessedComment.
func (ProcessedComment) TableName() string { return "processed_comments" }

// WatchedAccount is a target profile monitored for new posts by the comment
// bot. CheckIntervalMins gates how often the target is actually fetched
// inside the global comment-bot trigger; targets whose interval has not
// elapsed are skipped for the pass.
type WatchedAccount struct {
	ID                string         `json:"id"                  gorm:"type:char(36);primaryKey"`
	AccountID         string         `json:"account_id"          gorm:"type:char(36);not null;index"`
	TargetURL         string         `json:"target_url"          gorm:"type:varchar(512);not null"`
	TargetName        string         `json:"target_name"         gorm:"type:varchar(255);not null"`
	TargetHeadline    string         `json:"target_headline"     gorm:"type:varchar(512)"`
	CommentStyle      string         `json:"comment_style"       gorm:"type:text"`
	CheckIntervalMins int            `json:"check_interval_mins" gorm:"not null;default:30"`
	IsActive          bool           `json:"is_active"           gorm:"not null;default:true"`
	LastCheckedAt     *time.Time     `json:"last_checked_at"`
	TotalEngagements  int            `json:"total_engagements"   gorm:"not null;default:0"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `json:"-"                   gorm:"index"`

	Account Account `json:"-" gorm:"foreignKey:AccountID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for WatchedAccount.
func (WatchedAccount) TableName() string { return "watched_accounts" }

// Engagement is the immutable record of one reaction+comment against a
// specific post of a watched target. The unique index on
// (watched_account_id, post_url) prevents double-engaging the same post.
type Engagement struct {
	ID               string    `json:"id"                 gorm:"type:char(36);primaryKey"`
	WatchedAccountID string    `json:"watched_account_id" gorm:"type:char(36);not null;index;uniqueIndex:ux_engagement_watched_post"`
	PostURL          string    `json:"post_url"           gorm:"type:varchar(512);not null;uniqueIndex:ux_engagement_watched_post"`
	PostText         string    `json:"post_text"          gorm:"type:text"`
	Reacted          bool      `json:"reacted"            gorm:"not null;default:false"`
	ReactionType     string    `json:"reaction_type"      gorm:"type:varchar(32)"`
	Commented        bool      `json:"commented"          gorm:"not null;default:false"`
	CommentText      string    `json:"comment_text"       gorm:"type:text"`
	CreatedAt        time.Time `json:"created_at"`

	WatchedAccount WatchedAccount `json:"-" gorm:"foreignKey:WatchedAccountID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Engagement.
func (Engagement) TableName() string { return "engagements" }

// ActivityLog is an append-only audit record of one job run or discrete
// action. It feeds the operator log view and retry bookkeeping; it is never
// consulted for control-flow decisions beyond attempt counting.
type ActivityLog struct {
	ID        string         `json:"id"         gorm:"type:char(36);primaryKey"`
	AccountID string         `json:"account_id" gorm:"type:char(36);not null;index"`
	Action    string         `json:"action"     gorm:"type:varchar(64);not null"`
	Status    string         `json:"status"     gorm:"type:varchar(16);not null"`
	Details   map[string]any `json:"details"    gorm:"serializer:json"`
	CreatedAt time.Time      `json:"created_at" gorm:"index"`

	Account Account `json:"-" gorm:"foreignKey:AccountID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for ActivityLog.
func (ActivityLog) TableName() string { return "activity_logs" }
