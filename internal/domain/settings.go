// Global settings row and rate-limit counter model.
package domain

import "time"

// SettingsID is the primary key of the single global settings row.
const SettingsID = "global"

// Default daily caps and trigger intervals, applied when no Settings row
// exists yet. Orchestrators must fall back to these rather than failing a
// pass on missing configuration.
const (
	DefaultMaxDailyComments    = 50
	DefaultMaxDailyConnections = 25
	DefaultMaxDailyMessages    = 100

	DefaultReplyBotIntervalMins   = 10
	DefaultCommentBotIntervalMins = 30
	DefaultConnectionCheckMins    = 60
	DefaultDMFlushMins            = 15
)

// Settings is the operator-mutable configuration consulted by the automation
// core. Each orchestrator pass fetches a fresh snapshot at its start, so
// operators can adjust caps, intervals, and feature flags live without a
// restart; a pass sees a consistent view even if a write lands mid-pass.
//
// MinDelaySecs/MaxDelaySecs, when both set (> 0), override the per-step
// humanizer delay ranges globally. Zero means use the built-in ranges.
type Settings struct {
	ID string `json:"id" gorm:"type:varchar(16);primaryKey"`

	MaxDailyComments    int `json:"max_daily_comments"    gorm:"not null;default:50"`
	MaxDailyConnections int `json:"max_daily_connections" gorm:"not null;default:25"`
	MaxDailyMessages    int `json:"max_daily_messages"    gorm:"not null;default:100"`

	ReplyBotEnabled   bool `json:"reply_bot_enabled"   gorm:"not null;default:true"`
	CommentBotEnabled bool `json:"comment_bot_enabled" gorm:"not null;default:true"`

	ReplyBotIntervalMins   int `json:"reply_bot_interval_mins"   gorm:"not null;default:10"`
	CommentBotIntervalMins int `json:"comment_bot_interval_mins" gorm:"not null;default:30"`
	ConnectionCheckMins    int `json:"connection_check_mins"     gorm:"not null;default:60"`
	DMFlushMins            int `json:"dm_flush_mins"             gorm:"not null;default:15"`

	MinDelaySecs int `json:"min_delay_secs" gorm:"not null;default:0"`
	MaxDelaySecs int `json:"max_delay_secs" gorm:"not null;default:0"`

	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Settings.
func (Settings) TableName() string { return "settings" }

// DefaultSettings returns the hardcoded configuration used when the global
// row has not been created yet.
func DefaultSettings() Settings {
	return Settings{
		ID:                     SettingsID,
		MaxDailyComments:       DefaultMaxDailyComments,
		MaxDailyConnections:    DefaultMaxDailyConnections,
		MaxDailyMessages:       DefaultMaxDailyMessages,
		ReplyBotEnabled:        true,
		CommentBotEnabled:      true,
		ReplyBotIntervalMins:   DefaultReplyBotIntervalMins,
		CommentBotIntervalMins: DefaultCommentBotIntervalMins,
		ConnectionCheckMins:    DefaultConnectionCheckMins,
		DMFlushMins:            DefaultDMFlushMins,
	}
}

// CapFor returns the daily cap for an action type. Unrecognized action types
// fall back to the comment cap, mirroring the most restrictive common case.
func (s Settings) CapFor(action string) int {
	switch action {
	case ActionComment:
		return s.MaxDailyComments
	case ActionConnectionRequest:
		return s.MaxDailyConnections
	case ActionMessage:
		return s.MaxDailyMessages
	default:
		return s.MaxDailyComments
	}
}

// RateLimitCounter is the per-(account, action, day) action count. Day is a
// UTC calendar date in YYYY-MM-DD form, so a new day implicitly starts a
// fresh counter with no rollover job. The unique index makes the increment an
// atomic upsert under overlapping sweeps.
type RateLimitCounter struct {
	ID         string    `json:"id"          gorm:"type:char(36);primaryKey"`
	AccountID  string    `json:"account_id"  gorm:"type:char(36);not null;index;uniqueIndex:ux_ratelimit_account_action_day"`
	ActionType string    `json:"action_type" gorm:"type:varchar(32);not null;uniqueIndex:ux_ratelimit_account_action_day"`
	Day        string    `json:"day"         gorm:"type:char(10);not null;uniqueIndex:ux_ratelimit_account_action_day"`
	Count      int       `json:"count"       gorm:"not null;default:0"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Account Account `json:"-" gorm:"foreignKey:AccountID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for RateLimitCounter.
func (RateLimitCounter) TableName() string { return "rate_limit_counters" }

// DayKey formats t as the UTC calendar-date key used by RateLimitCounter.
func DayKey(t time.Time) string { return t.UTC().Format("2006-01-02") }
