// Lead model and the status vocabulary of the outbound funnel.
//
// A Lead is a prospect captured from a keyword-matched comment and tracked
// through two independent progressions:
//
//	ConnectionStatus: unknown -> not_connected -> pending -> connected
//	DMStatus:         not_sent -> queued -> sent -> replied
//
// The unique index on (account_id, linked_in_url) makes lead capture an
// upsert: re-matching the same person on the same account updates the
// existing row instead of duplicating it.
package domain

import "time"

// Connection statuses of a lead, as observed through the action-execution
// service. ConnectionUnknown is persisted as-is after a failed check; a
// connection request is only ever sent from ConnectionNotConnected.
const (
	ConnectionUnknown      = "unknown"
	ConnectionNotConnected = "not_connected"
	ConnectionPending      = "pending"
	ConnectionConnected    = "connected"
)

// DM statuses of a lead. DMReplied is driven by external inbound signal and
// is never set by the outbound orchestration.
const (
	DMNotSent = "not_sent"
	DMQueued  = "queued"
	DMSent    = "sent"
	DMReplied = "replied"
)

// Action types counted against per-account daily caps.
const (
	ActionComment           = "comment"
	ActionConnectionRequest = "connection_request"
	ActionMessage           = "message"
)

// Lead is a prospect captured from a keyword match, tracked through the
// connection and DM funnel. PostID references the originating monitored post
// and is nulled when the post is deleted, since the lead outlives it.
type Lead struct {
	ID               string     `json:"id"                 gorm:"type:char(36);primaryKey"`
	AccountID        string     `json:"account_id"         gorm:"type:char(36);not null;index;uniqueIndex:ux_lead_account_url"`
	PostID           *string    `json:"post_id"            gorm:"type:char(36);index"`
	LinkedInURL      string     `json:"linkedin_url"       gorm:"type:varchar(512);not null;uniqueIndex:ux_lead_account_url"`
	Name             string     `json:"name"               gorm:"type:varchar(255);not null"`
	Headline         string     `json:"headline"           gorm:"type:varchar(512)"`
	SourceKeyword    string     `json:"source_keyword"     gorm:"type:varchar(255)"`
	SourcePostURL    string     `json:"source_post_url"    gorm:"type:varchar(512)"`
	ConnectionStatus string     `json:"connection_status"  gorm:"type:varchar(16);not null;default:'unknown';index"`
	DMStatus         string     `json:"dm_status"          gorm:"type:varchar(16);not null;default:'not_sent';index"`
	DMText           string     `json:"dm_text"            gorm:"type:text"`
	CTASent          bool       `json:"cta_sent"           gorm:"not null;default:false"`
	ConnectionSentAt *time.Time `json:"connection_sent_at"`
	ConnectedAt      *time.Time `json:"connected_at"`
	DMSentAt         *time.Time `json:"dm_sent_at"`
	CTASentAt        *time.Time `json:"cta_sent_at"`
	RepliedAt        *time.Time `json:"replied_at"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	// Account is the owning identity; leads cascade-delete with it. The
	// originating post association is SET NULL so leads survive post removal.
	Account Account        `json:"-" gorm:"foreignKey:AccountID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Post    *MonitoredPost `json:"-" gorm:"foreignKey:PostID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}

// TableName returns the database table name for Lead.
func (Lead) TableName() string { return "leads" }
