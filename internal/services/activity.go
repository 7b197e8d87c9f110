package services

import (
	"context"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/nkoureas/go-engage-backend/internal/domain"
	"github.com/nkoureas/go-engage-backend/internal/humanize"
	"github.com/nkoureas/go-engage-backend/internal/repo"
)

// logActivity appends an audit record, logging (but not propagating) storage
// failures. The audit trail must never abort the action it describes.
func logActivity(ctx context.Context, db *gorm.DB, accountID, action, status string, details map[string]any) {
	if err := repo.AppendActivity(ctx, db, accountID, action, status, details); err != nil {
		log.Warn().Err(err).
			Str("account_id", accountID).
			Str("action", action).
			Msg("failed to append activity log")
	}
}

// delayRange applies the operator's global min/max delay override, when set,
// to one of the built-in humanizer ranges.
func delayRange(r humanize.Range, s domain.Settings) humanize.Range {
	return r.Clamp(s.MinDelaySecs, s.MaxDelaySecs)
}
