// Package repo – aggregate/statistics queries for the operator dashboard
// endpoints. Each function is context-aware and safe to call from services
// or handlers.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/nkoureas/go-engage-backend/internal/domain"
)

// FunnelStats summarizes an account's lead funnel and activity aggregates.
type FunnelStats struct {
	TotalLeads       int64            `json:"total_leads"`
	ByConnection     map[string]int64 `json:"by_connection_status"`
	ByDM             map[string]int64 `json:"by_dm_status"`
	TotalComments    int64            `json:"total_comments"`
	TotalMatches     int64            `json:"total_matches"`
	TotalEngagements int64            `json:"total_engagements"`
}

// AccountFunnelStats computes funnel counts for one account: leads grouped by
// connection and DM status, plus cumulative comment/match/engagement totals.
func AccountFunnelStats(ctx context.Context, db *gorm.DB, accountID string) (*FunnelStats, error) {
	out := &FunnelStats{
		ByConnection: map[string]int64{},
		ByDM:         map[string]int64{},
	}

	leadQ := db.WithContext(ctx).Model(&domain.Lead{}).Where("account_id = ?", accountID)
	if err := leadQ.Count(&out.TotalLeads).Error; err != nil {
		return nil, err
	}

	type bucket struct {
		Status string
		N      int64
	}
	var rows []bucket
	if err := db.WithContext(ctx).Model(&domain.Lead{}).
		Select("connection_status AS status, COUNT(*) AS n").
		Where("account_id = ?", accountID).
		Group("connection_status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		out.ByConnection[r.Status] = r.N
	}

	rows = rows[:0]
	if err := db.WithContext(ctx).Model(&domain.Lead{}).
		Select("dm_status AS status, COUNT(*) AS n").
		Where("account_id = ?", accountID).
		Group("dm_status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		out.ByDM[r.Status] = r.N
	}

	type sums struct {
		Comments int64
		Matches  int64
	}
	var s sums
	if err := db.WithContext(ctx).Model(&domain.MonitoredPost{}).
		Select("COALESCE(SUM(total_comments),0) AS comments, COALESCE(SUM(total_matches),0) AS matches").
		Where("account_id = ?", accountID).Scan(&s).Error; err != nil {
		return nil, err
	}
	out.TotalComments = s.Comments
	out.TotalMatches = s.Matches

	var eng struct{ N int64 }
	if err := db.WithContext(ctx).Model(&domain.WatchedAccount{}).
		Select("COALESCE(SUM(total_engagements),0) AS n").
		Where("account_id = ?", accountID).Scan(&eng).Error; err != nil {
		return nil, err
	}
	out.TotalEngagements = eng.N

	return out, nil
}
