// Package limits enforces the per-account daily action caps that gate every
// outbound platform action (comment, connection request, message).
//
// Counting is keyed on (account, action type, UTC calendar day); a new day
// implicitly starts fresh counters with no rollover job. Caps come from the
// live settings row on every check — CanPerform must be consulted immediately
// before each external action, never cached from an earlier check, because
// multiple orchestration passes interleave against the same account.
//
// A denied check is not an error condition: callers skip the action and move
// on, logging at most informationally.
package limits

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/nkoureas/go-engage-backend/internal/domain"
	"github.com/nkoureas/go-engage-backend/internal/repo"
)

// Usage reports the consumed and allowed daily volume for one action type.
type Usage struct {
	Used  int `json:"used"`
	Limit int `json:"limit"`
}

// Guard checks and records daily action volume against the configured caps.
//
// Now is injectable for tests; when nil, time.Now is used.
type Guard struct {
	DB  *gorm.DB
	Now func() time.Time
}

// NewGuard constructs a Guard backed by the given database handle.
func NewGuard(db *gorm.DB) *Guard {
	return &Guard{DB: db}
}

func (g *Guard) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}

// CanPerform reports whether the account may perform one more action of the
// given type today. The cap is read from the live settings row (falling back
// to defaults when the row is missing), so operator changes apply to the very
// next check.
func (g *Guard) CanPerform(ctx context.Context, accountID, action string) (bool, error) {
	settings, err := repo.GetSettings(ctx, g.DB)
	if err != nil {
		return false, err
	}

	day := domain.DayKey(g.now())
	count, err := repo.GetRateLimitCount(ctx, g.DB, accountID, action, day)
	if err != nil {
		return false, err
	}
	return count < settings.CapFor(action), nil
}

// Record counts one performed action of the given type against today's
// counter. Call it only after the external action actually succeeded.
func (g *Guard) Record(ctx context.Context, accountID, action string) error {
	return repo.IncrementRateLimit(ctx, g.DB, accountID, action, domain.DayKey(g.now()))
}

// UsageFor returns today's used/limit pairs for every action type, including
// types with no recorded actions yet.
func (g *Guard) UsageFor(ctx context.Context, accountID string) (map[string]Usage, error) {
	settings, err := repo.GetSettings(ctx, g.DB)
	if err != nil {
		return nil, err
	}

	day := domain.DayKey(g.now())
	counters, err := repo.ListDayCounters(ctx, g.DB, accountID, day)
	if err != nil {
		return nil, err
	}

	used := make(map[string]int, len(counters))
	for _, c := range counters {
		used[c.ActionType] = c.Count
	}

	out := make(map[string]Usage, 3)
	for _, action := range []string{domain.ActionComment, domain.ActionConnectionRequest, domain.ActionMessage} {
		out[action] = Usage{Used: used[action], Limit: settings.CapFor(action)}
	}
	return out, nil
}
