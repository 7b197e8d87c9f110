package repo

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/nkoureas/go-engage-backend/internal/domain"
)

func seedWatch(t *testing.T, db *gorm.DB, accountID string) *domain.WatchedAccount {
	t.Helper()
	wa, err := CreateWatchedAccount(context.Background(), db, &domain.WatchedAccount{
		AccountID:  accountID,
		TargetURL:  "https://linkedin.com/in/target",
		TargetName: "Taylor Target",
		IsActive:   true,
	})
	if err != nil {
		t.Fatalf("seed watch: %v", err)
	}
	return wa
}

func TestCreateEngagement_DedupeAndCounter(t *testing.T) {
	db := newRepoDB(t)
	a := seedAccount(t, db)
	wa := seedWatch(t, db, a.ID)
	ctx := context.Background()

	if _, err := CreateEngagement(ctx, db, &domain.Engagement{
		WatchedAccountID: wa.ID,
		PostURL:          "https://linkedin.com/posts/1",
		Reacted:          true,
		Commented:        true,
		CommentText:      "insightful",
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	seen, err := EngagementExists(ctx, db, wa.ID, "https://linkedin.com/posts/1")
	if err != nil || !seen {
		t.Fatalf("exists = %v err=%v, want true", seen, err)
	}

	// Double-engaging the same post must fail as a duplicate, and the failed
	// transaction must not bump the cumulative counter.
	_, err = CreateEngagement(ctx, db, &domain.Engagement{
		WatchedAccountID: wa.ID,
		PostURL:          "https://linkedin.com/posts/1",
		Reacted:          true,
	})
	if err == nil || !IsDuplicate(err) {
		t.Fatalf("expected duplicate, got: %v", err)
	}
	got, err := GetWatchedAccount(ctx, db, wa.ID)
	if err != nil || got.TotalEngagements != 1 {
		t.Fatalf("total engagements = %d err=%v, want 1", got.TotalEngagements, err)
	}
}

func TestTouchLastChecked(t *testing.T) {
	db := newRepoDB(t)
	a := seedAccount(t, db)
	wa := seedWatch(t, db, a.ID)

	at := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	if err := TouchLastChecked(context.Background(), db, wa.ID, at); err != nil {
		t.Fatalf("touch: %v", err)
	}
	got, err := GetWatchedAccount(context.Background(), db, wa.ID)
	if err != nil || got.LastCheckedAt == nil || !got.LastCheckedAt.Equal(at) {
		t.Fatalf("last checked = %+v err=%v", got, err)
	}
}

func TestListActiveWatches_SkipsPausedOwners(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()

	a := seedAccount(t, db)
	w1 := seedWatch(t, db, a.ID)

	paused, err := CreateAccount(ctx, db, &domain.Account{Name: "Bo Chen", APIToken: "tok-2"})
	if err != nil {
		t.Fatalf("second account: %v", err)
	}
	seedWatch(t, db, paused.ID)
	if err := SetAccountActive(ctx, db, paused.ID, false); err != nil {
		t.Fatalf("pause: %v", err)
	}

	got, err := ListActiveWatches(ctx, db)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].ID != w1.ID {
		t.Fatalf("active watches = %+v, want only the active account's watch", got)
	}
}
