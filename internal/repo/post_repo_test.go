package repo

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/nkoureas/go-engage-backend/internal/domain"
)

func TestFinishPollPass_AccumulatesCounters(t *testing.T) {
	db := newRepoDB(t)
	a := seedAccount(t, db)
	p := mustPost(t, db, a.ID)
	ctx := context.Background()

	first := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	if err := FinishPollPass(ctx, db, p.ID, 40, 2, first); err != nil {
		t.Fatalf("first pass: %v", err)
	}
	second := first.Add(10 * time.Minute)
	if err := FinishPollPass(ctx, db, p.ID, 10, 1, second); err != nil {
		t.Fatalf("second pass: %v", err)
	}

	got, err := GetMonitoredPost(ctx, db, p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.TotalComments != 50 || got.TotalMatches != 3 {
		t.Fatalf("counters = %d/%d, want 50/3", got.TotalComments, got.TotalMatches)
	}
	if got.LastPolledAt == nil || !got.LastPolledAt.Equal(second) {
		t.Fatalf("last polled = %v, want %v", got.LastPolledAt, second)
	}

	if err := IncrementPostLeads(ctx, db, p.ID); err != nil {
		t.Fatalf("increment leads: %v", err)
	}
	if got, _ = GetMonitoredPost(ctx, db, p.ID); got.TotalLeads != 1 {
		t.Fatalf("total leads = %d, want 1", got.TotalLeads)
	}
}

func TestDeactivateMonitoredPost(t *testing.T) {
	db := newRepoDB(t)
	a := seedAccount(t, db)
	p := mustPost(t, db, a.ID)
	ctx := context.Background()

	if err := DeactivateMonitoredPost(ctx, db, p.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	got, err := GetMonitoredPost(ctx, db, p.ID)
	if err != nil || got.IsActive {
		t.Fatalf("post should survive deactivation inactive: %+v err=%v", got, err)
	}

	err = DeactivateMonitoredPost(ctx, db, "141add05-4415-4938-b5a1-17e0d3171aff")
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("unknown id error = %v, want gorm.ErrRecordNotFound", err)
	}
}

func TestListActivePolls_Worklist(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()

	active := seedAccount(t, db)
	p1 := mustPost(t, db, active.ID)
	p2 := mustPost(t, db, active.ID)
	if err := DeactivateMonitoredPost(ctx, db, p2.ID); err != nil {
		t.Fatalf("deactivate p2: %v", err)
	}

	// A post under a paused account must not be polled.
	paused, err := CreateAccount(ctx, db, &domain.Account{Name: "Bo Chen", APIToken: "tok-2"})
	if err != nil {
		t.Fatalf("second account: %v", err)
	}
	mustPost(t, db, paused.ID)
	if err := SetAccountActive(ctx, db, paused.ID, false); err != nil {
		t.Fatalf("pause account: %v", err)
	}

	got, err := ListActivePolls(ctx, db)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].ID != p1.ID {
		t.Fatalf("worklist = %+v, want only the active post of the active account", got)
	}
	if got[0].Account.ID != active.ID {
		t.Fatalf("owning account not preloaded: %+v", got[0])
	}
}

func TestProcessedComments_DedupeAndReply(t *testing.T) {
	db := newRepoDB(t)
	a := seedAccount(t, db)
	p := mustPost(t, db, a.ID)
	ctx := context.Background()

	pc, err := CreateProcessedComment(ctx, db, &domain.ProcessedComment{
		PostID:        p.ID,
		CommenterURL:  "https://linkedin.com/in/pat",
		CommenterName: "Pat Doe",
		CommentText:   "guide please",
		WasMatch:      true,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	seen, err := ProcessedCommentExists(ctx, db, p.ID, "https://linkedin.com/in/pat", "guide please")
	if err != nil || !seen {
		t.Fatalf("exists = %v err=%v, want true", seen, err)
	}
	// Same commenter with different text is a new comment.
	seen, err = ProcessedCommentExists(ctx, db, p.ID, "https://linkedin.com/in/pat", "another thought")
	if err != nil || seen {
		t.Fatalf("exists for different text = %v err=%v, want false", seen, err)
	}

	repliedAt := time.Now().UTC().Truncate(time.Second)
	if err := AttachReply(ctx, db, pc.ID, "sent you the guide", repliedAt); err != nil {
		t.Fatalf("attach reply: %v", err)
	}
	var got domain.ProcessedComment
	if err := db.First(&got, "id = ?", pc.ID).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.ReplyText == nil || *got.ReplyText != "sent you the guide" || got.RepliedAt == nil {
		t.Fatalf("reply not attached: %+v", got)
	}
}

func TestListProcessedComments_NewestFirst(t *testing.T) {
	db := newRepoDB(t)
	a := seedAccount(t, db)
	p := mustPost(t, db, a.ID)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		pc := &domain.ProcessedComment{
			PostID:        p.ID,
			CommenterURL:  fmt.Sprintf("https://linkedin.com/in/c%d", i),
			CommenterName: "Commenter",
			CommentText:   fmt.Sprintf("comment %d", i),
		}
		if _, err := CreateProcessedComment(ctx, db, pc); err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
		// Distinct CreatedAt so the ordering assertion is deterministic.
		at := time.Date(2026, 8, 1, 9, i, 0, 0, time.UTC)
		if err := db.Model(&domain.ProcessedComment{}).Where("id = ?", pc.ID).
			Update("created_at", at).Error; err != nil {
			t.Fatalf("stamp %d: %v", i, err)
		}
	}

	page, total, err := ListProcessedComments(ctx, db, p.ID, 0, 2)
	if err != nil || total != 3 || len(page) != 2 {
		t.Fatalf("page: total=%d len=%d err=%v", total, len(page), err)
	}
	if page[0].CommentText != "comment 2" {
		t.Fatalf("order: first = %q, want newest", page[0].CommentText)
	}
}
