package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/nkoureas/go-engage-backend/internal/domain"
	"github.com/nkoureas/go-engage-backend/internal/limits"
	"github.com/nkoureas/go-engage-backend/internal/repo"
)

func newLeadService(db *gorm.DB, fa *fakeActions) *LeadService {
	svc := NewLeadService(db, fa.factory(), &fakeGen{}, limits.NewGuard(db))
	svc.Waiter = instantWaiter()
	return svc
}

func seedLead(t *testing.T, db *gorm.DB, accountID string, postID *string, url, connStatus string) *domain.Lead {
	t.Helper()
	lead, _, err := repo.UpsertLeadOnMatch(context.Background(), db, &domain.Lead{
		AccountID:        accountID,
		PostID:           postID,
		LinkedInURL:      url,
		Name:             "Pat Doe",
		Headline:         "Founder",
		ConnectionStatus: connStatus,
		DMStatus:         domain.DMNotSent,
	})
	if err != nil {
		t.Fatalf("seed lead: %v", err)
	}
	return lead
}

func TestConnectionSweepPromotesConnectedLeadAndSendsDM(t *testing.T) {
	db := openTestDB(t)
	acc := seedAccount(t, db, "alpha")
	post := seedPost(t, db, acc.ID, []string{"x"})
	lead := seedLead(t, db, acc.ID, &post.ID, "https://linkedin.com/in/pat", domain.ConnectionPending)

	fa := &fakeActions{connStatus: domain.ConnectionConnected}
	svc := newLeadService(db, fa)

	if err := svc.RunConnectionSweep(context.Background()); err != nil {
		t.Fatalf("RunConnectionSweep: %v", err)
	}

	got, err := repo.GetLead(context.Background(), db, lead.ID)
	if err != nil {
		t.Fatalf("get lead: %v", err)
	}
	if got.ConnectionStatus != domain.ConnectionConnected {
		t.Errorf("status = %q, want connected", got.ConnectionStatus)
	}
	if got.ConnectedAt == nil {
		t.Error("connected_at not stamped")
	}
	if got.DMStatus != domain.DMSent {
		t.Errorf("dm status = %q, want sent", got.DMStatus)
	}
	if len(fa.sentMessages) != 1 {
		t.Errorf("messages = %d, want 1", len(fa.sentMessages))
	}
}

func TestConnectionSweepRechecksUnknownLeads(t *testing.T) {
	db := openTestDB(t)
	acc := seedAccount(t, db, "alpha")
	post := seedPost(t, db, acc.ID, []string{"x"})
	lead := seedLead(t, db, acc.ID, &post.ID, "https://linkedin.com/in/pat", domain.ConnectionUnknown)

	fa := &fakeActions{connStatus: domain.ConnectionNotConnected}
	svc := newLeadService(db, fa)

	if err := svc.RunConnectionSweep(context.Background()); err != nil {
		t.Fatalf("RunConnectionSweep: %v", err)
	}

	got, _ := repo.GetLead(context.Background(), db, lead.ID)
	if got.ConnectionStatus != domain.ConnectionNotConnected {
		t.Errorf("status = %q, want not_connected", got.ConnectionStatus)
	}
	if len(fa.sentMessages) != 0 {
		t.Error("no DM expected for a non-connected lead")
	}
}

func TestConnectionSweepLeavesUnchangedStatusAlone(t *testing.T) {
	db := openTestDB(t)
	acc := seedAccount(t, db, "alpha")
	post := seedPost(t, db, acc.ID, []string{"x"})
	lead := seedLead(t, db, acc.ID, &post.ID, "https://linkedin.com/in/pat", domain.ConnectionPending)
	before, _ := repo.GetLead(context.Background(), db, lead.ID)

	fa := &fakeActions{connStatus: domain.ConnectionPending}
	svc := newLeadService(db, fa)

	if err := svc.RunConnectionSweep(context.Background()); err != nil {
		t.Fatalf("RunConnectionSweep: %v", err)
	}

	after, _ := repo.GetLead(context.Background(), db, lead.ID)
	if after.ConnectionStatus != before.ConnectionStatus || after.DMStatus != before.DMStatus {
		t.Errorf("lead changed unexpectedly: %+v", after)
	}
}

func TestConnectionSweepIgnoresMessagedLeads(t *testing.T) {
	db := openTestDB(t)
	acc := seedAccount(t, db, "alpha")
	post := seedPost(t, db, acc.ID, []string{"x"})
	lead := seedLead(t, db, acc.ID, &post.ID, "https://linkedin.com/in/pat", domain.ConnectionPending)
	if err := repo.MarkLeadDMSent(context.Background(), db, lead.ID, "hello", time.Now().UTC()); err != nil {
		t.Fatalf("mark dm sent: %v", err)
	}

	fa := &fakeActions{connStatus: domain.ConnectionConnected}
	svc := newLeadService(db, fa)

	if err := svc.RunConnectionSweep(context.Background()); err != nil {
		t.Fatalf("RunConnectionSweep: %v", err)
	}
	if len(fa.sentMessages) != 0 {
		t.Error("already-messaged leads must not be swept")
	}
}

func TestPendingDMFlushDrainsInBatchesExactlyOnce(t *testing.T) {
	db := openTestDB(t)
	acc := seedAccount(t, db, "alpha")
	post := seedPost(t, db, acc.ID, []string{"x"})

	for i := 0; i < 12; i++ {
		seedLead(t, db, acc.ID, &post.ID,
			fmt.Sprintf("https://linkedin.com/in/lead-%02d", i), domain.ConnectionConnected)
	}

	fa := &fakeActions{}
	svc := newLeadService(db, fa)

	if err := svc.RunPendingDMFlush(context.Background()); err != nil {
		t.Fatalf("flush #1: %v", err)
	}
	if len(fa.sentMessages) != dmFlushBatch {
		t.Fatalf("messages after pass 1 = %d, want %d", len(fa.sentMessages), dmFlushBatch)
	}

	if err := svc.RunPendingDMFlush(context.Background()); err != nil {
		t.Fatalf("flush #2: %v", err)
	}
	if len(fa.sentMessages) != 12 {
		t.Fatalf("messages after pass 2 = %d, want 12", len(fa.sentMessages))
	}

	// A third pass finds nothing left.
	if err := svc.RunPendingDMFlush(context.Background()); err != nil {
		t.Fatalf("flush #3: %v", err)
	}
	if len(fa.sentMessages) != 12 {
		t.Errorf("messages after pass 3 = %d, want 12 (exactly once)", len(fa.sentMessages))
	}

	_, remaining, err := repo.ListLeads(context.Background(), db, acc.ID, domain.ConnectionConnected, domain.DMNotSent, 0, 100)
	if err != nil || remaining != 0 {
		t.Errorf("unmessaged leads = %d (%v), want 0", remaining, err)
	}
}

func TestPendingDMFlushSkipsLeadsWithoutPost(t *testing.T) {
	db := openTestDB(t)
	acc := seedAccount(t, db, "alpha")
	seedLead(t, db, acc.ID, nil, "https://linkedin.com/in/orphan", domain.ConnectionConnected)

	fa := &fakeActions{}
	svc := newLeadService(db, fa)

	if err := svc.RunPendingDMFlush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if len(fa.sentMessages) != 0 {
		t.Errorf("messages = %d, want 0 for a lead without an originating post", len(fa.sentMessages))
	}
}

func TestPendingDMFlushRespectsMessageCap(t *testing.T) {
	db := openTestDB(t)
	acc := seedAccount(t, db, "alpha")
	post := seedPost(t, db, acc.ID, []string{"x"})
	for i := 0; i < 3; i++ {
		seedLead(t, db, acc.ID, &post.ID,
			fmt.Sprintf("https://linkedin.com/in/lead-%d", i), domain.ConnectionConnected)
	}

	s := domain.DefaultSettings()
	s.MaxDailyMessages = 1
	if _, err := repo.SaveSettings(context.Background(), db, s); err != nil {
		t.Fatalf("save settings: %v", err)
	}

	fa := &fakeActions{}
	svc := newLeadService(db, fa)

	if err := svc.RunPendingDMFlush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if len(fa.sentMessages) != 1 {
		t.Errorf("messages = %d, want 1 (cap)", len(fa.sentMessages))
	}
	if got := dayCount(t, db, acc.ID, domain.ActionMessage); got != 1 {
		t.Errorf("message count = %d, want 1", got)
	}
}

func TestLeadFirstNameTitleCased(t *testing.T) {
	cases := map[string]string{
		"pat doe":  "Pat",
		"ALICE":    "Alice",
		"bob":      "Bob",
		"":         "there",
		"  \t  ":   "there",
		"Élodie R": "Élodie",
	}
	for in, want := range cases {
		if got := leadFirstName(in); got != want {
			t.Errorf("leadFirstName(%q) = %q, want %q", in, got, want)
		}
	}
}
