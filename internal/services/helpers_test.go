package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/nkoureas/go-engage-backend/internal/ai"
	"github.com/nkoureas/go-engage-backend/internal/domain"
	"github.com/nkoureas/go-engage-backend/internal/humanize"
	"github.com/nkoureas/go-engage-backend/internal/limits"
	"github.com/nkoureas/go-engage-backend/internal/linkedapi"
	"github.com/nkoureas/go-engage-backend/internal/repo"
)

// openTestDB creates a throwaway sqlite database with the full schema.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// instantWaiter never sleeps, so orchestrator tests run without real waits.
func instantWaiter() *humanize.Waiter {
	return &humanize.Waiter{
		Rand:  func(n int64) int64 { return 0 },
		Sleep: func(ctx context.Context, d time.Duration) error { return ctx.Err() },
	}
}

func seedAccount(t *testing.T, db *gorm.DB, name string) *domain.Account {
	t.Helper()
	a, err := repo.CreateAccount(context.Background(), db, &domain.Account{
		Name:        name,
		APIToken:    "tok-" + name,
		IsActive:    true,
		VoiceTone:   "professional",
		VoiceTopics: []string{"AI", "automation"},
	})
	if err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return a
}

func seedPost(t *testing.T, db *gorm.DB, accountID string, keywords []string) *domain.MonitoredPost {
	t.Helper()
	p, err := repo.CreateMonitoredPost(context.Background(), db, &domain.MonitoredPost{
		AccountID: accountID,
		PostURL:   "https://linkedin.com/posts/" + accountID[:8],
		PostTitle: "AI agents",
		Keywords:  keywords,
		AutoReply: true,
		CTAType:   "link",
		CTAValue:  "https://example.com/guide",
		IsActive:  true,
	})
	if err != nil {
		t.Fatalf("seed post: %v", err)
	}
	return p
}

// fakeActions is an in-memory Actions implementation shared across accounts.
// Outbound calls are recorded for assertions.
type fakeActions struct {
	mu sync.Mutex

	comments   []linkedapi.Comment
	posts      []linkedapi.Post
	connStatus string
	connErr    error

	fetchCalls     int
	postedReplies  []string
	sentMessages   []string
	sentInvites    []string
	engagedPosts   []string
	lastIdentToken string
}

func (f *fakeActions) factory() linkedapi.Factory {
	return func(token string) linkedapi.Actions {
		f.mu.Lock()
		f.lastIdentToken = token
		f.mu.Unlock()
		return f
	}
}

func (f *fakeActions) FetchComments(ctx context.Context, postURL string, limit int) ([]linkedapi.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls++
	return f.comments, nil
}

func (f *fakeActions) PostComment(ctx context.Context, postURL, text string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.postedReplies = append(f.postedReplies, text)
	return true, nil
}

func (f *fakeActions) CheckConnection(ctx context.Context, personURL string) (string, error) {
	if f.connErr != nil {
		return domain.ConnectionUnknown, f.connErr
	}
	if f.connStatus == "" {
		return domain.ConnectionUnknown, nil
	}
	return f.connStatus, nil
}

func (f *fakeActions) SendConnectionRequest(ctx context.Context, personURL, note string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sentInvites = append(f.sentInvites, note)
	return true, nil
}

func (f *fakeActions) SendMessage(ctx context.Context, personURL, text string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sentMessages = append(f.sentMessages, text)
	return true, nil
}

func (f *fakeActions) FetchRecentPosts(ctx context.Context, personURL string, limit int, since string) ([]linkedapi.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls++
	return f.posts, nil
}

func (f *fakeActions) ReactAndComment(ctx context.Context, postURL, text, reaction string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.engagedPosts = append(f.engagedPosts, postURL)
	return true, nil
}

// fakeGen returns canned generation output.
type fakeGen struct {
	reply   string
	dm      string
	comment string
}

func (g *fakeGen) GenerateReply(ctx context.Context, in ai.ReplyInput) (string, error) {
	if g.reply == "" {
		return "Thanks for the interest!", nil
	}
	return g.reply, nil
}

func (g *fakeGen) GenerateDM(ctx context.Context, in ai.DMInput) (string, error) {
	if g.dm == "" {
		return "Here is the guide we talked about.", nil
	}
	return g.dm, nil
}

func (g *fakeGen) GenerateInsightfulComment(ctx context.Context, in ai.CommentInput) (string, error) {
	if g.comment == "" {
		return "Strong point about activation.", nil
	}
	return g.comment, nil
}

// newReplyBot wires a ReplyBotService with fakes over the given database.
func newReplyBot(db *gorm.DB, fa *fakeActions) *ReplyBotService {
	guard := limits.NewGuard(db)
	leads := NewLeadService(db, fa.factory(), &fakeGen{}, guard)
	leads.Waiter = instantWaiter()
	bot := NewReplyBotService(db, fa.factory(), &fakeGen{}, guard, leads)
	bot.Waiter = instantWaiter()
	return bot
}

// newCommentBot wires a CommentBotService with fakes over the given database.
func newCommentBot(db *gorm.DB, fa *fakeActions) *CommentBotService {
	bot := NewCommentBotService(db, fa.factory(), &fakeGen{}, limits.NewGuard(db))
	bot.Waiter = instantWaiter()
	return bot
}

func dayCount(t *testing.T, db *gorm.DB, accountID, action string) int {
	t.Helper()
	n, err := repo.GetRateLimitCount(context.Background(), db, accountID, action, domain.DayKey(time.Now()))
	if err != nil {
		t.Fatalf("rate limit count: %v", err)
	}
	return n
}
