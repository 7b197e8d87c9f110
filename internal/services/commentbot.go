// Package services – CommentBotService
//
// This file implements the comment bot: it watches target profiles for new
// posts and engages each fresh post once with a reaction plus a generated
// comment in the account's voice.
//
// Correctness notes:
//   - The unique index on (watched_account_id, post_url) makes engagement
//     idempotent; a post is never engaged twice for the same target.
//   - Each target carries its own check interval; targets whose interval has
//     not elapsed are skipped for the pass without touching LastCheckedAt.
//   - When the account's daily comment cap is exhausted mid-target, the
//     remaining posts of that target are abandoned for the pass.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/nkoureas/go-engage-backend/internal/ai"
	"github.com/nkoureas/go-engage-backend/internal/domain"
	"github.com/nkoureas/go-engage-backend/internal/humanize"
	"github.com/nkoureas/go-engage-backend/internal/limits"
	"github.com/nkoureas/go-engage-backend/internal/linkedapi"
	"github.com/nkoureas/go-engage-backend/internal/repo"
)

// postFetchLimit caps how many recent posts one check fetches per target.
const postFetchLimit = 5

// defaultReaction is the reaction type applied alongside every comment.
const defaultReaction = "like"

// CommentBotService checks watched target profiles and engages new posts.
type CommentBotService struct {
	DB      *gorm.DB
	Actions linkedapi.Factory
	AI      ai.Generator
	Guard   *limits.Guard
	Waiter  *humanize.Waiter

	// Now is injectable for tests; when nil, time.Now is used.
	Now func() time.Time
}

// NewCommentBotService constructs a CommentBotService with the default waiter.
func NewCommentBotService(db *gorm.DB, actions linkedapi.Factory, gen ai.Generator, guard *limits.Guard) *CommentBotService {
	return &CommentBotService{DB: db, Actions: actions, AI: gen, Guard: guard, Waiter: humanize.NewWaiter()}
}

func (s *CommentBotService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// dueForCheck reports whether the target's per-target interval has elapsed.
func (s *CommentBotService) dueForCheck(w *domain.WatchedAccount) bool {
	if w.LastCheckedAt == nil {
		return true
	}
	interval := time.Duration(w.CheckIntervalMins) * time.Minute
	return s.now().Sub(*w.LastCheckedAt) >= interval
}

// RunCheck executes one comment-bot pass over every active watched target of
// every active account. Per-target failures are isolated and recorded; the
// pass only aborts on context cancellation.
func (s *CommentBotService) RunCheck(ctx context.Context) error {
	tr := otel.Tracer("services/CommentBotService")
	ctx, span := tr.Start(ctx, "RunCheck")
	defer span.End()

	start := s.now()
	defer func() { passDuration.WithLabelValues("comment_bot_check").Observe(time.Since(start).Seconds()) }()

	settings, err := repo.GetSettings(ctx, s.DB)
	if err != nil {
		return err
	}
	if !settings.CommentBotEnabled {
		return nil
	}

	watches, err := repo.ListActiveWatches(ctx, s.DB)
	if err != nil {
		return err
	}
	span.SetAttributes(attribute.Int("targets.count", len(watches)))

	for i := range watches {
		target := &watches[i]
		if !s.dueForCheck(target) {
			continue
		}
		if _, err := s.checkTarget(ctx, target, settings); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logActivity(ctx, s.DB, target.AccountID, "comment_bot_error", "failed",
				map[string]any{"error": err.Error(), "targetUrl": target.TargetURL})
		}
		if err := s.Waiter.Delay(ctx, delayRange(humanize.BetweenTargets, settings)); err != nil {
			return err
		}
	}
	return nil
}

// CheckTargetByID runs one comment-bot check for a single watched target, the
// manual-trigger path behind the admin API. The target must be active and
// belong to an active account; the per-target interval is ignored.
func (s *CommentBotService) CheckTargetByID(ctx context.Context, watchID string) (engaged int, err error) {
	tr := otel.Tracer("services/CommentBotService")
	ctx, span := tr.Start(ctx, "CheckTargetByID",
		trace.WithAttributes(attribute.String("watch.id", watchID)))
	defer span.End()

	var target domain.WatchedAccount
	if err := s.DB.WithContext(ctx).Preload("Account").First(&target, "id = ?", watchID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrWatchNotFound
		}
		return 0, err
	}
	if !target.IsActive || !target.Account.IsActive {
		return 0, ErrWatchInactive
	}

	settings, err := repo.GetSettings(ctx, s.DB)
	if err != nil {
		return 0, err
	}
	return s.checkTarget(ctx, &target, settings)
}

// checkTarget fetches the target's recent posts since the last check and
// engages each post not yet engaged, stopping early when the comment cap runs
// out. LastCheckedAt is stamped regardless of per-post outcomes. Returns how
// many posts were newly engaged.
func (s *CommentBotService) checkTarget(ctx context.Context, target *domain.WatchedAccount, settings domain.Settings) (int, error) {
	client := s.Actions(target.Account.APIToken)

	since := ""
	if target.LastCheckedAt != nil {
		since = target.LastCheckedAt.UTC().Format(time.RFC3339)
	}
	posts, err := client.FetchRecentPosts(ctx, target.TargetURL, postFetchLimit, since)
	if err != nil {
		return 0, fmt.Errorf("fetch posts: %w", err)
	}

	engaged := 0
	for _, post := range posts {
		seen, err := repo.EngagementExists(ctx, s.DB, target.ID, post.URL)
		if err != nil {
			return engaged, err
		}
		if seen {
			continue
		}

		can, err := s.Guard.CanPerform(ctx, target.AccountID, domain.ActionComment)
		if err != nil {
			return engaged, err
		}
		if !can {
			rateLimitSkips.WithLabelValues(domain.ActionComment).Inc()
			break
		}

		posted, err := s.engage(ctx, target, post, client)
		if err != nil {
			if ctx.Err() != nil {
				return engaged, ctx.Err()
			}
			logActivity(ctx, s.DB, target.AccountID, "engagement_error", "failed",
				map[string]any{"error": err.Error(), "targetUrl": target.TargetURL, "postUrl": post.URL})
		}
		if posted {
			engaged++
		}
		if err := s.Waiter.Delay(ctx, delayRange(humanize.BetweenEngagements, settings)); err != nil {
			return engaged, err
		}
	}

	return engaged, repo.TouchLastChecked(ctx, s.DB, target.ID, s.now().UTC())
}

// engage generates an insightful comment in the account's voice and posts it
// with a reaction, then records the engagement. Reports whether the post was
// actually engaged.
func (s *CommentBotService) engage(ctx context.Context, target *domain.WatchedAccount, post linkedapi.Post, client linkedapi.Actions) (bool, error) {
	commentText, err := s.AI.GenerateInsightfulComment(ctx, ai.CommentInput{
		PostContent:    post.Text,
		AuthorName:     target.TargetName,
		AuthorHeadline: target.TargetHeadline,
		Expertise:      target.Account.VoiceTopics,
		Tone:           target.Account.VoiceTone,
		CommentStyle:   target.CommentStyle,
		SampleComments: target.Account.SampleComments,
	})
	if err != nil {
		automationActions.WithLabelValues(domain.ActionComment, outcomeFailed).Inc()
		return false, fmt.Errorf("generate comment: %w", err)
	}

	ok, err := client.ReactAndComment(ctx, post.URL, commentText, defaultReaction)
	if err != nil {
		automationActions.WithLabelValues(domain.ActionComment, outcomeFailed).Inc()
		return false, fmt.Errorf("react and comment: %w", err)
	}
	if !ok {
		automationActions.WithLabelValues(domain.ActionComment, outcomeFailed).Inc()
		return false, nil
	}

	automationActions.WithLabelValues(domain.ActionComment, outcomeSuccess).Inc()
	if err := s.Guard.Record(ctx, target.AccountID, domain.ActionComment); err != nil {
		return true, err
	}
	if _, err := repo.CreateEngagement(ctx, s.DB, &domain.Engagement{
		WatchedAccountID: target.ID,
		PostURL:          post.URL,
		PostText:         post.Text,
		Reacted:          true,
		ReactionType:     defaultReaction,
		Commented:        true,
		CommentText:      commentText,
	}); err != nil {
		// A concurrent pass recorded it first; the action still counted.
		if !repo.IsDuplicate(err) {
			return true, err
		}
	}
	logActivity(ctx, s.DB, target.AccountID, "engagement_posted", "success",
		map[string]any{"targetUrl": target.TargetURL, "postUrl": post.URL})
	return true, nil
}
