// Package services – ReplyBotService
//
// This file implements the reply bot: it polls every active monitored post
// for fresh comments, evaluates them against the post's keywords, replies to
// matches, and captures matched commenters as leads.
//
// Correctness notes:
//   - A comment is identified by (post, commenter URL, comment text); the
//     unique index on processed_comments makes re-polling idempotent even when
//     two passes overlap.
//   - Keyword matching is a case-insensitive substring check and the first
//     keyword in the post's configured list order wins.
//   - LastPolledAt and the cumulative counters are stamped at the end of every
//     pass, even when actions inside the pass failed, so aggregates always
//     reflect what was fetched.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
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

// commentFetchLimit caps how many recent comments one poll fetches per post.
const commentFetchLimit = 50

// ReplyBotService polls monitored posts and processes keyword matches.
type ReplyBotService struct {
	DB      *gorm.DB
	Actions linkedapi.Factory
	AI      ai.Generator
	Guard   *limits.Guard
	Waiter  *humanize.Waiter
	Leads   *LeadService

	// Now is injectable for tests; when nil, time.Now is used.
	Now func() time.Time
}

// NewReplyBotService constructs a ReplyBotService sharing the lead service's
// funnel actions.
func NewReplyBotService(db *gorm.DB, actions linkedapi.Factory, gen ai.Generator, guard *limits.Guard, leads *LeadService) *ReplyBotService {
	return &ReplyBotService{DB: db, Actions: actions, AI: gen, Guard: guard, Waiter: humanize.NewWaiter(), Leads: leads}
}

func (s *ReplyBotService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// matchKeyword returns the first configured keyword contained in the comment
// text, case-insensitively, or "" when none matches. List order decides ties.
func matchKeyword(keywords []string, text string) string {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(kw)) {
			return kw
		}
	}
	return ""
}

// RunPoll executes one reply-bot pass over every active monitored post of
// every active account. Per-post failures are isolated and recorded; the pass
// only aborts on context cancellation.
func (s *ReplyBotService) RunPoll(ctx context.Context) error {
	tr := otel.Tracer("services/ReplyBotService")
	ctx, span := tr.Start(ctx, "RunPoll")
	defer span.End()

	start := s.now()
	defer func() { passDuration.WithLabelValues("reply_bot_poll").Observe(time.Since(start).Seconds()) }()

	settings, err := repo.GetSettings(ctx, s.DB)
	if err != nil {
		return err
	}
	if !settings.ReplyBotEnabled {
		return nil
	}

	posts, err := repo.ListActivePolls(ctx, s.DB)
	if err != nil {
		return err
	}
	span.SetAttributes(attribute.Int("posts.count", len(posts)))

	for i := range posts {
		post := &posts[i]
		if _, _, err := s.pollPost(ctx, post, settings); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logActivity(ctx, s.DB, post.AccountID, "poll_error", "failed",
				map[string]any{"error": err.Error(), "postId": post.ID})
		}
		if err := s.Waiter.Delay(ctx, delayRange(humanize.BetweenPosts, settings)); err != nil {
			return err
		}
	}
	return nil
}

// PollPostByID runs one poll pass for a single post, the manual-trigger path
// behind the admin API. The post must be active and belong to an active
// account.
func (s *ReplyBotService) PollPostByID(ctx context.Context, postID string) (comments, matches int, err error) {
	tr := otel.Tracer("services/ReplyBotService")
	ctx, span := tr.Start(ctx, "PollPostByID",
		trace.WithAttributes(attribute.String("post.id", postID)))
	defer span.End()

	var post domain.MonitoredPost
	if err := s.DB.WithContext(ctx).Preload("Account").First(&post, "id = ?", postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, 0, ErrPostNotFound
		}
		return 0, 0, err
	}
	if !post.IsActive || !post.Account.IsActive {
		return 0, 0, ErrPostInactive
	}

	settings, err := repo.GetSettings(ctx, s.DB)
	if err != nil {
		return 0, 0, err
	}
	return s.pollPost(ctx, &post, settings)
}

// pollPost fetches recent comments for one post, records the unseen ones,
// processes keyword matches, and stamps the pass counters.
func (s *ReplyBotService) pollPost(ctx context.Context, post *domain.MonitoredPost, settings domain.Settings) (int, int, error) {
	client := s.Actions(post.Account.APIToken)

	comments, err := client.FetchComments(ctx, post.PostURL, commentFetchLimit)
	if err != nil {
		return 0, 0, fmt.Errorf("fetch comments: %w", err)
	}

	var matched []*domain.ProcessedComment
	for _, c := range comments {
		seen, err := repo.ProcessedCommentExists(ctx, s.DB, post.ID, c.CommenterURL, c.Text)
		if err != nil {
			return 0, 0, err
		}
		if seen {
			continue
		}

		kw := matchKeyword(post.Keywords, c.Text)
		pc := &domain.ProcessedComment{
			PostID:            post.ID,
			CommenterURL:      c.CommenterURL,
			CommenterName:     c.CommenterName,
			CommenterHeadline: c.CommenterHeadline,
			CommentText:       c.Text,
			CommentTime:       c.Time,
			WasMatch:          kw != "",
		}
		if kw != "" {
			pc.MatchedKeyword = &kw
		}

		if _, err := repo.CreateProcessedComment(ctx, s.DB, pc); err != nil {
			// A concurrent pass recorded it first; treat as already seen.
			if repo.IsDuplicate(err) {
				continue
			}
			return 0, 0, err
		}
		if kw != "" {
			matched = append(matched, pc)
		}
	}

	for _, m := range matched {
		if err := s.processMatch(ctx, post, m, client, settings); err != nil {
			if ctx.Err() != nil {
				return len(comments), len(matched), ctx.Err()
			}
			logActivity(ctx, s.DB, post.AccountID, "match_error", "failed",
				map[string]any{"error": err.Error(), "postId": post.ID, "commenterUrl": m.CommenterURL})
		}
	}

	if err := repo.FinishPollPass(ctx, s.DB, post.ID, len(comments), len(matched), s.now().UTC()); err != nil {
		return len(comments), len(matched), err
	}
	return len(comments), len(matched), nil
}

// processMatch handles one keyword-matched comment: public reply (when
// auto-reply is on), lead capture, and the immediate funnel step the observed
// connection status allows.
func (s *ReplyBotService) processMatch(ctx context.Context, post *domain.MonitoredPost, comment *domain.ProcessedComment, client linkedapi.Actions, settings domain.Settings) error {
	can, err := s.Guard.CanPerform(ctx, post.AccountID, domain.ActionComment)
	if err != nil {
		return err
	}
	if !can {
		rateLimitSkips.WithLabelValues(domain.ActionComment).Inc()
		return nil
	}

	if post.AutoReply {
		if err := s.replyToComment(ctx, post, comment, client, settings); err != nil {
			return err
		}
	}

	if err := s.Waiter.Delay(ctx, delayRange(humanize.BeforeCheck, settings)); err != nil {
		return err
	}

	// A failed check yields unknown, which is persisted as-is; the
	// connection sweep re-checks those leads later.
	status, _ := client.CheckConnection(ctx, comment.CommenterURL)

	kw := ""
	if comment.MatchedKeyword != nil {
		kw = *comment.MatchedKeyword
	}
	postID := post.ID
	lead, created, err := repo.UpsertLeadOnMatch(ctx, s.DB, &domain.Lead{
		AccountID:        post.AccountID,
		PostID:           &postID,
		LinkedInURL:      comment.CommenterURL,
		Name:             comment.CommenterName,
		Headline:         comment.CommenterHeadline,
		SourceKeyword:    kw,
		SourcePostURL:    post.PostURL,
		ConnectionStatus: status,
		DMStatus:         domain.DMNotSent,
	})
	if err != nil {
		return fmt.Errorf("upsert lead: %w", err)
	}
	if created {
		if err := repo.IncrementPostLeads(ctx, s.DB, post.ID); err != nil {
			return err
		}
	}

	// Never DM twice: only leads still at not_sent take a funnel step here.
	if lead.DMStatus != domain.DMNotSent {
		return nil
	}
	lead.Account = post.Account

	switch status {
	case domain.ConnectionConnected:
		can, err := s.Guard.CanPerform(ctx, post.AccountID, domain.ActionMessage)
		if err != nil {
			return err
		}
		if !can {
			rateLimitSkips.WithLabelValues(domain.ActionMessage).Inc()
			return nil
		}
		return s.Leads.sendDM(ctx, lead, post, client, settings)
	case domain.ConnectionNotConnected:
		can, err := s.Guard.CanPerform(ctx, post.AccountID, domain.ActionConnectionRequest)
		if err != nil {
			return err
		}
		if !can {
			rateLimitSkips.WithLabelValues(domain.ActionConnectionRequest).Inc()
			return nil
		}
		return s.Leads.sendConnectionRequest(ctx, lead, post, client, settings)
	default:
		// pending or unknown: the connection sweep owns the next step.
		return nil
	}
}

// replyToComment generates and posts the public reply for a match, recording
// the consumed comment action and the reply metadata on success.
func (s *ReplyBotService) replyToComment(ctx context.Context, post *domain.MonitoredPost, comment *domain.ProcessedComment, client linkedapi.Actions, settings domain.Settings) error {
	ctaHint := post.CTAMessage
	if ctaHint == "" {
		ctaHint = post.CTAValue
	}
	replyText, err := s.AI.GenerateReply(ctx, ai.ReplyInput{
		OriginalComment:    comment.CommentText,
		CommenterName:      comment.CommenterName,
		PostTopic:          postTopic(post, "this topic"),
		CTAHint:            ctaHint,
		VoiceTone:          post.Account.VoiceTone,
		CustomInstructions: post.ReplyStyle,
	})
	if err != nil {
		automationActions.WithLabelValues(domain.ActionComment, outcomeFailed).Inc()
		return fmt.Errorf("generate reply: %w", err)
	}

	if err := s.Waiter.Delay(ctx, delayRange(humanize.BetweenSteps, settings)); err != nil {
		return err
	}

	ok, err := client.PostComment(ctx, post.PostURL, replyText)
	if err != nil {
		automationActions.WithLabelValues(domain.ActionComment, outcomeFailed).Inc()
		return fmt.Errorf("post reply: %w", err)
	}
	if !ok {
		automationActions.WithLabelValues(domain.ActionComment, outcomeFailed).Inc()
		return nil
	}

	automationActions.WithLabelValues(domain.ActionComment, outcomeSuccess).Inc()
	if err := s.Guard.Record(ctx, post.AccountID, domain.ActionComment); err != nil {
		return err
	}
	if err := repo.AttachReply(ctx, s.DB, comment.ID, replyText, s.now().UTC()); err != nil {
		return err
	}
	logActivity(ctx, s.DB, post.AccountID, "reply_posted", "success",
		map[string]any{"postId": post.ID, "commenterUrl": comment.CommenterURL})
	return nil
}
