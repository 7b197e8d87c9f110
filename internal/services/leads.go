// Package services – LeadService
//
// This file implements the outbound lead funnel: sending connection requests
// and DMs to captured leads, the periodic connection-status sweep, and the
// pending-DM flush. State transitions are idempotent because every send is
// gated on the lead's current status and the status update lands only after
// the external action succeeded.
//
// Observability: sweep entry points are OpenTelemetry-instrumented; individual
// lead failures are isolated, logged, and recorded in the activity trail
// without aborting the rest of the sweep.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nkoureas/go-engage-backend/internal/ai"
	"github.com/nkoureas/go-engage-backend/internal/domain"
	"github.com/nkoureas/go-engage-backend/internal/humanize"
	"github.com/nkoureas/go-engage-backend/internal/limits"
	"github.com/nkoureas/go-engage-backend/internal/linkedapi"
	"github.com/nkoureas/go-engage-backend/internal/repo"
)

// dmFlushBatch caps how many leads one pending-DM flush pass picks up, so a
// backlog drains gradually instead of bursting.
const dmFlushBatch = 10

// LeadService owns the outbound funnel for captured leads.
type LeadService struct {
	DB      *gorm.DB
	Actions linkedapi.Factory
	AI      ai.Generator
	Guard   *limits.Guard
	Waiter  *humanize.Waiter

	// Now is injectable for tests; when nil, time.Now is used.
	Now func() time.Time
}

// NewLeadService constructs a LeadService with the default waiter.
func NewLeadService(db *gorm.DB, actions linkedapi.Factory, gen ai.Generator, guard *limits.Guard) *LeadService {
	return &LeadService{DB: db, Actions: actions, AI: gen, Guard: guard, Waiter: humanize.NewWaiter()}
}

func (s *LeadService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// titleCaser normalizes lead first names for connection notes.
var titleCaser = cases.Title(language.English)

// postTopic returns the post's title or a fallback phrase for prompts and
// note templates.
func postTopic(post *domain.MonitoredPost, fallback string) string {
	if post != nil && post.PostTitle != "" {
		return post.PostTitle
	}
	return fallback
}

// leadFirstName extracts and title-cases the lead's first name.
func leadFirstName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return "there"
	}
	return titleCaser.String(fields[0])
}

// sendDM generates and delivers the sales DM for a connected lead, then
// advances the lead's DM status. The caller is responsible for the rate-limit
// check; recording the consumed action happens here, after delivery.
func (s *LeadService) sendDM(ctx context.Context, lead *domain.Lead, post *domain.MonitoredPost, client linkedapi.Actions, settings domain.Settings) error {
	dmText, err := s.AI.GenerateDM(ctx, ai.DMInput{
		LeadName:           lead.Name,
		LeadHeadline:       lead.Headline,
		PostTopic:          postTopic(post, "my recent post"),
		CTAType:            post.CTAType,
		CTAValue:           post.CTAValue,
		CTAMessage:         post.CTAMessage,
		CustomInstructions: post.ReplyStyle,
	})
	if err != nil {
		automationActions.WithLabelValues(domain.ActionMessage, outcomeFailed).Inc()
		return fmt.Errorf("generate dm: %w", err)
	}

	if err := s.Waiter.Delay(ctx, delayRange(humanize.BetweenSteps, settings)); err != nil {
		return err
	}

	ok, err := client.SendMessage(ctx, lead.LinkedInURL, dmText)
	if err != nil {
		automationActions.WithLabelValues(domain.ActionMessage, outcomeFailed).Inc()
		return fmt.Errorf("send message: %w", err)
	}
	if !ok {
		automationActions.WithLabelValues(domain.ActionMessage, outcomeFailed).Inc()
		return nil
	}

	automationActions.WithLabelValues(domain.ActionMessage, outcomeSuccess).Inc()
	if err := s.Guard.Record(ctx, lead.AccountID, domain.ActionMessage); err != nil {
		return err
	}
	if err := repo.MarkLeadDMSent(ctx, s.DB, lead.ID, dmText, s.now().UTC()); err != nil {
		return err
	}
	logActivity(ctx, s.DB, lead.AccountID, "dm_sent", "success", map[string]any{"leadId": lead.ID})
	return nil
}

// sendConnectionRequest delivers a connection invite with a short personal
// note and marks the lead pending. The note template references the post the
// lead engaged with.
func (s *LeadService) sendConnectionRequest(ctx context.Context, lead *domain.Lead, post *domain.MonitoredPost, client linkedapi.Actions, settings domain.Settings) error {
	note := fmt.Sprintf("Hi %s, saw your comment on my post about %s. Would love to connect!",
		leadFirstName(lead.Name), postTopic(post, "a topic I shared"))

	if err := s.Waiter.Delay(ctx, delayRange(humanize.BetweenSteps, settings)); err != nil {
		return err
	}

	ok, err := client.SendConnectionRequest(ctx, lead.LinkedInURL, note)
	if err != nil {
		automationActions.WithLabelValues(domain.ActionConnectionRequest, outcomeFailed).Inc()
		return fmt.Errorf("send connection request: %w", err)
	}
	if !ok {
		automationActions.WithLabelValues(domain.ActionConnectionRequest, outcomeFailed).Inc()
		return nil
	}

	automationActions.WithLabelValues(domain.ActionConnectionRequest, outcomeSuccess).Inc()
	if err := s.Guard.Record(ctx, lead.AccountID, domain.ActionConnectionRequest); err != nil {
		return err
	}
	if err := repo.MarkLeadConnectionPending(ctx, s.DB, lead.ID, s.now().UTC()); err != nil {
		return err
	}
	logActivity(ctx, s.DB, lead.AccountID, "connection_sent", "success", map[string]any{"leadId": lead.ID})
	return nil
}

// RunConnectionSweep re-checks every lead whose connection progress is
// unresolved (request pending, or last check failed) and has not been
// messaged. Leads observed as connected are advanced and, caps permitting,
// messaged immediately.
func (s *LeadService) RunConnectionSweep(ctx context.Context) error {
	tr := otel.Tracer("services/LeadService")
	ctx, span := tr.Start(ctx, "RunConnectionSweep")
	defer span.End()

	start := s.now()
	defer func() { passDuration.WithLabelValues("connection_checker").Observe(time.Since(start).Seconds()) }()

	settings, err := repo.GetSettings(ctx, s.DB)
	if err != nil {
		return err
	}

	leads, err := repo.ListConnectionSweepLeads(ctx, s.DB)
	if err != nil {
		return err
	}
	span.SetAttributes(attribute.Int("leads.count", len(leads)))

	for i := range leads {
		lead := &leads[i]
		if err := s.sweepLead(ctx, lead, settings); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logActivity(ctx, s.DB, lead.AccountID, "connection_check_error", "failed",
				map[string]any{"error": err.Error(), "leadId": lead.ID})
		}
		if err := s.Waiter.Delay(ctx, delayRange(humanize.BetweenSweepChecks, settings)); err != nil {
			return err
		}
	}
	return nil
}

func (s *LeadService) sweepLead(ctx context.Context, lead *domain.Lead, settings domain.Settings) error {
	client := s.Actions(lead.Account.APIToken)

	status, err := client.CheckConnection(ctx, lead.LinkedInURL)
	if err != nil {
		return fmt.Errorf("check connection: %w", err)
	}

	if status != domain.ConnectionConnected {
		if status != lead.ConnectionStatus {
			return repo.SetLeadConnectionStatus(ctx, s.DB, lead.ID, status)
		}
		return nil
	}

	if err := repo.MarkLeadConnected(ctx, s.DB, lead.ID, s.now().UTC()); err != nil {
		return err
	}

	if lead.Post == nil {
		return nil
	}
	can, err := s.Guard.CanPerform(ctx, lead.AccountID, domain.ActionMessage)
	if err != nil {
		return err
	}
	if !can {
		rateLimitSkips.WithLabelValues(domain.ActionMessage).Inc()
		return nil
	}
	return s.sendDM(ctx, lead, lead.Post, client, settings)
}

// RunPendingDMFlush messages up to dmFlushBatch connected-but-unmessaged
// leads. Leads without an originating post are left alone: there is no offer
// context to write a DM from.
func (s *LeadService) RunPendingDMFlush(ctx context.Context) error {
	tr := otel.Tracer("services/LeadService")
	ctx, span := tr.Start(ctx, "RunPendingDMFlush")
	defer span.End()

	start := s.now()
	defer func() { passDuration.WithLabelValues("pending_dm_sender").Observe(time.Since(start).Seconds()) }()

	settings, err := repo.GetSettings(ctx, s.DB)
	if err != nil {
		return err
	}

	leads, err := repo.ListDMFlushLeads(ctx, s.DB, dmFlushBatch)
	if err != nil {
		return err
	}
	span.SetAttributes(attribute.Int("leads.count", len(leads)))

	for i := range leads {
		lead := &leads[i]
		if lead.Post == nil {
			continue
		}
		can, err := s.Guard.CanPerform(ctx, lead.AccountID, domain.ActionMessage)
		if err != nil {
			return err
		}
		if !can {
			rateLimitSkips.WithLabelValues(domain.ActionMessage).Inc()
			continue
		}

		client := s.Actions(lead.Account.APIToken)
		if err := s.sendDM(ctx, lead, lead.Post, client, settings); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logActivity(ctx, s.DB, lead.AccountID, "dm_error", "failed",
				map[string]any{"error": err.Error(), "leadId": lead.ID})
			continue
		}
		if err := s.Waiter.Delay(ctx, delayRange(humanize.BetweenTargets, settings)); err != nil {
			return err
		}
	}
	return nil
}
