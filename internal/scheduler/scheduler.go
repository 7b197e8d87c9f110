// Package scheduler drives the periodic automation triggers: the reply-bot
// poll, the comment-bot check, the connection checker, and the pending-DM
// sender. Each trigger runs on its own goroutine with its own cadence.
//
// Trigger intervals are re-read from the live settings row before every
// cycle, so operator changes apply from the next tick without a restart. A
// per-trigger guard drops a tick whose previous run is still in flight
// instead of stacking runs; passes contain humanized waits and routinely
// outlive short intervals.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/nkoureas/go-engage-backend/internal/domain"
	"github.com/nkoureas/go-engage-backend/internal/repo"
	"github.com/nkoureas/go-engage-backend/internal/services"
)

// Job is one schedulable unit of work.
type Job func(ctx context.Context) error

// Trigger pairs a job with its operator-configurable cadence.
type Trigger struct {
	// Name identifies the trigger in logs and metrics.
	Name string
	// Interval derives the current cadence from a settings snapshot.
	Interval func(s domain.Settings) time.Duration
	// Run executes one pass.
	Run Job

	running atomic.Bool
}

// Scheduler owns the trigger goroutines.
type Scheduler struct {
	DB *gorm.DB

	triggers []*Trigger
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// New builds a Scheduler with the four standard automation triggers wired to
// the given services.
func New(db *gorm.DB, reply *services.ReplyBotService, comment *services.CommentBotService, leads *services.LeadService) *Scheduler {
	s := &Scheduler{DB: db}
	s.Register(&Trigger{
		Name: "reply_bot_poll",
		Interval: func(set domain.Settings) time.Duration {
			return minutes(set.ReplyBotIntervalMins, domain.DefaultReplyBotIntervalMins)
		},
		Run: reply.RunPoll,
	})
	s.Register(&Trigger{
		Name: "comment_bot_check",
		Interval: func(set domain.Settings) time.Duration {
			return minutes(set.CommentBotIntervalMins, domain.DefaultCommentBotIntervalMins)
		},
		Run: comment.RunCheck,
	})
	s.Register(&Trigger{
		Name: "connection_checker",
		Interval: func(set domain.Settings) time.Duration {
			return minutes(set.ConnectionCheckMins, domain.DefaultConnectionCheckMins)
		},
		Run: leads.RunConnectionSweep,
	})
	s.Register(&Trigger{
		Name: "pending_dm_sender",
		Interval: func(set domain.Settings) time.Duration {
			return minutes(set.DMFlushMins, domain.DefaultDMFlushMins)
		},
		Run: leads.RunPendingDMFlush,
	})
	return s
}

func minutes(mins, fallback int) time.Duration {
	if mins <= 0 {
		mins = fallback
	}
	return time.Duration(mins) * time.Minute
}

// Register adds a trigger. Must be called before Start.
func (s *Scheduler) Register(t *Trigger) {
	s.triggers = append(s.triggers, t)
}

// Start launches one goroutine per trigger. The goroutines stop when Stop is
// called or the parent context is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	for _, t := range s.triggers {
		s.wg.Add(1)
		go s.loop(ctx, t)
	}
	log.Info().Int("triggers", len(s.triggers)).Msg("scheduler started")
}

// Stop cancels all trigger goroutines and waits for in-flight passes to
// return.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	log.Info().Msg("scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context, t *Trigger) {
	defer s.wg.Done()

	timer := time.NewTimer(s.interval(ctx, t))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		s.runOnce(ctx, t)

		// Cadence is re-read after every run so settings changes apply
		// from the next tick.
		timer.Reset(s.interval(ctx, t))
	}
}

// interval returns the trigger's current cadence from the live settings row,
// falling back to defaults when the row is missing or unreadable.
func (s *Scheduler) interval(ctx context.Context, t *Trigger) time.Duration {
	set, err := repo.GetSettings(ctx, s.DB)
	if err != nil {
		log.Warn().Err(err).Str("trigger", t.Name).Msg("failed to read settings, using defaults")
		set = domain.DefaultSettings()
	}
	return t.Interval(set)
}

// runOnce executes one pass of a trigger, skipping it when the previous pass
// is still running.
func (s *Scheduler) runOnce(ctx context.Context, t *Trigger) {
	if !t.running.CompareAndSwap(false, true) {
		log.Warn().Str("trigger", t.Name).Msg("previous run still in flight, skipping tick")
		return
	}
	defer t.running.Store(false)

	start := time.Now()
	if err := t.Run(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Error().Err(err).Str("trigger", t.Name).
			Dur("elapsed", time.Since(start)).
			Msg("trigger run failed")
		return
	}
	log.Debug().Str("trigger", t.Name).
		Dur("elapsed", time.Since(start)).
		Msg("trigger run finished")
}
