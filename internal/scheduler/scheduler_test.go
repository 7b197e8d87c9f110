package scheduler

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/nkoureas/go-engage-backend/internal/domain"
	"github.com/nkoureas/go-engage-backend/internal/repo"
)

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

func TestTriggerFiresRepeatedly(t *testing.T) {
	db := openTestDB(t)

	var runs atomic.Int32
	s := &Scheduler{DB: db}
	s.Register(&Trigger{
		Name:     "test_trigger",
		Interval: func(domain.Settings) time.Duration { return 10 * time.Millisecond },
		Run: func(ctx context.Context) error {
			runs.Add(1)
			return nil
		},
	})

	s.Start(context.Background())
	defer s.Stop()

	deadline := time.After(2 * time.Second)
	for runs.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("runs = %d, want >= 3", runs.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestStopWaitsForInFlightRun(t *testing.T) {
	db := openTestDB(t)

	started := make(chan struct{})
	var finished atomic.Bool
	s := &Scheduler{DB: db}
	s.Register(&Trigger{
		Name:     "slow_trigger",
		Interval: func(domain.Settings) time.Duration { return time.Millisecond },
		Run: func(ctx context.Context) error {
			select {
			case started <- struct{}{}:
			default:
			}
			<-ctx.Done()
			finished.Store(true)
			return ctx.Err()
		},
	})

	s.Start(context.Background())
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("trigger never started")
	}

	s.Stop()
	if !finished.Load() {
		t.Error("Stop returned before the in-flight run finished")
	}
}

func TestOverlappingTickIsSkipped(t *testing.T) {
	db := openTestDB(t)

	var concurrent, peak atomic.Int32
	s := &Scheduler{DB: db}
	tr := &Trigger{
		Name:     "guarded",
		Interval: func(domain.Settings) time.Duration { return time.Hour },
		Run: func(ctx context.Context) error {
			n := concurrent.Add(1)
			if n > peak.Load() {
				peak.Store(n)
			}
			time.Sleep(20 * time.Millisecond)
			concurrent.Add(-1)
			return nil
		},
	}
	s.Register(tr)

	// Drive the guard directly with overlapping manual runs.
	done := make(chan struct{})
	for i := 0; i < 5; i++ {
		go func() {
			s.runOnce(context.Background(), tr)
			done <- struct{}{}
		}()
	}
	for i := 0; i < 5; i++ {
		<-done
	}

	if peak.Load() != 1 {
		t.Errorf("peak concurrency = %d, want 1", peak.Load())
	}
}

func TestIntervalFollowsSettings(t *testing.T) {
	db := openTestDB(t)

	set := domain.DefaultSettings()
	set.ReplyBotIntervalMins = 42
	if _, err := repo.SaveSettings(context.Background(), db, set); err != nil {
		t.Fatalf("save settings: %v", err)
	}

	s := &Scheduler{DB: db}
	tr := &Trigger{
		Name: "reply_bot_poll",
		Interval: func(set domain.Settings) time.Duration {
			return minutes(set.ReplyBotIntervalMins, domain.DefaultReplyBotIntervalMins)
		},
	}
	if got := s.interval(context.Background(), tr); got != 42*time.Minute {
		t.Errorf("interval = %v, want 42m", got)
	}

	// Missing row falls back to defaults.
	db2 := openTestDB(t)
	s2 := &Scheduler{DB: db2}
	if got := s2.interval(context.Background(), tr); got != 10*time.Minute {
		t.Errorf("default interval = %v, want 10m", got)
	}
}

func TestStandardTriggerCadences(t *testing.T) {
	set := domain.DefaultSettings()
	s := New(openTestDB(t), nil, nil, nil)

	want := map[string]time.Duration{
		"reply_bot_poll":     10 * time.Minute,
		"comment_bot_check":  30 * time.Minute,
		"connection_checker": 60 * time.Minute,
		"pending_dm_sender":  15 * time.Minute,
	}
	if len(s.triggers) != len(want) {
		t.Fatalf("triggers = %d, want %d", len(s.triggers), len(want))
	}
	for _, tr := range s.triggers {
		w, ok := want[tr.Name]
		if !ok {
			t.Errorf("unexpected trigger %q", tr.Name)
			continue
		}
		if got := tr.Interval(set); got != w {
			t.Errorf("interval(%s) = %v, want %v", tr.Name, got, w)
		}
	}
}
