package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/civicreport/api/internal/auth"
	"github.com/civicreport/api/internal/middleware"
	"github.com/civicreport/api/internal/model"
	"github.com/civicreport/api/internal/store"
)

// Sessions is satisfied by *session.Manager.
type Sessions interface {
	Count() int
	Prune(maxIdle time.Duration) int
}

// StatsScheduler periodically refreshes the report gauges and prunes
// refresh tokens that can no longer be used.
type StatsScheduler struct {
	store    *store.Store
	sessions Sessions
	interval time.Duration
	publish  func(map[string]int)
	now      func() time.Time

	mu        sync.Mutex
	running   bool
	stopChan  chan struct{}
	runs      int
	lastRun   time.Time
	lastError string
	lastStats map[string]int
	pruned    int64
}

type SchedulerConfig struct {
	Interval time.Duration
}

func NewStatsScheduler(s *store.Store, sessions Sessions, cfg SchedulerConfig) *StatsScheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}

	return &StatsScheduler{
		store:    s,
		sessions: sessions,
		interval: cfg.Interval,
		publish:  middleware.SetReportGauges,
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
}

func (s *StatsScheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	log.Printf("[Scheduler] Starting with interval %v", s.interval)

	if err := s.RunOnce(ctx); err != nil {
		log.Printf("[Scheduler] Initial run failed: %v", err)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[Scheduler] Context cancelled, stopping")
			s.markStopped()
			return
		case <-s.stopChan:
			log.Println("[Scheduler] Stop signal received")
			return
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				log.Printf("[Scheduler] Run failed: %v", err)
			}
		}
	}
}

func (s *StatsScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		close(s.stopChan)
		s.running = false
		log.Println("[Scheduler] Stopped")
	}
}

func (s *StatsScheduler) markStopped() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
}

// RunOnce refreshes the gauges and prunes expired or revoked refresh tokens.
func (s *StatsScheduler) RunOnce(ctx context.Context) error {
	stats, err := s.store.ReportStatistics(ctx)
	if err != nil {
		s.record(nil, 0, err)
		return err
	}

	counts := map[string]int{
		model.StatusPending:    stats.Pending,
		model.StatusInProgress: stats.InProgress,
		model.StatusResolved:   stats.Resolved,
	}
	s.publish(counts)
	if s.sessions != nil {
		if n := s.sessions.Prune(auth.AccessTokenExpiry); n > 0 {
			log.Printf("[Scheduler] Dropped %d idle sessions", n)
		}
		middleware.SetLiveSessions(s.sessions.Count())
	}

	result := s.store.DB().WithContext(ctx).
		Where("expires_at < ? OR revoked = ?", s.now(), true).
		Delete(&model.RefreshToken{})
	if result.Error != nil {
		s.record(counts, 0, result.Error)
		return result.Error
	}
	if result.RowsAffected > 0 {
		log.Printf("[Scheduler] Pruned %d refresh tokens", result.RowsAffected)
	}

	s.record(counts, result.RowsAffected, nil)
	return nil
}

func (s *StatsScheduler) record(counts map[string]int, pruned int64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs++
	s.lastRun = s.now()
	s.pruned += pruned
	if counts != nil {
		s.lastStats = counts
	}
	s.lastError = ""
	if err != nil {
		s.lastError = err.Error()
	}
}

// GetStatus returns current scheduler status
func (s *StatsScheduler) GetStatus() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := map[string]interface{}{
		"running":      s.running,
		"interval":     s.interval.String(),
		"runs":         s.runs,
		"reports":      s.lastStats,
		"prunedTokens": s.pruned,
	}
	if !s.lastRun.IsZero() {
		status["lastRun"] = s.lastRun
	}
	if s.lastError != "" {
		status["lastError"] = s.lastError
	}
	return status
}
