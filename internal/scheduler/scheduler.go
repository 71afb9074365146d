package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"instagram-dm-automation-go/internal/config"
	"instagram-dm-automation-go/internal/metrics"
	"instagram-dm-automation-go/internal/models"
)

// TokenRefresher extends an account's page token to a fresh long-lived
// token.
type TokenRefresher interface {
	ExtendToken(ctx context.Context, token string) (string, time.Time, error)
}

// Scheduler runs periodic maintenance: refreshing page tokens that are
// close to expiry and keeping the rule gauges current. Scheduled-trigger
// rules are recorded in the catalog but not fired from here; the rule
// engine is event-driven.
type Scheduler struct {
	cron      *cron.Cron
	entryID   cron.EntryID
	config    *config.SchedulerConfig
	db        *gorm.DB
	refresher TokenRefresher
	metrics   *metrics.Metrics
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	isRunning bool
	mu        sync.RWMutex
}

// NewScheduler creates a maintenance scheduler
func NewScheduler(cfg *config.SchedulerConfig, db *gorm.DB, refresher TokenRefresher, m *metrics.Metrics) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:      cron.New(cron.WithSeconds()),
		config:    cfg,
		db:        db,
		refresher: refresher,
		metrics:   m,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	schedule := fmt.Sprintf("0 */%d * * * *", s.config.IntervalMinutes)
	entryID, err := s.cron.AddFunc(schedule, s.runMaintenance)
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.entryID = entryID
	s.cron.Start()
	s.isRunning = true

	logrus.Infof("Scheduler started with interval: %d minutes", s.config.IntervalMinutes)
	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	s.cancel()
	ctx := s.cron.Stop()

	select {
	case <-ctx.Done():
		logrus.Info("Scheduler stopped gracefully")
	case <-time.After(30 * time.Second):
		logrus.Warn("Scheduler stop timeout, forcing shutdown")
	}

	s.isRunning = false
	return nil
}

// IsRunning returns whether the scheduler is running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRun returns the time of the next scheduled run
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.isRunning {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Next
}

// Wait waits for in-flight maintenance to finish
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// RunOnce runs the maintenance pass once (for manual triggering)
func (s *Scheduler) RunOnce() {
	s.runMaintenance()
}

func (s *Scheduler) runMaintenance() {
	s.wg.Add(1)
	defer s.wg.Done()

	logrus.Debug("Starting maintenance cycle")

	s.updateRuleGauges()
	s.refreshExpiringTokens()
}

func (s *Scheduler) updateRuleGauges() {
	var total, active int64
	if err := s.db.Model(&models.AutomationRule{}).Count(&total).Error; err != nil {
		logrus.Errorf("Failed to count rules: %v", err)
		return
	}
	if err := s.db.Model(&models.AutomationRule{}).Where("enabled = ?", true).Count(&active).Error; err != nil {
		logrus.Errorf("Failed to count enabled rules: %v", err)
		return
	}
	s.metrics.TotalRules.Set(float64(total))
	s.metrics.ActiveRules.Set(float64(active))
}

// refreshExpiringTokens renews page tokens that expire within the
// configured window so automated sends do not start failing on auth.
func (s *Scheduler) refreshExpiringTokens() {
	cutoff := time.Now().Add(time.Duration(s.config.TokenRefreshDays) * 24 * time.Hour)

	var accounts []models.InstagramAccount
	err := s.db.
		Where("active = ? AND token_expires_at IS NOT NULL AND token_expires_at < ?", true, cutoff).
		Find(&accounts).Error
	if err != nil {
		logrus.Errorf("Failed to load accounts for token refresh: %v", err)
		return
	}

	for i := range accounts {
		account := &accounts[i]
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		token, expiresAt, err := s.refresher.ExtendToken(s.ctx, account.PageAccessToken)
		if err != nil {
			logrus.Warnf("Failed to refresh token for account %s: %v", account.BusinessAccountID, err)
			continue
		}
		updates := map[string]interface{}{
			"page_access_token": token,
			"token_expires_at":  expiresAt,
		}
		if err := s.db.Model(account).Updates(updates).Error; err != nil {
			logrus.Errorf("Failed to store refreshed token for account %s: %v", account.BusinessAccountID, err)
			continue
		}
		logrus.Infof("Refreshed page token for account %s", account.BusinessAccountID)
	}
}
