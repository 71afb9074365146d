package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"instagram-dm-automation-go/internal/config"
	"instagram-dm-automation-go/internal/metrics"
	"instagram-dm-automation-go/internal/models"
)

var testMetrics = metrics.NewMetrics()

type fakeRefresher struct {
	calls int
	token string
	err   error
}

func (f *fakeRefresher) ExtendToken(_ context.Context, _ string) (string, time.Time, error) {
	f.calls++
	if f.err != nil {
		return "", time.Time{}, f.err
	}
	return f.token, time.Now().Add(60 * 24 * time.Hour), nil
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.InstagramAccount{}, &models.AutomationRule{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func testConfig() *config.SchedulerConfig {
	return &config.SchedulerConfig{IntervalMinutes: 60, TokenRefreshDays: 7}
}

func TestSchedulerRestart(t *testing.T) {
	db := openTestDB(t)
	sched := NewScheduler(testConfig(), db, &fakeRefresher{token: "t"}, testMetrics)

	require.NoError(t, sched.Start())
	assert.True(t, sched.IsRunning())
	assert.Error(t, sched.Start(), "double start must fail")

	require.NoError(t, sched.Stop())
	assert.False(t, sched.IsRunning())
	assert.NoError(t, sched.Stop(), "stopping a stopped scheduler is a no-op")
}

func TestRefreshExpiringTokens(t *testing.T) {
	db := openTestDB(t)

	soon := time.Now().Add(24 * time.Hour)
	later := time.Now().Add(30 * 24 * time.Hour)
	expiring := models.InstagramAccount{BusinessAccountID: "biz_1", PageAccessToken: "old", Active: true, TokenExpiresAt: &soon}
	healthy := models.InstagramAccount{BusinessAccountID: "biz_2", PageAccessToken: "fine", Active: true, TokenExpiresAt: &later}
	require.NoError(t, db.Create(&expiring).Error)
	require.NoError(t, db.Create(&healthy).Error)

	refresher := &fakeRefresher{token: "new"}
	sched := NewScheduler(testConfig(), db, refresher, testMetrics)
	sched.refreshExpiringTokens()

	assert.Equal(t, 1, refresher.calls, "only the expiring token is refreshed")

	var fresh models.InstagramAccount
	require.NoError(t, db.Where("business_account_id = ?", "biz_1").First(&fresh).Error)
	assert.Equal(t, "new", fresh.PageAccessToken)

	fresh = models.InstagramAccount{}
	require.NoError(t, db.Where("business_account_id = ?", "biz_2").First(&fresh).Error)
	assert.Equal(t, "fine", fresh.PageAccessToken)
}

func TestRefreshSkipsInactiveAccounts(t *testing.T) {
	db := openTestDB(t)

	soon := time.Now().Add(24 * time.Hour)
	inactive := models.InstagramAccount{BusinessAccountID: "biz_1", PageAccessToken: "old", Active: true, TokenExpiresAt: &soon}
	require.NoError(t, db.Create(&inactive).Error)
	require.NoError(t, db.Model(&inactive).Update("active", false).Error)

	refresher := &fakeRefresher{token: "new"}
	sched := NewScheduler(testConfig(), db, refresher, testMetrics)
	sched.refreshExpiringTokens()

	assert.Equal(t, 0, refresher.calls)
}
