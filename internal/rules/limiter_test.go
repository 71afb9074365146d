package rules

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"instagram-dm-automation-go/internal/models"
)

func TestReserveUnlimitedRule(t *testing.T) {
	db := openTestDB(t)
	rule := createTestRule(t, db, &models.AutomationRule{})
	limiter := NewLimiter(db)

	for i := 0; i < 5; i++ {
		ok, err := limiter.Reserve(context.Background(), rule, "user_1", testTime().Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
		assert.True(t, ok)
	}

	var record models.TriggerRecord
	require.NoError(t, db.Where("rule_id = ? AND participant_id = ?", rule.ID, "user_1").First(&record).Error)
	assert.Equal(t, 5, record.Count)

	var fresh models.AutomationRule
	require.NoError(t, db.First(&fresh, rule.ID).Error)
	assert.Equal(t, 5, fresh.TriggeredCount)
}

func TestReserveMaxTriggersPerUser(t *testing.T) {
	db := openTestDB(t)
	rule := createTestRule(t, db, &models.AutomationRule{MaxTriggersPerUser: intPtr(2)})
	limiter := NewLimiter(db)

	now := testTime()
	for i := 0; i < 2; i++ {
		ok, err := limiter.Reserve(context.Background(), rule, "user_1", now.Add(time.Duration(i)*time.Hour))
		require.NoError(t, err)
		assert.True(t, ok)
	}

	ok, err := limiter.Reserve(context.Background(), rule, "user_1", now.Add(3*time.Hour))
	require.NoError(t, err)
	assert.False(t, ok, "third reservation must be rejected")

	// The limit is per participant, not global.
	ok, err = limiter.Reserve(context.Background(), rule, "user_2", now)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReserveZeroMaxTriggers(t *testing.T) {
	db := openTestDB(t)
	rule := createTestRule(t, db, &models.AutomationRule{MaxTriggersPerUser: intPtr(0)})
	limiter := NewLimiter(db)

	ok, err := limiter.Reserve(context.Background(), rule, "user_1", testTime())
	require.NoError(t, err)
	assert.False(t, ok, "a zero per-user budget never grants a slot")

	var count int64
	require.NoError(t, db.Model(&models.TriggerRecord{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)

	var fresh models.AutomationRule
	require.NoError(t, db.First(&fresh, rule.ID).Error)
	assert.Equal(t, 0, fresh.TriggeredCount)
}

func TestReserveCooldown(t *testing.T) {
	db := openTestDB(t)
	rule := createTestRule(t, db, &models.AutomationRule{CooldownMinutes: intPtr(30)})
	limiter := NewLimiter(db)

	now := testTime()
	ok, err := limiter.Reserve(context.Background(), rule, "user_1", now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = limiter.Reserve(context.Background(), rule, "user_1", now.Add(10*time.Minute))
	require.NoError(t, err)
	assert.False(t, ok, "still inside the cooldown window")

	ok, err = limiter.Reserve(context.Background(), rule, "user_1", now.Add(31*time.Minute))
	require.NoError(t, err)
	assert.True(t, ok, "cooldown elapsed")
}

func TestReserveCooldownPerParticipant(t *testing.T) {
	db := openTestDB(t)
	rule := createTestRule(t, db, &models.AutomationRule{CooldownMinutes: intPtr(30)})
	limiter := NewLimiter(db)

	now := testTime()
	ok, err := limiter.Reserve(context.Background(), rule, "user_1", now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = limiter.Reserve(context.Background(), rule, "user_2", now)
	require.NoError(t, err)
	assert.True(t, ok, "cooldown applies per participant")
}

func TestReserveConcurrentSingleSlot(t *testing.T) {
	db := openTestDB(t)
	rule := createTestRule(t, db, &models.AutomationRule{MaxTriggersPerUser: intPtr(1)})
	limiter := NewLimiter(db)

	const n = 10
	var wg sync.WaitGroup
	granted := make(chan bool, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := limiter.Reserve(context.Background(), rule, "user_1", time.Now())
			if err == nil && ok {
				granted <- true
			}
		}()
	}
	wg.Wait()
	close(granted)

	assert.Equal(t, 1, len(granted), "exactly one concurrent reservation may pass")

	var record models.TriggerRecord
	require.NoError(t, db.Where("rule_id = ? AND participant_id = ?", rule.ID, "user_1").First(&record).Error)
	assert.Equal(t, 1, record.Count)
}

func TestCatalogActiveOrderAndSnapshot(t *testing.T) {
	db := openTestDB(t)
	low := createTestRule(t, db, &models.AutomationRule{Name: "low", Priority: 1})
	high := createTestRule(t, db, &models.AutomationRule{Name: "high", Priority: 10})
	mid1 := createTestRule(t, db, &models.AutomationRule{Name: "mid-first", Priority: 5})
	mid2 := createTestRule(t, db, &models.AutomationRule{Name: "mid-second", Priority: 5})
	disabled := createTestRule(t, db, &models.AutomationRule{Name: "off", Priority: 99})
	require.NoError(t, db.Model(disabled).Update("enabled", false).Error)

	catalog := NewCatalog(db)
	active, err := catalog.Active(context.Background(), 1)
	require.NoError(t, err)

	require.Len(t, active, 4)
	assert.Equal(t, high.ID, active[0].ID)
	assert.Equal(t, mid1.ID, active[1].ID, "priority ties break by creation order")
	assert.Equal(t, mid2.ID, active[2].ID)
	assert.Equal(t, low.ID, active[3].ID)
}

func TestCatalogActiveScopedToAccount(t *testing.T) {
	db := openTestDB(t)
	createTestRule(t, db, &models.AutomationRule{Name: "mine"})

	other := &models.AutomationRule{
		InstagramAccountID: 2,
		Name:               "theirs",
		TriggerType:        models.TriggerNewMessage,
		ReplyMessage:       "hi",
		Enabled:            true,
	}
	require.NoError(t, db.Create(other).Error)

	catalog := NewCatalog(db)
	active, err := catalog.Active(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "mine", active[0].Name)
}
