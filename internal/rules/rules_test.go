package rules

import (
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"instagram-dm-automation-go/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("underlying db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(
		&models.AutomationRule{},
		&models.TriggerRecord{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func intPtr(v int) *int { return &v }

func createTestRule(t *testing.T, db *gorm.DB, rule *models.AutomationRule) *models.AutomationRule {
	t.Helper()
	if rule.TriggerType == "" {
		rule.TriggerType = models.TriggerNewMessage
	}
	if rule.ReplyMessage == "" {
		rule.ReplyMessage = "thanks for reaching out"
	}
	if rule.Name == "" {
		rule.Name = "rule"
	}
	rule.InstagramAccountID = 1
	rule.Enabled = true
	if err := db.Create(rule).Error; err != nil {
		t.Fatalf("create test rule: %v", err)
	}
	return rule
}

func testTime() time.Time {
	return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
}
