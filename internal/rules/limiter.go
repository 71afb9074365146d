package rules

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"instagram-dm-automation-go/internal/models"
)

// Limiter enforces per-(rule, participant) trigger limits. Reservation is
// a single logical step: the limit check and the counter increment happen
// atomically, so two concurrent evaluations for the same participant can
// never both pass a max-per-user check.
type Limiter struct {
	db *gorm.DB

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewLimiter creates a trigger limiter backed by the given database
func NewLimiter(db *gorm.DB) *Limiter {
	return &Limiter{
		db:    db,
		locks: make(map[string]*sync.Mutex),
	}
}

func (l *Limiter) lockFor(ruleID uint, participantID string) *sync.Mutex {
	key := fmt.Sprintf("%d/%s", ruleID, participantID)
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	return m
}

// Reserve checks the rule's max-per-user and cooldown limits for the
// participant and, when they pass, consumes one trigger slot: the
// TriggerRecord counter is incremented, its last-trigger time set, and
// the rule's triggered_count bumped. The slot stays consumed even if the
// send that follows fails, which keeps a flapping external platform from
// burning through the per-user budget indefinitely.
//
// Returns false when the rule has reached its per-user limit or is still
// inside its cooldown window.
func (l *Limiter) Reserve(ctx context.Context, rule *models.AutomationRule, participantID string, now time.Time) (bool, error) {
	// A zero budget is already exhausted; the first-fire insert below
	// would otherwise grant count=1 without consulting the limit.
	if rule.MaxTriggersPerUser != nil && *rule.MaxTriggersPerUser <= 0 {
		return false, nil
	}

	lock := l.lockFor(rule.ID, participantID)
	lock.Lock()
	defer lock.Unlock()

	var record models.TriggerRecord
	err := l.db.WithContext(ctx).
		Where("rule_id = ? AND participant_id = ?", rule.ID, participantID).
		First(&record).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		created, err := l.createRecord(ctx, rule.ID, participantID, now)
		if err != nil {
			return false, err
		}
		if created {
			return true, l.bumpRuleTriggered(ctx, rule)
		}
		// Lost a create race with another process; fall through to the
		// guarded update path.
	} else if err != nil {
		return false, fmt.Errorf("failed to load trigger record: %w", err)
	}

	reserved, err := l.incrementGuarded(ctx, rule, participantID, now)
	if err != nil {
		return false, err
	}
	if !reserved {
		return false, nil
	}
	return true, l.bumpRuleTriggered(ctx, rule)
}

// createRecord inserts the first trigger record for the pair with a count
// of one. Returns false when a concurrent insert won the race.
func (l *Limiter) createRecord(ctx context.Context, ruleID uint, participantID string, now time.Time) (bool, error) {
	record := models.TriggerRecord{
		RuleID:          ruleID,
		ParticipantID:   participantID,
		Count:           1,
		LastTriggeredAt: now,
	}
	err := l.db.WithContext(ctx).Create(&record).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to create trigger record: %w", err)
	}
	return true, nil
}

// incrementGuarded performs the check-then-increment as one conditional
// UPDATE; the WHERE clause carries the limits so the database enforces
// them atomically even across processes.
func (l *Limiter) incrementGuarded(ctx context.Context, rule *models.AutomationRule, participantID string, now time.Time) (bool, error) {
	q := l.db.WithContext(ctx).Model(&models.TriggerRecord{}).
		Where("rule_id = ? AND participant_id = ?", rule.ID, participantID)
	if rule.MaxTriggersPerUser != nil {
		q = q.Where("count < ?", *rule.MaxTriggersPerUser)
	}
	if rule.CooldownMinutes != nil {
		cutoff := now.Add(-time.Duration(*rule.CooldownMinutes) * time.Minute)
		q = q.Where("last_triggered_at <= ?", cutoff)
	}

	result := q.Updates(map[string]interface{}{
		"count":             gorm.Expr("count + 1"),
		"last_triggered_at": now,
	})
	if result.Error != nil {
		return false, fmt.Errorf("failed to update trigger record: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (l *Limiter) bumpRuleTriggered(ctx context.Context, rule *models.AutomationRule) error {
	err := l.db.WithContext(ctx).Model(&models.AutomationRule{}).
		Where("id = ?", rule.ID).
		Update("triggered_count", gorm.Expr("triggered_count + 1")).Error
	if err != nil {
		return fmt.Errorf("failed to increment triggered count: %w", err)
	}
	return nil
}
