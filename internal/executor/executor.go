package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"instagram-dm-automation-go/internal/models"
	"instagram-dm-automation-go/internal/store"
)

// ErrSendFailed marks a reply that the remote platform rejected or that
// timed out. The failure is recorded on the rule's statistics; the send
// is not retried here.
var ErrSendFailed = errors.New("automated reply send failed")

// ReplySender delivers a reply to a participant on the remote platform
// and returns the provider-issued message id.
type ReplySender interface {
	SendMessage(ctx context.Context, account *models.InstagramAccount, recipientID, text string) (string, error)
}

// Executor fires a selected rule exactly once: it sends the reply,
// records the outcome on the rule's statistics and, on success, stores
// the outgoing message on the conversation.
type Executor struct {
	db          *gorm.DB
	store       *store.Store
	sender      ReplySender
	sendTimeout time.Duration
}

// New creates an action executor
func New(db *gorm.DB, st *store.Store, sender ReplySender, sendTimeout time.Duration) *Executor {
	return &Executor{db: db, store: st, sender: sender, sendTimeout: sendTimeout}
}

// Fire sends the rule's reply to the conversation's participant. The
// trigger slot was already consumed by the limiter reservation, so a
// failed send still counts against max-per-user.
func (e *Executor) Fire(ctx context.Context, account *models.InstagramAccount, rule *models.AutomationRule, conv *models.Conversation) error {
	if rule.ReplyDelaySeconds > 0 {
		select {
		case <-time.After(time.Duration(rule.ReplyDelaySeconds) * time.Second):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	sendCtx, cancel := context.WithTimeout(ctx, e.sendTimeout)
	defer cancel()

	providerMessageID, sendErr := e.sender.SendMessage(sendCtx, account, conv.ParticipantID, rule.ReplyMessage)
	now := time.Now()

	if sendErr != nil {
		if err := e.recordOutcome(ctx, rule.ID, false, now); err != nil {
			logrus.Errorf("Failed to record send failure for rule %d: %v", rule.ID, err)
		}
		return fmt.Errorf("%w: %v", ErrSendFailed, sendErr)
	}

	if err := e.recordOutcome(ctx, rule.ID, true, now); err != nil {
		logrus.Errorf("Failed to record send success for rule %d: %v", rule.ID, err)
	}

	ruleID := rule.ID
	if _, err := e.store.RecordOutbound(ctx, account, conv, rule.ReplyMessage, providerMessageID, &ruleID); err != nil {
		logrus.Errorf("Failed to store outbound message for rule %d: %v", rule.ID, err)
	}

	logrus.WithFields(logrus.Fields{
		"rule_id":     rule.ID,
		"rule_name":   rule.Name,
		"participant": conv.ParticipantID,
	}).Info("Automated reply sent")
	return nil
}

func (e *Executor) recordOutcome(ctx context.Context, ruleID uint, success bool, now time.Time) error {
	updates := map[string]interface{}{}
	if success {
		updates["success_count"] = gorm.Expr("success_count + 1")
		updates["last_triggered_at"] = now
	} else {
		updates["failure_count"] = gorm.Expr("failure_count + 1")
	}
	err := e.db.WithContext(ctx).Model(&models.AutomationRule{}).
		Where("id = ?", ruleID).
		Updates(updates).Error
	if err != nil {
		return fmt.Errorf("failed to update rule statistics: %w", err)
	}
	return nil
}
