package rules

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"instagram-dm-automation-go/internal/models"
)

// MatchContext carries everything a trigger predicate can look at
type MatchContext struct {
	Text          string
	ParticipantID string
	Conversation  *models.Conversation
	// FirstInbound is true when the message under evaluation is the
	// participant's first inbound message in the conversation.
	FirstInbound bool
}

// Reserver decides whether a matching rule is allowed to fire and, when
// it is, consumes one trigger slot for the (rule, participant) pair.
type Reserver interface {
	Reserve(ctx context.Context, rule *models.AutomationRule, participantID string, now time.Time) (bool, error)
}

// Matches evaluates a single rule's trigger predicate against the context
func Matches(rule *models.AutomationRule, mc MatchContext) bool {
	switch rule.TriggerType {
	case models.TriggerNewMessage:
		return true
	case models.TriggerKeyword:
		if len(rule.TriggerKeywords) == 0 {
			return false
		}
		text := strings.ToLower(mc.Text)
		for _, kw := range rule.TriggerKeywords {
			if kw == "" {
				continue
			}
			if strings.Contains(text, strings.ToLower(kw)) {
				return true
			}
		}
		return false
	case models.TriggerWelcome:
		return mc.FirstInbound
	case models.TriggerScheduled:
		// Scheduled rules are never fired from the event path.
		return false
	default:
		return false
	}
}

// SelectRule scans rules in catalog order and returns the first rule that
// both matches and passes the limiter reservation. At most one rule is
// selected per inbound message; a rule skipped by the limiter does not
// stop the scan. Returns nil when nothing fires.
//
// The limiter reservation consumes the trigger slot, so the selected
// rule's slot is held even if the subsequent send fails.
func SelectRule(ctx context.Context, candidates []models.AutomationRule, mc MatchContext, limiter Reserver, now time.Time) (*models.AutomationRule, error) {
	for i := range candidates {
		rule := &candidates[i]
		if !Matches(rule, mc) {
			continue
		}
		ok, err := limiter.Reserve(ctx, rule, mc.ParticipantID, now)
		if err != nil {
			return nil, err
		}
		if !ok {
			logrus.WithFields(logrus.Fields{
				"rule_id":     rule.ID,
				"participant": mc.ParticipantID,
			}).Debug("Rule skipped by trigger limiter")
			continue
		}
		return rule, nil
	}
	return nil, nil
}
