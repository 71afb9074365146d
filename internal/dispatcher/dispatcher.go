package dispatcher

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"instagram-dm-automation-go/internal/executor"
	"instagram-dm-automation-go/internal/metrics"
	"instagram-dm-automation-go/internal/models"
	"instagram-dm-automation-go/internal/rules"
	"instagram-dm-automation-go/internal/store"
	"instagram-dm-automation-go/internal/webhook"
)

// Result names the terminal state of processing one inbound event
type Result string

const (
	// ResultIgnored - the event does not belong to a connected account
	// or is not an external inbound message.
	ResultIgnored Result = "ignored"
	// ResultDuplicate - the provider message id was already processed.
	ResultDuplicate Result = "duplicate"
	// ResultNoMatch - no enabled rule matched or all matches were
	// skipped by the trigger limiter.
	ResultNoMatch Result = "no_match"
	// ResultReplied - a rule fired and the reply was sent.
	ResultReplied Result = "replied"
	// ResultSendFailed - a rule fired but the send failed.
	ResultSendFailed Result = "send_failed"
)

// Dispatcher runs the per-event pipeline: persist, match, limit, fire,
// record. Each event is processed to completion independently; one
// event's failure never affects another's.
type Dispatcher struct {
	db       *gorm.DB
	store    *store.Store
	catalog  *rules.Catalog
	limiter  *rules.Limiter
	executor *executor.Executor
	metrics  *metrics.Metrics
}

// New creates a dispatcher
func New(db *gorm.DB, st *store.Store, catalog *rules.Catalog, limiter *rules.Limiter, exec *executor.Executor, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		db:       db,
		store:    st,
		catalog:  catalog,
		limiter:  limiter,
		executor: exec,
		metrics:  m,
	}
}

// HandleEvent processes one normalized inbound event through the full
// pipeline. The returned error reports internal failures only; limiter
// skips, duplicates and unmatched events are normal outcomes.
func (d *Dispatcher) HandleEvent(ctx context.Context, ev webhook.InboundEvent) (Result, error) {
	start := time.Now()
	defer func() {
		d.metrics.ProcessingTime.Observe(time.Since(start).Seconds())
	}()
	d.metrics.EventsReceived.Inc()

	if ev.MessageID == "" || ev.SenderID == "" {
		return ResultIgnored, nil
	}

	account, err := d.store.AccountByBusinessID(ctx, ev.RecipientID)
	if err != nil {
		return "", err
	}
	if account == nil {
		logrus.Debugf("No connected account for recipient %s, ignoring event", ev.RecipientID)
		return ResultIgnored, nil
	}
	// Echoes of our own outbound messages are not inbound events.
	if ev.SenderID == account.BusinessAccountID {
		return ResultIgnored, nil
	}

	res, err := d.store.UpsertInbound(ctx, account, ev)
	if err != nil {
		return "", err
	}
	if !res.IsNew {
		d.metrics.DuplicateEvents.Inc()
		logrus.Debugf("Message %s already processed, skipping", ev.MessageID)
		return ResultDuplicate, nil
	}

	active, err := d.catalog.Active(ctx, account.ID)
	if err != nil {
		return "", err
	}

	mc := rules.MatchContext{
		Text:          ev.Text,
		ParticipantID: ev.SenderID,
		Conversation:  res.Conversation,
		FirstInbound:  res.FirstInbound,
	}

	rule, err := rules.SelectRule(ctx, active, mc, d.limiter, time.Now())
	if err != nil {
		return "", err
	}
	if rule == nil {
		d.logOutcome(ev.MessageID, nil, "no_match", "")
		return ResultNoMatch, nil
	}

	d.metrics.RuleMatches.Inc()

	if err := d.executor.Fire(ctx, account, rule, res.Conversation); err != nil {
		if errors.Is(err, executor.ErrSendFailed) {
			d.metrics.SendFailures.Inc()
			d.logOutcome(ev.MessageID, &rule.ID, "failure", err.Error())
			logrus.WithFields(logrus.Fields{
				"message_id": ev.MessageID,
				"rule_id":    rule.ID,
			}).Warnf("Automated reply failed: %v", err)
			return ResultSendFailed, nil
		}
		return "", err
	}

	d.metrics.SendSuccesses.Inc()
	d.logOutcome(ev.MessageID, &rule.ID, "success", "")
	return ResultReplied, nil
}

// logOutcome records the processing outcome; failures here are logged
// and swallowed so they cannot fail the event.
func (d *Dispatcher) logOutcome(messageID string, ruleID *uint, status, errorMsg string) {
	entry := models.AutomationLog{
		MessageID: messageID,
		RuleID:    ruleID,
		Status:    status,
		ErrorMsg:  errorMsg,
	}
	if err := d.db.Create(&entry).Error; err != nil {
		logrus.Errorf("Failed to write automation log for %s: %v", messageID, err)
	}
}
