package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"instagram-dm-automation-go/internal/models"
	"instagram-dm-automation-go/internal/webhook"
)

// Store persists conversations and messages
type Store struct {
	db *gorm.DB
}

// New creates a conversation store
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// UpsertResult is the outcome of persisting one inbound event
type UpsertResult struct {
	Conversation *models.Conversation
	Message      *models.Message
	// IsNew is false when the provider message id was already stored;
	// duplicate deliveries perform no mutation.
	IsNew bool
	// FirstInbound reports whether this message is the participant's
	// first inbound message in the conversation.
	FirstInbound bool
}

var errDuplicateMessage = errors.New("duplicate message id")

// AccountByBusinessID looks up the connected account that owns the
// given business account id. Returns nil when no account is connected.
func (s *Store) AccountByBusinessID(ctx context.Context, businessAccountID string) (*models.InstagramAccount, error) {
	var account models.InstagramAccount
	err := s.db.WithContext(ctx).
		Where("business_account_id = ?", businessAccountID).
		First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	return &account, nil
}

// UpsertInbound finds or creates the conversation for the event's
// participant and stores the inbound message. The provider message id is
// the idempotency key: a replayed delivery returns IsNew=false and
// leaves all state untouched.
func (s *Store) UpsertInbound(ctx context.Context, account *models.InstagramAccount, ev webhook.InboundEvent) (*UpsertResult, error) {
	res := &UpsertResult{}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		conv, err := s.findOrCreateConversation(tx, account, ev)
		if err != nil {
			return err
		}

		msg := &models.Message{
			ConversationID: conv.ID,
			MessageID:      ev.MessageID,
			SenderID:       ev.SenderID,
			RecipientID:    ev.RecipientID,
			Text:           ev.Text,
			IsFromMe:       false,
			SentAt:         ev.Timestamp,
		}
		if err := tx.Create(msg).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errDuplicateMessage
			}
			return fmt.Errorf("failed to store inbound message: %w", err)
		}

		if err := tx.Model(conv).Updates(map[string]interface{}{
			"unread_count":      gorm.Expr("unread_count + 1"),
			"last_message_time": ev.Timestamp,
		}).Error; err != nil {
			return fmt.Errorf("failed to update conversation: %w", err)
		}

		// Counted inside the insert transaction. Two distinct first
		// messages racing under REPEATABLE READ can both observe a
		// count of one; welcome rules cap the double fire with
		// max_triggers_per_user.
		var inboundCount int64
		if err := tx.Model(&models.Message{}).
			Where("conversation_id = ? AND is_from_me = ?", conv.ID, false).
			Count(&inboundCount).Error; err != nil {
			return fmt.Errorf("failed to count inbound messages: %w", err)
		}

		res.Conversation = conv
		res.Message = msg
		res.IsNew = true
		res.FirstInbound = inboundCount == 1
		return nil
	})

	if errors.Is(err, errDuplicateMessage) {
		// Already processed; surface it as a non-error outcome.
		res.IsNew = false
		return res, nil
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Store) findOrCreateConversation(tx *gorm.DB, account *models.InstagramAccount, ev webhook.InboundEvent) (*models.Conversation, error) {
	var conv models.Conversation
	err := tx.Where("instagram_account_id = ? AND participant_id = ?", account.ID, ev.SenderID).
		First(&conv).Error
	if err == nil {
		return &conv, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up conversation: %w", err)
	}

	conv = models.Conversation{
		InstagramAccountID: account.ID,
		ThreadID:           fmt.Sprintf("t_%s_%s", ev.SenderID, ev.RecipientID),
		ParticipantID:      ev.SenderID,
		LastMessageTime:    ev.Timestamp,
	}
	if err := tx.Create(&conv).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost a create race with a concurrent delivery.
			if err := tx.Where("thread_id = ?", conv.ThreadID).First(&conv).Error; err != nil {
				return nil, fmt.Errorf("failed to reload conversation: %w", err)
			}
			return &conv, nil
		}
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return &conv, nil
}

// RecordOutbound stores an outgoing message on the conversation. The
// message is marked automated when ruleID is set. The unread counter is
// not touched.
func (s *Store) RecordOutbound(ctx context.Context, account *models.InstagramAccount, conv *models.Conversation, text string, providerMessageID string, ruleID *uint) (*models.Message, error) {
	now := time.Now()
	if providerMessageID == "" {
		providerMessageID = "auto_" + uuid.NewString()
	}

	msg := &models.Message{
		ConversationID:   conv.ID,
		MessageID:        providerMessageID,
		SenderID:         account.BusinessAccountID,
		RecipientID:      conv.ParticipantID,
		Text:             text,
		IsFromMe:         true,
		IsAutomated:      ruleID != nil,
		AutomationRuleID: ruleID,
		SentAt:           now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return fmt.Errorf("failed to store outbound message: %w", err)
		}
		if err := tx.Model(conv).Update("last_message_time", now).Error; err != nil {
			return fmt.Errorf("failed to update conversation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}
