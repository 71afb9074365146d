package models

import (
	"time"
)

// Trigger types supported by automation rules.
const (
	TriggerNewMessage = "new_message"
	TriggerKeyword    = "keyword"
	TriggerWelcome    = "welcome"
	TriggerScheduled  = "scheduled"
)

// InstagramAccount represents a connected Instagram business account
type InstagramAccount struct {
	ID                uint       `json:"id" gorm:"primaryKey;autoIncrement"`
	BusinessAccountID string     `json:"business_account_id" gorm:"type:varchar(64);not null;uniqueIndex"`
	Username          string     `json:"username" gorm:"type:varchar(255)"`
	PageID            string     `json:"page_id" gorm:"type:varchar(64)"`
	PageAccessToken   string     `json:"-" gorm:"type:text"`
	TokenExpiresAt    *time.Time `json:"token_expires_at,omitempty"`
	Active            bool       `json:"active" gorm:"default:true"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// TableName specifies the table name for InstagramAccount
func (InstagramAccount) TableName() string {
	return "instagram_accounts"
}

// Conversation represents a DM thread with one external participant
type Conversation struct {
	ID                  uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	InstagramAccountID  uint      `json:"instagram_account_id" gorm:"not null;index:idx_account_participant"`
	ThreadID            string    `json:"thread_id" gorm:"type:varchar(128);not null;uniqueIndex"`
	ParticipantID       string    `json:"participant_id" gorm:"type:varchar(64);not null;index:idx_account_participant"`
	ParticipantUsername string    `json:"participant_username" gorm:"type:varchar(255)"`
	LastMessageTime     time.Time `json:"last_message_time"`
	UnreadCount         int       `json:"unread_count" gorm:"default:0"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`

	Messages []Message `json:"messages,omitempty" gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for Conversation
func (Conversation) TableName() string {
	return "conversations"
}

// Message represents one inbound or outbound DM. MessageID is the
// provider-issued message id and acts as the idempotency key.
type Message struct {
	ID               uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	ConversationID   uint      `json:"conversation_id" gorm:"not null;index"`
	MessageID        string    `json:"message_id" gorm:"type:varchar(128);not null;uniqueIndex"`
	SenderID         string    `json:"sender_id" gorm:"type:varchar(64)"`
	RecipientID      string    `json:"recipient_id" gorm:"type:varchar(64)"`
	Text             string    `json:"text" gorm:"type:text"`
	IsFromMe         bool      `json:"is_from_me" gorm:"default:false"`
	IsAutomated      bool      `json:"is_automated" gorm:"default:false"`
	AutomationRuleID *uint     `json:"automation_rule_id,omitempty" gorm:"index"`
	SentAt           time.Time `json:"sent_at"`
	CreatedAt        time.Time `json:"created_at"`
}

// TableName specifies the table name for Message
func (Message) TableName() string {
	return "messages"
}

// AutomationRule represents a reply automation rule for one account.
// Statistics fields are mutated only by the rule engine, never by the
// CRUD handlers.
type AutomationRule struct {
	ID                 uint       `json:"id" gorm:"primaryKey;autoIncrement"`
	InstagramAccountID uint       `json:"instagram_account_id" gorm:"not null;index"`
	Name               string     `json:"name" gorm:"type:varchar(255);not null"`
	Description        string     `json:"description" gorm:"type:text"`
	TriggerType        string     `json:"trigger_type" gorm:"type:varchar(32);not null"`
	TriggerKeywords    []string   `json:"trigger_keywords,omitempty" gorm:"serializer:json;type:text"`
	TriggerSchedule    string     `json:"trigger_schedule,omitempty" gorm:"type:varchar(255)"`
	ReplyMessage       string     `json:"reply_message" gorm:"type:text;not null"`
	ReplyDelaySeconds  int        `json:"reply_delay_seconds" gorm:"default:0"`
	Enabled            bool       `json:"enabled" gorm:"default:true"`
	Priority           int        `json:"priority" gorm:"default:0;index"`
	MaxTriggersPerUser *int       `json:"max_triggers_per_user,omitempty"`
	CooldownMinutes    *int       `json:"cooldown_minutes,omitempty"`

	TriggeredCount  int        `json:"triggered_count" gorm:"default:0"`
	SuccessCount    int        `json:"success_count" gorm:"default:0"`
	FailureCount    int        `json:"failure_count" gorm:"default:0"`
	LastTriggeredAt *time.Time `json:"last_triggered_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for AutomationRule
func (AutomationRule) TableName() string {
	return "automation_rules"
}

// TriggerRecord tracks how often a rule has fired for one participant.
// One row per (rule, participant); never deleted.
type TriggerRecord struct {
	ID              uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	RuleID          uint      `json:"rule_id" gorm:"not null;uniqueIndex:idx_rule_participant"`
	ParticipantID   string    `json:"participant_id" gorm:"type:varchar(64);not null;uniqueIndex:idx_rule_participant"`
	Count           int       `json:"count" gorm:"default:0"`
	LastTriggeredAt time.Time `json:"last_triggered_at"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName specifies the table name for TriggerRecord
func (TriggerRecord) TableName() string {
	return "trigger_records"
}

// AutomationLog records the outcome of processing one inbound message
type AutomationLog struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	MessageID string    `json:"message_id" gorm:"type:varchar(128);not null;index"`
	RuleID    *uint     `json:"rule_id,omitempty" gorm:"index"`
	Status    string    `json:"status" gorm:"type:varchar(50);not null"`
	ErrorMsg  string    `json:"error_msg,omitempty" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`

	Rule *AutomationRule `json:"rule,omitempty" gorm:"foreignKey:RuleID"`
}

// TableName specifies the table name for AutomationLog
func (AutomationLog) TableName() string {
	return "automation_logs"
}
