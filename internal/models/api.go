package models

import "time"

// AutomationRuleRequest is the request body for creating or updating a rule
type AutomationRuleRequest struct {
	Name               string   `json:"name"`
	Description        string   `json:"description"`
	TriggerType        string   `json:"trigger_type"`
	TriggerKeywords    []string `json:"trigger_keywords"`
	TriggerSchedule    string   `json:"trigger_schedule"`
	ReplyMessage       string   `json:"reply_message"`
	ReplyDelaySeconds  *int     `json:"reply_delay_seconds"`
	Enabled            *bool    `json:"enabled"`
	Priority           *int     `json:"priority"`
	MaxTriggersPerUser *int     `json:"max_triggers_per_user"`
	CooldownMinutes    *int     `json:"cooldown_minutes"`
}

// AutomationRuleResponse is the API representation of a rule
type AutomationRuleResponse struct {
	ID                 uint       `json:"id"`
	InstagramAccountID uint       `json:"instagram_account_id"`
	Name               string     `json:"name"`
	Description        string     `json:"description,omitempty"`
	TriggerType        string     `json:"trigger_type"`
	TriggerKeywords    []string   `json:"trigger_keywords,omitempty"`
	TriggerSchedule    string     `json:"trigger_schedule,omitempty"`
	ReplyMessage       string     `json:"reply_message"`
	ReplyDelaySeconds  int        `json:"reply_delay_seconds"`
	Enabled            bool       `json:"enabled"`
	Priority           int        `json:"priority"`
	MaxTriggersPerUser *int       `json:"max_triggers_per_user,omitempty"`
	CooldownMinutes    *int       `json:"cooldown_minutes,omitempty"`
	TriggeredCount     int        `json:"triggered_count"`
	SuccessCount       int        `json:"success_count"`
	FailureCount       int        `json:"failure_count"`
	LastTriggeredAt    *time.Time `json:"last_triggered_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// NewRuleResponse converts a rule row to its API representation
func NewRuleResponse(r AutomationRule) AutomationRuleResponse {
	return AutomationRuleResponse{
		ID:                 r.ID,
		InstagramAccountID: r.InstagramAccountID,
		Name:               r.Name,
		Description:        r.Description,
		TriggerType:        r.TriggerType,
		TriggerKeywords:    r.TriggerKeywords,
		TriggerSchedule:    r.TriggerSchedule,
		ReplyMessage:       r.ReplyMessage,
		ReplyDelaySeconds:  r.ReplyDelaySeconds,
		Enabled:            r.Enabled,
		Priority:           r.Priority,
		MaxTriggersPerUser: r.MaxTriggersPerUser,
		CooldownMinutes:    r.CooldownMinutes,
		TriggeredCount:     r.TriggeredCount,
		SuccessCount:       r.SuccessCount,
		FailureCount:       r.FailureCount,
		LastTriggeredAt:    r.LastTriggeredAt,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

// SendMessageRequest is the request body for sending a manual message
type SendMessageRequest struct {
	Text string `json:"text"`
}

// ErrorResponse is the standard error body returned by the API
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// HealthResponse is the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Database  string            `json:"database"`
	Metrics   map[string]string `json:"metrics"`
}
