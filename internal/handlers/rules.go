package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"instagram-dm-automation-go/internal/models"
)

func validTriggerType(t string) bool {
	switch t {
	case models.TriggerNewMessage, models.TriggerKeyword, models.TriggerWelcome, models.TriggerScheduled:
		return true
	}
	return false
}

// GetRules returns all rules for an account
func (h *Handlers) GetRules(c *gin.Context) {
	accountID, err := strconv.Atoi(c.Query("account_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid_account", Message: "account_id query parameter is required", Code: http.StatusBadRequest})
		return
	}

	var rules []models.AutomationRule
	if err := h.db.Where("instagram_account_id = ?", accountID).
		Order("priority desc, created_at asc").
		Find(&rules).Error; err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database_error", Message: "Failed to fetch rules", Code: http.StatusInternalServerError})
		return
	}

	responses := make([]models.AutomationRuleResponse, 0, len(rules))
	for _, rule := range rules {
		responses = append(responses, models.NewRuleResponse(rule))
	}
	c.JSON(http.StatusOK, responses)
}

// CreateRule creates a new automation rule
func (h *Handlers) CreateRule(c *gin.Context) {
	accountID, err := strconv.Atoi(c.Query("account_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid_account", Message: "account_id query parameter is required", Code: http.StatusBadRequest})
		return
	}

	var account models.InstagramAccount
	if err := h.db.First(&account, accountID).Error; err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "not_found", Message: "Account not found", Code: http.StatusNotFound})
		return
	}

	var req models.AutomationRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "validation_error", Message: "Invalid request body", Code: http.StatusBadRequest})
		return
	}
	if req.Name == "" || req.ReplyMessage == "" || !validTriggerType(req.TriggerType) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "validation_error", Message: "name, reply_message and a valid trigger_type are required", Code: http.StatusBadRequest})
		return
	}

	rule := models.AutomationRule{
		InstagramAccountID: account.ID,
		Name:               req.Name,
		Description:        req.Description,
		TriggerType:        req.TriggerType,
		TriggerKeywords:    req.TriggerKeywords,
		TriggerSchedule:    req.TriggerSchedule,
		ReplyMessage:       req.ReplyMessage,
		Enabled:            true,
	}
	if req.ReplyDelaySeconds != nil {
		rule.ReplyDelaySeconds = *req.ReplyDelaySeconds
	}
	if req.Enabled != nil {
		rule.Enabled = *req.Enabled
	}
	if req.Priority != nil {
		rule.Priority = *req.Priority
	}
	rule.MaxTriggersPerUser = req.MaxTriggersPerUser
	rule.CooldownMinutes = req.CooldownMinutes

	if err := h.db.Create(&rule).Error; err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database_error", Message: "Failed to create rule", Code: http.StatusInternalServerError})
		return
	}
	c.JSON(http.StatusCreated, models.NewRuleResponse(rule))
}

// GetRule returns a single rule by ID
func (h *Handlers) GetRule(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid_id", Message: "Invalid rule ID", Code: http.StatusBadRequest})
		return
	}
	var rule models.AutomationRule
	if err := h.db.First(&rule, id).Error; err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "not_found", Message: "Rule not found", Code: http.StatusNotFound})
		return
	}
	c.JSON(http.StatusOK, models.NewRuleResponse(rule))
}

// UpdateRule updates an existing rule. Statistics fields are owned by
// the rule engine and cannot be set through this endpoint.
func (h *Handlers) UpdateRule(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid_id", Message: "Invalid rule ID", Code: http.StatusBadRequest})
		return
	}
	var rule models.AutomationRule
	if err := h.db.First(&rule, id).Error; err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "not_found", Message: "Rule not found", Code: http.StatusNotFound})
		return
	}
	var req models.AutomationRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "validation_error", Message: "Invalid request body", Code: http.StatusBadRequest})
		return
	}

	if req.Name != "" {
		rule.Name = req.Name
	}
	if req.Description != "" {
		rule.Description = req.Description
	}
	if req.TriggerType != "" {
		if !validTriggerType(req.TriggerType) {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "validation_error", Message: "Invalid trigger_type", Code: http.StatusBadRequest})
			return
		}
		rule.TriggerType = req.TriggerType
	}
	if req.TriggerKeywords != nil {
		rule.TriggerKeywords = req.TriggerKeywords
	}
	if req.TriggerSchedule != "" {
		rule.TriggerSchedule = req.TriggerSchedule
	}
	if req.ReplyMessage != "" {
		rule.ReplyMessage = req.ReplyMessage
	}
	if req.ReplyDelaySeconds != nil {
		rule.ReplyDelaySeconds = *req.ReplyDelaySeconds
	}
	if req.Enabled != nil {
		rule.Enabled = *req.Enabled
	}
	if req.Priority != nil {
		rule.Priority = *req.Priority
	}
	if req.MaxTriggersPerUser != nil {
		rule.MaxTriggersPerUser = req.MaxTriggersPerUser
	}
	if req.CooldownMinutes != nil {
		rule.CooldownMinutes = req.CooldownMinutes
	}

	if err := h.db.Save(&rule).Error; err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database_error", Message: "Failed to update rule", Code: http.StatusInternalServerError})
		return
	}
	c.JSON(http.StatusOK, models.NewRuleResponse(rule))
}

// DeleteRule deletes a rule by ID
func (h *Handlers) DeleteRule(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid_id", Message: "Invalid rule ID", Code: http.StatusBadRequest})
		return
	}
	if err := h.db.Delete(&models.AutomationRule{}, id).Error; err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database_error", Message: "Failed to delete rule", Code: http.StatusInternalServerError})
		return
	}
	c.Status(http.StatusNoContent)
}

// EnableRule enables a rule by ID
func (h *Handlers) EnableRule(c *gin.Context) {
	h.setRuleEnabled(c, true)
}

// DisableRule disables a rule by ID
func (h *Handlers) DisableRule(c *gin.Context) {
	h.setRuleEnabled(c, false)
}

func (h *Handlers) setRuleEnabled(c *gin.Context, enabled bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid_id", Message: "Invalid rule ID", Code: http.StatusBadRequest})
		return
	}
	var rule models.AutomationRule
	if err := h.db.First(&rule, id).Error; err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "not_found", Message: "Rule not found", Code: http.StatusNotFound})
		return
	}
	if err := h.db.Model(&rule).Update("enabled", enabled).Error; err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database_error", Message: "Failed to update rule", Code: http.StatusInternalServerError})
		return
	}
	c.JSON(http.StatusOK, models.NewRuleResponse(rule))
}
