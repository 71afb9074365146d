package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"instagram-dm-automation-go/internal/models"
)

// GetConversations returns the conversations for an account, most
// recently active first
func (h *Handlers) GetConversations(c *gin.Context) {
	accountID, err := strconv.Atoi(c.Query("account_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid_account", Message: "account_id query parameter is required", Code: http.StatusBadRequest})
		return
	}

	var conversations []models.Conversation
	if err := h.db.Where("instagram_account_id = ?", accountID).
		Order("last_message_time desc").
		Find(&conversations).Error; err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database_error", Message: "Failed to fetch conversations", Code: http.StatusInternalServerError})
		return
	}
	c.JSON(http.StatusOK, conversations)
}

// GetMessages returns the messages of one conversation in send order
func (h *Handlers) GetMessages(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid_id", Message: "Invalid conversation ID", Code: http.StatusBadRequest})
		return
	}

	var conv models.Conversation
	if err := h.db.First(&conv, id).Error; err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "not_found", Message: "Conversation not found", Code: http.StatusNotFound})
		return
	}

	var messages []models.Message
	if err := h.db.Where("conversation_id = ?", conv.ID).
		Order("sent_at asc, id asc").
		Find(&messages).Error; err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database_error", Message: "Failed to fetch messages", Code: http.StatusInternalServerError})
		return
	}

	// Reading the thread clears its unread counter.
	if conv.UnreadCount != 0 {
		if err := h.db.Model(&conv).Update("unread_count", 0).Error; err != nil {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database_error", Message: "Failed to update conversation", Code: http.StatusInternalServerError})
			return
		}
	}

	c.JSON(http.StatusOK, messages)
}

// SendMessage sends a manually typed message to the conversation's
// participant and records it. Manual messages are not marked automated.
func (h *Handlers) SendMessage(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid_id", Message: "Invalid conversation ID", Code: http.StatusBadRequest})
		return
	}

	var conv models.Conversation
	if err := h.db.First(&conv, id).Error; err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "not_found", Message: "Conversation not found", Code: http.StatusNotFound})
		return
	}

	var account models.InstagramAccount
	if err := h.db.First(&account, conv.InstagramAccountID).Error; err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "not_found", Message: "Account not found", Code: http.StatusNotFound})
		return
	}

	var req models.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Text == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "validation_error", Message: "text is required", Code: http.StatusBadRequest})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.SendTimeout)
	defer cancel()
	providerMessageID, err := h.instagram.SendMessage(ctx, &account, conv.ParticipantID, req.Text)
	if err != nil {
		logrus.Errorf("Manual send to conversation %d failed: %v", conv.ID, err)
		c.JSON(http.StatusBadGateway, models.ErrorResponse{Error: "send_error", Message: "Failed to send message", Code: http.StatusBadGateway})
		return
	}

	msg, err := h.store.RecordOutbound(c.Request.Context(), &account, &conv, req.Text, providerMessageID, nil)
	if err != nil {
		logrus.Errorf("Failed to record manual message for conversation %d: %v", conv.ID, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database_error", Message: "Message sent but not recorded", Code: http.StatusInternalServerError})
		return
	}
	c.JSON(http.StatusCreated, msg)
}
