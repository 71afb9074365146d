package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"instagram-dm-automation-go/internal/webhook"
)

// VerifyWebhook handles the webhook verification handshake. The platform
// sends a GET with a challenge that must be echoed back when the verify
// token matches.
func (h *Handlers) VerifyWebhook(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && token == h.cfg.VerifyToken {
		c.String(http.StatusOK, challenge)
		return
	}
	c.JSON(http.StatusForbidden, gin.H{"error": "verification failed"})
}

// HandleWebhook handles incoming webhook deliveries. The response is
// always a 2xx acknowledgement (bar a signature mismatch) regardless of
// how processing went: the platform retries on non-2xx, and redelivery
// storms are worse than a dropped malformed payload.
func (h *Handlers) HandleWebhook(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		logrus.Errorf("Failed to read webhook body: %v", err)
		c.JSON(http.StatusOK, gin.H{"success": false})
		return
	}

	if h.cfg.AppSecret != "" {
		signature := c.GetHeader("X-Hub-Signature-256")
		if !webhook.VerifySignature(h.cfg.AppSecret, body, signature) {
			c.JSON(http.StatusForbidden, gin.H{"error": "invalid signature"})
			return
		}
	}

	payload, err := webhook.ParsePayload(body)
	if err != nil {
		// Acknowledge anyway so the platform stops redelivering it.
		logrus.Warnf("Dropping webhook payload: %v", err)
		c.JSON(http.StatusOK, gin.H{"success": false})
		return
	}

	for _, ev := range payload.Events() {
		result, err := h.dispatcher.HandleEvent(c.Request.Context(), ev)
		if err != nil {
			logrus.WithField("message_id", ev.MessageID).
				Errorf("Failed to process event: %v", err)
			continue
		}
		logrus.WithFields(logrus.Fields{
			"message_id": ev.MessageID,
			"result":     string(result),
		}).Debug("Event processed")
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
