package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"instagram-dm-automation-go/internal/models"
)

// AuthLogin redirects the user to the OAuth consent page for account
// linking
func (h *Handlers) AuthLogin(c *gin.Context) {
	state := c.Query("state")
	c.Redirect(http.StatusTemporaryRedirect, h.instagram.AuthURL(state))
}

// AuthCallback completes the OAuth flow: exchanges the code, extends the
// page tokens to long-lived tokens and stores the discovered business
// accounts.
func (h *Handlers) AuthCallback(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "missing_code", Message: "Authorization code is required", Code: http.StatusBadRequest})
		return
	}

	ctx := c.Request.Context()
	token, err := h.instagram.ExchangeCode(ctx, code)
	if err != nil {
		logrus.Errorf("OAuth code exchange failed: %v", err)
		c.JSON(http.StatusBadGateway, models.ErrorResponse{Error: "oauth_error", Message: "Failed to exchange authorization code", Code: http.StatusBadGateway})
		return
	}

	discovered, err := h.instagram.ListBusinessAccounts(ctx, token.AccessToken)
	if err != nil {
		logrus.Errorf("Account discovery failed: %v", err)
		c.JSON(http.StatusBadGateway, models.ErrorResponse{Error: "oauth_error", Message: "Failed to discover business accounts", Code: http.StatusBadGateway})
		return
	}

	var linked []models.InstagramAccount
	for _, ba := range discovered {
		pageToken, expiresAt, err := h.instagram.ExtendToken(ctx, ba.PageAccessToken)
		if err != nil {
			logrus.Warnf("Failed to extend token for account %s: %v", ba.BusinessAccountID, err)
			pageToken = ba.PageAccessToken
		}

		var account models.InstagramAccount
		err = h.db.Where("business_account_id = ?", ba.BusinessAccountID).First(&account).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			account = models.InstagramAccount{
				BusinessAccountID: ba.BusinessAccountID,
				Username:          ba.Username,
				PageID:            ba.PageID,
				PageAccessToken:   pageToken,
				Active:            true,
			}
			if !expiresAt.IsZero() {
				account.TokenExpiresAt = &expiresAt
			}
			if err := h.db.Create(&account).Error; err != nil {
				logrus.Errorf("Failed to store account %s: %v", ba.BusinessAccountID, err)
				continue
			}
		case err == nil:
			account.Username = ba.Username
			account.PageID = ba.PageID
			account.PageAccessToken = pageToken
			if !expiresAt.IsZero() {
				account.TokenExpiresAt = &expiresAt
			}
			if err := h.db.Save(&account).Error; err != nil {
				logrus.Errorf("Failed to update account %s: %v", ba.BusinessAccountID, err)
				continue
			}
		default:
			logrus.Errorf("Failed to look up account %s: %v", ba.BusinessAccountID, err)
			continue
		}
		linked = append(linked, account)
	}

	c.JSON(http.StatusOK, gin.H{"accounts": linked})
}

// GetAccounts returns all connected accounts
func (h *Handlers) GetAccounts(c *gin.Context) {
	var accounts []models.InstagramAccount
	if err := h.db.Find(&accounts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database_error", Message: "Failed to fetch accounts", Code: http.StatusInternalServerError})
		return
	}
	c.JSON(http.StatusOK, accounts)
}

// DisconnectAccount deactivates a connected account. The row and its
// conversation history are kept; the scheduler stops refreshing its
// token.
func (h *Handlers) DisconnectAccount(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid_id", Message: "Invalid account ID", Code: http.StatusBadRequest})
		return
	}

	var account models.InstagramAccount
	if err := h.db.First(&account, id).Error; err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "not_found", Message: "Account not found", Code: http.StatusNotFound})
		return
	}

	if err := h.db.Model(&account).Update("active", false).Error; err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database_error", Message: "Failed to disconnect account", Code: http.StatusInternalServerError})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Account disconnected"})
}
