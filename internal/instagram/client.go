package instagram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"

	"instagram-dm-automation-go/internal/config"
	"instagram-dm-automation-go/internal/models"
)

// Client talks to the Instagram Graph API
type Client struct {
	baseURL    string
	appID      string
	appSecret  string
	httpClient *http.Client
	oauth      *oauth2.Config
}

// NewClient creates a Graph API client from configuration
func NewClient(cfg *config.InstagramConfig) *Client {
	return &Client{
		baseURL:    cfg.GraphAPIBase,
		appID:      cfg.AppID,
		appSecret:  cfg.AppSecret,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		oauth: &oauth2.Config{
			ClientID:     cfg.AppID,
			ClientSecret: cfg.AppSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes: []string{
				"pages_show_list",
				"pages_messaging",
				"instagram_basic",
				"instagram_manage_messages",
			},
			Endpoint: facebook.Endpoint,
		},
	}
}

// AuthURL returns the OAuth consent URL for account linking
func (c *Client) AuthURL(state string) string {
	return c.oauth.AuthCodeURL(state)
}

// ExchangeCode exchanges an OAuth authorization code for a user token
func (c *Client) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	return token, nil
}

type sendMessageRequest struct {
	Recipient struct {
		ID string `json:"id"`
	} `json:"recipient"`
	Message struct {
		Text string `json:"text"`
	} `json:"message"`
}

type sendMessageResponse struct {
	RecipientID string `json:"recipient_id"`
	MessageID   string `json:"message_id"`
}

// SendMessage sends a DM to a recipient on behalf of the connected
// account and returns the provider-issued message id.
func (c *Client) SendMessage(ctx context.Context, account *models.InstagramAccount, recipientID, text string) (string, error) {
	var reqBody sendMessageRequest
	reqBody.Recipient.ID = recipientID
	reqBody.Message.Text = text

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to encode send request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/me/messages?access_token=%s", c.baseURL, url.QueryEscape(account.PageAccessToken))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send message: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read send response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("send message failed with status %d: %s", resp.StatusCode, string(body))
	}

	var sendResp sendMessageResponse
	if err := json.Unmarshal(body, &sendResp); err != nil {
		return "", fmt.Errorf("failed to decode send response: %w", err)
	}
	return sendResp.MessageID, nil
}

type extendTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// ExtendToken exchanges a short-lived token for a long-lived one and
// returns the new token with its expiry time.
func (c *Client) ExtendToken(ctx context.Context, token string) (string, time.Time, error) {
	params := url.Values{}
	params.Set("grant_type", "fb_exchange_token")
	params.Set("client_id", c.appID)
	params.Set("client_secret", c.appSecret)
	params.Set("fb_exchange_token", token)

	endpoint := fmt.Sprintf("%s/oauth/access_token?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to build token request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to extend token: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", time.Time{}, fmt.Errorf("token exchange failed with status %d: %s", resp.StatusCode, string(body))
	}

	var tokenResp extendTokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to decode token response: %w", err)
	}
	if tokenResp.ExpiresIn == 0 {
		// Long-lived page tokens default to roughly 60 days.
		tokenResp.ExpiresIn = 5184000
	}
	return tokenResp.AccessToken, time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second), nil
}

// BusinessAccount describes one Instagram business account discovered
// from the user's Facebook pages.
type BusinessAccount struct {
	BusinessAccountID string
	Username          string
	PageID            string
	PageName          string
	PageAccessToken   string
}

type pagesResponse struct {
	Data []struct {
		ID                       string `json:"id"`
		Name                     string `json:"name"`
		AccessToken              string `json:"access_token"`
		InstagramBusinessAccount *struct {
			ID string `json:"id"`
		} `json:"instagram_business_account"`
	} `json:"data"`
}

type igAccountResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// ListBusinessAccounts discovers the Instagram business accounts attached
// to the user's Facebook pages.
func (c *Client) ListBusinessAccounts(ctx context.Context, userToken string) ([]BusinessAccount, error) {
	endpoint := fmt.Sprintf("%s/me/accounts?access_token=%s&fields=%s",
		c.baseURL, url.QueryEscape(userToken), url.QueryEscape("id,name,access_token,instagram_business_account"))

	var pages pagesResponse
	if err := c.getJSON(ctx, endpoint, &pages); err != nil {
		return nil, fmt.Errorf("failed to fetch pages: %w", err)
	}

	var accounts []BusinessAccount
	for _, page := range pages.Data {
		if page.InstagramBusinessAccount == nil {
			continue
		}
		igEndpoint := fmt.Sprintf("%s/%s?access_token=%s&fields=%s",
			c.baseURL, page.InstagramBusinessAccount.ID, url.QueryEscape(page.AccessToken), url.QueryEscape("id,username"))

		var ig igAccountResponse
		if err := c.getJSON(ctx, igEndpoint, &ig); err != nil {
			logrus.Warnf("Failed to fetch Instagram account %s: %v", page.InstagramBusinessAccount.ID, err)
			continue
		}
		accounts = append(accounts, BusinessAccount{
			BusinessAccountID: ig.ID,
			Username:          ig.Username,
			PageID:            page.ID,
			PageName:          page.Name,
			PageAccessToken:   page.AccessToken,
		})
	}
	return accounts, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
	return json.Unmarshal(body, out)
}
