package instagram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"instagram-dm-automation-go/internal/config"
	"instagram-dm-automation-go/internal/models"
)

func testClient(baseURL string) *Client {
	return NewClient(&config.InstagramConfig{
		AppID:        "app-id",
		AppSecret:    "app-secret",
		GraphAPIBase: baseURL,
		SendTimeout:  time.Second,
	})
}

func TestSendMessage(t *testing.T) {
	var gotBody sendMessageRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/me/messages", r.URL.Path)
		assert.Equal(t, "page-token", r.URL.Query().Get("access_token"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(sendMessageResponse{RecipientID: "user_1", MessageID: "mid.sent"})
	}))
	defer srv.Close()

	client := testClient(srv.URL)
	account := &models.InstagramAccount{BusinessAccountID: "biz_1", PageAccessToken: "page-token"}

	mid, err := client.SendMessage(context.Background(), account, "user_1", "hello!")
	require.NoError(t, err)
	assert.Equal(t, "mid.sent", mid)
	assert.Equal(t, "user_1", gotBody.Recipient.ID)
	assert.Equal(t, "hello!", gotBody.Message.Text)
}

func TestSendMessageErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": {"message": "invalid token"}}`))
	}))
	defer srv.Close()

	client := testClient(srv.URL)
	account := &models.InstagramAccount{PageAccessToken: "expired"}

	_, err := client.SendMessage(context.Background(), account, "user_1", "hello!")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestSendMessageTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	client := testClient(srv.URL)
	account := &models.InstagramAccount{PageAccessToken: "token"}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := client.SendMessage(ctx, account, "user_1", "hello!")
	require.Error(t, err)
}

func TestExtendToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/oauth/access_token", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "fb_exchange_token", q.Get("grant_type"))
		assert.Equal(t, "app-id", q.Get("client_id"))
		assert.Equal(t, "short-token", q.Get("fb_exchange_token"))
		json.NewEncoder(w).Encode(extendTokenResponse{AccessToken: "long-token", ExpiresIn: 3600})
	}))
	defer srv.Close()

	client := testClient(srv.URL)
	token, expiresAt, err := client.ExtendToken(context.Background(), "short-token")
	require.NoError(t, err)
	assert.Equal(t, "long-token", token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 10*time.Second)
}

func TestListBusinessAccounts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/me/accounts":
			w.Write([]byte(`{"data": [
				{"id": "page_1", "name": "Shop", "access_token": "pt_1",
				 "instagram_business_account": {"id": "ig_1"}},
				{"id": "page_2", "name": "No IG", "access_token": "pt_2"}
			]}`))
		case "/ig_1":
			w.Write([]byte(`{"id": "ig_1", "username": "myshop"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := testClient(srv.URL)
	accounts, err := client.ListBusinessAccounts(context.Background(), "user-token")
	require.NoError(t, err)

	require.Len(t, accounts, 1, "pages without an Instagram account are skipped")
	assert.Equal(t, "ig_1", accounts[0].BusinessAccountID)
	assert.Equal(t, "myshop", accounts[0].Username)
	assert.Equal(t, "page_1", accounts[0].PageID)
	assert.Equal(t, "pt_1", accounts[0].PageAccessToken)
}
