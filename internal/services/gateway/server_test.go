package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vigild/vigil/internal/domain/account"
	"github.com/vigild/vigil/internal/domain/message"
	"github.com/vigild/vigil/internal/domain/notification"
)

// The server registers its counters in the default prometheus
// registry, so the whole file shares one instance.
var (
	srvOnce    sync.Once
	srvFixture *fixture
	srvHandler http.Handler
)

func testServer(t *testing.T) (*fixture, http.Handler) {
	t.Helper()
	srvOnce.Do(func() {
		srvFixture = newFixture()
		srv := NewServer(zap.NewNop(), srvFixture.uc)
		srvHandler = srv.Router(nil, nil)
	})
	return srvFixture, srvHandler
}

func doJSON(t *testing.T, h http.Handler, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestServer_Healthz(t *testing.T) {
	_, h := testServer(t)
	w := doJSON(t, h, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestServer_IngestAccepted(t *testing.T) {
	f, h := testServer(t)
	tok, err := f.tokens.Create(context.Background(), "srv-acc-ingest")
	require.NoError(t, err)

	w := doJSON(t, h, http.MethodPost, "/api/messages", tok.String(), map[string]string{
		"hostname": "web-1",
		"title":    "backup done",
		"body":     "42 GiB",
	})
	require.Equal(t, http.StatusAccepted, w.Code)
	require.NotEmpty(t, f.events.published)
	require.Equal(t, account.ID("srv-acc-ingest"), f.events.published[len(f.events.published)-1].AccountID)
}

func TestServer_IngestUnknownToken(t *testing.T) {
	_, h := testServer(t)
	w := doJSON(t, h, http.MethodPost, "/api/messages", "bogus-token", map[string]string{
		"hostname": "web-1",
		"title":    "backup done",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestServer_IngestBadPayload(t *testing.T) {
	f, h := testServer(t)
	tok, err := f.tokens.Create(context.Background(), "srv-acc-bad")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/messages", bytes.NewReader([]byte("{broken")))
	req.Header.Set("Authorization", "Bearer "+tok.String())
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w2 := doJSON(t, h, http.MethodPost, "/api/messages", tok.String(), map[string]string{"body": "no hostname or title"})
	require.Equal(t, http.StatusBadRequest, w2.Code)
}

func TestServer_SessionRequired(t *testing.T) {
	_, h := testServer(t)
	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/tokens"},
		{http.MethodGet, "/api/tokens"},
		{http.MethodGet, "/api/hostnames"},
		{http.MethodGet, "/api/notification_settings"},
		{http.MethodDelete, "/api/accounts/self"},
	} {
		w := doJSON(t, h, tc.method, tc.path, "", nil)
		require.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", tc.method, tc.path)

		w = doJSON(t, h, tc.method, tc.path, "not-a-jwt", nil)
		require.Equal(t, http.StatusUnauthorized, w.Code, "%s %s with garbage token", tc.method, tc.path)
	}
}

func TestServer_TokenLifecycle(t *testing.T) {
	_, h := testServer(t)

	w := doJSON(t, h, http.MethodPost, "/api/accounts", "", map[string]string{"email": "lifecycle@example.com"})
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		Account account.Account `json:"account"`
		Session string          `json:"session"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.Session)

	mint := func() string {
		w := doJSON(t, h, http.MethodPost, "/api/tokens", created.Session, nil)
		require.Equal(t, http.StatusCreated, w.Code)
		var tokResp map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tokResp))
		require.Len(t, tokResp["token"], 32)
		return tokResp["token"]
	}
	tok1 := mint()
	tok2 := mint()

	w = doJSON(t, h, http.MethodGet, "/api/tokens", created.Session, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed []string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed, 2)
	require.Contains(t, listed, tok1)
	require.Contains(t, listed, tok2)

	w = doJSON(t, h, http.MethodDelete, "/api/tokens/"+tok1, created.Session, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, h, http.MethodDelete, "/api/tokens/"+tok1, created.Session, nil)
	require.Equal(t, http.StatusNotFound, w.Code, "second revoke looks like an unknown token")

	// The revoked token no longer authenticates ingestion.
	w = doJSON(t, h, http.MethodPost, "/api/messages", tok1, map[string]string{
		"hostname": "web-1", "title": "t",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// The other token is untouched.
	w = doJSON(t, h, http.MethodGet, "/api/tokens", created.Session, nil)
	require.Equal(t, http.StatusOK, w.Code)
	listed = nil
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Equal(t, []string{tok2}, listed)

	w = doJSON(t, h, http.MethodPost, "/api/messages", tok2, map[string]string{
		"hostname": "web-1", "title": "t",
	})
	require.Equal(t, http.StatusAccepted, w.Code)
}

func TestServer_RevokeForeignTokenNotFound(t *testing.T) {
	f, h := testServer(t)

	tok, err := f.tokens.Create(context.Background(), "srv-acc-owner")
	require.NoError(t, err)

	w := doJSON(t, h, http.MethodPost, "/api/accounts", "", map[string]string{"email": "intruder@example.com"})
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		Session string `json:"session"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doJSON(t, h, http.MethodDelete, "/api/tokens/"+tok.String(), created.Session, nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	// The owner can still ingest with it.
	w = doJSON(t, h, http.MethodPost, "/api/messages", tok.String(), map[string]string{
		"hostname": "web-1", "title": "still here",
	})
	require.Equal(t, http.StatusAccepted, w.Code)
}

func TestServer_MessagesAndHostnames(t *testing.T) {
	f, h := testServer(t)

	w := doJSON(t, h, http.MethodPost, "/api/accounts", "", map[string]string{"email": "reader@example.com"})
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		Account account.Account `json:"account"`
		Session string          `json:"session"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	key := message.Key{AccountID: created.Account.ID, Hostname: "db-1"}
	for _, title := range []string{"one", "two", "three"} {
		require.NoError(t, f.messages.Append(context.Background(), key, message.Message{Hostname: "db-1", Title: title}))
	}

	w = doJSON(t, h, http.MethodGet, "/api/hostnames", created.Session, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "db-1")

	w = doJSON(t, h, http.MethodGet, "/api/messages/db-1?limit=2", created.Session, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed struct {
		Messages []message.Message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed.Messages, 2)
	require.Equal(t, "one", listed.Messages[0].Title)
}

func TestServer_NotificationSettingsRoundtrip(t *testing.T) {
	_, h := testServer(t)

	w := doJSON(t, h, http.MethodPost, "/api/accounts", "", map[string]string{"email": "settings@example.com"})
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		Session string `json:"session"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	in := notification.Settings{
		Slack: &notification.SlackSettings{WebhookURL: "https://hooks.example.com/x", Channel: "#ops"},
	}
	w = doJSON(t, h, http.MethodPost, "/api/notification_settings", created.Session, in)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, h, http.MethodGet, "/api/notification_settings", created.Session, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var out notification.Settings
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.NotNil(t, out.Slack)
	require.Equal(t, "#ops", out.Slack.Channel)
	require.Nil(t, out.Email)
}

func TestServer_GetAccountAndNotifications(t *testing.T) {
	f, h := testServer(t)

	w := doJSON(t, h, http.MethodPost, "/api/accounts", "", map[string]string{"email": "self@example.com"})
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		Account account.Account `json:"account"`
		Session string          `json:"session"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doJSON(t, h, http.MethodGet, "/api/accounts/self", created.Session, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "self@example.com")

	require.NoError(t, f.records.Create(context.Background(), &notification.Record{
		AccountID: created.Account.ID, Hostname: "web-9", Channel: "slack",
	}))
	w = doJSON(t, h, http.MethodGet, "/api/notifications", created.Session, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "web-9")
}

func TestServer_DeleteAccount(t *testing.T) {
	_, h := testServer(t)

	w := doJSON(t, h, http.MethodPost, "/api/accounts", "", map[string]string{"email": "gone@example.com"})
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		Session string `json:"session"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doJSON(t, h, http.MethodDelete, "/api/accounts/self", created.Session, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, h, http.MethodDelete, "/api/accounts/self", created.Session, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}
