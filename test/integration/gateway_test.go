//go:build integration

package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"
)

func TestGateway_IngestToStore(t *testing.T) {
	cfg := LoadCfg()
	WaitHealthz(t, cfg.GWHealthURL, 60*time.Second)

	db := DBOpen(t, cfg.DBDSN)
	defer db.Close()

	accountID := RandAccountID()
	tok := RandToken()
	SeedAccount(t, db, accountID, fmt.Sprintf("gw-%s@example.com", accountID[:8]))
	SeedToken(t, db, tok, accountID)

	title := fmt.Sprintf("backup done %d", time.Now().UnixNano())
	body, _ := json.Marshal(map[string]string{
		"hostname": "web-1",
		"title":    title,
		"body":     "42 GiB in 12m",
	})
	resp := HTTPDoJSON(t, http.MethodPost, cfg.GWBaseURL+"/api/messages", tok, body, http.StatusAccepted)
	t.Logf("[ingest] %s", string(resp))

	if !WaitMessageRow(t, db, accountID, "web-1", title, 30*time.Second) {
		t.Fatalf("message never reached the store")
	}
}

func TestGateway_UnknownTokenRejected(t *testing.T) {
	cfg := LoadCfg()
	WaitHealthz(t, cfg.GWHealthURL, 60*time.Second)

	body, _ := json.Marshal(map[string]string{
		"hostname": "web-1",
		"title":    "should not land",
	})
	HTTPDoJSON(t, http.MethodPost, cfg.GWBaseURL+"/api/messages", "bogus-token", body, http.StatusUnauthorized)
}

func TestGateway_AccountAndTokenAPI(t *testing.T) {
	cfg := LoadCfg()
	WaitHealthz(t, cfg.GWHealthURL, 60*time.Second)

	email := fmt.Sprintf("it-api-%d@example.com", time.Now().UnixNano())
	body, _ := json.Marshal(map[string]string{"email": email})
	created := HTTPDoJSON(t, http.MethodPost, cfg.GWBaseURL+"/api/accounts", "", body, http.StatusCreated)

	var acct struct {
		Session string `json:"session"`
	}
	if err := json.Unmarshal(created, &acct); err != nil || acct.Session == "" {
		t.Fatalf("unmarshal account: %v body=%s", err, string(created))
	}

	mint := func() string {
		tokResp := HTTPDoJSON(t, http.MethodPost, cfg.GWBaseURL+"/api/tokens", acct.Session, nil, http.StatusCreated)
		var tr struct {
			Token string `json:"token"`
		}
		if err := json.Unmarshal(tokResp, &tr); err != nil || len(tr.Token) != 32 {
			t.Fatalf("unmarshal token: %v body=%s", err, string(tokResp))
		}
		return tr.Token
	}
	tok1 := mint()
	tok2 := mint()

	listResp := HTTPDoJSON(t, http.MethodGet, cfg.GWBaseURL+"/api/tokens", acct.Session, nil, http.StatusOK)
	var listed []string
	if err := json.Unmarshal(listResp, &listed); err != nil {
		t.Fatalf("unmarshal token list: %v body=%s", err, string(listResp))
	}
	if len(listed) != 2 || !contains(listed, tok1) || !contains(listed, tok2) {
		t.Fatalf("token list = %v, want exactly [%s %s]", listed, tok1, tok2)
	}

	ingest, _ := json.Marshal(map[string]string{"hostname": "db-1", "title": "made via API"})
	HTTPDoJSON(t, http.MethodPost, cfg.GWBaseURL+"/api/messages", tok1, ingest, http.StatusAccepted)

	HTTPDoJSON(t, http.MethodDelete, cfg.GWBaseURL+"/api/tokens/"+tok1, acct.Session, nil, http.StatusNoContent)
	HTTPDoJSON(t, http.MethodPost, cfg.GWBaseURL+"/api/messages", tok1, ingest, http.StatusUnauthorized)

	// The surviving token still authenticates.
	HTTPDoJSON(t, http.MethodPost, cfg.GWBaseURL+"/api/messages", tok2, ingest, http.StatusAccepted)
}

func contains(ss []string, want string) bool {
	for _, s := range ss {
		if s == want {
			return true
		}
	}
	return false
}
