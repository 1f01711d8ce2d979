package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/opalmirror/opal/internal/config"
	"github.com/opalmirror/opal/internal/logger"
)

const defaultTokenURL = "https://www.reddit.com/api/v1/access_token"

// TokenSource holds a renewable OAuth access token obtained through the
// script-app password grant. The scan loop calls Refresh on a schedule;
// callers needing a token use Token, which refreshes lazily when the cached
// one is close to expiry.
type TokenSource struct {
	creds     config.Credentials
	userAgent string
	http      *http.Client
	log       *logger.Logger

	tokenURL string

	mu      sync.Mutex
	token   string
	expires time.Time
}

// NewTokenSource builds a token source from the configured credential set.
func NewTokenSource(cfg *config.Config, log *logger.Logger) *TokenSource {
	return &TokenSource{
		creds:     cfg.Creds,
		userAgent: cfg.UserAgent,
		http:      &http.Client{Timeout: 15 * time.Second},
		log:       log.Component("tokens"),
		tokenURL:  defaultTokenURL,
	}
}

// Token returns a valid access token, fetching a fresh one if the cached
// token expires within the next minute.
func (t *TokenSource) Token(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.token != "" && time.Until(t.expires) > time.Minute {
		return t.token, nil
	}
	if err := t.refreshLocked(ctx); err != nil {
		return "", err
	}
	return t.token, nil
}

// Refresh unconditionally fetches a new access token.
func (t *TokenSource) Refresh(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.refreshLocked(ctx)
}

func (t *TokenSource) refreshLocked(ctx context.Context) error {
	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("username", t.creds.Username)
	form.Set("password", t.creds.Password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		t.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.SetBasicAuth(t.creds.ClientID, t.creds.ClientSecret)
	req.Header.Set("User-Agent", t.userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.http.Do(req)
	if err != nil {
		return fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("token request status: %d", resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
		Error       string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decode token response: %w", err)
	}
	if body.Error != "" {
		return fmt.Errorf("token grant rejected: %s", body.Error)
	}
	if body.AccessToken == "" {
		return fmt.Errorf("token grant returned no token")
	}

	t.token = body.AccessToken
	t.expires = time.Now().Add(time.Duration(body.ExpiresIn) * time.Second)
	t.log.Debug("access token refreshed")
	return nil
}
