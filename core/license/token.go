package license

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/metrics"
)

// tokenExpiryMargin is the safety buffer below which a cached token is treated
// as expired; no clock-skew correction is applied beyond it.
const tokenExpiryMargin = 5 * time.Minute

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"` // seconds
}

// TokenSource holds the one cached Zoom Server-to-Server OAuth access token
// for this process. Concurrent refreshes are tolerated: both may hit the
// network and the last writer wins; the mutex only guards the field swap.
type TokenSource struct {
	conf    *core.Config
	client  *http.Client
	nowFunc func() time.Time // mockable

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func NewTokenSource(conf *core.Config, client *http.Client) *TokenSource {
	if client == nil {
		client = &http.Client{Timeout: conf.Zoom.RequestTimeout}
	}
	return &TokenSource{
		conf:    conf,
		client:  client,
		nowFunc: time.Now,
	}
}

// Token returns the cached access token while it has more than
// tokenExpiryMargin of lifetime left; otherwise it performs a credential
// exchange and caches the fresh token.
func (ts *TokenSource) Token(ctx context.Context) (string, error) {
	if tok, ok := ts.cached(); ok {
		metrics.TokenCacheHits.Inc()
		return tok, nil
	}
	return ts.refresh(ctx)
}

func (ts *TokenSource) cached() (string, bool) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if ts.token != "" && ts.nowFunc().Before(ts.expiresAt.Add(-tokenExpiryMargin)) {
		return ts.token, true
	}
	return "", false
}

func (ts *TokenSource) refresh(ctx context.Context) (string, error) {
	if !ts.conf.Zoom.CredentialsSet() {
		return "", &UpstreamAuthError{Err: ErrCredentialsNotConfigured}
	}

	form := url.Values{
		"grant_type": []string{"account_credentials"},
		"account_id": []string{ts.conf.Zoom.AccountID},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ts.conf.Zoom.AuthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", &UpstreamAuthError{Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(ts.conf.Zoom.ClientID, ts.conf.Zoom.ClientSecret)

	resp, err := ts.client.Do(req)
	if err != nil {
		metrics.TokenRefreshes.WithLabelValues("failure").Inc()
		return "", &UpstreamAuthError{Err: err}
	}
	//goland:noinspection GoUnhandledErrorResult
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.TokenRefreshes.WithLabelValues("failure").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &UpstreamAuthError{Err: fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, body)}
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		metrics.TokenRefreshes.WithLabelValues("failure").Inc()
		return "", &UpstreamAuthError{Err: errors.Wrap(err, "decoding token response")}
	}
	if tr.AccessToken == "" {
		metrics.TokenRefreshes.WithLabelValues("failure").Inc()
		return "", &UpstreamAuthError{Err: errors.New("token endpoint returned no access_token")}
	}
	metrics.TokenRefreshes.WithLabelValues("success").Inc()

	// expires_in is trusted as-is from upstream
	ts.mu.Lock()
	ts.token = tr.AccessToken
	ts.expiresAt = ts.nowFunc().Add(time.Duration(tr.ExpiresIn) * time.Second)
	ts.mu.Unlock()

	return tr.AccessToken, nil
}
