package license

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/metrics"
)

// Statuses a Result can carry besides the raw Zoom presence status.
const (
	StatusError         = "error"
	StatusNotConfigured = "not_configured"
)

// busyStatuses is an exclusion list: any status outside it, including ones
// Zoom introduces later, counts as available.
var busyStatuses = map[string]struct{}{
	"In_Meeting":     {},
	"Presenting":     {},
	"On_Phone_Call":  {},
	"Do_Not_Disturb": {},
	"Busy":           {},
}

// IsBusy classifies a raw Zoom presence status.
func IsBusy(status string) bool {
	_, busy := busyStatuses[status]
	return busy
}

// Result is the availability verdict for one license seat.
// Available is nil when the seat could not be checked (error, unmapped seat).
type Result struct {
	LicenseID int    `json:"licenseId"`
	Host      string `json:"-"`
	Status    string `json:"status"`
	Available *bool  `json:"available"`
	Error     string `json:"error,omitempty"`
}

type presenceResponse struct {
	Status string `json:"status"`
}

// PresenceClient fetches real-time presence for Zoom hosts.
type PresenceClient struct {
	conf   *core.Config
	tokens *TokenSource
	client *http.Client
}

func NewPresenceClient(conf *core.Config, tokens *TokenSource, client *http.Client) *PresenceClient {
	if client == nil {
		client = &http.Client{Timeout: conf.Zoom.RequestTimeout}
	}
	return &PresenceClient{
		conf:   conf,
		tokens: tokens,
		client: client,
	}
}

// Presence returns the raw presence status reported by Zoom for the host.
func (c *PresenceClient) Presence(ctx context.Context, host string) (string, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/users/%s/presence_status", c.conf.Zoom.BaseURL, url.PathEscape(host))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", &UpstreamPresenceError{Host: host, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &UpstreamPresenceError{Host: host, Err: err}
	}
	//goland:noinspection GoUnhandledErrorResult
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &UpstreamPresenceError{Host: host, Err: fmt.Errorf("presence endpoint returned %d: %s", resp.StatusCode, body)}
	}

	var pr presenceResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return "", &UpstreamPresenceError{Host: host, Err: errors.Wrap(err, "decoding presence response")}
	}
	return pr.Status, nil
}

// IsAvailable never fails: any upstream error degrades to an unknown verdict
// with the failure message preserved for diagnostics.
func (c *PresenceClient) IsAvailable(ctx context.Context, host string) Result {
	status, err := c.Presence(ctx, host)
	if err != nil {
		metrics.PresenceChecks.WithLabelValues("error").Inc()
		return Result{Host: host, Status: StatusError, Error: err.Error()}
	}

	available := !IsBusy(status)
	if available {
		metrics.PresenceChecks.WithLabelValues("available").Inc()
	} else {
		metrics.PresenceChecks.WithLabelValues("busy").Inc()
	}
	return Result{Host: host, Status: status, Available: &available}
}
