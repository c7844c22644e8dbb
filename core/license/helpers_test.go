package license

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/darasahq/darasa/core"
)

// fakeZoom stands in for the Zoom OAuth and presence endpoints.
type fakeZoom struct {
	mu         sync.Mutex
	tokenCalls int

	token     string
	expiresIn int64

	statuses  map[string]string // host -> presence status
	delays    map[string]time.Duration
	failHosts map[string]bool

	srv *httptest.Server
}

func newFakeZoom(t *testing.T) *fakeZoom {
	t.Helper()

	fz := &fakeZoom{
		token:     "test-token",
		expiresIn: 3600,
		statuses:  make(map[string]string),
		delays:    make(map[string]time.Duration),
		failHosts: make(map[string]bool),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		fz.mu.Lock()
		fz.tokenCalls++
		fz.mu.Unlock()

		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if _, _, ok := r.BasicAuth(); !ok {
			http.Error(w, "missing credentials", http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": fz.token,
			"expires_in":   fz.expiresIn,
		})
	})
	mux.HandleFunc("/users/", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer "+fz.token {
			http.Error(w, "bad token", http.StatusUnauthorized)
			return
		}

		// /users/<host>/presence_status
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		if len(parts) != 3 || parts[2] != "presence_status" {
			http.NotFound(w, r)
			return
		}
		host := parts[1]

		if d := fz.delays[host]; d > 0 {
			time.Sleep(d)
		}
		if fz.failHosts[host] {
			http.Error(w, "presence unavailable", http.StatusInternalServerError)
			return
		}
		status, ok := fz.statuses[host]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
	})

	fz.srv = httptest.NewServer(mux)
	t.Cleanup(fz.srv.Close)
	return fz
}

func (fz *fakeZoom) countTokenCalls() int {
	fz.mu.Lock()
	defer fz.mu.Unlock()
	return fz.tokenCalls
}

// conf returns a config with the given seat -> host mappings, pointed at the
// fake upstream.
func (fz *fakeZoom) conf(hosts ...string) *core.Config {
	return &core.Config{
		Zoom: core.ZoomConfig{
			AccountID:      "test-account",
			ClientID:       "test-client",
			ClientSecret:   "test-secret",
			AuthURL:        fz.srv.URL + "/oauth/token",
			BaseURL:        fz.srv.URL,
			RequestTimeout: 5 * time.Second,
			LicenseCount:   len(hosts),
			LicenseHosts:   hosts,
		},
	}
}

func newTestChecker(fz *fakeZoom, conf *core.Config) *Checker {
	tokens := NewTokenSource(conf, nil)
	presence := NewPresenceClient(conf, tokens, nil)
	return NewChecker(NewRegistry(conf), presence)
}
