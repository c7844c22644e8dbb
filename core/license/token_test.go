package license

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core"
)

func TestTokenSource_cachesWhileFresh(t *testing.T) {
	fz := newFakeZoom(t)
	ts := NewTokenSource(fz.conf("host1"), nil)

	now := time.Now()
	ts.nowFunc = func() time.Time { return now }

	ctx := context.Background()

	tok, err := ts.Token(ctx)
	if err != nil {
		t.Fatalf("Token() failed: %v", err)
	}
	if tok != "test-token" {
		t.Errorf("Token() = %q, want %q", tok, "test-token")
	}
	if calls := fz.countTokenCalls(); calls != 1 {
		t.Fatalf("token endpoint called %d times, want 1", calls)
	}

	// well within lifetime: served from cache
	now = now.Add(30 * time.Minute)
	if _, err = ts.Token(ctx); err != nil {
		t.Fatalf("Token() failed: %v", err)
	}
	if calls := fz.countTokenCalls(); calls != 1 {
		t.Errorf("token endpoint called %d times, want 1 (cache hit expected)", calls)
	}

	// 4min of lifetime left, under the 5min buffer: refreshed
	now = now.Add(26 * time.Minute)
	if _, err = ts.Token(ctx); err != nil {
		t.Fatalf("Token() failed: %v", err)
	}
	if calls := fz.countTokenCalls(); calls != 2 {
		t.Errorf("token endpoint called %d times, want 2 (refresh expected)", calls)
	}
}

func TestTokenSource_shortLivedTokenAlwaysRefreshes(t *testing.T) {
	fz := newFakeZoom(t)
	fz.expiresIn = 240 // under the expiry buffer from the moment it is issued

	ts := NewTokenSource(fz.conf("host1"), nil)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		if _, err := ts.Token(ctx); err != nil {
			t.Fatalf("Token() failed: %v", err)
		}
		if calls := fz.countTokenCalls(); calls != i {
			t.Fatalf("token endpoint called %d times, want %d", calls, i)
		}
	}
}

func TestTokenSource_missingCredentials(t *testing.T) {
	conf := &core.Config{Zoom: core.ZoomConfig{AuthURL: "http://localhost:1", RequestTimeout: time.Second}}
	ts := NewTokenSource(conf, nil)

	_, err := ts.Token(context.Background())
	if err == nil {
		t.Fatal("Token() expected an error")
	}
	if _, ok := err.(*UpstreamAuthError); !ok {
		t.Errorf("Token() error = %T, want *UpstreamAuthError", err)
	}
	if cause := errors.Cause(err); cause != ErrCredentialsNotConfigured {
		t.Errorf("Token() cause = %v, want %v", cause, ErrCredentialsNotConfigured)
	}
}

func TestTokenSource_upstreamFailureNotCached(t *testing.T) {
	fz := newFakeZoom(t)
	conf := fz.conf("host1")
	conf.Zoom.AuthURL = fz.srv.URL + "/users/nope/presence_status" // trips a 401

	ts := NewTokenSource(conf, nil)
	ctx := context.Background()

	if _, err := ts.Token(ctx); err == nil {
		t.Fatal("Token() expected an error")
	}

	// recovery: point back at the working endpoint; a fresh exchange must run
	ts.conf.Zoom.AuthURL = fz.srv.URL + "/oauth/token"
	tok, err := ts.Token(ctx)
	if err != nil {
		t.Fatalf("Token() failed after recovery: %v", err)
	}
	if tok != "test-token" {
		t.Errorf("Token() = %q, want %q", tok, "test-token")
	}
}
