package tasks

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/desertthunder/snaptunes/internal/models"
	"github.com/desertthunder/snaptunes/internal/shared"
)

func TestBroker(t *testing.T) {
	ctx := context.Background()

	t.Run("BeginAuthorization", func(t *testing.T) {
		b := NewBroker(&fakeOAuth{})
		if got := b.BeginAuthorization("xyz"); !strings.HasSuffix(got, "state=xyz") {
			t.Errorf("expected provider url with state, got %s", got)
		}
	})

	t.Run("CompleteAuthorization", func(t *testing.T) {
		t.Run("Success", func(t *testing.T) {
			issued := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
			expiry := issued.Add(time.Hour)
			provider := &fakeOAuth{token: &oauth2.Token{AccessToken: "a", RefreshToken: "r", Expiry: expiry}}
			b := NewBroker(provider)
			b.now = func() time.Time { return issued }

			cred, err := b.CompleteAuthorization(ctx, " code-1 ")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if cred.AccessToken != "a" || cred.RefreshToken != "r" {
				t.Errorf("unexpected credential tokens")
			}
			if !cred.IssuedAt.Equal(issued) || !cred.ExpiresAt.Equal(expiry) {
				t.Errorf("unexpected times %v %v", cred.IssuedAt, cred.ExpiresAt)
			}
			if provider.codes[0] != "code-1" {
				t.Errorf("expected trimmed code, got %q", provider.codes[0])
			}
		})

		t.Run("Missing Code", func(t *testing.T) {
			provider := &fakeOAuth{}
			_, err := NewBroker(provider).CompleteAuthorization(ctx, "  ")
			if !errors.Is(err, shared.ErrMissingCode) {
				t.Errorf("expected ErrMissingCode, got %v", err)
			}
			if len(provider.codes) != 0 {
				t.Error("expected no exchange")
			}
		})

		t.Run("No Access Token", func(t *testing.T) {
			provider := &fakeOAuth{token: &oauth2.Token{RefreshToken: "r"}}
			_, err := NewBroker(provider).CompleteAuthorization(ctx, "code")
			if !errors.Is(err, shared.ErrExchangeFailed) {
				t.Errorf("expected ErrExchangeFailed, got %v", err)
			}
		})

		t.Run("Provider Error Body", func(t *testing.T) {
			provider := &fakeOAuth{err: &oauth2.RetrieveError{Body: []byte(`{"error":"invalid_grant"}`)}}
			_, err := NewBroker(provider).CompleteAuthorization(ctx, "code")
			if !errors.Is(err, shared.ErrExchangeFailed) {
				t.Fatalf("expected ErrExchangeFailed, got %v", err)
			}
			if !strings.Contains(err.Error(), "invalid_grant") {
				t.Errorf("expected provider body in error, got %v", err)
			}
			if shared.KindOf(err) != shared.KindAuth {
				t.Errorf("expected auth kind, got %s", shared.KindOf(err))
			}
		})

		t.Run("Transport Error", func(t *testing.T) {
			provider := &fakeOAuth{err: errors.New("connection refused")}
			_, err := NewBroker(provider).CompleteAuthorization(ctx, "code")
			if !errors.Is(err, shared.ErrExchangeFailed) {
				t.Errorf("expected ErrExchangeFailed, got %v", err)
			}
		})

		t.Run("Cancelled", func(t *testing.T) {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			provider := &fakeOAuth{err: errors.New("canceled")}
			_, err := NewBroker(provider).CompleteAuthorization(cctx, "code")
			if !errors.Is(err, context.Canceled) {
				t.Errorf("expected context.Canceled, got %v", err)
			}
		})
	})

	t.Run("HandoffURL", func(t *testing.T) {
		t.Run("Both Tokens", func(t *testing.T) {
			got, err := HandoffURL("http://127.0.0.1:3000/", models.Credential{AccessToken: "a b", RefreshToken: "r"})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			u, _ := url.Parse(got)
			if u.Path != "/" || u.Query().Get(AccessTokenParam) != "a b" || u.Query().Get(RefreshTokenParam) != "r" {
				t.Errorf("unexpected hand-off url %s", got)
			}
		})

		t.Run("Empty Refresh Token", func(t *testing.T) {
			got, _ := HandoffURL("http://127.0.0.1:3000/", models.Credential{AccessToken: "a"})
			u, _ := url.Parse(got)
			if _, ok := u.Query()[RefreshTokenParam]; !ok {
				t.Errorf("expected refresh param present, got %s", got)
			}
		})

		t.Run("No Credential", func(t *testing.T) {
			if _, err := HandoffURL("http://127.0.0.1:3000/", models.Credential{}); !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("expected ErrNotAuthenticated, got %v", err)
			}
		})
	})
}
