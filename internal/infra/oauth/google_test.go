package oauth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/dhanush432-code/tradescope-auth/internal/core/domain"
	"github.com/dhanush432-code/tradescope-auth/internal/infra/config"
)

func testSettings() config.OAuthSettings {
	return config.OAuthSettings{
		GoogleClientID:     "client-id",
		GoogleClientSecret: "client-secret",
		RedirectURL:        "http://localhost:8080/auth/google/callback",
		ExchangeTimeout:    5 * time.Second,
	}
}

func newProviderAgainst(t *testing.T, tokenHandler, userinfoHandler http.HandlerFunc) *GoogleProvider {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/token", tokenHandler)
	mux.HandleFunc("/userinfo", userinfoHandler)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return NewGoogleProvider(testSettings(),
		WithEndpoint(oauth2.Endpoint{
			AuthURL:   server.URL + "/auth",
			TokenURL:  server.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		}),
		WithUserInfoURL(server.URL+"/userinfo"),
	)
}

func serveToken(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"access_token":"token-123","token_type":"Bearer","expires_in":3600}`))
}

func TestAuthCodeURLCarriesState(t *testing.T) {
	provider := NewGoogleProvider(testSettings())

	url := provider.AuthCodeURL("nonce-1")
	if !strings.Contains(url, "state=nonce-1") {
		t.Fatalf("expected state parameter, got %s", url)
	}
	if !strings.Contains(url, "client_id=client-id") {
		t.Fatalf("expected client id, got %s", url)
	}
}

func TestExchangeCodeReturnsIdentity(t *testing.T) {
	provider := newProviderAgainst(t, serveToken, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer token-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"ext-1","email":"trader@example.com","name":"Trader","picture":"https://example.com/p.png"}`))
	})

	identity, err := provider.ExchangeCode(context.Background(), "auth-code")
	if err != nil {
		t.Fatalf("ExchangeCode returned error: %v", err)
	}
	if identity.Provider != "google" || identity.ExternalID != "ext-1" {
		t.Fatalf("unexpected identity: %+v", identity)
	}
	if identity.Email != "trader@example.com" || identity.DisplayName != "Trader" {
		t.Fatalf("unexpected profile fields: %+v", identity)
	}
}

func TestExchangeCodeRejectedIsNotRetried(t *testing.T) {
	var calls int32
	provider := newProviderAgainst(t, func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	}, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	if _, err := provider.ExchangeCode(context.Background(), "bad-code"); !errors.Is(err, ErrExchangeRejected) {
		t.Fatalf("expected ErrExchangeRejected, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("rejected exchange must not be retried, got %d calls", got)
	}
}

func TestExchangeCodeUnreachableAfterRetry(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close() // connection refused from here on

	provider := NewGoogleProvider(testSettings(),
		WithEndpoint(oauth2.Endpoint{
			AuthURL:  server.URL + "/auth",
			TokenURL: server.URL + "/token",
		}),
		WithTimeout(2*time.Second),
	)

	if _, err := provider.ExchangeCode(context.Background(), "auth-code"); !errors.Is(err, ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable, got %v", err)
	}
}

func TestExchangeCodeIncompleteProfile(t *testing.T) {
	provider := newProviderAgainst(t, serveToken, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"ext-1","name":"No Email"}`))
	})

	if _, err := provider.ExchangeCode(context.Background(), "auth-code"); !errors.Is(err, domain.ErrIncompleteIdentity) {
		t.Fatalf("expected ErrIncompleteIdentity, got %v", err)
	}
}

func TestExchangeCodeEmptyCode(t *testing.T) {
	provider := NewGoogleProvider(testSettings())

	if _, err := provider.ExchangeCode(context.Background(), "  "); !errors.Is(err, ErrExchangeRejected) {
		t.Fatalf("expected ErrExchangeRejected, got %v", err)
	}
}
