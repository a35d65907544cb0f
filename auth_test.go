package couchrepo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/xdbsoft/couchrepo/transport"
)

func newTestIssuer(t *testing.T) *httptest.Server {
	t.Helper()

	var issuer *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"issuer":                                issuer.URL,
			"authorization_endpoint":                issuer.URL + "/auth",
			"token_endpoint":                        issuer.URL + "/token",
			"jwks_uri":                              issuer.URL + "/keys",
			"id_token_signing_alg_values_supported": []string{"RS256"},
		})
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.PostForm.Get("grant_type") != "client_credentials" {
			http.Error(w, `{"error":"unsupported_grant_type"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"store-token","token_type":"bearer","expires_in":3600}`))
	})
	issuer = httptest.NewServer(mux)
	return issuer
}

func TestNewHTTPClient_WithoutIssuer(t *testing.T) {

	client, err := NewHTTPClient(context.Background(), AuthConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if client == nil {
		t.Error("Expected a client")
	}
}

func TestNewHTTPClient_BearerToken(t *testing.T) {

	issuer := newTestIssuer(t)
	defer issuer.Close()

	var authorization string
	store := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authorization = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"_id":"doc","_rev":"1-a"}`))
	}))
	defer store.Close()

	ctx := context.Background()
	client, err := NewHTTPClient(ctx, AuthConfig{Issuer: issuer.URL, ClientID: "couchrepo", ClientSecret: "secret"})
	if err != nil {
		t.Fatal(err)
	}

	r, err := New(Config{URL: store.URL, Database: "testing"}, transport.HTTP(client))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Load(ctx, "doc"); err != nil {
		t.Fatal(err)
	}

	if authorization != "Bearer store-token" {
		t.Errorf("Unexpected Authorization header '%s'", authorization)
	}
}

func TestNewHTTPClient_DiscoveryFailure(t *testing.T) {

	issuer := httptest.NewServer(http.NotFoundHandler())
	defer issuer.Close()

	_, err := NewHTTPClient(context.Background(), AuthConfig{Issuer: issuer.URL, ClientID: "couchrepo"})
	if err == nil {
		t.Fatal("Expected an error")
	}
	if !strings.HasPrefix(err.Error(), "unable to discover OpenID Connect provider: ") {
		t.Errorf("Unexpected error '%v'", err)
	}
}
