package identity

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/freekieb7/casetrack/internal/audit"
	"github.com/freekieb7/casetrack/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestGateway(provider Provider) *Gateway {
	auditor := audit.NewAuditor(discardLogger())
	return NewGateway(discardLogger(), provider, &auditor)
}

var jane = Identity{DisplayName: "Jane", Email: "jane@example.com"}

func TestStaticProvider_Authenticate(t *testing.T) {
	p := NewStaticProvider("http://localhost/auth/callback", jane)

	tests := []struct {
		name    string
		code    string
		want    Identity
		wantErr error
	}{
		{name: "known_email", code: "jane@example.com", want: jane},
		{name: "case_insensitive", code: " JANE@example.com ", want: jane},
		{name: "unknown_email", code: "bob@example.com", wantErr: ErrUnknownIdentity},
		{name: "missing_code", code: "", wantErr: ErrMissingCode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Authenticate(context.Background(), Credentials{Code: tt.code})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStaticProvider_AuthCodeURL(t *testing.T) {
	p := NewStaticProvider("http://localhost/auth/callback", jane)

	u, err := url.Parse(p.AuthCodeURL("state-1", "verifier"))
	require.NoError(t, err)
	assert.Equal(t, "/auth/callback", u.Path)
	assert.Equal(t, "jane@example.com", u.Query().Get("code"))
	assert.Equal(t, "state-1", u.Query().Get("state"))
}

func TestGateway_OnChange(t *testing.T) {
	gw := newTestGateway(NewStaticProvider("http://localhost/cb", jane))

	var events []util.Optional[Identity]
	unsubscribe := gw.OnChange(func(ctx context.Context, identity util.Optional[Identity]) {
		events = append(events, identity)
	})

	got, err := gw.SignIn(context.Background(), Credentials{Code: jane.Email})
	require.NoError(t, err)
	assert.Equal(t, jane, got)

	_, err = gw.SignIn(context.Background(), Credentials{Code: "nobody@example.com"})
	require.ErrorIs(t, err, ErrUnknownIdentity)

	gw.SignOut(context.Background(), jane)

	require.Len(t, events, 2)
	assert.Equal(t, util.Some(jane), events[0])
	assert.False(t, events[1].IsSet)

	unsubscribe()
	_, err = gw.SignIn(context.Background(), Credentials{Code: jane.Email})
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestIdentity_Label(t *testing.T) {
	assert.Equal(t, "jane@example.com", jane.Label())
	assert.Equal(t, "Jane", Identity{DisplayName: "Jane"}.Label())
}

func newFakeOAuthServer(t *testing.T, info map[string]string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.PostForm.Get("code") != "good-code" || r.PostForm.Get("code_verifier") != "verifier-123" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"access-1","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(info)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestOAuth2Provider(server *httptest.Server) *OAuth2Provider {
	return NewOAuth2Provider(discardLogger(), OAuth2Config{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost/auth/callback",
		AuthURL:      server.URL + "/authorize",
		TokenURL:     server.URL + "/token",
		UserInfoURL:  server.URL + "/userinfo",
		Scopes:       []string{"openid", "email"},
	})
}

func TestOAuth2Provider_Authenticate(t *testing.T) {
	server := newFakeOAuthServer(t, map[string]string{
		"name":    "Jane Doe",
		"email":   "jane@example.com",
		"picture": "https://example.com/jane.png",
	})
	p := newTestOAuth2Provider(server)

	got, err := p.Authenticate(context.Background(), Credentials{Code: "good-code", Verifier: "verifier-123"})
	require.NoError(t, err)
	assert.Equal(t, Identity{
		DisplayName: "Jane Doe",
		Email:       "jane@example.com",
		PhotoURL:    "https://example.com/jane.png",
	}, got)
}

func TestOAuth2Provider_Authenticate_Failures(t *testing.T) {
	tests := []struct {
		name    string
		info    map[string]string
		creds   Credentials
		wantErr error
	}{
		{name: "missing_code", creds: Credentials{}, wantErr: ErrMissingCode},
		{name: "bad_code", creds: Credentials{Code: "bad", Verifier: "verifier-123"}, wantErr: ErrAuthenticationFailed},
		{name: "wrong_verifier", creds: Credentials{Code: "good-code", Verifier: "other"}, wantErr: ErrAuthenticationFailed},
		{
			name:    "no_email",
			info:    map[string]string{"name": "Nameless"},
			creds:   Credentials{Code: "good-code", Verifier: "verifier-123"},
			wantErr: ErrAuthenticationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestOAuth2Provider(newFakeOAuthServer(t, tt.info))
			_, err := p.Authenticate(context.Background(), tt.creds)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestOAuth2Provider_AuthCodeURL(t *testing.T) {
	server := newFakeOAuthServer(t, nil)
	p := newTestOAuth2Provider(server)

	u, err := url.Parse(p.AuthCodeURL("state-1", GenerateVerifier()))
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, "/authorize", u.Path)
	assert.Equal(t, "client", q.Get("client_id"))
	assert.Equal(t, "state-1", q.Get("state"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.NotEmpty(t, q.Get("code_challenge"))
}

func TestContext(t *testing.T) {
	assert.False(t, FromContext(context.Background()).IsSet)

	ctx := NewContext(context.Background(), jane)
	assert.Equal(t, util.Some(jane), FromContext(ctx))
}
