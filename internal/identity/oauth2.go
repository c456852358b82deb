package identity

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-resty/resty/v2"
	"golang.org/x/oauth2"
)

type OAuth2Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	Scopes       []string
}

// OAuth2Provider runs the authorization code flow with PKCE and reads the
// identity from an OpenID Connect userinfo endpoint.
type OAuth2Provider struct {
	logger      *slog.Logger
	config      *oauth2.Config
	userInfoURL string
}

func NewOAuth2Provider(logger *slog.Logger, cfg OAuth2Config) *OAuth2Provider {
	return &OAuth2Provider{
		logger: logger,
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
			},
		},
		userInfoURL: cfg.UserInfoURL,
	}
}

// GenerateVerifier returns a fresh PKCE code verifier.
func GenerateVerifier() string {
	return oauth2.GenerateVerifier()
}

func (p *OAuth2Provider) AuthCodeURL(state, verifier string) string {
	return p.config.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
}

type userInfo struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

func (p *OAuth2Provider) Authenticate(ctx context.Context, creds Credentials) (Identity, error) {
	if creds.Code == "" {
		return Identity{}, ErrMissingCode
	}

	token, err := p.config.Exchange(ctx, creds.Code, oauth2.VerifierOption(creds.Verifier))
	if err != nil {
		p.logger.Error("failed to exchange authorization code", "error", err)
		return Identity{}, fmt.Errorf("%w: %w", ErrAuthenticationFailed, err)
	}

	var info userInfo
	resp, err := resty.NewWithClient(p.config.Client(ctx, token)).R().
		SetContext(ctx).
		ForceContentType("application/json").
		SetResult(&info).
		Get(p.userInfoURL)
	if err != nil {
		p.logger.Error("failed to fetch user info", "error", err)
		return Identity{}, fmt.Errorf("%w: %w", ErrAuthenticationFailed, err)
	}
	if resp.IsError() {
		p.logger.Error("user info request rejected", "status", resp.StatusCode())
		return Identity{}, fmt.Errorf("%w: userinfo status %d", ErrAuthenticationFailed, resp.StatusCode())
	}
	if info.Email == "" {
		return Identity{}, fmt.Errorf("%w: provider returned no email", ErrAuthenticationFailed)
	}

	displayName := info.Name
	if displayName == "" {
		displayName = info.Email
	}

	return Identity{
		DisplayName: displayName,
		Email:       info.Email,
		PhotoURL:    info.Picture,
	}, nil
}
