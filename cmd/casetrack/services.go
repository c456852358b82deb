package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/freekieb7/casetrack/internal/audit"
	"github.com/freekieb7/casetrack/internal/cases"
	"github.com/freekieb7/casetrack/internal/config"
	"github.com/freekieb7/casetrack/internal/identity"
	"github.com/freekieb7/casetrack/internal/kv"
	"github.com/freekieb7/casetrack/internal/logger"
	"github.com/freekieb7/casetrack/internal/storage"
	"github.com/freekieb7/casetrack/internal/telemetry"
	"github.com/freekieb7/casetrack/internal/user"
	"github.com/freekieb7/casetrack/internal/validator"
)

const (
	identityProviderStatic = "static"
	identityProviderOAuth2 = "oauth2"
)

// services holds everything built from the configuration, shared by the commands.
type services struct {
	cfg       *config.Config
	logger    *slog.Logger
	telemetry *telemetry.Telemetry
	store     *kv.Store
	auditor   audit.Auditor
	validator *validator.Validator
	metrics   *telemetry.Metrics
	directory *user.Manager
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if configPath != "" {
		if err := cfg.LoadFile(configPath); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func newServices(ctx context.Context) (*services, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	tel, err := telemetry.New(ctx, cfg.Telemetry)
	if err != nil {
		return nil, fmt.Errorf("failed to set up telemetry: %w", err)
	}

	log := logger.New(cfg)

	backend, err := kv.NewBackend(ctx, cfg.Store)
	if err != nil {
		return nil, errors.Join(err, tel.Shutdown(ctx))
	}

	store, err := kv.New(log, backend)
	if err != nil {
		return nil, errors.Join(err, tel.Shutdown(ctx))
	}

	metrics, err := telemetry.NewMetrics()
	if err != nil {
		log.Warn("Failed to create metrics, continuing without", "error", err)
		metrics = nil
	}

	s := &services{
		cfg:       cfg,
		logger:    log,
		telemetry: tel,
		store:     store,
		auditor:   audit.NewAuditor(log),
		validator: validator.New(),
		metrics:   metrics,
	}

	s.directory, err = user.NewManager(ctx, log, store, &s.auditor, s.validator, metrics)
	if err != nil {
		return nil, errors.Join(err, s.Close(ctx))
	}

	return s, nil
}

func (s *services) newCaseManager(ctx context.Context, uploader storage.Uploader) (*cases.Manager, error) {
	return cases.NewManager(ctx, s.logger, s.store, uploader, &s.auditor, s.validator, s.metrics, cases.Options{
		PurgeAttachmentsOnDelete: s.cfg.Cases.PurgeAttachmentsOnDelete,
		MaxUploadSize:            s.cfg.Storage.MaxUploadSize,
	})
}

func (s *services) newIdentityProvider() (identity.Provider, error) {
	cfg := s.cfg.Identity
	switch cfg.Provider {
	case identityProviderStatic:
		s.logger.Warn("Using the static identity provider, every visitor can sign in", "email", cfg.StaticEmail)
		return identity.NewStaticProvider(cfg.RedirectURL, identity.Identity{
			DisplayName: cfg.StaticName,
			Email:       cfg.StaticEmail,
		}), nil
	case identityProviderOAuth2:
		if cfg.ClientID == "" {
			return nil, fmt.Errorf("oauth2 identity provider requires a client id")
		}
		return identity.NewOAuth2Provider(s.logger, identity.OAuth2Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			AuthURL:      cfg.AuthURL,
			TokenURL:     cfg.TokenURL,
			UserInfoURL:  cfg.UserInfoURL,
			Scopes:       cfg.Scopes,
		}), nil
	default:
		return nil, fmt.Errorf("unknown identity provider: %s", cfg.Provider)
	}
}

func (s *services) Close(ctx context.Context) error {
	return errors.Join(
		s.store.Close(),
		s.telemetry.Shutdown(ctx),
	)
}
