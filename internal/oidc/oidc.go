package oidc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/erpsystem/doccheck/internal/config"
	"github.com/erpsystem/doccheck/pkg/logger"
	"github.com/erpsystem/doccheck/pkg/middleware"
)

// ErrNotConfigured is returned by NewFromConfig when no verifier can be built.
var ErrNotConfigured = errors.New("oidc not configured")

// Verifier wraps the OIDC provider and token verifier
type Verifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewVerifier discovers issuer and verifies tokens issued for clientID.
func NewVerifier(ctx context.Context, issuer, clientID string) (*Verifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}
	return &Verifier{verifier: provider.Verifier(&oidc.Config{ClientID: clientID})}, nil
}

// Verify verifies the raw ID token.
func (v *Verifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	idToken, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}
	return idToken, nil
}

// Issuer returns the Keycloak realm issuer URL, or "" when URL is unset.
// When no realm is set the URL itself is taken as the issuer.
func Issuer(cfg config.KeycloakConfig) string {
	if cfg.URL == "" {
		return ""
	}
	if cfg.Realm == "" {
		return cfg.URL
	}
	return strings.TrimRight(cfg.URL, "/") + "/realms/" + cfg.Realm
}

// NewFromConfig builds the verifier protecting the API. AllowInsecure yields
// an InsecureVerifier when Keycloak is not configured or unreachable.
func NewFromConfig(ctx context.Context, cfg config.KeycloakConfig) (middleware.Verifier, error) {
	if issuer := Issuer(cfg); issuer != "" && cfg.ClientID != "" {
		ver, err := NewVerifier(ctx, issuer, cfg.ClientID)
		if err == nil {
			return ver, nil
		}
		if !cfg.AllowInsecure {
			return nil, err
		}
		logger.Warnf("failed to initialize OIDC verifier: %v", err)
	}
	if cfg.AllowInsecure {
		logger.Warn("enabling insecure OIDC verifier (integration mode)")
		return NewInsecureVerifier(), nil
	}
	return nil, ErrNotConfigured
}
