package oidc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/erpsystem/doccheck/pkg/middleware"
	"github.com/golang-jwt/jwt/v5"
)

type insecureToken struct {
	claims jwt.MapClaims
}

func (t *insecureToken) Claims(v interface{}) error {
	b, err := json.Marshal(t.claims)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// InsecureVerifier parses JWT claims WITHOUT checking the signature.
// Only enabled with ALLOW_INSECURE_TOKEN=true.
type InsecureVerifier struct {
	parser *jwt.Parser
}

func NewInsecureVerifier() *InsecureVerifier {
	return &InsecureVerifier{parser: jwt.NewParser()}
}

func (v *InsecureVerifier) Verify(_ context.Context, raw string) (middleware.Token, error) {
	claims := jwt.MapClaims{}
	if _, _, err := v.parser.ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("invalid token format: %w", err)
	}
	return &insecureToken{claims: claims}, nil
}
