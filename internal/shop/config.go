package shop

import (
	"time"

	"github.com/erpsystem/doccheck/internal/config"
	"github.com/erpsystem/doccheck/internal/tokens"
)

const serviceTokenTTL = 5 * time.Minute

// NewFromConfig creates a client for cfg.GraphQLURL. A JWT secret takes
// precedence over a static token.
func NewFromConfig(cfg config.ShopConfig) *Client {
	opts := []Option{}
	if cfg.Timeout > 0 {
		opts = append(opts, WithTimeout(cfg.Timeout))
	}
	switch {
	case cfg.JWTSecret != "":
		opts = append(opts, WithTokenSource(tokens.Source(cfg.JWTSecret, serviceTokenTTL)))
	case cfg.Token != "":
		opts = append(opts, WithToken(cfg.Token))
	}
	return NewClient(cfg.GraphQLURL, opts...)
}
