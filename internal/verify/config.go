package verify

import (
	"errors"
	"fmt"
	"time"

	"github.com/erpsystem/doccheck/internal/config"
)

const (
	DefaultTargetStatus = "DELIVERED"
	DefaultTimeout      = 30 * time.Second
	DefaultPollInterval = time.Second
	DefaultProbeTimeout = 5 * time.Second
)

// Config is the explicit configuration of one verification run.
type Config struct {
	// Endpoint is the GraphQL URL of the shop service, recorded in the result.
	Endpoint string
	OrderID  string
	// TargetStatus is passed through to updateOrderStatus unchanged; valid
	// values are defined by the shop service.
	TargetStatus string
	// Timeout bounds the wait for generated documents after the mutation.
	Timeout time.Duration
	// PollInterval is the cadence of re-fetches while waiting.
	PollInterval time.Duration
	// MinDocuments is the document count that ends the wait early. Defaults to 1.
	MinDocuments int
	ProbeTimeout time.Duration
	SkipProbe    bool
}

var ErrMissingOrderID = errors.New("order id is required")

// WithDefaults fills zero values with package defaults.
func (c Config) WithDefaults() Config {
	if c.TargetStatus == "" {
		c.TargetStatus = DefaultTargetStatus
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.PollInterval == 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.MinDocuments == 0 {
		c.MinDocuments = 1
	}
	if c.ProbeTimeout == 0 {
		c.ProbeTimeout = DefaultProbeTimeout
	}
	return c
}

// Validate checks a config after defaults have been applied.
func (c Config) Validate() error {
	if c.OrderID == "" {
		return ErrMissingOrderID
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.PollInterval)
	}
	if c.PollInterval > c.Timeout {
		return fmt.Errorf("poll interval %s exceeds timeout %s", c.PollInterval, c.Timeout)
	}
	if c.MinDocuments < 1 {
		return fmt.Errorf("min documents must be at least 1, got %d", c.MinDocuments)
	}
	return nil
}

// ConfigFrom builds run defaults from the application configuration.
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		Endpoint:     cfg.Shop.GraphQLURL,
		OrderID:      cfg.Verify.OrderID,
		TargetStatus: cfg.Verify.TargetStatus,
		Timeout:      cfg.Verify.Timeout,
		PollInterval: cfg.Verify.PollInterval,
		MinDocuments: cfg.Verify.MinDocuments,
		ProbeTimeout: cfg.Verify.ProbeTimeout,
	}.WithDefaults()
}
