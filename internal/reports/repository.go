package reports

import (
	"context"
	"errors"

	"github.com/erpsystem/doccheck/internal/verify"
)

var (
	ErrNotFound = errors.New("verification run not found")
)

// Repository archives verification results.
type Repository interface {
	Save(ctx context.Context, res *verify.Result) error
	Get(ctx context.Context, runID string) (*verify.Result, error)
	// ListByOrder returns runs for orderID, newest first. limit <= 0 means no limit.
	ListByOrder(ctx context.Context, orderID string, limit int) ([]*verify.Result, error)
}
