package reports

import (
	"context"
	"fmt"

	"github.com/erpsystem/doccheck/internal/verify"
	"github.com/erpsystem/doccheck/pkg/logger"
)

// DefaultHistoryLimit caps History when the caller passes no limit.
const DefaultHistoryLimit = 50

// Cache is implemented by LatestCache.
type Cache interface {
	Put(ctx context.Context, res *verify.Result) error
	Get(ctx context.Context, orderID string) (*verify.Result, error)
}

// Service archives verification runs and serves them back.
type Service struct {
	repo  Repository
	cache Cache
}

// NewService creates the service. cache may be nil.
func NewService(repo Repository, cache Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// Record archives res. A cache failure is logged and does not fail the call.
func (s *Service) Record(ctx context.Context, res *verify.Result) error {
	if res == nil || res.RunID == "" {
		return fmt.Errorf("record: run id required")
	}
	if err := s.repo.Save(ctx, res); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Put(ctx, res); err != nil {
			logger.Warnw("latest cache put failed", "order", res.OrderID, "err", err)
		}
	}
	return nil
}

func (s *Service) Get(ctx context.Context, runID string) (*verify.Result, error) {
	return s.repo.Get(ctx, runID)
}

// Latest returns the newest run of orderID, served from the cache when possible.
func (s *Service) Latest(ctx context.Context, orderID string) (*verify.Result, error) {
	if s.cache != nil {
		res, err := s.cache.Get(ctx, orderID)
		if err != nil {
			logger.Warnw("latest cache get failed", "order", orderID, "err", err)
		} else if res != nil {
			return res, nil
		}
	}
	list, err := s.repo.ListByOrder(ctx, orderID, 1)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	return list[0], nil
}

// History returns runs of orderID, newest first.
func (s *Service) History(ctx context.Context, orderID string, limit int) ([]*verify.Result, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return s.repo.ListByOrder(ctx, orderID, limit)
}
