package reports

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erpsystem/doccheck/internal/verify"
	"github.com/stretchr/testify/require"
)

type failingCache struct{}

func (failingCache) Put(context.Context, *verify.Result) error {
	return errors.New("redis down")
}

func (failingCache) Get(context.Context, string) (*verify.Result, error) {
	return nil, errors.New("redis down")
}

func TestServiceLatestFromCache(t *testing.T) {
	ctx := context.Background()
	cache, _ := newCache(t, time.Minute)
	svc := NewService(NewMemoryRepo(), cache)
	base := time.Now().UTC()

	require.NoError(t, svc.Record(ctx, run("r1", "O-1", base, false)))
	require.NoError(t, svc.Record(ctx, run("r2", "O-1", base.Add(time.Second), true)))

	got, err := svc.Latest(ctx, "O-1")
	require.NoError(t, err)
	require.Equal(t, "r2", got.RunID)

	hist, err := svc.History(ctx, "O-1", 0)
	require.NoError(t, err)
	require.Len(t, hist, 2)
}

func TestServiceFallsBackToRepository(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryRepo(), failingCache{})
	require.NoError(t, svc.Record(ctx, run("r1", "O-1", time.Now(), true)))

	got, err := svc.Latest(ctx, "O-1")
	require.NoError(t, err)
	require.Equal(t, "r1", got.RunID)

	_, err = svc.Latest(ctx, "O-9")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestServiceRecordRequiresRunID(t *testing.T) {
	svc := NewService(NewMemoryRepo(), nil)
	require.Error(t, svc.Record(context.Background(), &verify.Result{}))
}
