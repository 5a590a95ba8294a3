package verify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/erpsystem/doccheck/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient returns scripted orders: fetches[i] for the i-th Order call
// (the last entry repeats), and records every mutation.
type fakeClient struct {
	mu        sync.Mutex
	fetches   []*models.Order
	fetchErrs map[int]error
	mutateErr error
	calls     int
	mutations []string
}

func (f *fakeClient) Order(ctx context.Context, id string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	f.calls++
	if err := f.fetchErrs[i]; err != nil {
		return nil, err
	}
	if i >= len(f.fetches) {
		i = len(f.fetches) - 1
	}
	o := *f.fetches[i]
	return &o, nil
}

func (f *fakeClient) UpdateOrderStatus(ctx context.Context, orderID, status string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mutations = append(f.mutations, status)
	if f.mutateErr != nil {
		return nil, f.mutateErr
	}
	return &models.Order{ID: orderID, Status: status}, nil
}

type fakeProber struct {
	code  int
	err   error
	calls []string
}

func (p *fakeProber) Probe(ctx context.Context, url string) (int, error) {
	p.calls = append(p.calls, url)
	return p.code, p.err
}

func twoItems() []models.Item {
	return []models.Item{
		{ID: "i1", ProductName: "Office Desk Chair", SKU: "ODC-ERG-001", Quantity: 1, UnitPrice: decimal.NewFromInt(150), Total: decimal.NewFromInt(150)},
		{ID: "i2", ProductName: "Wireless Keyboard and Mouse Set", SKU: "WKM-BT-200", Quantity: 2, UnitPrice: decimal.NewFromInt(100), Total: decimal.NewFromInt(200)},
	}
}

func fastConfig(orderID string) Config {
	return Config{OrderID: orderID, TargetStatus: "DELIVERED", Timeout: 40 * time.Millisecond, PollInterval: 5 * time.Millisecond}
}

func TestNewRunnerValidatesConfig(t *testing.T) {
	_, err := NewRunner(Config{}, &fakeClient{})
	require.ErrorIs(t, err, ErrMissingOrderID)

	_, err = NewRunner(Config{OrderID: "O-1", PollInterval: -time.Second}, &fakeClient{})
	require.Error(t, err)

	_, err = NewRunner(Config{OrderID: "O-1"}, nil)
	require.Error(t, err)

	r, err := NewRunner(Config{OrderID: "O-1"}, &fakeClient{})
	require.NoError(t, err)
	assert.Equal(t, DefaultTargetStatus, r.Config().TargetStatus)
	assert.Equal(t, DefaultTimeout, r.Config().Timeout)
	assert.Equal(t, DefaultPollInterval, r.Config().PollInterval)
	assert.Equal(t, 1, r.Config().MinDocuments)
}

func TestRunSuccess(t *testing.T) {
	items := twoItems()
	doc := models.Document{ID: "d1", DocumentType: "INVOICE", State: "generated", PDFURL: "http://files/o-1.pdf", TemplateKey: "invoice"}
	client := &fakeClient{fetches: []*models.Order{
		{ID: "O-1", OrderNumber: "ORD-1", Status: "SHIPPED", Items: items},
		{ID: "O-1", Status: "DELIVERED", Items: items},
		{ID: "O-1", Status: "DELIVERED", Items: items, Documents: []models.Document{doc}},
	}}
	prober := &fakeProber{code: 200}

	r, err := NewRunner(fastConfig("O-1"), client, WithProber(prober))
	require.NoError(t, err)
	res := r.Run(context.Background())

	require.True(t, res.Success, "diagnostics: %+v", res.Diagnostics)
	assert.Equal(t, 0, res.ExitCode())
	assert.Equal(t, []string{"DELIVERED"}, client.mutations)
	assert.Equal(t, "SHIPPED", res.InitialStatus)
	assert.Equal(t, "DELIVERED", res.FinalStatus)
	assert.Len(t, res.Items, 2)
	assert.Len(t, res.Documents, 1)
	assert.Equal(t, []string{"http://files/o-1.pdf"}, prober.calls)
	require.NotNil(t, res.ArtifactReachable)
	assert.True(t, *res.ArtifactReachable)
	assert.Equal(t, StageEnd, res.Stage)
	assert.Empty(t, res.FailedStage)
	assert.NotEmpty(t, res.RunID)
	// second poll found the document, plus the final fetch
	assert.Equal(t, 3, res.Attempts)
	assert.Nil(t, res.Err())
}

func TestRunNoItemsSkipsMutation(t *testing.T) {
	client := &fakeClient{fetches: []*models.Order{{ID: "O-2", OrderNumber: "ORD-2", Status: "SHIPPED"}}}

	r, err := NewRunner(fastConfig("O-2"), client, WithProber(&fakeProber{code: 200}))
	require.NoError(t, err)
	res := r.Run(context.Background())

	require.False(t, res.Success)
	assert.NotEqual(t, 0, res.ExitCode())
	assert.Empty(t, client.mutations)
	assert.Equal(t, StageCheckPrecondition, res.FailedStage)

	var pe *PreconditionError
	require.True(t, errors.As(res.Err(), &pe))
	assert.ErrorIs(t, res.Err(), ErrNoItems)
	assert.Contains(t, res.Error, "add items")
}

func TestRunNoDocumentsReportsVerificationError(t *testing.T) {
	client := &fakeClient{fetches: []*models.Order{{ID: "O-3", Status: "SHIPPED", Items: twoItems()}}}
	prober := &fakeProber{code: 200}

	r, err := NewRunner(fastConfig("O-3"), client, WithProber(prober))
	require.NoError(t, err)
	res := r.Run(context.Background())

	require.False(t, res.Success)
	assert.Equal(t, 1, res.ExitCode())
	assert.Equal(t, []string{"DELIVERED"}, client.mutations)
	assert.Equal(t, StageCheckPostcondition, res.FailedStage)
	assert.Empty(t, prober.calls)

	var ve *VerificationError
	require.True(t, errors.As(res.Err(), &ve))
	assert.ErrorIs(t, res.Err(), ErrGenerationTimeout)
	assert.Greater(t, ve.Attempts, 1)

	messages := make([]string, 0, len(res.Diagnostics))
	for _, d := range res.Diagnostics {
		messages = append(messages, d.Message)
	}
	for _, hint := range TroubleshootingHints {
		assert.Contains(t, messages, hint)
	}
	assert.NotEmpty(t, res.Warnings)
}

func TestRunMutationFailureAborts(t *testing.T) {
	client := &fakeClient{
		fetches:   []*models.Order{{ID: "O-4", Items: twoItems()}},
		mutateErr: errors.New("GraphQL errors: invalid transition"),
	}

	r, err := NewRunner(fastConfig("O-4"), client, WithProber(&fakeProber{code: 200}))
	require.NoError(t, err)
	res := r.Run(context.Background())

	require.False(t, res.Success)
	assert.Equal(t, StageTrigger, res.FailedStage)
	var me *MutationError
	require.True(t, errors.As(res.Err(), &me))
	assert.Equal(t, "DELIVERED", me.Status)
	assert.Equal(t, 1, client.calls, "no re-fetch after a failed mutation")
}

func TestRunInitialQueryFailure(t *testing.T) {
	client := &fakeClient{fetches: []*models.Order{{}}, fetchErrs: map[int]error{0: errors.New("connection refused")}}

	r, err := NewRunner(fastConfig("O-5"), client)
	require.NoError(t, err)
	res := r.Run(context.Background())

	require.False(t, res.Success)
	assert.Equal(t, StageFetchInitial, res.FailedStage)
	var qe *QueryError
	require.True(t, errors.As(res.Err(), &qe))
	assert.Empty(t, client.mutations)
}

func TestRunPollQueryFailureIsFatal(t *testing.T) {
	client := &fakeClient{
		fetches:   []*models.Order{{ID: "O-6", Items: twoItems()}},
		fetchErrs: map[int]error{1: errors.New("502 bad gateway")},
	}

	r, err := NewRunner(fastConfig("O-6"), client)
	require.NoError(t, err)
	res := r.Run(context.Background())

	require.False(t, res.Success)
	assert.Equal(t, StageWait, res.FailedStage)
	assert.True(t, IsFatal(res.Err()))
}

func TestRunArtifactFailureIsOnlyAWarning(t *testing.T) {
	items := twoItems()
	docs := []models.Document{{ID: "d1", PDFURL: "http://files/missing.pdf"}}
	for _, prober := range []*fakeProber{{code: 404}, {err: errors.New("dial tcp: timeout")}} {
		client := &fakeClient{fetches: []*models.Order{{ID: "O-7", Items: items}, {ID: "O-7", Items: items, Documents: docs}}}
		r, err := NewRunner(fastConfig("O-7"), client, WithProber(prober))
		require.NoError(t, err)
		res := r.Run(context.Background())

		require.True(t, res.Success)
		assert.Equal(t, 0, res.ExitCode())
		require.NotNil(t, res.ArtifactReachable)
		assert.False(t, *res.ArtifactReachable)
		require.Len(t, res.Warnings, 1)
		assert.Contains(t, res.Warnings[0], "missing.pdf")
	}
}

func TestRunWithoutPDFURLSkipsProbe(t *testing.T) {
	items := twoItems()
	client := &fakeClient{fetches: []*models.Order{{ID: "O-8", Items: items}, {ID: "O-8", Items: items, Documents: []models.Document{{ID: "d1"}}}}}
	prober := &fakeProber{code: 200}

	r, err := NewRunner(fastConfig("O-8"), client, WithProber(prober))
	require.NoError(t, err)
	res := r.Run(context.Background())

	require.True(t, res.Success)
	assert.Empty(t, prober.calls)
	assert.Nil(t, res.ArtifactReachable)
}

func TestAwaitGenerationStopsAsSoonAsDocumentsAppear(t *testing.T) {
	client := &fakeClient{fetches: []*models.Order{{ID: "O-9", Documents: []models.Document{{ID: "d1"}}}}}
	cfg := Config{OrderID: "O-9", Timeout: 5 * time.Second, PollInterval: time.Millisecond}

	r, err := NewRunner(cfg, client)
	require.NoError(t, err)
	start := time.Now()
	attempts, err := r.AwaitGeneration(context.Background(), "O-9")
	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
	assert.Less(t, time.Since(start), time.Second)
}

func TestAwaitGenerationHonoursMinDocuments(t *testing.T) {
	one := []models.Document{{ID: "d1"}}
	two := []models.Document{{ID: "d1"}, {ID: "d2"}}
	client := &fakeClient{fetches: []*models.Order{{Documents: one}, {Documents: one}, {Documents: two}}}
	cfg := Config{OrderID: "O-10", Timeout: time.Second, PollInterval: time.Millisecond, MinDocuments: 2}

	r, err := NewRunner(cfg, client)
	require.NoError(t, err)
	attempts, err := r.AwaitGeneration(context.Background(), "O-10")
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestAwaitGenerationCancelled(t *testing.T) {
	client := &fakeClient{fetches: []*models.Order{{}}}
	r, err := NewRunner(Config{OrderID: "O-11", Timeout: time.Minute, PollInterval: time.Minute}, client)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.AwaitGeneration(ctx, "O-11")
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, client.calls)

	var ce *CanceledError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, StageWait, ce.Stage)
	var qe *QueryError
	assert.False(t, errors.As(err, &qe))
	assert.Contains(t, err.Error(), "canceled")
	assert.NotContains(t, err.Error(), "failed to fetch")
	assert.True(t, IsFatal(err))
}

func TestAwaitGenerationPollEqualToTimeout(t *testing.T) {
	client := &fakeClient{fetches: []*models.Order{{ID: "O-14"}}}
	cfg := Config{OrderID: "O-14", Timeout: 50 * time.Millisecond, PollInterval: 50 * time.Millisecond}
	r, err := NewRunner(cfg, client)
	require.NoError(t, err)

	start := time.Now()
	attempts, err := r.AwaitGeneration(context.Background(), "O-14")
	elapsed := time.Since(start)
	require.ErrorIs(t, err, ErrGenerationTimeout)
	assert.Equal(t, 1, attempts)
	assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
	assert.Less(t, elapsed, time.Second)
}

func TestAwaitGenerationFirstPollBoundedByTimeout(t *testing.T) {
	client := &fakeClient{fetches: []*models.Order{{ID: "O-15"}}}
	r, err := NewRunner(Config{OrderID: "O-15", Timeout: 30 * time.Millisecond, PollInterval: 10 * time.Millisecond}, client)
	require.NoError(t, err)
	// Validate rejects this; set it directly to exercise the loop bound
	r.cfg.PollInterval = time.Hour

	start := time.Now()
	_, err = r.AwaitGeneration(context.Background(), "O-15")
	require.ErrorIs(t, err, ErrGenerationTimeout)
	assert.Less(t, time.Since(start), time.Second)
}

func TestAwaitGenerationFrozenClockStillTimesOut(t *testing.T) {
	fixed := time.Date(2026, 1, 23, 10, 0, 0, 0, time.UTC)
	client := &fakeClient{fetches: []*models.Order{{ID: "O-16", Items: twoItems()}}}
	cfg := Config{OrderID: "O-16", Timeout: 20 * time.Millisecond, PollInterval: 5 * time.Millisecond}
	r, err := NewRunner(cfg, client, WithClock(func() time.Time { return fixed }))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	start := time.Now()
	attempts, err := r.AwaitGeneration(ctx, "O-16")
	require.ErrorIs(t, err, ErrGenerationTimeout)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.LessOrEqual(t, attempts, 10)

	var ve *VerificationError
	require.True(t, errors.As(err, &ve))
	assert.Greater(t, ve.Waited, time.Duration(0))
}

func TestVerifyDocuments(t *testing.T) {
	empty := &fakeClient{fetches: []*models.Order{{ID: "O-12"}}}
	r, err := NewRunner(Config{OrderID: "O-12"}, empty)
	require.NoError(t, err)
	o, err := r.VerifyDocuments(context.Background(), "O-12")
	require.ErrorIs(t, err, ErrNoDocuments)
	require.NotNil(t, o)
	assert.False(t, IsFatal(err))

	full := &fakeClient{fetches: []*models.Order{{ID: "O-12", Documents: []models.Document{{ID: "d"}}}}}
	r, err = NewRunner(Config{OrderID: "O-12"}, full)
	require.NoError(t, err)
	o, err = r.VerifyDocuments(context.Background(), "O-12")
	require.NoError(t, err)
	assert.Len(t, o.Documents, 1)
}

func TestRunDeterministicClock(t *testing.T) {
	fixed := time.Date(2026, 1, 23, 10, 0, 0, 0, time.UTC)
	client := &fakeClient{fetches: []*models.Order{{ID: "O-13", Items: twoItems()}}}
	r, err := NewRunner(fastConfig("O-13"), client, WithClock(func() time.Time { return fixed }))
	require.NoError(t, err)

	res := r.Run(context.Background())
	assert.Equal(t, fixed, res.StartedAt)
	assert.Equal(t, fixed, res.FinishedAt)
	assert.Equal(t, time.Duration(0), res.Duration())
}
