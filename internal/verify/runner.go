package verify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erpsystem/doccheck/internal/models"
	"github.com/erpsystem/doccheck/pkg/logger"
	"github.com/erpsystem/doccheck/pkg/metrics"
	"github.com/google/uuid"
)

// OrderClient is the subset of the shop GraphQL API a run needs.
type OrderClient interface {
	Order(ctx context.Context, id string) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID, status string) (*models.Order, error)
}

// Prober checks that an artifact URL is reachable without transferring its body.
type Prober interface {
	Probe(ctx context.Context, url string) (statusCode int, err error)
}

// Runner executes one linear verification run against the shop service.
// A Runner holds no per-run state and may be reused.
type Runner struct {
	cfg    Config
	client OrderClient
	prober Prober
	now    func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithProber replaces the default HTTP HEAD prober.
func WithProber(p Prober) Option {
	return func(r *Runner) { r.prober = p }
}

// WithClock replaces time.Now for the result timestamps, e.g. for
// deterministic reports in tests. Waiting always uses the wall clock.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// NewRunner validates cfg and returns a runner.
func NewRunner(cfg Config, client OrderClient, opts ...Option) (*Runner, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid verification config: %w", err)
	}
	if client == nil {
		return nil, errors.New("order client is required")
	}
	r := &Runner{cfg: cfg, client: client, now: time.Now}
	for _, o := range opts {
		o(r)
	}
	if r.prober == nil {
		r.prober = NewHTTPProber(cfg.ProbeTimeout)
	}
	return r, nil
}

// Config returns the effective configuration.
func (r *Runner) Config() Config { return r.cfg }

// FetchOrder reads the order with its items and documents.
func (r *Runner) FetchOrder(ctx context.Context, orderID string) (*models.Order, error) {
	o, err := r.client.Order(ctx, orderID)
	if err != nil {
		return nil, &QueryError{OrderID: orderID, Err: err}
	}
	return o, nil
}

// AssertHasItems fails when the order has no line items.
func (r *Runner) AssertHasItems(o *models.Order) error {
	if len(o.Items) == 0 {
		return &PreconditionError{OrderID: o.ID, Err: ErrNoItems, Remedy: "add items to the order before testing"}
	}
	return nil
}

// TriggerStatusChange issues the status mutation exactly once.
func (r *Runner) TriggerStatusChange(ctx context.Context, orderID, status string) (*models.Order, error) {
	o, err := r.client.UpdateOrderStatus(ctx, orderID, status)
	if err != nil {
		return nil, &MutationError{OrderID: orderID, Status: status, Err: err}
	}
	return o, nil
}

// AwaitGeneration polls the order every PollInterval until at least
// MinDocuments documents exist or Timeout elapses. It returns the number of
// fetches made. A timeout yields a *VerificationError wrapping
// ErrGenerationTimeout, a failed fetch a *QueryError and a cancelled ctx a
// *CanceledError. The window is measured on the wall clock, not the Runner's clock.
func (r *Runner) AwaitGeneration(ctx context.Context, orderID string) (int, error) {
	start := time.Now()
	deadline := start.Add(r.cfg.Timeout)
	attempts := 0

	timer := time.NewTimer(min(r.cfg.PollInterval, r.cfg.Timeout))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return attempts, &CanceledError{OrderID: orderID, Stage: StageWait, Err: ctx.Err()}
		case <-timer.C:
		}

		attempts++
		o, err := r.FetchOrder(ctx, orderID)
		if err != nil {
			return attempts, err
		}
		logger.Debugw("generation poll", "order", orderID, "attempt", attempts, "documents", len(o.Documents))
		if len(o.Documents) >= r.cfg.MinDocuments {
			metrics.GenerationWait.Observe(time.Since(start).Seconds())
			return attempts, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return attempts, &VerificationError{OrderID: orderID, Waited: time.Since(start), Attempts: attempts, Err: ErrGenerationTimeout}
		}
		timer.Reset(min(r.cfg.PollInterval, remaining))
	}
}

// VerifyDocuments re-fetches the order and fails iff it has no documents.
// The fetched order is returned even when verification fails.
func (r *Runner) VerifyDocuments(ctx context.Context, orderID string) (*models.Order, error) {
	o, err := r.FetchOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if len(o.Documents) == 0 {
		return o, &VerificationError{OrderID: orderID, Err: ErrNoDocuments}
	}
	return o, nil
}

// ProbeArtifact checks the PDF URL. Failures are reported as warnings only.
func (r *Runner) ProbeArtifact(ctx context.Context, url string) (bool, *ArtifactWarning) {
	code, err := r.prober.Probe(ctx, url)
	switch {
	case err != nil:
		metrics.ArtifactProbes.WithLabelValues("error").Inc()
		return false, &ArtifactWarning{URL: url, Err: err}
	case code < 200 || code > 299:
		metrics.ArtifactProbes.WithLabelValues("status").Inc()
		return false, &ArtifactWarning{URL: url, StatusCode: code}
	}
	metrics.ArtifactProbes.WithLabelValues("ok").Inc()
	return true, nil
}

// Run executes the full verification and always returns a result.
func (r *Runner) Run(ctx context.Context) *Result {
	cfg := r.cfg
	res := &Result{
		RunID:        uuid.NewString(),
		Endpoint:     cfg.Endpoint,
		OrderID:      cfg.OrderID,
		TargetStatus: cfg.TargetStatus,
		Stage:        StageStart,
		StartedAt:    r.now().UTC(),
	}
	logger.Infow("verification started", "run", res.RunID, "order", cfg.OrderID, "target", cfg.TargetStatus)
	defer r.finish(res)

	res.Stage = StageFetchInitial
	order, err := r.FetchOrder(ctx, cfg.OrderID)
	if err != nil {
		res.fail(err)
		return res
	}
	res.OrderNumber = order.OrderNumber
	res.InitialStatus = order.Status
	res.Items = order.Items
	res.info(fmt.Sprintf("order %s: status %s, %d items, %d documents", order.OrderNumber, order.Status, len(order.Items), len(order.Documents)))

	res.Stage = StageCheckPrecondition
	if err := r.AssertHasItems(order); err != nil {
		res.fail(err)
		return res
	}
	for i, it := range order.Items {
		res.info(fmt.Sprintf("%d. %s (SKU: %s) - Qty: %d @ %s", i+1, it.ProductName, it.SKU, it.Quantity, it.UnitPrice.StringFixed(2)))
	}

	res.Stage = StageTrigger
	snap, err := r.TriggerStatusChange(ctx, cfg.OrderID, cfg.TargetStatus)
	if err != nil {
		res.fail(err)
		return res
	}
	triggeredAt := time.Now()
	res.FinalStatus = snap.Status
	res.info(fmt.Sprintf("status changed to %s", snap.Status))

	res.Stage = StageWait
	res.info(fmt.Sprintf("waiting up to %s for document generation (poll every %s)", cfg.Timeout, cfg.PollInterval))
	attempts, waitErr := r.AwaitGeneration(ctx, cfg.OrderID)
	res.Attempts = attempts
	var timeout *VerificationError
	switch {
	case errors.As(waitErr, &timeout):
		res.warn(timeout.Error())
	case waitErr != nil:
		res.fail(waitErr)
		return res
	}

	res.Stage = StageFetchFinal
	final, verr := r.VerifyDocuments(ctx, cfg.OrderID)
	res.Attempts++
	if verr != nil && IsFatal(verr) {
		res.fail(verr)
		return res
	}
	res.FinalStatus = final.Status
	res.Documents = final.Documents

	res.Stage = StageCheckPostcondition
	if verr != nil {
		var ve *VerificationError
		if errors.As(verr, &ve) {
			ve.Attempts = res.Attempts
			ve.Waited = time.Since(triggeredAt)
			if timeout != nil {
				ve.Err = ErrGenerationTimeout
			}
		}
		res.fail(verr)
		for _, hint := range TroubleshootingHints {
			res.info(hint)
		}
		return res
	}
	if n := len(final.Documents); n < cfg.MinDocuments {
		res.warn(fmt.Sprintf("expected at least %d documents, found %d", cfg.MinDocuments, n))
	}
	res.info(fmt.Sprintf("generated %d document(s)", len(final.Documents)))
	res.Success = true

	if doc, ok := models.FirstPDF(final.Documents); ok && !cfg.SkipProbe {
		res.Stage = StageProbeArtifact
		res.ArtifactURL = doc.PDFURL
		reachable, warning := r.ProbeArtifact(ctx, doc.PDFURL)
		res.ArtifactReachable = &reachable
		if warning != nil {
			res.warn(warning.Error())
		} else {
			res.info(fmt.Sprintf("PDF is accessible at %s", doc.PDFURL))
		}
	}

	for _, hint := range ManualCheckHints {
		res.info(hint)
	}
	return res
}

func (r *Runner) finish(res *Result) {
	failed := res.FailedStage
	res.Stage = StageReport
	res.FinishedAt = r.now().UTC()
	result := "success"
	if !res.Success {
		result = "failure"
	}
	stage := string(failed)
	if stage == "" {
		stage = string(StageEnd)
	}
	metrics.VerificationRuns.WithLabelValues(stage, result).Inc()
	logger.Infow("verification finished", "run", res.RunID, "order", res.OrderID, "success", res.Success, "documents", len(res.Documents), "duration", res.Duration().Round(time.Millisecond))
	res.Stage = StageEnd
}
