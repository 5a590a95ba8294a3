package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/erpsystem/doccheck/internal/reports"
	"github.com/erpsystem/doccheck/internal/verify"
	"github.com/erpsystem/doccheck/pkg/logger"
	"github.com/erpsystem/doccheck/pkg/middleware"
	"github.com/gin-gonic/gin"
)

// maxRunTimeout caps the wait a caller may request over HTTP.
const maxRunTimeout = 5 * time.Minute

// Runner executes one verification run.
type Runner interface {
	Run(ctx context.Context) *verify.Result
}

// RunnerFactory builds a runner for cfg.
type RunnerFactory func(cfg verify.Config) (Runner, error)

// Store is implemented by reports.Service.
type Store interface {
	Record(ctx context.Context, res *verify.Result) error
	Get(ctx context.Context, runID string) (*verify.Result, error)
	Latest(ctx context.Context, orderID string) (*verify.Result, error)
	History(ctx context.Context, orderID string, limit int) ([]*verify.Result, error)
}

// VerificationHandler serves the verification API.
type VerificationHandler struct {
	defaults  verify.Config
	newRunner RunnerFactory
	store     Store
}

func NewVerificationHandler(defaults verify.Config, newRunner RunnerFactory, store Store) *VerificationHandler {
	return &VerificationHandler{defaults: defaults, newRunner: newRunner, store: store}
}

// Register mounts the routes on rg, typically the /api/v1 group.
func (h *VerificationHandler) Register(rg gin.IRoutes) {
	rg.POST("/verifications", h.Create)
	rg.GET("/verifications/:runId", h.Get)
	rg.GET("/orders/:orderId/verifications", h.History)
	rg.GET("/orders/:orderId/verifications/latest", h.Latest)
}

type createRequest struct {
	OrderID             string   `json:"orderId"`
	TargetStatus        string   `json:"targetStatus"`
	TimeoutSeconds      *float64 `json:"timeoutSeconds"`
	PollIntervalSeconds *float64 `json:"pollIntervalSeconds"`
	MinDocuments        int      `json:"minDocuments"`
	SkipProbe           bool     `json:"skipProbe"`
}

func (req createRequest) config(defaults verify.Config) verify.Config {
	cfg := defaults
	cfg.OrderID = req.OrderID
	if req.TargetStatus != "" {
		cfg.TargetStatus = req.TargetStatus
	}
	if req.TimeoutSeconds != nil {
		cfg.Timeout = time.Duration(*req.TimeoutSeconds * float64(time.Second))
	}
	if req.PollIntervalSeconds != nil {
		cfg.PollInterval = time.Duration(*req.PollIntervalSeconds * float64(time.Second))
	}
	if req.MinDocuments != 0 {
		cfg.MinDocuments = req.MinDocuments
	}
	cfg.SkipProbe = cfg.SkipProbe || req.SkipProbe
	return cfg.WithDefaults()
}

// Create runs a verification synchronously and returns the result:
// 200 when documents were generated, 422 when the run failed.
func (h *VerificationHandler) Create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body", "details": err.Error()})
		return
	}
	cfg := req.config(h.defaults)
	if err := cfg.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if cfg.Timeout > maxRunTimeout {
		c.JSON(http.StatusBadRequest, gin.H{"error": "timeout exceeds " + maxRunTimeout.String()})
		return
	}
	runner, err := h.newRunner(cfg)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	logger.Infow("verification requested", "order", cfg.OrderID, "status", cfg.TargetStatus, "by", middleware.Subject(c))
	res := runner.Run(c.Request.Context())
	if err := h.store.Record(c.Request.Context(), res); err != nil {
		logger.Errorw("failed to archive verification run", "run", res.RunID, "err", err)
	}

	status := http.StatusOK
	if !res.Success {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, res)
}

func (h *VerificationHandler) Get(c *gin.Context) {
	res, err := h.store.Get(c.Request.Context(), c.Param("runId"))
	if err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *VerificationHandler) Latest(c *gin.Context) {
	res, err := h.store.Latest(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// History lists runs of an order, newest first. ?limit=N caps the list.
func (h *VerificationHandler) History(c *gin.Context) {
	limit := 0
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}
	list, err := h.store.History(c.Request.Context(), c.Param("orderId"), limit)
	if err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orderId": c.Param("orderId"), "runs": list})
}

func writeStoreError(c *gin.Context, err error) {
	if errors.Is(err, reports.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	logger.Errorf("report store: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "report store unavailable"})
}
