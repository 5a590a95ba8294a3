package verify

import (
	"time"

	"github.com/erpsystem/doccheck/internal/models"
)

// Stage names the steps of a run, in order.
type Stage string

const (
	StageStart              Stage = "START"
	StageFetchInitial       Stage = "FETCH_INITIAL"
	StageCheckPrecondition  Stage = "CHECK_PRECONDITION"
	StageTrigger            Stage = "TRIGGER"
	StageWait               Stage = "WAIT"
	StageFetchFinal         Stage = "FETCH_FINAL"
	StageCheckPostcondition Stage = "CHECK_POSTCONDITION"
	StageProbeArtifact      Stage = "PROBE_ARTIFACT"
	StageReport             Stage = "REPORT"
	StageEnd                Stage = "END"
)

type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Diagnostic is one ordered message of a run report.
type Diagnostic struct {
	Stage   Stage  `json:"stage"`
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Result is the structured outcome of a verification run.
type Result struct {
	RunID             string            `json:"runId"`
	Endpoint          string            `json:"endpoint,omitempty"`
	OrderID           string            `json:"orderId"`
	OrderNumber       string            `json:"orderNumber,omitempty"`
	TargetStatus      string            `json:"targetStatus"`
	InitialStatus     string            `json:"initialStatus,omitempty"`
	FinalStatus       string            `json:"finalStatus,omitempty"`
	Items             []models.Item     `json:"items"`
	Documents         []models.Document `json:"documents"`
	Stage             Stage             `json:"stage"`
	FailedStage       Stage             `json:"failedStage,omitempty"`
	Success           bool              `json:"success"`
	Diagnostics       []Diagnostic      `json:"diagnostics"`
	Warnings          []string          `json:"warnings,omitempty"`
	ArtifactURL       string            `json:"artifactUrl,omitempty"`
	ArtifactReachable *bool             `json:"artifactReachable,omitempty"`
	// Attempts counts order fetches made after the status mutation.
	Attempts          int               `json:"attempts"`
	Error             string            `json:"error,omitempty"`
	StartedAt         time.Time         `json:"startedAt"`
	FinishedAt        time.Time         `json:"finishedAt"`

	err error
}

// Err returns the typed error that failed the run, or nil. A failed Result
// decoded from JSON has no typed error; Err then returns a *RecordedError
// rebuilt from FailedStage and Error.
func (r *Result) Err() error {
	if r.err != nil {
		return r.err
	}
	if !r.Success && r.Error != "" {
		return &RecordedError{Stage: r.FailedStage, Message: r.Error}
	}
	return nil
}

// ExitCode is 0 only when documents were generated and fetched.
func (r *Result) ExitCode() int {
	if r.Success {
		return 0
	}
	return 1
}

// Duration is the wall-clock time of the run.
func (r *Result) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

func (r *Result) add(level Level, msg string) {
	r.Diagnostics = append(r.Diagnostics, Diagnostic{Stage: r.Stage, Level: level, Message: msg})
}

func (r *Result) info(msg string) { r.add(LevelInfo, msg) }

func (r *Result) warn(msg string) {
	r.add(LevelWarn, msg)
	r.Warnings = append(r.Warnings, msg)
}

func (r *Result) errorMsg(msg string) { r.add(LevelError, msg) }

func (r *Result) fail(err error) {
	r.err = err
	r.Error = err.Error()
	r.FailedStage = r.Stage
	r.Success = false
	r.errorMsg(err.Error())
}
