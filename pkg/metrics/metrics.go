package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "doccheck", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "doccheck", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)

	// GraphQLRequests counts shop GraphQL calls by operation and outcome (ok, transport, status, graphql, decode).
	GraphQLRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "doccheck", Name: "graphql_requests_total", Help: "Shop GraphQL requests by operation and outcome."},
		[]string{"operation", "outcome"},
	)
	TemplateOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "doccheck", Name: "template_operations_total", Help: "Templates API operations by operation and outcome."},
		[]string{"operation", "outcome"},
	)
	VerificationRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "doccheck", Name: "verification_runs_total", Help: "Verification runs by final stage and result."},
		[]string{"stage", "result"},
	)
	GenerationWait = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "doccheck",
		Name:      "generation_wait_seconds",
		Help:      "Time between the status mutation and the first observed document.",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
	})
	ArtifactProbes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "doccheck", Name: "artifact_probes_total", Help: "PDF artifact reachability probes by result."},
		[]string{"result"},
	)
)

var registerOnce sync.Once

// RegisterCollectors registers all collectors with reg. Safe to call more than
// once; only the first call registers.
func RegisterCollectors(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		reg.MustRegister(RateLimitAllowed)
		reg.MustRegister(RateLimitRejected)
		reg.MustRegister(GraphQLRequests)
		reg.MustRegister(TemplateOperations)
		reg.MustRegister(VerificationRuns)
		reg.MustRegister(GenerationWait)
		reg.MustRegister(ArtifactProbes)
	})
}
