package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ChainReader Metrics
var (
	RPCCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chain_reader_rpc_calls_total",
		Help: "The total number of RPC calls issued, by operation",
	}, []string{"operation"})

	RPCRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chain_reader_rpc_retries_total",
		Help: "The total number of rate-limited RPC calls that were retried",
	})

	RPCExhaustedRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chain_reader_rpc_exhausted_retries_total",
		Help: "The total number of RPC calls that failed after exhausting the retry budget",
	})
)

// Calculator Metrics
var (
	WindowComputations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "calculator_window_computations_total",
		Help: "The total number of burn windows computed",
	})

	WindowComputationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "calculator_window_computation_failures_total",
		Help: "The total number of burn window computations that failed",
	})

	ComputationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "calculator_computation_duration_seconds",
		Help:    "Time taken to compute a batch of burn windows",
		Buckets: prometheus.DefBuckets,
	})

	LocatorProbes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "locator_probes_per_search",
		Help:    "Number of block timestamp probes per binary search",
		Buckets: []float64{5, 10, 15, 20, 25, 30, 40},
	})
)

// Service Metrics
var (
	ImmediateRecomputations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "service_immediate_recomputations_total",
		Help: "The total number of synchronous immediate-tier recomputations",
	})

	FreshServes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "service_fresh_serves_total",
		Help: "The total number of requests served entirely from fresh stored data",
	})

	StaleFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "service_stale_fallbacks_total",
		Help: "The total number of requests answered with stale data after an upstream failure",
	})

	LastProcessedBlock = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "service_last_processed_block",
		Help: "The chain height used by the most recent successful computation",
	})
)

// Background Runner Metrics
var (
	JobsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "runner_jobs_submitted_total",
		Help: "The total number of recomputation jobs accepted into the queue",
	})

	JobsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "runner_jobs_completed_total",
		Help: "The total number of recomputation jobs that completed",
	})

	JobsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "runner_jobs_failed_total",
		Help: "The total number of recomputation jobs that failed",
	})

	JobQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "runner_job_queue_depth",
		Help: "The number of recomputation jobs waiting in the queue",
	})
)
