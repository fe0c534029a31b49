package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RunsTotal counts orchestration runs by outcome
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "copytrade_runs_total",
			Help: "Total number of bridge-and-swap runs",
		},
		[]string{"status"},
	)

	// RunDuration tracks end-to-end orchestration time
	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "copytrade_run_duration_seconds",
			Help:    "Bridge-and-swap run duration in seconds",
			Buckets: []float64{10, 30, 60, 120, 300, 600, 1200},
		},
		[]string{"status"},
	)

	// StageDuration tracks the time spent in each run stage
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "copytrade_stage_duration_seconds",
			Help:    "Duration of each orchestration stage in seconds",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
		},
		[]string{"stage"},
	)

	// AttestationPolls counts attestation service responses by outcome
	AttestationPolls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "copytrade_attestation_polls_total",
			Help: "Attestation service polls by outcome",
		},
		[]string{"domain", "outcome"},
	)

	// EventsDetected counts on-chain items found by the sweeps
	EventsDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "copytrade_events_detected_total",
			Help: "Total number of leader swaps and limit orders detected",
		},
		[]string{"chain", "event_type"},
	)

	// Decisions counts oracle verdicts by source and action
	Decisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "copytrade_decisions_total",
			Help: "Decision oracle verdicts",
		},
		[]string{"source", "action"},
	)

	// ProposalsCreated counts trade proposals written to the backend
	ProposalsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "copytrade_proposals_created_total",
			Help: "Trade proposals created by type",
		},
		[]string{"type"},
	)

	// OrdersProcessed counts pending orders by final status
	OrdersProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "copytrade_orders_processed_total",
			Help: "Pending orders processed by status",
		},
		[]string{"status"},
	)

	// TransactionsSent counts transactions sent to each chain
	TransactionsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "copytrade_transactions_sent_total",
			Help: "Total number of transactions sent",
		},
		[]string{"chain", "method", "status"},
	)

	// AgentBalance tracks the operator's token balances
	AgentBalance = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "copytrade_agent_balance",
			Help: "Agent token balance by chain and token",
		},
		[]string{"chain", "token"},
	)

	// SweepDuration tracks the duration of each sweep
	SweepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "copytrade_sweep_duration_seconds",
			Help:    "Sweep duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"sweep"},
	)

	// ErrorsTotal counts errors by type
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "copytrade_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)

	// GasUsed tracks gas used for submitted transactions
	GasUsed = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "copytrade_gas_used",
			Help:    "Gas used for submitted transactions",
			Buckets: []float64{21000, 50000, 100000, 200000, 300000, 500000},
		},
		[]string{"operation"},
	)

	// LastProcessedBlock tracks the last processed block number
	LastProcessedBlock = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "copytrade_last_processed_block",
			Help: "Last processed block number by chain",
		},
		[]string{"chain"},
	)
)
