package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	KindQuery       = "query"
	KindTransaction = "transaction"

	OutcomeOk     = "ok"
	OutcomeFailed = "failed"
	OutcomeError  = "error"
)

var (
	ContractCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nameservice_contract_calls_total",
		Help: "The total number of contract calls by method, kind and outcome",
	}, []string{"method", "kind", "outcome"})

	GasConsumed = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nameservice_gas_consumed",
		Help:    "Gas consumed by successful contract queries",
		Buckets: prometheus.ExponentialBuckets(1000, 4, 12),
	}, []string{"method"})

	TxStatusEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nameservice_tx_status_events_total",
		Help: "Transaction status events observed while watching submissions",
	}, []string{"status"})

	WorkflowSteps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nameservice_workflow_steps_total",
		Help: "Registration workflow steps by name and status",
	}, []string{"step", "status"})
)

// WriteTextfile dumps the default registry in the node exporter textfile
// format. The file is replaced atomically.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
