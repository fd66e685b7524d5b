// Package metrics exposes ledger activity as Prometheus collectors.
package metrics

import (
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/luca-patrignani/agriblock/ledger"
)

const namespace = "agriblock"

// Metrics implements ledger.Observer.
type Metrics struct {
	gatherer      prometheus.Gatherer
	submitted     prometheus.Counter
	sealed        prometheus.Counter
	sealedTxs     prometheus.Histogram
	verifications *prometheus.CounterVec
	height        prometheus.Gauge

	// heightMu orders gauge updates; callbacks may report stale heights.
	heightMu  sync.Mutex
	maxHeight uint64
}

// New registers the ledger collectors with reg. A nil reg uses a fresh
// registry, which Handler then serves.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		gatherer: reg,
		submitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "transactions_submitted_total",
			Help:      "Total transactions queued for sealing.",
		}),
		sealed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "blocks_sealed_total",
			Help:      "Total blocks appended to the chain.",
		}),
		sealedTxs: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "block_transactions",
			Help:      "Number of transactions per sealed block.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "verifications_total",
			Help:      "Chain verifications by result (ok or the violation kind).",
		}, []string{"result"}),
		height: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "chain_height",
			Help:      "Number of blocks in the chain, genesis included.",
		}),
	}
	reg.MustRegister(m.submitted, m.sealed, m.sealedTxs, m.verifications, m.height)
	return m
}

func (m *Metrics) TransactionsSubmitted(n int) {
	if m == nil {
		return
	}
	m.submitted.Add(float64(n))
}

func (m *Metrics) BlockSealed(b ledger.Block) {
	if m == nil {
		return
	}
	m.sealed.Inc()
	m.sealedTxs.Observe(float64(len(b.Transactions)))
	m.raiseHeight(b.Index + 1)
}

func (m *Metrics) ChainVerified(height int, err error) {
	if m == nil {
		return
	}
	m.raiseHeight(uint64(height))
	m.verifications.WithLabelValues(Result(err)).Inc()
}

// raiseHeight moves the height gauge forward only. The chain never shrinks,
// so a lower value comes from a snapshot taken before a concurrent seal.
func (m *Metrics) raiseHeight(height uint64) {
	m.heightMu.Lock()
	defer m.heightMu.Unlock()
	if height <= m.maxHeight {
		return
	}
	m.maxHeight = height
	m.height.Set(float64(height))
}

// Result is the verifications_total label for a Verify outcome.
func Result(err error) string {
	if err == nil {
		return "ok"
	}
	var chainErr *ledger.ChainError
	if errors.As(err, &chainErr) {
		return strings.ReplaceAll(chainErr.Kind.String(), " ", "_")
	}
	return "error"
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

var _ ledger.Observer = (*Metrics)(nil)
