package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luca-patrignani/agriblock/ledger"
)

func TestLedgerActivity(t *testing.T) {
	m := New(prometheus.NewRegistry())
	l := ledger.New(ledger.WithObserver(m))

	l.Submit(
		ledger.Transaction{Sender: "a", Recipient: "b", Data: "{}", BatchID: "RICE-1", EventType: ledger.EventHarvest},
		ledger.Transaction{Sender: "b", Recipient: "c", Data: "{}", BatchID: "RICE-1", EventType: ledger.EventShip},
	)
	_, err := l.SealBlock()
	require.NoError(t, err)
	l.Submit(ledger.Transaction{Sender: "c", Recipient: "d", Data: "{}", BatchID: "RICE-1", EventType: ledger.EventDelivered})
	require.NoError(t, l.Verify())

	assert.Equal(t, 3.0, testutil.ToFloat64(m.submitted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sealed))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.height))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.verifications.WithLabelValues("ok")))
}

func TestChainHeightNeverDecreases(t *testing.T) {
	m := New(nil)
	m.BlockSealed(ledger.Block{Index: 4})
	m.ChainVerified(3, nil)
	assert.Equal(t, 5.0, testutil.ToFloat64(m.height))
	m.ChainVerified(7, nil)
	m.BlockSealed(ledger.Block{Index: 5})
	assert.Equal(t, 7.0, testutil.ToFloat64(m.height))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.verifications.WithLabelValues("ok")))
}

func TestResult(t *testing.T) {
	assert.Equal(t, "ok", Result(nil))
	assert.Equal(t, "hash_mismatch", Result(&ledger.ChainError{Index: 2, Kind: ledger.HashMismatch}))
	assert.Equal(t, "link_mismatch", Result(&ledger.ChainError{Index: 2, Kind: ledger.LinkMismatch}))
	assert.Equal(t, "error", Result(errors.New("boom")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.TransactionsSubmitted(4)
	m.BlockSealed(ledger.Block{})
	m.ChainVerified(1, nil)
}

func TestHandler(t *testing.T) {
	m := New(nil)
	m.ChainVerified(5, &ledger.ChainError{Index: 3, Kind: ledger.IndexGap})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `agriblock_ledger_verifications_total{result="index_gap"} 1`)
	assert.True(t, strings.Contains(string(body), "agriblock_ledger_chain_height 5"))
}
