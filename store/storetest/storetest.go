// Package storetest holds the behaviour every store backend must share.
package storetest

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luca-patrignani/agriblock/ledger"
	"github.com/luca-patrignani/agriblock/store"
)

// Backend opens stores for the suite. Reopen may be nil for backends that
// cannot outlive their handle, like an in-memory database.
type Backend struct {
	Open   func(t *testing.T) store.Store
	Reopen func(t *testing.T) store.Store
}

type Case struct {
	Name string
	Fn   func(t *testing.T, b Backend)
}

var Cases = []Case{
	{"RestoreEmptyStoresGenesis", restoreEmptyStoresGenesis},
	{"SyncAndLoad", syncAndLoad},
	{"RejectsOutOfOrder", rejectsOutOfOrder},
	{"Reopen", reopen},
	{"CanceledContext", canceledContext},
}

// Run runs every case against the backend.
func Run(t *testing.T, b Backend) {
	for _, c := range Cases {
		t.Run(c.Name, func(t *testing.T) {
			c.Fn(t, b)
		})
	}
}

func sealBatches(t *testing.T, l *ledger.Ledger, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		batch := fmt.Sprintf("APPLE-%03d", i)
		l.Submit(
			ledger.Transaction{Sender: batch, Recipient: "ORCHARD-3", Data: `{"kg":80}`, BatchID: batch, EventType: ledger.EventHarvest},
			ledger.Transaction{Sender: batch, Recipient: "TRUCK-9", Data: "{}", BatchID: batch, EventType: ledger.EventShip},
			ledger.Transaction{
				Sender:    "Verger Zoé",
				Recipient: "市場 <stall 4> & \"co\"",
				Data:      "{\"note\":\"é\u2028<>&\",\"emoji\":\"🍎\"}",
				BatchID:   batch,
				EventType: ledger.EventSoldToConsumer,
			},
		)
		_, err := l.SealBlock()
		require.NoError(t, err)
	}
}

func restoreEmptyStoresGenesis(t *testing.T, b Backend) {
	ctx := context.Background()
	s := b.Open(t)
	defer s.Close()

	l, err := store.Restore(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, 1, l.Len())
	assert.Equal(t, uint64(1), s.Height())

	blocks, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, ledger.GenesisPreviousHash, blocks[0].PreviousHash)
}

func syncAndLoad(t *testing.T, b Backend) {
	ctx := context.Background()
	s := b.Open(t)
	defer s.Close()

	l, err := store.Restore(ctx, s)
	require.NoError(t, err)
	sealBatches(t, l, 3)
	require.NoError(t, store.Sync(ctx, s, l))
	assert.Equal(t, uint64(4), s.Height())
	require.NoError(t, store.Sync(ctx, s, l), "sync without new blocks is a no-op")

	blocks, err := s.Load(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(l.Blocks(), blocks); diff != "" {
		t.Fatalf("stored chain differs (-want +got):\n%s", diff)
	}
}

func rejectsOutOfOrder(t *testing.T, b Backend) {
	ctx := context.Background()
	s := b.Open(t)
	defer s.Close()

	l, err := store.Restore(ctx, s)
	require.NoError(t, err)
	sealBatches(t, l, 2)

	tip := l.Latest()
	assert.ErrorIs(t, s.Append(ctx, tip), store.ErrOutOfOrder)
	genesis, err := l.Block(0)
	require.NoError(t, err)
	assert.ErrorIs(t, s.Append(ctx, genesis), store.ErrOutOfOrder)
	assert.Equal(t, uint64(1), s.Height())
}

func reopen(t *testing.T, b Backend) {
	if b.Reopen == nil {
		t.Skip("backend does not persist across handles")
	}
	ctx := context.Background()
	s := b.Open(t)
	l, err := store.Restore(ctx, s)
	require.NoError(t, err)
	sealBatches(t, l, 2)
	require.NoError(t, store.Sync(ctx, s, l))
	require.NoError(t, s.Close())

	s = b.Reopen(t)
	defer s.Close()
	assert.Equal(t, uint64(3), s.Height())
	restored, err := store.Restore(ctx, s)
	require.NoError(t, err)
	require.NoError(t, restored.Verify())
	assert.Equal(t, l.Latest().Hash, restored.Latest().Hash)
	history := restored.History("APPLE-001")
	require.Len(t, history, 3)
	assert.Equal(t, "市場 <stall 4> & \"co\"", history[2].Recipient)
}

func canceledContext(t *testing.T, b Backend) {
	s := b.Open(t)
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, s.Append(ctx, ledger.New().Latest()))
	assert.Equal(t, uint64(0), s.Height())
}
