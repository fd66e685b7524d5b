package badger

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luca-patrignani/agriblock/ledger"
	"github.com/luca-patrignani/agriblock/store"
	"github.com/luca-patrignani/agriblock/store/storetest"
)

func TestInMemoryStore(t *testing.T) {
	storetest.Run(t, storetest.Backend{
		Open: func(t *testing.T) store.Store {
			s, err := Open("", nil)
			require.NoError(t, err)
			return s
		},
	})
}

func TestOnDiskStore(t *testing.T) {
	var dir string
	open := func(t *testing.T) store.Store {
		s, err := Open(dir, nil)
		require.NoError(t, err)
		return s
	}
	storetest.Run(t, storetest.Backend{
		Open: func(t *testing.T) store.Store {
			dir = filepath.Join(t.TempDir(), "badger")
			return open(t)
		},
		Reopen: open,
	})
}

func TestBlockKeysSortByIndex(t *testing.T) {
	assert.Less(t, string(blockKey(9)), string(blockKey(10)))
	assert.Less(t, string(blockKey(255)), string(blockKey(256)))
	assert.Len(t, blockKey(0), len(blockPrefix)+8)
}

func TestLoadKeepsAttestation(t *testing.T) {
	ctx := context.Background()
	s, err := Open("", nil)
	require.NoError(t, err)
	defer s.Close()

	l, err := store.Restore(ctx, s, ledger.WithEmptyBlocks(), ledger.WithSigner(fixedSigner{}))
	require.NoError(t, err)
	_, err = l.SealBlock()
	require.NoError(t, err)
	require.NoError(t, store.Sync(ctx, s, l))

	blocks, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	require.NotNil(t, blocks[1].Attestation)
	assert.Equal(t, "inspector", blocks[1].Attestation.Signer)
	assert.Equal(t, []byte("sig:"+blocks[1].Hash), blocks[1].Attestation.Signature)
}

type fixedSigner struct{}

func (fixedSigner) ID() string { return "inspector" }

func (fixedSigner) Sign(msg []byte) ([]byte, error) {
	return append([]byte("sig:"), msg...), nil
}
