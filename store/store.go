// Package store defines the persistence collaborator of a ledger. Backends
// live in the subpackages: file (JSON lines), badger (embedded key-value) and
// mysql.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/luca-patrignani/agriblock/ledger"
)

// ErrOutOfOrder is returned when a block does not extend the stored chain.
var ErrOutOfOrder = errors.New("store: block out of order")

// Store persists sealed blocks in chain order.
type Store interface {
	// Append persists b, which must have index Height().
	Append(ctx context.Context, b ledger.Block) error
	// Load returns every stored block in chain order.
	Load(ctx context.Context) ([]ledger.Block, error)
	// Height returns the number of stored blocks.
	Height() uint64
	Close() error
}

// CheckOrder reports ErrOutOfOrder unless b is the next block after height.
func CheckOrder(height uint64, b ledger.Block) error {
	if b.Index != height {
		return fmt.Errorf("%w: expected index %d, got %d", ErrOutOfOrder, height, b.Index)
	}
	return nil
}

// Restore rebuilds a ledger from s. An empty store gets a fresh genesis block;
// otherwise the stored chain is verified before the ledger is returned.
func Restore(ctx context.Context, s Store, opts ...ledger.Option) (*ledger.Ledger, error) {
	blocks, err := s.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("restore: %w", err)
	}
	if len(blocks) == 0 {
		l := ledger.New(opts...)
		if err := s.Append(ctx, l.Latest()); err != nil {
			return nil, fmt.Errorf("restore: store genesis: %w", err)
		}
		return l, nil
	}
	l, err := ledger.FromBlocks(blocks, opts...)
	if err != nil {
		return nil, fmt.Errorf("restore: %w", err)
	}
	return l, nil
}

// Sync appends to s every block of l it does not hold yet.
func Sync(ctx context.Context, s Store, l *ledger.Ledger) error {
	for index := s.Height(); index < uint64(l.Len()); index++ {
		b, err := l.Block(index)
		if err != nil {
			return err
		}
		if err := s.Append(ctx, b); err != nil {
			return fmt.Errorf("sync block %d: %w", index, err)
		}
	}
	return nil
}
