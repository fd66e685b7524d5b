// Package badger stores a chain in an embedded Badger database, keyed by
// block index.
package badger

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dgraph-io/badger/v3"

	"github.com/luca-patrignani/agriblock/ledger"
	"github.com/luca-patrignani/agriblock/store"
)

var blockPrefix = []byte("block/")

func blockKey(index uint64) []byte {
	key := make([]byte, len(blockPrefix)+8)
	copy(key, blockPrefix)
	binary.BigEndian.PutUint64(key[len(blockPrefix):], index)
	return key
}

type Store struct {
	mu     sync.Mutex
	db     *badger.DB
	log    *slog.Logger
	height uint64
}

// Open opens the database at path. An empty path keeps everything in memory.
func Open(path string, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	opt := badger.DefaultOptions(path).WithLogger(logAdapter{log: log})
	if path == "" {
		opt = opt.WithInMemory(true)
	}
	db, err := badger.Open(opt)
	if err != nil {
		return nil, fmt.Errorf("could not open badger at '%s': %w", path, err)
	}

	height := uint64(0)
	if err := db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = blockPrefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			height++
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to count blocks: %w", err)
	}
	log.Info("badger chain opened", slog.String("path", path), slog.Uint64("height", height))
	return &Store{db: db, log: log, height: height}, nil
}

func (s *Store) Append(ctx context.Context, b ledger.Block) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := store.CheckOrder(s.height, b); err != nil {
		return err
	}
	payload, err := json.Marshal(b)
	if err != nil {
		return err
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(blockKey(b.Index), payload)
	}); err != nil {
		return fmt.Errorf("could not store block %d: %w", b.Index, err)
	}
	s.height++
	return nil
}

func (s *Store) Load(ctx context.Context) ([]ledger.Block, error) {
	var blocks []ledger.Block
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = blockPrefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var b ledger.Block
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &b)
			}); err != nil {
				return fmt.Errorf("block key %x: %w", it.Item().Key(), err)
			}
			if err := store.CheckOrder(uint64(len(blocks)), b); err != nil {
				return err
			}
			blocks = append(blocks, b)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return blocks, nil
}

func (s *Store) Height() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.height
}

func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("could not close badger: %w", err)
	}
	return nil
}

// logAdapter routes badger's logging into slog.
type logAdapter struct {
	log *slog.Logger
}

func (a logAdapter) Errorf(format string, args ...interface{}) {
	a.log.Error(fmt.Sprintf(format, args...), slog.String("component", "badger"))
}

func (a logAdapter) Warningf(format string, args ...interface{}) {
	a.log.Warn(fmt.Sprintf(format, args...), slog.String("component", "badger"))
}

func (a logAdapter) Infof(format string, args ...interface{}) {
	a.log.Debug(fmt.Sprintf(format, args...), slog.String("component", "badger"))
}

func (a logAdapter) Debugf(format string, args ...interface{}) {
	a.log.Debug(fmt.Sprintf(format, args...), slog.String("component", "badger"))
}

var _ store.Store = (*Store)(nil)
