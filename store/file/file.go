// Package file stores a chain as JSON lines, one block per line, appended and
// synced to disk as blocks are sealed.
package file

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/luca-patrignani/agriblock/ledger"
	"github.com/luca-patrignani/agriblock/store"
)

const maxLine = 64 << 20

type Store struct {
	mu     sync.Mutex
	path   string
	log    *slog.Logger
	file   *os.File
	fsync  func(*os.File) error
	height uint64
	// broken is set when a failed append could not be rolled back; the file
	// may then end in a partial line and no further appends are accepted.
	broken error
}

// Open opens or creates the chain file at path and counts the blocks it holds.
func Open(path string, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	s := &Store{path: path, log: log, file: f, fsync: (*os.File).Sync}
	blocks, err := s.read()
	if err != nil {
		f.Close()
		return nil, err
	}
	s.height = uint64(len(blocks))
	log.Info("chain file opened", slog.String("path", path), slog.Uint64("height", s.height))
	return s, nil
}

func (s *Store) Append(ctx context.Context, b ledger.Block) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.broken != nil {
		return fmt.Errorf("chain file unusable: %w", s.broken)
	}
	if err := store.CheckOrder(s.height, b); err != nil {
		return err
	}
	payload, err := json.Marshal(b)
	if err != nil {
		return err
	}
	payload = append(payload, '\n')
	info, err := s.file.Stat()
	if err != nil {
		return err
	}
	if _, err := s.file.Write(payload); err != nil {
		return s.rollback(info.Size(), fmt.Errorf("write block %d: %w", b.Index, err))
	}
	if err := s.fsync(s.file); err != nil {
		return s.rollback(info.Size(), fmt.Errorf("sync block %d: %w", b.Index, err))
	}
	s.height++
	s.log.Debug("block stored", slog.Uint64("index", b.Index), slog.String("path", s.path))
	return nil
}

// rollback cuts the file back to size after a failed append, so a retry of
// the same block does not leave it twice in the file.
func (s *Store) rollback(size int64, cause error) error {
	if err := s.file.Truncate(size); err != nil {
		s.broken = errors.Join(cause, err)
		s.log.Error("could not roll back chain file", slog.String("path", s.path), slog.Any("error", s.broken))
		return s.broken
	}
	s.log.Warn("block append rolled back", slog.String("path", s.path), slog.Any("error", cause))
	return cause
}

func (s *Store) Load(ctx context.Context) ([]ledger.Block, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *Store) Height() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.height
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

// read must be called with the lock held or before the store is shared.
func (s *Store) read() ([]ledger.Block, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var blocks []ledger.Block
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var b ledger.Block
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", s.path, line, err)
		}
		if err := store.CheckOrder(uint64(len(blocks)), b); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", s.path, line, err)
		}
		blocks = append(blocks, b)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return blocks, nil
}

var _ store.Store = (*Store)(nil)
