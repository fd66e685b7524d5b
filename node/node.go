// Package node assembles a running ledger from configuration: the store it
// persists to, the sealer key, detail schemas and metrics.
package node

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/luca-patrignani/agriblock/attest"
	"github.com/luca-patrignani/agriblock/config"
	"github.com/luca-patrignani/agriblock/details"
	"github.com/luca-patrignani/agriblock/internal/logging"
	"github.com/luca-patrignani/agriblock/ledger"
	"github.com/luca-patrignani/agriblock/metrics"
	"github.com/luca-patrignani/agriblock/store"
	badgerstore "github.com/luca-patrignani/agriblock/store/badger"
	filestore "github.com/luca-patrignani/agriblock/store/file"
	mysqlstore "github.com/luca-patrignani/agriblock/store/mysql"
)

type Node struct {
	log        *slog.Logger
	store      store.Store
	ledger     *ledger.Ledger
	metrics    *metrics.Metrics
	signer     *attest.Signer
	validators []ledger.Validator

	// sealMu keeps sealing and persisting in step, so the store never sees
	// blocks out of order.
	sealMu sync.Mutex
}

// Open builds a node from cfg and restores its ledger from the configured
// store. A stored chain that fails verification is rejected.
func Open(ctx context.Context, cfg config.Config, opts ...Option) (*Node, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	var o options
	for _, opt := range opts {
		o = opt(o)
	}
	log := o.log
	if log == nil {
		var err error
		if log, err = logging.New(cfg.Log.Level, cfg.Log.Format, nil); err != nil {
			return nil, err
		}
	}

	registry, err := loadSchemas(cfg.Details)
	if err != nil {
		return nil, err
	}
	n := &Node{
		log:        log,
		metrics:    metrics.New(o.registry),
		validators: append([]ledger.Validator{ledger.RequiredFields, registry}, o.validators...),
	}

	ledgerOpts := []ledger.Option{ledger.WithLogger(log), ledger.WithObserver(n.metrics)}
	if cfg.Ledger.EmptyBlocks {
		ledgerOpts = append(ledgerOpts, ledger.WithEmptyBlocks())
	}
	if cfg.Attest.KeyFile != "" {
		if n.signer, err = loadOrCreateKey(cfg.Attest.KeyFile, log); err != nil {
			return nil, err
		}
		ledgerOpts = append(ledgerOpts, ledger.WithSigner(n.signer))
	}
	if len(cfg.Attest.Trusted) > 0 {
		verifier, err := attest.NewVerifier(cfg.Attest.Trusted...)
		if err != nil {
			return nil, err
		}
		if n.signer != nil {
			if err := verifier.Trust(n.signer.ID()); err != nil {
				return nil, err
			}
		}
		ledgerOpts = append(ledgerOpts, ledger.WithSealVerifier(verifier))
	}
	ledgerOpts = append(ledgerOpts, o.ledgerOpts...)

	if n.store, err = openStore(ctx, cfg.Store, log); err != nil {
		return nil, err
	}
	if n.ledger, err = store.Restore(ctx, n.store, ledgerOpts...); err != nil {
		n.store.Close()
		return nil, err
	}
	// Restore verified whatever was stored.
	n.metrics.ChainVerified(n.ledger.Len(), nil)
	log.Info("node ready",
		slog.String("driver", cfg.Store.Driver),
		slog.Int("height", n.ledger.Len()),
		slog.String("tip", n.ledger.Latest().Hash),
	)
	return n, nil
}

func openStore(ctx context.Context, cfg config.Store, log *slog.Logger) (store.Store, error) {
	switch cfg.Driver {
	case config.DriverFile:
		return filestore.Open(cfg.Path, log)
	case config.DriverBadger:
		return badgerstore.Open(cfg.Path, log)
	case config.DriverMemory:
		return badgerstore.Open("", log)
	case config.DriverMySQL:
		return mysqlstore.Open(ctx, cfg.DSN, log)
	}
	return nil, fmt.Errorf("unknown store driver '%s'", cfg.Driver)
}

func loadSchemas(cfg config.Details) (*details.Registry, error) {
	registry := details.NewRegistry()
	if cfg.Standard {
		registry = details.Standard()
	}
	for eventType, path := range cfg.Schemas {
		schema, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("could not read schema for %s: %w", eventType, err)
		}
		if err := registry.Register(eventType, string(schema)); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// loadOrCreateKey reads the sealer key at path, generating and saving a new
// one when the file does not exist.
func loadOrCreateKey(path string, log *slog.Logger) (*attest.Signer, error) {
	raw, err := os.ReadFile(path)
	if err == nil {
		return attest.LoadSigner(string(raw))
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("could not read sealer key: %w", err)
	}
	signer, err := attest.NewSigner()
	if err != nil {
		return nil, err
	}
	key, err := signer.PrivateKey()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, []byte(key+"\n"), 0o600); err != nil {
		return nil, fmt.Errorf("could not write sealer key: %w", err)
	}
	log.Info("sealer key created", slog.String("path", path), slog.String("id", signer.ID()))
	return signer, nil
}

// Submit checks every transaction and queues them all, or none of them when
// any check fails.
func (n *Node) Submit(txs ...ledger.Transaction) error {
	for i, tx := range txs {
		for _, v := range n.validators {
			if err := v.Validate(tx); err != nil {
				return fmt.Errorf("transaction %d: %w", i, err)
			}
		}
	}
	n.ledger.Submit(txs...)
	return nil
}

// Seal seals the pending transactions and persists every block the store is
// missing. A block sealed but not persisted is retried on the next Seal.
func (n *Node) Seal(ctx context.Context) (ledger.Block, error) {
	n.sealMu.Lock()
	defer n.sealMu.Unlock()
	b, err := n.ledger.SealBlock()
	if err != nil {
		return ledger.Block{}, err
	}
	if err := store.Sync(ctx, n.store, n.ledger); err != nil {
		return b, fmt.Errorf("block %d sealed but not persisted: %w", b.Index, err)
	}
	return b, nil
}

func (n *Node) Verify() error {
	return n.ledger.Verify()
}

func (n *Node) Ledger() *ledger.Ledger {
	return n.ledger
}

func (n *Node) Metrics() *metrics.Metrics {
	return n.metrics
}

// SignerID returns the sealer id, or "" when the node does not sign.
func (n *Node) SignerID() string {
	if n.signer == nil {
		return ""
	}
	return n.signer.ID()
}

func (n *Node) Close() error {
	if err := n.store.Close(); err != nil {
		return fmt.Errorf("could not close store: %w", err)
	}
	return nil
}
