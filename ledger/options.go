package ledger

import (
	"log/slog"
	"time"
)

// Observer is notified of ledger activity after the ledger lock is released.
type Observer interface {
	TransactionsSubmitted(n int)
	BlockSealed(b Block)
	ChainVerified(height int, err error)
}

type config struct {
	log         *slog.Logger
	now         func() time.Time
	emptyBlocks bool
	signer      Signer
	verifier    SealVerifier
	observers   []Observer
}

// Option configures a Ledger.
type Option func(config) config

func defaultConfig() config {
	return config{
		log: slog.Default(),
		now: time.Now,
	}
}

// WithLogger sets the logger; nil keeps slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(c config) config {
		if log != nil {
			c.log = log
		}
		return c
	}
}

// WithClock replaces time.Now for block timestamps.
func WithClock(now func() time.Time) Option {
	return func(c config) config {
		c.now = now
		return c
	}
}

// WithEmptyBlocks lets SealBlock seal a block with no pending transactions.
func WithEmptyBlocks() Option {
	return func(c config) config {
		c.emptyBlocks = true
		return c
	}
}

// WithSigner attaches an attestation signed by s to every sealed block.
func WithSigner(s Signer) Option {
	return func(c config) config {
		c.signer = s
		return c
	}
}

// WithSealVerifier makes Verify require a valid attestation on every block
// after genesis.
func WithSealVerifier(v SealVerifier) Option {
	return func(c config) config {
		c.verifier = v
		return c
	}
}

// WithObserver adds o to the observers notified of ledger activity.
func WithObserver(o Observer) Option {
	return func(c config) config {
		c.observers = append(c.observers, o)
		return c
	}
}
