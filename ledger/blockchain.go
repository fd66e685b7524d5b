package ledger

import (
	"fmt"
	"log/slog"
	"sync"
)

// Ledger is an append-only chain of blocks plus the transactions waiting for
// the next block. A single lock guards both, so sealing observes and clears
// the pending buffer atomically with respect to submitters.
type Ledger struct {
	mu      sync.RWMutex
	blocks  []Block
	pending []Transaction
	cfg     config
}

// New creates a ledger holding only the genesis block. The genesis block has
// index 0, previous hash GenesisPreviousHash and no transactions.
func New(opts ...Option) *Ledger {
	cfg := defaultConfig()
	for _, opt := range opts {
		cfg = opt(cfg)
	}
	genesis, err := Seal(0, GenesisPreviousHash, nil, AllowEmpty(), SealClock(cfg.now))
	if err != nil {
		panic(err)
	}
	cfg.log.Debug("ledger initialized", slog.String("genesis", genesis.Hash))
	return &Ledger{
		blocks: []Block{genesis},
		cfg:    cfg,
	}
}

// FromBlocks rebuilds a ledger from a previously exported chain. The chain is
// verified first and rejected with its first violation.
func FromBlocks(blocks []Block, opts ...Option) (*Ledger, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		cfg = opt(cfg)
	}
	chain := make([]Block, len(blocks))
	for i := range blocks {
		chain[i] = blocks[i].clone()
	}
	if err := verifyChain(chain, cfg.verifier); err != nil {
		return nil, err
	}
	cfg.log.Debug("ledger restored", slog.Int("height", len(chain)), slog.String("tip", chain[len(chain)-1].Hash))
	return &Ledger{blocks: chain, cfg: cfg}, nil
}

// Submit queues transactions for the next block. It never fails: checking
// transactions is the submitter's job, see Validator.
func (l *Ledger) Submit(txs ...Transaction) {
	if len(txs) == 0 {
		return
	}
	l.mu.Lock()
	l.pending = append(l.pending, txs...)
	pending := len(l.pending)
	l.mu.Unlock()

	l.cfg.log.Debug("transactions submitted", slog.Int("count", len(txs)), slog.Int("pending", pending))
	for _, o := range l.cfg.observers {
		o.TransactionsSubmitted(len(txs))
	}
}

// SealBlock groups every pending transaction into a new block on top of the
// current tip and appends it. It returns ErrEmptyBatch, leaving the chain
// untouched, when nothing is pending and empty blocks are not allowed.
func (l *Ledger) SealBlock() (Block, error) {
	l.mu.Lock()
	b, err := l.seal()
	l.mu.Unlock()
	if err != nil {
		return Block{}, err
	}

	l.cfg.log.Info("block sealed",
		slog.Uint64("index", b.Index),
		slog.String("hash", b.Hash),
		slog.Int("transactions", len(b.Transactions)),
	)
	for _, o := range l.cfg.observers {
		o.BlockSealed(b.clone())
	}
	return b.clone(), nil
}

// seal must be called with the write lock held.
func (l *Ledger) seal() (Block, error) {
	if len(l.pending) == 0 && !l.cfg.emptyBlocks {
		return Block{}, ErrEmptyBatch
	}
	latest := l.blocks[len(l.blocks)-1]
	b, err := Seal(latest.Index+1, latest.Hash, l.pending, AllowEmpty(), SealClock(l.cfg.now))
	if err != nil {
		return Block{}, err
	}
	if l.cfg.signer != nil {
		sig, err := l.cfg.signer.Sign([]byte(b.Hash))
		if err != nil {
			return Block{}, fmt.Errorf("sign block %d: %w", b.Index, err)
		}
		b.Attestation = &Attestation{Signer: l.cfg.signer.ID(), Signature: sig}
	}
	if err := validateBlock(b, latest, l.cfg.verifier); err != nil {
		return Block{}, fmt.Errorf("invalid block: %w", err)
	}
	l.blocks = append(l.blocks, b)
	l.pending = nil
	return b, nil
}

// Verify walks the whole chain and returns the first violation found as a
// *ChainError, or nil when the chain is intact.
func (l *Ledger) Verify() error {
	blocks := l.snapshot()
	err := verifyChain(blocks, l.cfg.verifier)
	if err != nil {
		l.cfg.log.Warn("chain verification failed", slog.Any("error", err))
	}
	for _, o := range l.cfg.observers {
		o.ChainVerified(len(blocks), err)
	}
	return err
}

// Len returns the number of blocks, genesis included.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.blocks)
}

// Latest returns the tip of the chain.
func (l *Ledger) Latest() Block {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.blocks[len(l.blocks)-1].clone()
}

// Block returns the block at index.
func (l *Ledger) Block(index uint64) (Block, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if index >= uint64(len(l.blocks)) {
		return Block{}, fmt.Errorf("%w: index %d, height %d", ErrBlockNotFound, index, len(l.blocks))
	}
	return l.blocks[index].clone(), nil
}

// Blocks returns a copy of the chain.
func (l *Ledger) Blocks() []Block {
	blocks := l.snapshot()
	out := make([]Block, len(blocks))
	for i := range blocks {
		out[i] = blocks[i].clone()
	}
	return out
}

// Pending returns a copy of the transactions waiting for the next block.
func (l *Ledger) Pending() []Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Transaction{}, l.pending...)
}

// snapshot returns the chain as it is now. Blocks are never modified once
// appended, so the returned slice stays valid after the lock is released.
func (l *Ledger) snapshot() []Block {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.blocks[:len(l.blocks):len(l.blocks)]
}

func verifyChain(blocks []Block, v SealVerifier) error {
	if len(blocks) == 0 {
		return ErrEmptyChain
	}
	if err := validateGenesis(blocks[0]); err != nil {
		return err
	}
	for i := 1; i < len(blocks); i++ {
		if err := validateBlock(blocks[i], blocks[i-1], v); err != nil {
			return err
		}
	}
	return nil
}

func validateGenesis(g Block) error {
	if g.Index != 0 {
		return &ChainError{Index: 0, Kind: IndexGap, Detail: fmt.Sprintf("genesis index %d", g.Index)}
	}
	if g.PreviousHash != GenesisPreviousHash {
		return &ChainError{Index: 0, Kind: LinkMismatch, Detail: "genesis previous hash is not the sentinel"}
	}
	if !VerifyHash(g) {
		return &ChainError{Index: 0, Kind: HashMismatch, Detail: fmt.Sprintf("expected %s, got %s", g.ComputeHash(), g.Hash)}
	}
	return nil
}

// validateBlock checks current against its predecessor: index continuity,
// previous hash linkage, hash correctness and, when v is set, the attestation.
func validateBlock(current, previous Block, v SealVerifier) error {
	index := previous.Index + 1
	if current.Index != index {
		return &ChainError{Index: index, Kind: IndexGap, Detail: fmt.Sprintf("expected %d, got %d", index, current.Index)}
	}
	if current.PreviousHash != previous.Hash {
		return &ChainError{Index: index, Kind: LinkMismatch, Detail: fmt.Sprintf("expected %s, got %s", previous.Hash, current.PreviousHash)}
	}
	if expected := current.ComputeHash(); current.Hash != expected {
		return &ChainError{Index: index, Kind: HashMismatch, Detail: fmt.Sprintf("expected %s, got %s", expected, current.Hash)}
	}
	if v == nil {
		return nil
	}
	if current.Attestation == nil {
		return &ChainError{Index: index, Kind: SignatureMismatch, Detail: "missing attestation"}
	}
	if err := v.Verify(current.Attestation.Signer, []byte(current.Hash), current.Attestation.Signature); err != nil {
		return &ChainError{Index: index, Kind: SignatureMismatch, Detail: err.Error()}
	}
	return nil
}
