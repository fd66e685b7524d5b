package ledger

import (
	"time"
)

// Block is a sealed group of transactions linked to its predecessor.
// The JSON field order is part of the export format.
type Block struct {
	Index        uint64        `json:"index"`
	PreviousHash string        `json:"previous_hash"`
	Timestamp    int64         `json:"timestamp"` // Unix nanoseconds
	Transactions []Transaction `json:"transactions"`
	Hash         string        `json:"hash"`
	Attestation  *Attestation  `json:"attestation,omitempty"`
}

// Attestation is the sealer's signature over the block hash.
type Attestation struct {
	Signer    string `json:"signer"`
	Signature []byte `json:"signature"`
}

// Signer signs sealed block hashes.
type Signer interface {
	// ID identifies the signer to a SealVerifier.
	ID() string
	Sign(msg []byte) ([]byte, error)
}

// SealVerifier checks seal attestations.
type SealVerifier interface {
	Verify(signer string, msg, sig []byte) error
}

// Time returns the block timestamp in UTC.
func (b Block) Time() time.Time {
	return time.Unix(0, b.Timestamp).UTC()
}

type sealConfig struct {
	allowEmpty bool
	now        func() time.Time
}

// SealOption configures Seal.
type SealOption func(sealConfig) sealConfig

// AllowEmpty lets Seal produce a block without transactions.
func AllowEmpty() SealOption {
	return func(c sealConfig) sealConfig {
		c.allowEmpty = true
		return c
	}
}

// SealClock sets the clock Seal reads the block timestamp from.
func SealClock(now func() time.Time) SealOption {
	return func(c sealConfig) sealConfig {
		c.now = now
		return c
	}
}

// Seal builds a block at index on top of previousHash and computes its hash.
// The transactions are copied, so later changes to txs do not reach the block.
func Seal(index uint64, previousHash string, txs []Transaction, opts ...SealOption) (Block, error) {
	c := sealConfig{now: time.Now}
	for _, opt := range opts {
		c = opt(c)
	}
	if len(txs) == 0 && !c.allowEmpty {
		return Block{}, &ValidationError{Reason: "block must carry at least one transaction"}
	}
	b := Block{
		Index:        index,
		PreviousHash: previousHash,
		Timestamp:    c.now().UTC().UnixNano(),
		Transactions: append([]Transaction{}, txs...),
	}
	b.Hash = b.ComputeHash()
	return b, nil
}

// VerifyHash reports whether b's stored hash matches its content.
func VerifyHash(b Block) bool {
	return b.Hash == b.ComputeHash()
}

func (b Block) clone() Block {
	c := b
	c.Transactions = append([]Transaction{}, b.Transactions...)
	if b.Attestation != nil {
		a := *b.Attestation
		a.Signature = append([]byte(nil), b.Attestation.Signature...)
		c.Attestation = &a
	}
	return c
}
