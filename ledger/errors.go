package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyBatch is returned by SealBlock when nothing is pending and empty
	// blocks are not allowed.
	ErrEmptyBatch = errors.New("ledger: no pending transactions")
	// ErrEmptyChain is returned when importing a chain without a genesis block.
	ErrEmptyChain = errors.New("ledger: empty chain")
	// ErrBlockNotFound is returned for an index past the tip.
	ErrBlockNotFound = errors.New("ledger: block not found")
)

// ValidationError reports a malformed transaction or transaction set.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid transaction: " + e.Reason
	}
	return fmt.Sprintf("invalid transaction: %s: %s", e.Field, e.Reason)
}

// ViolationKind classifies a broken chain.
type ViolationKind int

const (
	// HashMismatch means a block's stored hash is not the digest of its content.
	HashMismatch ViolationKind = iota + 1
	// LinkMismatch means a block does not point at its predecessor's hash.
	LinkMismatch
	// IndexGap means a block index does not follow its predecessor's.
	IndexGap
	// SignatureMismatch means a seal attestation is missing or does not verify.
	SignatureMismatch
)

func (k ViolationKind) String() string {
	switch k {
	case HashMismatch:
		return "hash mismatch"
	case LinkMismatch:
		return "link mismatch"
	case IndexGap:
		return "index gap"
	case SignatureMismatch:
		return "signature mismatch"
	default:
		return fmt.Sprintf("violation(%d)", int(k))
	}
}

// ChainError is the first integrity violation found while walking a chain.
type ChainError struct {
	Index  uint64
	Kind   ViolationKind
	Detail string
}

func (e *ChainError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("block %d invalid: %s", e.Index, e.Kind)
	}
	return fmt.Sprintf("block %d invalid: %s: %s", e.Index, e.Kind, e.Detail)
}

// Is matches another *ChainError with the same index and kind, so callers can
// write errors.Is(err, &ChainError{Index: 3, Kind: HashMismatch}).
func (e *ChainError) Is(target error) bool {
	t, ok := target.(*ChainError)
	if !ok {
		return false
	}
	return t.Index == e.Index && t.Kind == e.Kind
}
