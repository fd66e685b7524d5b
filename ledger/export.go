package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Export writes the chain to w as a JSON array of blocks in chain order.
func (l *Ledger) Export(w io.Writer) error {
	if err := json.NewEncoder(w).Encode(l.snapshot()); err != nil {
		return fmt.Errorf("export chain: %w", err)
	}
	return nil
}

// Import reads a chain written by Export and verifies it. The returned ledger
// has no pending transactions.
func Import(r io.Reader, opts ...Option) (*Ledger, error) {
	var blocks []Block
	dec := json.NewDecoder(r)
	if err := dec.Decode(&blocks); err != nil {
		return nil, fmt.Errorf("import chain: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("import chain: unexpected data after the block array")
	}
	return FromBlocks(blocks, opts...)
}
