// Package ledger implements an append-only, hash-linked ledger for recording
// agricultural supply-chain events.
//
// # Core Components
//
// Transaction: A single event on a batch of product (harvest, shipment,
// delivery, ...) moving between two actors, with an opaque JSON detail payload.
//
// Block: An ordered group of transactions sealed under a SHA-256 content hash
// and linked to the hash of its predecessor.
//
// Ledger: The chain of blocks plus a buffer of pending transactions. It owns
// the append protocol and chain-integrity validation.
//
// # Security Properties
//
// The ledger provides:
//   - Immutability: Sealed blocks are never modified or removed
//   - Verifiability: Anyone holding an export can re-verify the entire chain
//   - Tamper detection: Any modification breaks a hash or a link
//
// Blocks can optionally carry a seal attestation, a signature over the block
// hash produced by the sealer. Verification of attestations is enabled by
// configuring a SealVerifier.
//
// # Usage
//
// Create a ledger with New, Submit transactions, then call SealBlock to group
// everything pending into a new block. Verify can be called at any time to
// ensure the chain remains intact, and Export/Import move the chain in and out
// of a stable JSON form.
package ledger
