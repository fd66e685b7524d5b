// Package attest signs and verifies block seals with Schnorr signatures over
// the Ed25519 curve.
//
// A Signer plugs into ledger.WithSigner and a Verifier into
// ledger.WithSealVerifier. Signers are identified by their hex-encoded public
// key, so a verifier only needs the ids of the sealers it trusts.
package attest

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.dedis.ch/kyber/v4"
	"go.dedis.ch/kyber/v4/group/edwards25519"
	"go.dedis.ch/kyber/v4/sign/schnorr"
)

var suite = edwards25519.NewBlakeSHA256Ed25519()

var ErrUnknownSigner = errors.New("attest: unknown signer")

// Signer holds a sealer key pair.
type Signer struct {
	private kyber.Scalar
	public  kyber.Point
	id      string
}

// NewSigner generates a fresh key pair.
func NewSigner() (*Signer, error) {
	private := suite.Scalar().Pick(suite.RandomStream())
	public := suite.Point().Mul(private, nil)
	id, err := encodePoint(public)
	if err != nil {
		return nil, err
	}
	return &Signer{private: private, public: public, id: id}, nil
}

// LoadSigner rebuilds a signer from a key produced by PrivateKey.
func LoadSigner(key string) (*Signer, error) {
	b, err := hex.DecodeString(strings.TrimSpace(key))
	if err != nil {
		return nil, fmt.Errorf("attest: private key: %w", err)
	}
	if len(b) != suite.ScalarLen() {
		return nil, fmt.Errorf("attest: private key: expected %d bytes, got %d", suite.ScalarLen(), len(b))
	}
	private := suite.Scalar()
	if err := private.UnmarshalBinary(b); err != nil {
		return nil, fmt.Errorf("attest: private key: %w", err)
	}
	public := suite.Point().Mul(private, nil)
	id, err := encodePoint(public)
	if err != nil {
		return nil, err
	}
	return &Signer{private: private, public: public, id: id}, nil
}

// PrivateKey returns the hex-encoded private scalar.
func (s *Signer) PrivateKey() (string, error) {
	b, err := s.private.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("attest: marshal private key: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// ID returns the hex-encoded public key.
func (s *Signer) ID() string {
	return s.id
}

func (s *Signer) Sign(msg []byte) ([]byte, error) {
	sig, err := schnorr.Sign(suite, s.private, msg)
	if err != nil {
		return nil, fmt.Errorf("attest: sign: %w", err)
	}
	return sig, nil
}

// Verifier checks signatures from a fixed set of trusted signers.
type Verifier struct {
	mu      sync.RWMutex
	trusted map[string]kyber.Point
}

// NewVerifier trusts the signers with the given ids.
func NewVerifier(ids ...string) (*Verifier, error) {
	v := &Verifier{trusted: make(map[string]kyber.Point, len(ids))}
	for _, id := range ids {
		if err := v.Trust(id); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// Trust adds a signer id to the trusted set.
func (v *Verifier) Trust(id string) error {
	public, err := decodePoint(id)
	if err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.trusted[id] = public
	return nil
}

func (v *Verifier) Verify(signer string, msg, sig []byte) error {
	v.mu.RLock()
	public, ok := v.trusted[signer]
	v.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSigner, signer)
	}
	if err := schnorr.Verify(suite, public, msg, sig); err != nil {
		return fmt.Errorf("attest: verify: %w", err)
	}
	return nil
}

func encodePoint(p kyber.Point) (string, error) {
	b, err := p.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("attest: marshal public key: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func decodePoint(id string) (kyber.Point, error) {
	b, err := hex.DecodeString(id)
	if err != nil {
		return nil, fmt.Errorf("attest: signer id %q: %w", id, err)
	}
	if len(b) != suite.PointLen() {
		return nil, fmt.Errorf("attest: signer id %q: expected %d bytes, got %d", id, suite.PointLen(), len(b))
	}
	p := suite.Point()
	if err := p.UnmarshalBinary(b); err != nil {
		return nil, fmt.Errorf("attest: signer id %q: %w", id, err)
	}
	return p, nil
}
