package heshatypes

import (
	"bytes"
	"crypto/ed25519"
	"encoding/base64"
)

// PublicKey is an Ed25519 public key: a validated 32-byte curve point.
type PublicKey struct {
	bytes [32]byte
}

// NewPublicKeyFromBase64 decodes a base64url-no-padding public key and
// rejects malformed or degenerate input: wrong length after decoding, or
// an all-zero point. Non-canonical signatures against it are rejected
// later, at Verify time, by the Ed25519 implementation itself.
func NewPublicKeyFromBase64(s string) (PublicKey, error) {
	raw, err := B64URLDecode(s)
	if err != nil {
		return PublicKey{}, wrapErr(KindInvalidPublicKey, "base64url decode", err)
	}
	return NewPublicKeyFromBytes(raw)
}

// NewPublicKeyFromBytes validates raw key bytes.
func NewPublicKeyFromBytes(raw []byte) (PublicKey, error) {
	if len(raw) != ed25519.PublicKeySize {
		return PublicKey{}, newErr(KindInvalidPublicKey, "expected 32 bytes")
	}
	var zero [32]byte
	if bytes.Equal(raw, zero[:]) {
		return PublicKey{}, newErr(KindInvalidPublicKey, "all-zero point")
	}
	var pk PublicKey
	copy(pk.bytes[:], raw)
	return pk, nil
}

// Bytes returns the raw 32-byte point.
func (k PublicKey) Bytes() []byte {
	return append([]byte(nil), k.bytes[:]...)
}

// Ed25519 exposes the key in the form the stdlib ed25519 package expects.
func (k PublicKey) Ed25519() ed25519.PublicKey {
	return ed25519.PublicKey(k.bytes[:])
}

// Base64 renders the key as base64url without padding — the form used
// in attestation claims and IssuerKeyRecord.
func (k PublicKey) Base64() string {
	return B64URLEncode(k.bytes[:])
}

func (k PublicKey) IsZero() bool {
	var zero [32]byte
	return k.bytes == zero
}

func (k PublicKey) Equal(other PublicKey) bool {
	return bytes.Equal(k.bytes[:], other.bytes[:])
}

// PrivateKey is an Ed25519 32-byte seed. It is never serialized over the
// wire and deliberately has no JSON marshaling.
type PrivateKey struct {
	seed [32]byte
}

// NewPrivateKeyFromSeed validates a 32-byte Ed25519 seed.
func NewPrivateKeyFromSeed(seed []byte) (PrivateKey, error) {
	if len(seed) != ed25519.SeedSize {
		return PrivateKey{}, newErr(KindInvalidPrivateKey, "expected 32-byte seed")
	}
	var pk PrivateKey
	copy(pk.seed[:], seed)
	return pk, nil
}

// Ed25519 derives the full 64-byte signing key from the seed.
func (k PrivateKey) Ed25519() ed25519.PrivateKey {
	return ed25519.NewKeyFromSeed(k.seed[:])
}

// Public derives the corresponding public key.
func (k PrivateKey) Public() PublicKey {
	pub := k.Ed25519().Public().(ed25519.PublicKey)
	var pk PublicKey
	copy(pk.bytes[:], pub)
	return pk
}

// Seed returns the raw 32-byte seed. Callers must not log or persist it
// outside of secure key storage.
func (k PrivateKey) Seed() []byte {
	return append([]byte(nil), k.seed[:]...)
}

// B64URLEncode and B64URLDecode implement the base64url-no-padding codec
// (spec.md §4.1) used throughout claim encoding.
func B64URLEncode(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

func B64URLDecode(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(s)
}
