// Package heshacrypto provides the cryptographic primitives the rest of
// the protocol builds on: Ed25519 keys and signatures, SHA-256,
// HMAC-SHA-256, CSPRNG bytes, base64url codec, and constant-time
// comparison. Nothing above this package touches crypto/* directly.
package heshacrypto

import (
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"github.com/heshaorg/hesha/internal/heshatypes"
)

// GenerateEd25519Keypair creates a fresh Ed25519 keypair from the
// system CSPRNG.
func GenerateEd25519Keypair() (heshatypes.PublicKey, heshatypes.PrivateKey, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return heshatypes.PublicKey{}, heshatypes.PrivateKey{}, fmt.Errorf("heshacrypto: keygen: %w", err)
	}
	pk, err := heshatypes.NewPublicKeyFromBytes(pub)
	if err != nil {
		return heshatypes.PublicKey{}, heshatypes.PrivateKey{}, fmt.Errorf("heshacrypto: keygen pubkey: %w", err)
	}
	sk, err := heshatypes.NewPrivateKeyFromSeed(priv.Seed())
	if err != nil {
		return heshatypes.PublicKey{}, heshatypes.PrivateKey{}, fmt.Errorf("heshacrypto: keygen seed: %w", err)
	}
	return pk, sk, nil
}

// Sign produces a 64-byte Ed25519 signature over msg.
func Sign(sk heshatypes.PrivateKey, msg []byte) []byte {
	return ed25519.Sign(sk.Ed25519(), msg)
}

// Verify reports whether sig is a valid Ed25519 signature over msg
// under pk, using the stdlib implementation. It rejects wrong-length
// signatures and non-canonical S values. It does not reject
// identity/low-order public keys; apart from the all-zero check in
// heshatypes.NewPublicKeyFromBytes, no small-order key is filtered.
func Verify(pk heshatypes.PublicKey, msg, sig []byte) bool {
	return ed25519.Verify(pk.Ed25519(), msg, sig)
}

// SHA256 returns the 32-byte SHA-256 digest of data.
func SHA256(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// HMACSHA256 returns the 32-byte HMAC-SHA-256 MAC of msg under key.
func HMACSHA256(key, msg []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(msg)
	return mac.Sum(nil)
}

// RandomBytes returns n cryptographically secure random bytes.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("heshacrypto: random bytes: %w", err)
	}
	return b, nil
}

// RandomNonce returns a fresh 128-bit Nonce.
func RandomNonce() (heshatypes.Nonce, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return heshatypes.Nonce{}, fmt.Errorf("heshacrypto: random nonce: %w", err)
	}
	return heshatypes.NonceFromBytes(b), nil
}

// B64URLEncode encodes bytes as base64url without padding.
func B64URLEncode(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

// B64URLDecode decodes a base64url string, rejecting padded input.
func B64URLDecode(s string) ([]byte, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("heshacrypto: base64url decode: %w", err)
	}
	return b, nil
}

// ConstantTimeEqual compares two byte slices in constant time. Any
// comparison of a MAC or signature that gates control flow must use
// this instead of bytes.Equal.
func ConstantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}
