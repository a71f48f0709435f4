// Package binding implements the binding proof (§4.5): an Ed25519
// signature by the issuer over a canonical concatenation of attestation
// fields, tying the proxy number to the phone hash and user public key.
package binding

import (
	"strings"

	"github.com/heshaorg/hesha/internal/heshacrypto"
	"github.com/heshaorg/hesha/internal/heshatypes"
)

const sigPrefix = "sig:"

// Fields is the set of claim values the binding message is built from.
type Fields struct {
	PhoneHash       heshatypes.PhoneHash
	UserPubkeyB64   string
	ProxyNumber     heshatypes.ProxyNumber
	IssuedAtDecimal string
}

func (f Fields) message() []byte {
	return heshatypes.BindingMessage(f.PhoneHash.Value(), f.UserPubkeyB64, f.ProxyNumber.Value(), f.IssuedAtDecimal, heshatypes.BindingVersionV2)
}

// Sign produces the "sig:"-prefixed, base64url-encoded binding proof.
// Ed25519 already hashes its input internally; the outer SHA-256 over
// the canonical message is still required exactly as specified — it is
// part of the wire contract, not an optimization.
func Sign(issuerSK heshatypes.PrivateKey, f Fields) string {
	digest := heshacrypto.SHA256(f.message())
	sig := heshacrypto.Sign(issuerSK, digest[:])
	return sigPrefix + heshacrypto.B64URLEncode(sig)
}

// Verify checks a binding proof against the canonical message built
// from f, under issuerPK. Any version tag other than the current
// hesha-binding-v2 — including the retired hesha-binding-v1 HMAC
// scheme — is a verification failure, not a fallback path.
func Verify(issuerPK heshatypes.PublicKey, f Fields, proof string) bool {
	if !strings.HasPrefix(proof, sigPrefix) {
		return false
	}
	sigBytes, err := heshacrypto.B64URLDecode(strings.TrimPrefix(proof, sigPrefix))
	if err != nil {
		return false
	}
	digest := heshacrypto.SHA256(f.message())
	return heshacrypto.Verify(issuerPK, digest[:], sigBytes)
}
