// Package attestation implements the attestation codec (C4): building a
// claim set into a signed three-segment token, parsing a token back
// into a claim set, and verifying its signature.
package attestation

import (
	"encoding/json"
	"strings"

	"github.com/heshaorg/hesha/internal/heshacrypto"
	"github.com/heshaorg/hesha/internal/heshatypes"
)

// MaxTokenBytes bounds the size of a token accepted by Parse, per the
// §4.4 recommendation to cap oversized tokens to bound DoS.
const MaxTokenBytes = 8 * 1024

// Token is a parsed SignedAttestation: the literal base64url segments
// as received, plus the decoded claim set. Signature verification
// recomputes the signing input from HeaderB64/PayloadB64 — the literal
// segments — never from a re-serialization of Claims.
type Token struct {
	HeaderB64  string
	PayloadB64 string
	SigB64     string
	Claims     heshatypes.Claims
}

// Build serializes claims, signs them with issuerSK, and returns the
// "h.p.s" token.
func Build(claims heshatypes.Claims, issuerSK heshatypes.PrivateKey) (string, error) {
	if err := claims.Validate(); err != nil {
		return "", err
	}
	headerJSON, err := json.Marshal(heshatypes.FixedHeader())
	if err != nil {
		return "", &heshatypes.Error{Kind: heshatypes.KindInternal, Context: "marshal header", Err: err}
	}
	payloadJSON, err := json.Marshal(claims)
	if err != nil {
		return "", &heshatypes.Error{Kind: heshatypes.KindInternal, Context: "marshal payload", Err: err}
	}
	headerB64 := heshacrypto.B64URLEncode(headerJSON)
	payloadB64 := heshacrypto.B64URLEncode(payloadJSON)
	signingInput := headerB64 + "." + payloadB64
	sig := heshacrypto.Sign(issuerSK, []byte(signingInput))
	return signingInput + "." + heshacrypto.B64URLEncode(sig), nil
}

// Parse splits a token into its three segments, validates the header,
// and decodes the payload into a claim set. It rejects tokens with any
// segment count other than three, unknown algorithms, and claims that
// fail heshatypes.Claims.Validate.
func Parse(token string) (*Token, error) {
	if len(token) > MaxTokenBytes {
		return nil, &heshatypes.Error{Kind: heshatypes.KindMalformedToken, Context: "token exceeds size cap"}
	}
	segments := strings.Split(token, ".")
	if len(segments) != 3 {
		return nil, &heshatypes.Error{Kind: heshatypes.KindMalformedToken, Context: "expected exactly 3 segments"}
	}
	headerB64, payloadB64, sigB64 := segments[0], segments[1], segments[2]
	if headerB64 == "" || payloadB64 == "" || sigB64 == "" {
		return nil, &heshatypes.Error{Kind: heshatypes.KindMalformedToken, Context: "empty segment"}
	}

	headerJSON, err := heshacrypto.B64URLDecode(headerB64)
	if err != nil {
		return nil, &heshatypes.Error{Kind: heshatypes.KindMalformedToken, Context: "header: base64url decode", Err: err}
	}
	var header heshatypes.Header
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return nil, &heshatypes.Error{Kind: heshatypes.KindMalformedToken, Context: "header: invalid JSON", Err: err}
	}
	if header.Alg != "EdDSA" {
		return nil, &heshatypes.Error{Kind: heshatypes.KindMalformedToken, Context: "alg: only EdDSA is accepted"}
	}
	if header.Typ != "JWT" {
		return nil, &heshatypes.Error{Kind: heshatypes.KindMalformedToken, Context: "typ: must be JWT"}
	}

	payloadJSON, err := heshacrypto.B64URLDecode(payloadB64)
	if err != nil {
		return nil, &heshatypes.Error{Kind: heshatypes.KindMalformedToken, Context: "payload: base64url decode", Err: err}
	}
	var claims heshatypes.Claims
	if err := json.Unmarshal(payloadJSON, &claims); err != nil {
		return nil, &heshatypes.Error{Kind: heshatypes.KindMalformedToken, Context: "payload: invalid JSON", Err: err}
	}
	if err := claims.Validate(); err != nil {
		return nil, err
	}

	if _, err := heshacrypto.B64URLDecode(sigB64); err != nil {
		return nil, &heshatypes.Error{Kind: heshatypes.KindMalformedToken, Context: "signature: base64url decode", Err: err}
	}

	return &Token{HeaderB64: headerB64, PayloadB64: payloadB64, SigB64: sigB64, Claims: claims}, nil
}

// VerifySignature recomputes the signing input from the token's literal
// header and payload segments and checks the Ed25519 signature under
// issuerPK.
func VerifySignature(t *Token, issuerPK heshatypes.PublicKey) bool {
	sig, err := heshacrypto.B64URLDecode(t.SigB64)
	if err != nil {
		return false
	}
	signingInput := t.HeaderB64 + "." + t.PayloadB64
	return heshacrypto.Verify(issuerPK, []byte(signingInput), sig)
}
