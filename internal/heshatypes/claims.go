package heshatypes

import (
	"regexp"
	"strings"
)

// Header is the fixed two-field JWT-compatible envelope header. Only
// one value of Alg is ever valid, and Typ must be "JWT"; a parsed token
// with any other value in either field is rejected.
type Header struct {
	Alg string `json:"alg"`
	Typ string `json:"typ"`
}

// FixedHeader returns the one header value every Hesha token uses.
func FixedHeader() Header {
	return Header{Alg: "EdDSA", Typ: "JWT"}
}

// SupportedVersion is the only `version` value an issuer accepts at
// issuance (§9 open question (c)). Verification does not enforce this —
// an unrecognized version is accepted and surfaced on the Verdict
// instead, per the same resolution.
const SupportedVersion = "1.0"

// Claims is the logical attestation claim set (§3). JSON field order
// here only governs Go's own re-marshaling; verifiers must not
// re-serialize a parsed token's payload when checking its signature —
// they operate on the literal bytes received.
type Claims struct {
	Issuer       string `json:"iss"`
	Subject      string `json:"sub"`
	IssuedAt     int64  `json:"iat"`
	ExpiresAt    int64  `json:"exp"`
	ID           string `json:"jti"`
	PhoneHash    string `json:"phone_hash"`
	UserPubkey   string `json:"user_pubkey"`
	BindingProof string `json:"binding_proof"`
	Nonce        string `json:"nonce"`
	TrustDomain  string `json:"trust_domain,omitempty"`
	Version      string `json:"version,omitempty"`
}

// minPlausibleUnix and maxPlausibleUnix bound the integer claims C4
// must reject as implausible (§4.4): roughly 2001-09-09 through
// 2286-11-20, far wider than any real attestation lifetime but narrow
// enough to catch obviously-corrupt values (negative, or overflowed).
const (
	minPlausibleUnix int64 = 1_000_000_000
	maxPlausibleUnix int64 = 9_999_999_999
)

var nonceHexRe = regexp.MustCompile(`^[a-f0-9]{32}$`)

// Validate checks that every mandatory claim (§3, §4.4) is present and
// well-formed. It does not check signatures, binding proofs, or
// temporal validity against a clock — those are the verifier's job.
func (c Claims) Validate() error {
	if strings.TrimSpace(c.Issuer) == "" {
		return newErr(KindMalformedClaim, "iss: required")
	}
	if _, err := NewProxyNumber(c.Subject); err != nil {
		return wrapErr(KindMalformedClaim, "sub", err)
	}
	if c.IssuedAt < minPlausibleUnix || c.IssuedAt > maxPlausibleUnix {
		return newErr(KindMalformedClaim, "iat: outside plausible range")
	}
	if c.ExpiresAt < minPlausibleUnix || c.ExpiresAt > maxPlausibleUnix {
		return newErr(KindMalformedClaim, "exp: outside plausible range")
	}
	if strings.TrimSpace(c.ID) == "" {
		return newErr(KindMalformedClaim, "jti: required")
	}
	if _, err := NewPhoneHash(c.PhoneHash); err != nil {
		return wrapErr(KindMalformedClaim, "phone_hash", err)
	}
	if _, err := NewPublicKeyFromBase64(c.UserPubkey); err != nil {
		return wrapErr(KindMalformedClaim, "user_pubkey", err)
	}
	if !strings.HasPrefix(c.BindingProof, "sig:") || len(c.BindingProof) == len("sig:") {
		return newErr(KindMalformedClaim, "binding_proof: must be sig:<base64url>")
	}
	if !nonceHexRe.MatchString(c.Nonce) {
		return newErr(KindMalformedClaim, "nonce: must be 32 lowercase hex characters")
	}
	return nil
}

// IssuedAtDecimal renders IssuedAt the way the binding message requires:
// a plain decimal integer, no leading zeros, no sign for non-negative
// values.
func (c Claims) IssuedAtDecimal() string {
	return int64Decimal(c.IssuedAt)
}

func int64Decimal(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
