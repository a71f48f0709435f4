package heshatypes

import "fmt"

// ChallengeState is the terminal-sink state machine of a Challenge
// (§4.8, §9): Open transitions to exactly one of Consumed/Expired/
// Rejected, and every terminal state is a sink.
type ChallengeState string

const (
	ChallengeOpen     ChallengeState = "open"
	ChallengeConsumed ChallengeState = "consumed"
	ChallengeExpired  ChallengeState = "expired"
	ChallengeRejected ChallengeState = "rejected"
)

// Terminal reports whether the state accepts no further transitions.
func (s ChallengeState) Terminal() bool {
	return s != ChallengeOpen
}

// Challenge is the service-issued record a wallet signs to prove user
// consent for one verification (§3, §4.8).
type Challenge struct {
	ServiceID      string `json:"service_id"`
	ProxyNumber    string `json:"proxy_number"`
	ChallengeNonce string `json:"challenge_nonce"`
	IssuedAt       int64  `json:"issued_at"`
	ExpiresAt      int64  `json:"expires_at"`
	CallbackURL    string `json:"callback_url,omitempty"`
}

// MaxChallengeLifetimeSeconds bounds expires_at - issued_at (§3: "≤ 5
// minutes from issuance").
const MaxChallengeLifetimeSeconds = 300

// Validate checks shape invariants that don't depend on a clock:
// non-empty identifiers, a sufficiently long nonce, and an expiry
// window within the protocol's bound.
func (c Challenge) Validate() error {
	if c.ServiceID == "" {
		return newErr(KindMalformedClaim, "service_id: required")
	}
	if _, err := NewProxyNumber(c.ProxyNumber); err != nil {
		return wrapErr(KindMalformedClaim, "proxy_number", err)
	}
	if len(c.ChallengeNonce) < 32 {
		return newErr(KindInvalidNonce, "challenge_nonce: must encode at least 16 bytes")
	}
	if c.ExpiresAt <= c.IssuedAt {
		return newErr(KindMalformedClaim, "expires_at: must be after issued_at")
	}
	if c.ExpiresAt-c.IssuedAt > MaxChallengeLifetimeSeconds {
		return newErr(KindMalformedClaim, "expires_at: exceeds 300s window")
	}
	return nil
}

// CanonicalBytes returns the exact bytes the wallet signs (§4.8):
// service_id "|" challenge_nonce "|" timestamp.
func (c Challenge) CanonicalBytes(timestamp int64) []byte {
	return []byte(fmt.Sprintf("%s|%s|%s", c.ServiceID, c.ChallengeNonce, int64Decimal(timestamp)))
}

// ChallengeResponse is the wallet's reply to a Challenge (§3): the
// attestation it is presenting, a signature over the challenge's
// canonical bytes, and the wallet's timestamp.
type ChallengeResponse struct {
	Attestation string `json:"attestation"`
	Signature   string `json:"signature"`
	Timestamp   int64  `json:"timestamp"`
}
