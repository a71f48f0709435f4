// Package challenge implements the service-side challenge/response
// consent flow (§4.8): a service issues a short-lived Challenge, the
// wallet signs its canonical bytes with the user private key, and the
// service verifies the response before trusting the presented
// attestation for one specific interaction.
package challenge

import (
	"context"
	"encoding/hex"
	"time"

	"github.com/heshaorg/hesha/internal/attestation"
	"github.com/heshaorg/hesha/internal/heshacrypto"
	"github.com/heshaorg/hesha/internal/heshatypes"
	"github.com/heshaorg/hesha/internal/verifier"
)

// DefaultLifetime is the default window between issuance and expiry,
// at the protocol's ceiling of 300 seconds.
const DefaultLifetime = 300 * time.Second

// DefaultTimestampLeeway bounds how far the wallet's reported timestamp
// may drift from the challenge's own issued/expiry window.
const DefaultTimestampLeeway = 60 * time.Second

// NewChallenge builds a Challenge for serviceID (its own FQDN) about
// proxy, with a CSPRNG nonce and an expiry window no longer than
// DefaultLifetime.
func NewChallenge(serviceID string, proxy heshatypes.ProxyNumber, now time.Time, callbackURL string) (heshatypes.Challenge, error) {
	raw, err := heshacrypto.RandomBytes(16)
	if err != nil {
		return heshatypes.Challenge{}, err
	}
	ch := heshatypes.Challenge{
		ServiceID:      serviceID,
		ProxyNumber:    proxy.Value(),
		ChallengeNonce: hex.EncodeToString(raw),
		IssuedAt:       now.Unix(),
		ExpiresAt:      now.Add(DefaultLifetime).Unix(),
		CallbackURL:    callbackURL,
	}
	if err := ch.Validate(); err != nil {
		return heshatypes.Challenge{}, err
	}
	return ch, nil
}

// Sign produces the wallet-side consent signature over a Challenge's
// canonical bytes at the given wallet timestamp (§4.8).
func Sign(userSK heshatypes.PrivateKey, ch heshatypes.Challenge, timestamp int64) string {
	sig := heshacrypto.Sign(userSK, ch.CanonicalBytes(timestamp))
	return heshacrypto.B64URLEncode(sig)
}

// VerifyResponse runs the full service-side verification (§4.8): the
// challenge must still be live, its nonce unconsumed, the wallet
// timestamp in range, the consent signature valid under the
// attestation's own user_pubkey, and the attestation itself must verify
// via the end-to-end verifier with expected_subject equal to the
// challenge's proxy number. The challenge transitions Open→Consumed
// only if every check passes; any failure transitions it to the
// terminal Rejected or Expired state, and the transition is permanent.
func VerifyResponse(ctx context.Context, resolver verifier.KeyResolver, store *Store, ch heshatypes.Challenge, resp heshatypes.ChallengeResponse, now time.Time) (verifier.Verdict, error) {
	claimed, prior := store.tryClaim(ch.ServiceID, ch.ChallengeNonce)
	if !claimed {
		switch prior {
		case heshatypes.ChallengeExpired:
			return verifier.Verdict{}, &heshatypes.Error{Kind: heshatypes.KindChallengeExpired, Context: ch.ServiceID}
		default:
			return verifier.Verdict{}, &heshatypes.Error{Kind: heshatypes.KindChallengeConsumed, Context: ch.ServiceID}
		}
	}

	reject := func(state heshatypes.ChallengeState, errOut error) (verifier.Verdict, error) {
		_ = store.finish(ch.ServiceID, ch.ChallengeNonce, state, now)
		return verifier.Verdict{}, errOut
	}

	if err := ch.Validate(); err != nil {
		return reject(heshatypes.ChallengeRejected, err)
	}
	if now.Unix() > ch.ExpiresAt {
		return reject(heshatypes.ChallengeExpired, &heshatypes.Error{Kind: heshatypes.KindChallengeExpired, Context: ch.ServiceID})
	}

	leewaySecs := int64(DefaultTimestampLeeway.Seconds())
	if resp.Timestamp < ch.IssuedAt-leewaySecs || resp.Timestamp > ch.ExpiresAt+leewaySecs {
		return reject(heshatypes.ChallengeRejected, &heshatypes.Error{Kind: heshatypes.KindMalformedClaim, Context: "timestamp outside challenge window"})
	}

	parsed, err := attestation.Parse(resp.Attestation)
	if err != nil {
		return reject(heshatypes.ChallengeRejected, err)
	}
	userPK, err := heshatypes.NewPublicKeyFromBase64(parsed.Claims.UserPubkey)
	if err != nil {
		return reject(heshatypes.ChallengeRejected, err)
	}
	sigBytes, err := heshacrypto.B64URLDecode(resp.Signature)
	if err != nil {
		return reject(heshatypes.ChallengeRejected, &heshatypes.Error{Kind: heshatypes.KindMalformedClaim, Context: "signature: base64url decode", Err: err})
	}
	if !heshacrypto.Verify(userPK, ch.CanonicalBytes(resp.Timestamp), sigBytes) {
		return reject(heshatypes.ChallengeRejected, &heshatypes.Error{Kind: heshatypes.KindBadSignature, Context: "challenge consent signature"})
	}

	verdict, err := verifier.VerifyAttestation(ctx, resolver, resp.Attestation, verifier.Options{
		ExpectedSubject: ch.ProxyNumber,
		Now:             func() time.Time { return now },
	})
	if err != nil {
		return reject(heshatypes.ChallengeRejected, err)
	}

	if err := store.finish(ch.ServiceID, ch.ChallengeNonce, heshatypes.ChallengeConsumed, now); err != nil {
		return verifier.Verdict{}, err
	}
	return verdict, nil
}
