// Package verifier implements end-to-end attestation verification
// (§4.6): parse, resolve the issuer key, verify the token signature,
// verify the binding proof, check temporal validity, and optionally
// check the expected subject.
package verifier

import (
	"context"
	"time"

	"github.com/heshaorg/hesha/internal/attestation"
	"github.com/heshaorg/hesha/internal/binding"
	"github.com/heshaorg/hesha/internal/heshatypes"
)

// DefaultClockSkewLeeway is the default tolerance applied to iat (§4.6).
const DefaultClockSkewLeeway = 60 * time.Second

// Verdict carries the fields a caller needs after a successful
// verification (§4.6 step 8, §9: modeled as a tagged variant rather
// than via reflection).
type Verdict struct {
	Issuer     string
	Subject    string
	UserPubkey string
	ExpiresAt  int64
	KeyID      string
	// Version is the claim set's version field, surfaced as-is. An
	// unrecognized value does not fail verification (§7 open question
	// (c)) — callers apply their own policy against it.
	Version string
}

// KeyResolver resolves the current public key published by an issuer
// domain. *discovery.Cache satisfies this.
type KeyResolver interface {
	Resolve(ctx context.Context, domain string) (heshatypes.PublicKey, heshatypes.IssuerKeyRecord, error)
}

// Options configures a verification call.
type Options struct {
	// ExpectedSubject, if non-empty, must equal the claims' sub field.
	ExpectedSubject string
	// Now defaults to time.Now if unset.
	Now func() time.Time
	// ClockSkewLeeway defaults to DefaultClockSkewLeeway if zero.
	ClockSkewLeeway time.Duration
}

// VerifyAttestation runs the full verification pipeline against a
// signed token and returns a Verdict or a *heshatypes.Error describing
// the first failure encountered.
func VerifyAttestation(ctx context.Context, resolver KeyResolver, token string, opts Options) (Verdict, error) {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	leeway := DefaultClockSkewLeeway
	if opts.ClockSkewLeeway != 0 {
		leeway = opts.ClockSkewLeeway
	}

	parsed, err := attestation.Parse(token)
	if err != nil {
		return Verdict{}, err
	}
	claims := parsed.Claims

	issuerPK, record, err := resolver.Resolve(ctx, claims.Issuer)
	if err != nil {
		return Verdict{}, err
	}

	if !attestation.VerifySignature(parsed, issuerPK) {
		return Verdict{}, &heshatypes.Error{Kind: heshatypes.KindBadSignature, Context: claims.Issuer}
	}

	phoneHash, err := heshatypes.NewPhoneHash(claims.PhoneHash)
	if err != nil {
		return Verdict{}, wrapMalformed("phone_hash", err)
	}
	sub, err := heshatypes.NewProxyNumber(claims.Subject)
	if err != nil {
		return Verdict{}, wrapMalformed("sub", err)
	}
	fields := binding.Fields{
		PhoneHash:       phoneHash,
		UserPubkeyB64:   claims.UserPubkey,
		ProxyNumber:     sub,
		IssuedAtDecimal: claims.IssuedAtDecimal(),
	}
	if !binding.Verify(issuerPK, fields, claims.BindingProof) {
		return Verdict{}, &heshatypes.Error{Kind: heshatypes.KindBadBinding, Context: claims.Issuer}
	}

	t := now()
	if t.Before(time.Unix(claims.IssuedAt, 0).Add(-leeway)) {
		return Verdict{}, &heshatypes.Error{Kind: heshatypes.KindNotYetValid, Context: claims.Issuer}
	}
	if !t.Before(time.Unix(claims.ExpiresAt, 0)) {
		return Verdict{}, &heshatypes.Error{Kind: heshatypes.KindExpired, Context: claims.Issuer}
	}

	if opts.ExpectedSubject != "" && claims.Subject != opts.ExpectedSubject {
		return Verdict{}, &heshatypes.Error{Kind: heshatypes.KindSubjectMismatch, Context: claims.Issuer}
	}

	if _, err := heshatypes.NewNonce(claims.Nonce); err != nil {
		return Verdict{}, wrapMalformed("nonce", err)
	}

	return Verdict{
		Issuer:     claims.Issuer,
		Subject:    claims.Subject,
		UserPubkey: claims.UserPubkey,
		ExpiresAt:  claims.ExpiresAt,
		KeyID:      record.KeyID,
		Version:    claims.Version,
	}, nil
}

func wrapMalformed(field string, err error) *heshatypes.Error {
	return &heshatypes.Error{Kind: heshatypes.KindMalformedClaim, Context: field, Err: err}
}
