// Package issuer implements the issuer's core logic (C9): validating
// /attest requests, invoking the phone-ownership oracle, deriving the
// proxy number, and building the signed attestation. It also owns
// issuer key bootstrap and persistence — generating a keypair once and
// reusing it across restarts.
package issuer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/heshaorg/hesha/internal/attestation"
	"github.com/heshaorg/hesha/internal/binding"
	"github.com/heshaorg/hesha/internal/heshacrypto"
	"github.com/heshaorg/hesha/internal/heshatypes"
	"github.com/heshaorg/hesha/internal/oracle"
	"github.com/heshaorg/hesha/internal/proxyderive"
)

// DefaultValidityWindow is the attestation lifetime New assigns to
// Issuer.ValidityWindow (§3: "typically iat + 365·86400").
const DefaultValidityWindow = 365 * 24 * time.Hour

// Issuer holds the issuer's signing key, domain, and collaborators
// needed to service /attest requests. All fields are read-only after
// construction and safe to share across concurrent workers (§5).
type Issuer struct {
	Domain         string
	PublicKey      heshatypes.PublicKey
	privateKey     heshatypes.PrivateKey
	KeyID          string
	Oracle         oracle.PhoneOwnershipOracle
	ValidityWindow time.Duration
	Now            func() time.Time
}

// AttestRequest mirrors the POST /attest request body (§6). Version is
// optional; an empty value is treated as SupportedVersion so existing
// callers that predate version negotiation keep working, matching the
// original issuer-node's own version gate (`attest.rs`: reject any
// mismatched version, not just a missing one).
type AttestRequest struct {
	PhoneNumber string
	UserPubkey  string
	Scope       string
	Version     string
}

// AttestResult mirrors the POST /attest success response body (§6).
type AttestResult struct {
	ProxyNumber string
	Attestation string
	ExpiresAt   int64
}

// New builds an Issuer from an already-loaded or freshly generated
// keypair.
func New(domain string, pub heshatypes.PublicKey, priv heshatypes.PrivateKey, keyID string, oc oracle.PhoneOwnershipOracle) *Issuer {
	return &Issuer{
		Domain:         domain,
		PublicKey:      pub,
		privateKey:     priv,
		KeyID:          keyID,
		Oracle:         oc,
		ValidityWindow: DefaultValidityWindow,
		Now:            time.Now,
	}
}

// Attest runs the full /attest pipeline (§4.9): validate inputs, invoke
// the oracle, derive the proxy, compute phone_hash, sign the binding
// proof, and build the token. The sequence oracle→derive→sign is
// strict within a single call; concurrent calls are independent since
// each uses a fresh nonce.
func (iss *Issuer) Attest(ctx context.Context, req AttestRequest) (AttestResult, error) {
	version := req.Version
	if version == "" {
		version = heshatypes.SupportedVersion
	}
	if version != heshatypes.SupportedVersion {
		return AttestResult{}, &heshatypes.Error{Kind: heshatypes.KindInvalidVersion, Context: "only version " + heshatypes.SupportedVersion + " is supported"}
	}

	phone, err := heshatypes.NewPhoneNumber(req.PhoneNumber)
	if err != nil {
		return AttestResult{}, err
	}
	userPK, err := heshatypes.NewPublicKeyFromBase64(req.UserPubkey)
	if err != nil {
		return AttestResult{}, err
	}
	scope, err := heshatypes.NewScope(req.Scope)
	if err != nil {
		return AttestResult{}, err
	}

	oracleCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	err = iss.Oracle.AssertOwnership(oracleCtx, phone)
	cancel()
	if err != nil {
		return AttestResult{}, err
	}

	nonce, err := heshacrypto.RandomNonce()
	if err != nil {
		return AttestResult{}, fmt.Errorf("issuer: random nonce: %w", err)
	}
	proxy, err := proxyderive.Derive(phone, userPK.Base64(), iss.Domain, scope, nonce)
	if err != nil {
		return AttestResult{}, err
	}
	phoneHash := heshatypes.ComputePhoneHash(phone)

	now := iss.Now()
	iat := now.Unix()
	exp := now.Add(iss.ValidityWindow).Unix()

	claims := heshatypes.Claims{
		Issuer:     iss.Domain,
		Subject:    proxy.Value(),
		IssuedAt:   iat,
		ExpiresAt:  exp,
		ID:         uuid.NewString(),
		PhoneHash:  phoneHash.Value(),
		UserPubkey: userPK.Base64(),
		Nonce:      nonce.Value(),
		Version:    version,
	}
	claims.BindingProof = binding.Sign(iss.privateKey, binding.Fields{
		PhoneHash:       phoneHash,
		UserPubkeyB64:   userPK.Base64(),
		ProxyNumber:     proxy,
		IssuedAtDecimal: claims.IssuedAtDecimal(),
	})

	token, err := attestation.Build(claims, iss.privateKey)
	if err != nil {
		return AttestResult{}, err
	}

	return AttestResult{
		ProxyNumber: proxy.Value(),
		Attestation: token,
		ExpiresAt:   exp,
	}, nil
}

// KeyRecord returns the IssuerKeyRecord this issuer publishes at
// /.well-known/hesha/pubkey.json.
func (iss *Issuer) KeyRecord(createdAt time.Time) heshatypes.IssuerKeyRecord {
	return heshatypes.NewIssuerKeyRecord(iss.PublicKey, iss.KeyID, createdAt)
}

// persistedKey is the on-disk bootstrap record: the issuer's own
// keypair and opaque key_id, generated once and reused across restarts.
type persistedKey struct {
	PublicKey  string    `json:"public_key"`
	PrivateKey string    `json:"private_key_seed"`
	KeyID      string    `json:"key_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// Bootstrap loads the issuer keypair from path, generating and
// persisting a fresh one on first run.
func Bootstrap(path string) (heshatypes.PublicKey, heshatypes.PrivateKey, string, time.Time, error) {
	if b, err := os.ReadFile(path); err == nil {
		var pk persistedKey
		if err := json.Unmarshal(b, &pk); err != nil {
			return heshatypes.PublicKey{}, heshatypes.PrivateKey{}, "", time.Time{}, fmt.Errorf("issuer: parse key file: %w", err)
		}
		seed, err := heshacrypto.B64URLDecode(pk.PrivateKey)
		if err != nil {
			return heshatypes.PublicKey{}, heshatypes.PrivateKey{}, "", time.Time{}, fmt.Errorf("issuer: decode seed: %w", err)
		}
		priv, err := heshatypes.NewPrivateKeyFromSeed(seed)
		if err != nil {
			return heshatypes.PublicKey{}, heshatypes.PrivateKey{}, "", time.Time{}, err
		}
		return priv.Public(), priv, pk.KeyID, pk.CreatedAt, nil
	}

	pub, priv, err := heshacrypto.GenerateEd25519Keypair()
	if err != nil {
		return heshatypes.PublicKey{}, heshatypes.PrivateKey{}, "", time.Time{}, err
	}
	keyID := uuid.NewString()
	createdAt := time.Now().UTC()
	record := persistedKey{
		PublicKey:  pub.Base64(),
		PrivateKey: heshacrypto.B64URLEncode(priv.Seed()),
		KeyID:      keyID,
		CreatedAt:  createdAt,
	}
	b, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return heshatypes.PublicKey{}, heshatypes.PrivateKey{}, "", time.Time{}, fmt.Errorf("issuer: marshal key file: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return heshatypes.PublicKey{}, heshatypes.PrivateKey{}, "", time.Time{}, fmt.Errorf("issuer: write key file: %w", err)
	}
	return pub, priv, keyID, createdAt, nil
}
