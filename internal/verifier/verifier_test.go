package verifier

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/heshaorg/hesha/internal/attestation"
	"github.com/heshaorg/hesha/internal/binding"
	"github.com/heshaorg/hesha/internal/heshacrypto"
	"github.com/heshaorg/hesha/internal/heshatypes"
	"github.com/heshaorg/hesha/internal/proxyderive"
)

type fakeResolver struct {
	pub   heshatypes.PublicKey
	rec   heshatypes.IssuerKeyRecord
	err   error
	calls int
}

func (f *fakeResolver) Resolve(ctx context.Context, domain string) (heshatypes.PublicKey, heshatypes.IssuerKeyRecord, error) {
	f.calls++
	return f.pub, f.rec, f.err
}

func buildSignedAttestation(t *testing.T, issuerPK heshatypes.PublicKey, issuerSK heshatypes.PrivateKey, iat int64) (string, heshatypes.ProxyNumber) {
	t.Helper()
	phone, err := heshatypes.NewPhoneNumber("+1234567890")
	if err != nil {
		t.Fatalf("NewPhoneNumber: %v", err)
	}
	userPK, _, err := heshacrypto.GenerateEd25519Keypair()
	if err != nil {
		t.Fatalf("GenerateEd25519Keypair: %v", err)
	}
	scope, err := heshatypes.NewScope("1")
	if err != nil {
		t.Fatalf("NewScope: %v", err)
	}
	nonce, err := heshacrypto.RandomNonce()
	if err != nil {
		t.Fatalf("RandomNonce: %v", err)
	}
	proxy, err := proxyderive.Derive(phone, userPK.Base64(), "example.com", scope, nonce)
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	phoneHash := heshatypes.ComputePhoneHash(phone)

	claims := heshatypes.Claims{
		Issuer:     "example.com",
		Subject:    proxy.Value(),
		IssuedAt:   iat,
		ExpiresAt:  iat + 365*86400,
		ID:         "22222222-2222-2222-2222-222222222222",
		PhoneHash:  phoneHash.Value(),
		UserPubkey: userPK.Base64(),
		Nonce:      nonce.Value(),
	}
	claims.BindingProof = binding.Sign(issuerSK, binding.Fields{
		PhoneHash:       phoneHash,
		UserPubkeyB64:   userPK.Base64(),
		ProxyNumber:     proxy,
		IssuedAtDecimal: claims.IssuedAtDecimal(),
	})

	token, err := attestation.Build(claims, issuerSK)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return token, proxy
}

func TestVerifyAttestationOk(t *testing.T) {
	issuerPK, issuerSK, err := heshacrypto.GenerateEd25519Keypair()
	if err != nil {
		t.Fatalf("GenerateEd25519Keypair: %v", err)
	}
	now := time.Unix(1700000000, 0)
	token, proxy := buildSignedAttestation(t, issuerPK, issuerSK, now.Unix())

	resolver := &fakeResolver{pub: issuerPK, rec: heshatypes.IssuerKeyRecord{KeyID: "k1"}}
	verdict, err := VerifyAttestation(context.Background(), resolver, token, Options{Now: func() time.Time { return now.Add(time.Minute) }})
	if err != nil {
		t.Fatalf("VerifyAttestation: %v", err)
	}
	if verdict.Subject != proxy.Value() {
		t.Fatalf("verdict.Subject = %s, want %s", verdict.Subject, proxy.Value())
	}
	if verdict.KeyID != "k1" {
		t.Fatalf("verdict.KeyID = %s, want k1", verdict.KeyID)
	}
}

func TestVerifyAttestationSurfacesUnrecognizedVersion(t *testing.T) {
	issuerPK, issuerSK, err := heshacrypto.GenerateEd25519Keypair()
	if err != nil {
		t.Fatalf("GenerateEd25519Keypair: %v", err)
	}
	now := time.Unix(1700000000, 0)

	phone, err := heshatypes.NewPhoneNumber("+1234567890")
	if err != nil {
		t.Fatalf("NewPhoneNumber: %v", err)
	}
	userPK, _, err := heshacrypto.GenerateEd25519Keypair()
	if err != nil {
		t.Fatalf("GenerateEd25519Keypair: %v", err)
	}
	scope, err := heshatypes.NewScope("1")
	if err != nil {
		t.Fatalf("NewScope: %v", err)
	}
	nonce, err := heshacrypto.RandomNonce()
	if err != nil {
		t.Fatalf("RandomNonce: %v", err)
	}
	proxy, err := proxyderive.Derive(phone, userPK.Base64(), "example.com", scope, nonce)
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	phoneHash := heshatypes.ComputePhoneHash(phone)

	claims := heshatypes.Claims{
		Issuer:     "example.com",
		Subject:    proxy.Value(),
		IssuedAt:   now.Unix(),
		ExpiresAt:  now.Unix() + 365*86400,
		ID:         "33333333-3333-3333-3333-333333333333",
		PhoneHash:  phoneHash.Value(),
		UserPubkey: userPK.Base64(),
		Nonce:      nonce.Value(),
		Version:    "0.9-legacy",
	}
	claims.BindingProof = binding.Sign(issuerSK, binding.Fields{
		PhoneHash:       phoneHash,
		UserPubkeyB64:   userPK.Base64(),
		ProxyNumber:     proxy,
		IssuedAtDecimal: claims.IssuedAtDecimal(),
	})
	token, err := attestation.Build(claims, issuerSK)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	resolver := &fakeResolver{pub: issuerPK, rec: heshatypes.IssuerKeyRecord{KeyID: "k1"}}
	verdict, err := VerifyAttestation(context.Background(), resolver, token, Options{Now: func() time.Time { return now.Add(time.Minute) }})
	if err != nil {
		t.Fatalf("VerifyAttestation: %v, want acceptance of unrecognized version", err)
	}
	if verdict.Version != "0.9-legacy" {
		t.Fatalf("verdict.Version = %q, want %q", verdict.Version, "0.9-legacy")
	}
}

func TestVerifyAttestationRejectsMutatedPayload(t *testing.T) {
	issuerPK, issuerSK, err := heshacrypto.GenerateEd25519Keypair()
	if err != nil {
		t.Fatalf("GenerateEd25519Keypair: %v", err)
	}
	now := time.Unix(1700000000, 0)
	token, _ := buildSignedAttestation(t, issuerPK, issuerSK, now.Unix())

	parts := strings.Split(token, ".")
	parts[1] = parts[1] + "xx"
	mutated := strings.Join(parts, ".")

	resolver := &fakeResolver{pub: issuerPK, rec: heshatypes.IssuerKeyRecord{KeyID: "k1"}}
	_, err = VerifyAttestation(context.Background(), resolver, mutated, Options{Now: func() time.Time { return now }})
	if err == nil {
		t.Fatal("expected verification failure for mutated payload")
	}
}

func TestVerifyAttestationRejectsBadBindingVersion(t *testing.T) {
	issuerPK, issuerSK, err := heshacrypto.GenerateEd25519Keypair()
	if err != nil {
		t.Fatalf("GenerateEd25519Keypair: %v", err)
	}
	now := time.Unix(1700000000, 0)
	token, _ := buildSignedAttestation(t, issuerPK, issuerSK, now.Unix())

	parsed, err := attestation.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	claims := parsed.Claims
	phoneHash, _ := heshatypes.NewPhoneHash(claims.PhoneHash)
	sub, _ := heshatypes.NewProxyNumber(claims.Subject)
	legacyMessage := heshatypes.BindingMessage(phoneHash.Value(), claims.UserPubkey, sub.Value(), claims.IssuedAtDecimal(), "hesha-binding-v1")
	digest := heshacrypto.SHA256(legacyMessage)
	legacyProof := "sig:" + heshacrypto.B64URLEncode(heshacrypto.Sign(issuerSK, digest[:]))

	claims.BindingProof = legacyProof
	rebuilt, err := attestation.Build(claims, issuerSK)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	resolver := &fakeResolver{pub: issuerPK, rec: heshatypes.IssuerKeyRecord{KeyID: "k1"}}
	_, err = VerifyAttestation(context.Background(), resolver, rebuilt, Options{Now: func() time.Time { return now }})
	herr, ok := err.(*heshatypes.Error)
	if !ok || herr.Kind != heshatypes.KindBadBinding {
		t.Fatalf("expected BadBinding, got %v", err)
	}
}

func TestVerifyAttestationRejectsExpired(t *testing.T) {
	issuerPK, issuerSK, err := heshacrypto.GenerateEd25519Keypair()
	if err != nil {
		t.Fatalf("GenerateEd25519Keypair: %v", err)
	}
	now := time.Unix(1700000000, 0)
	token, _ := buildSignedAttestation(t, issuerPK, issuerSK, now.Unix())

	resolver := &fakeResolver{pub: issuerPK, rec: heshatypes.IssuerKeyRecord{KeyID: "k1"}}
	future := now.Add(366 * 24 * time.Hour)
	_, err = VerifyAttestation(context.Background(), resolver, token, Options{Now: func() time.Time { return future }})
	herr, ok := err.(*heshatypes.Error)
	if !ok || herr.Kind != heshatypes.KindExpired {
		t.Fatalf("expected Expired, got %v", err)
	}
}

func TestVerifyAttestationSubjectMismatch(t *testing.T) {
	issuerPK, issuerSK, err := heshacrypto.GenerateEd25519Keypair()
	if err != nil {
		t.Fatalf("GenerateEd25519Keypair: %v", err)
	}
	now := time.Unix(1700000000, 0)
	token, _ := buildSignedAttestation(t, issuerPK, issuerSK, now.Unix())

	resolver := &fakeResolver{pub: issuerPK, rec: heshatypes.IssuerKeyRecord{KeyID: "k1"}}
	_, err = VerifyAttestation(context.Background(), resolver, token, Options{
		Now:             func() time.Time { return now },
		ExpectedSubject: "+19990000000",
	})
	herr, ok := err.(*heshatypes.Error)
	if !ok || herr.Kind != heshatypes.KindSubjectMismatch {
		t.Fatalf("expected SubjectMismatch, got %v", err)
	}
}
