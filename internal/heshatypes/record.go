package heshatypes

import (
	"strings"
	"time"
)

// IssuerKeyRecord is the document published at
// /.well-known/hesha/pubkey.json (§3, §4.7).
type IssuerKeyRecord struct {
	PublicKey string `json:"public_key"`
	Algorithm string `json:"algorithm"`
	KeyID     string `json:"key_id"`
	CreatedAt string `json:"created_at"`
}

// NewIssuerKeyRecord builds a record from a validated public key and an
// opaque key identifier.
func NewIssuerKeyRecord(pub PublicKey, keyID string, createdAt time.Time) IssuerKeyRecord {
	return IssuerKeyRecord{
		PublicKey: pub.Base64(),
		Algorithm: "Ed25519",
		KeyID:     keyID,
		CreatedAt: createdAt.UTC().Format(time.RFC3339),
	}
}

// Validate checks the record's shape and decodes its public key.
func (r IssuerKeyRecord) Validate() (PublicKey, error) {
	if r.Algorithm != "Ed25519" {
		return PublicKey{}, newErr(KindKeyDiscoveryFailed, "unsupported algorithm: "+r.Algorithm)
	}
	if strings.TrimSpace(r.KeyID) == "" {
		return PublicKey{}, newErr(KindKeyDiscoveryFailed, "key_id: required")
	}
	if _, err := time.Parse(time.RFC3339, r.CreatedAt); err != nil {
		return PublicKey{}, wrapErr(KindKeyDiscoveryFailed, "created_at: must be RFC 3339", err)
	}
	pub, err := NewPublicKeyFromBase64(r.PublicKey)
	if err != nil {
		return PublicKey{}, wrapErr(KindKeyDiscoveryFailed, "public_key", err)
	}
	return pub, nil
}
