package heshatypes

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
)

var phoneHashRe = regexp.MustCompile(`^sha256:[a-f0-9]{64}$`)

// PhoneHash is the one-way fingerprint of a normalized phone number:
// literal prefix "sha256:" followed by 64 lowercase hex characters.
type PhoneHash struct {
	value string
}

// ComputePhoneHash derives the PhoneHash of a validated phone number.
func ComputePhoneHash(p PhoneNumber) PhoneHash {
	sum := sha256.Sum256([]byte(p.Normalized()))
	return PhoneHash{value: "sha256:" + hex.EncodeToString(sum[:])}
}

// NewPhoneHash validates and wraps an already-computed hash string, used
// when parsing a claim set off the wire.
func NewPhoneHash(s string) (PhoneHash, error) {
	if !phoneHashRe.MatchString(s) {
		return PhoneHash{}, newErr(KindInvalidHash, "must match sha256:<64 lowercase hex>")
	}
	return PhoneHash{value: s}, nil
}

func (h PhoneHash) Value() string {
	return h.value
}

func (h PhoneHash) IsZero() bool {
	return h.value == ""
}

func (h PhoneHash) Equal(other PhoneHash) bool {
	return h.value == other.value
}
