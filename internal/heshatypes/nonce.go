package heshatypes

import (
	"encoding/hex"
	"regexp"
)

var nonceRe = regexp.MustCompile(`^[a-f0-9]{32}$`)

// Nonce is 128 bits of CSPRNG output rendered as 32 lowercase hex chars.
type Nonce struct {
	value string
}

// NewNonce validates and constructs a Nonce from its hex rendering.
func NewNonce(s string) (Nonce, error) {
	if !nonceRe.MatchString(s) {
		return Nonce{}, newErr(KindInvalidNonce, "must be 32 lowercase hex characters")
	}
	return Nonce{value: s}, nil
}

// NonceFromBytes renders 16 raw bytes as a Nonce.
func NonceFromBytes(b [16]byte) Nonce {
	return Nonce{value: hex.EncodeToString(b[:])}
}

func (n Nonce) Value() string {
	return n.value
}

func (n Nonce) IsZero() bool {
	return n.value == ""
}
