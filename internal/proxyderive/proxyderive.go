// Package proxyderive implements the deterministic proxy-number
// derivation algorithm (§4.3): identical inputs yield identical output
// byte-for-byte, on every call, process, and platform.
package proxyderive

import (
	"fmt"

	"github.com/heshaorg/hesha/internal/heshacrypto"
	"github.com/heshaorg/hesha/internal/heshatypes"
)

// digitsToProduce bounds the hex-digit walk (step 3): at most 20
// decimal digits are ever needed since the widest scope (1 digit)
// still only requires 10.
const digitsToProduce = 20

// Derive computes the proxy number for (phone, userPubkey, issuerDomain,
// scope, nonce). All inputs must already be validated domain values;
// this function performs no normalization of its own beyond what §4.3
// specifies.
func Derive(phone heshatypes.PhoneNumber, userPubkeyB64 string, issuerDomain string, scope heshatypes.Scope, nonce heshatypes.Nonce) (heshatypes.ProxyNumber, error) {
	input := phone.Value() + "|" + userPubkeyB64 + "|" + issuerDomain + "|" + scope.Value() + "|" + nonce.Value()
	sum := heshacrypto.SHA256([]byte(input))
	hexDigest := fmt.Sprintf("%x", sum)

	digits := make([]byte, 0, digitsToProduce)
	for i := 0; i < len(hexDigest) && len(digits) < digitsToProduce; i++ {
		v, err := hexNibble(hexDigest[i])
		if err != nil {
			return heshatypes.ProxyNumber{}, err
		}
		digits = append(digits, '0'+v%10)
	}

	k := clampDigitCount(len(scope.Value()))
	if k > len(digits) {
		k = len(digits)
	}
	candidate := "+" + scope.Value() + "00" + string(digits[:k])
	if len(candidate) > 15 {
		return heshatypes.ProxyNumber{}, &heshatypes.Error{Kind: heshatypes.KindProxyOverflow, Context: "derived proxy exceeds 15 characters"}
	}

	return heshatypes.NewProxyNumber(candidate)
}

// clampDigitCount implements k = max(8, min(10, 15 - len(scope) - 3)).
func clampDigitCount(scopeLen int) int {
	k := 15 - scopeLen - 3
	if k > 10 {
		k = 10
	}
	if k < 8 {
		k = 8
	}
	return k
}

func hexNibble(c byte) (byte, error) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, nil
	default:
		return 0, &heshatypes.Error{Kind: heshatypes.KindInternal, Context: "non-hex digest character"}
	}
}
