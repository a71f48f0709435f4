package proxyderive

import (
	"strings"
	"testing"

	"github.com/heshaorg/hesha/internal/heshatypes"
)

func mustPhone(t *testing.T, s string) heshatypes.PhoneNumber {
	t.Helper()
	p, err := heshatypes.NewPhoneNumber(s)
	if err != nil {
		t.Fatalf("NewPhoneNumber(%q): %v", s, err)
	}
	return p
}

func mustScope(t *testing.T, s string) heshatypes.Scope {
	t.Helper()
	sc, err := heshatypes.NewScope(s)
	if err != nil {
		t.Fatalf("NewScope(%q): %v", s, err)
	}
	return sc
}

func mustNonce(t *testing.T, s string) heshatypes.Nonce {
	t.Helper()
	n, err := heshatypes.NewNonce(s)
	if err != nil {
		t.Fatalf("NewNonce(%q): %v", s, err)
	}
	return n
}

const fixedPubkey = "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

func TestDeriveS1Shape(t *testing.T) {
	phone := mustPhone(t, "+1234567890")
	scope := mustScope(t, "1")
	nonce := mustNonce(t, strings.Repeat("0", 32))

	proxy, err := Derive(phone, fixedPubkey, "example.com", scope, nonce)
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	if !strings.HasPrefix(proxy.Value(), "+100") {
		t.Fatalf("proxy = %s, want prefix +100", proxy.Value())
	}
	// len(scope)=1 gives k = max(8, min(10, 15-1-3)) = 10 digits, for a
	// total length of 1 + 1 + 2 + 10 = 14.
	if len(proxy.Value()) != 14 {
		t.Fatalf("proxy length = %d, want 14", len(proxy.Value()))
	}
}

func TestDeriveS2NonceChangesDigitsNotPrefix(t *testing.T) {
	phone := mustPhone(t, "+1234567890")
	scope := mustScope(t, "1")
	zeroNonce := mustNonce(t, strings.Repeat("0", 32))
	ffNonce := mustNonce(t, strings.Repeat("f", 32))

	p1, err := Derive(phone, fixedPubkey, "example.com", scope, zeroNonce)
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	p2, err := Derive(phone, fixedPubkey, "example.com", scope, ffNonce)
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	if p1.Value() == p2.Value() {
		t.Fatal("expected different proxies for different nonces")
	}
	if !strings.HasPrefix(p1.Value(), "+100") || !strings.HasPrefix(p2.Value(), "+100") {
		t.Fatalf("proxies %s, %s: want the same +100 prefix", p1.Value(), p2.Value())
	}
	phoneHash1 := heshatypes.ComputePhoneHash(phone)
	phoneHash2 := heshatypes.ComputePhoneHash(phone)
	if phoneHash1.Value() != phoneHash2.Value() {
		t.Fatal("phone_hash must be independent of nonce")
	}
}

func TestDeriveIsDeterministic(t *testing.T) {
	phone := mustPhone(t, "+19998887777")
	scope := mustScope(t, "44")
	nonce := mustNonce(t, "a1b2c3d4e5f60718293a4b5c6d7e8f90")

	p1, err := Derive(phone, fixedPubkey, "issuer.test", scope, nonce)
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	p2, err := Derive(phone, fixedPubkey, "issuer.test", scope, nonce)
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	if p1.Value() != p2.Value() {
		t.Fatalf("non-deterministic derivation: %s != %s", p1.Value(), p2.Value())
	}
}

func TestClampDigitCountByScopeLength(t *testing.T) {
	cases := []struct {
		scopeLen int
		want     int
	}{
		{1, 10},
		{2, 10},
		{3, 9},
		{4, 8},
	}
	for _, c := range cases {
		if got := clampDigitCount(c.scopeLen); got != c.want {
			t.Errorf("clampDigitCount(%d) = %d, want %d", c.scopeLen, got, c.want)
		}
	}
}

func TestDeriveRejectsBadHexDigest(t *testing.T) {
	if _, err := hexNibble('g'); err == nil {
		t.Fatal("expected error for non-hex character")
	}
}
