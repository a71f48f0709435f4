package heshacrypto

import "testing"

func TestSignVerifyRoundTrip(t *testing.T) {
	pk, sk, err := GenerateEd25519Keypair()
	if err != nil {
		t.Fatalf("GenerateEd25519Keypair: %v", err)
	}
	msg := []byte("hesha attestation payload")
	sig := Sign(sk, msg)
	if !Verify(pk, msg, sig) {
		t.Fatal("Verify rejected a valid signature")
	}
	if Verify(pk, []byte("tampered"), sig) {
		t.Fatal("Verify accepted a signature over the wrong message")
	}
}

func TestVerifyRejectsWrongLengthSignature(t *testing.T) {
	pk, sk, err := GenerateEd25519Keypair()
	if err != nil {
		t.Fatalf("GenerateEd25519Keypair: %v", err)
	}
	msg := []byte("msg")
	sig := Sign(sk, msg)
	if Verify(pk, msg, sig[:len(sig)-1]) {
		t.Fatal("Verify accepted a truncated signature")
	}
}

func TestSHA256KnownVector(t *testing.T) {
	got := SHA256([]byte("1234567890"))
	want := [32]byte{
		0xc7, 0x75, 0xe7, 0xb7, 0x57, 0xed, 0xe6, 0x30,
		0xcd, 0x0a, 0xa1, 0x11, 0x3b, 0xd1, 0x02, 0x66,
		0x1a, 0xb3, 0x88, 0x29, 0xca, 0x52, 0xa6, 0x42,
		0x2a, 0xb7, 0x82, 0x86, 0x2f, 0x26, 0x86, 0x46,
	}
	if got != want {
		t.Fatalf("SHA256 = %x, want %x", got, want)
	}
}

func TestB64URLRoundTrip(t *testing.T) {
	raw := []byte{0, 1, 2, 253, 254, 255}
	enc := B64URLEncode(raw)
	dec, err := B64URLDecode(enc)
	if err != nil {
		t.Fatalf("B64URLDecode: %v", err)
	}
	if string(dec) != string(raw) {
		t.Fatalf("round trip mismatch: got %v want %v", dec, raw)
	}
}

func TestB64URLDecodeRejectsPadding(t *testing.T) {
	if _, err := B64URLDecode("AAAA="); err == nil {
		t.Fatal("expected rejection of padded base64url input")
	}
}

func TestConstantTimeEqual(t *testing.T) {
	a := []byte("same-bytes")
	b := []byte("same-bytes")
	c := []byte("diff-bytes")
	if !ConstantTimeEqual(a, b) {
		t.Fatal("expected equal byte slices to compare equal")
	}
	if ConstantTimeEqual(a, c) {
		t.Fatal("expected different byte slices to compare unequal")
	}
	if ConstantTimeEqual(a, []byte("short")) {
		t.Fatal("expected different-length slices to compare unequal")
	}
}

func TestRandomBytesLength(t *testing.T) {
	b, err := RandomBytes(16)
	if err != nil {
		t.Fatalf("RandomBytes: %v", err)
	}
	if len(b) != 16 {
		t.Fatalf("len = %d, want 16", len(b))
	}
}

func TestRandomNonceFormat(t *testing.T) {
	n, err := RandomNonce()
	if err != nil {
		t.Fatalf("RandomNonce: %v", err)
	}
	if len(n.Value()) != 32 {
		t.Fatalf("nonce length = %d, want 32", len(n.Value()))
	}
}
