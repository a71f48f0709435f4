// hesha-attest requests a proxy-number attestation from an issuer's
// POST /attest endpoint.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/heshaorg/hesha/internal/heshacrypto"
	"github.com/heshaorg/hesha/internal/heshatypes"
)

func main() {
	issuer := flag.String("issuer", "", "issuer base URL, e.g. https://issuer.example.com")
	phone := flag.String("phone", "", "phone number to attest, E.164 format")
	scope := flag.String("scope", heshatypes.GlobalScope, "calling code for the proxy number")
	keyFile := flag.String("key", "", "file holding a base64url Ed25519 private key seed; generated if absent")
	out := flag.String("out", "", "file to write the attestation to (stdout if unset)")
	flag.Parse()

	if *issuer == "" || *phone == "" {
		fmt.Fprintln(os.Stderr, "hesha-attest: -issuer and -phone are required")
		os.Exit(1)
	}

	_, userSK, err := loadOrGenerateKey(*keyFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hesha-attest: %v\n", err)
		os.Exit(1)
	}
	userPubkey := userSK.Public().Base64()

	reqBody, _ := json.Marshal(map[string]string{
		"phone_number": *phone,
		"user_pubkey":  userPubkey,
		"scope":        *scope,
	})

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Post(*issuer+"/attest", "application/json", bytes.NewReader(reqBody))
	if err != nil {
		fmt.Fprintf(os.Stderr, "hesha-attest: request failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "hesha-attest: issuer returned %d: %s\n", resp.StatusCode, body)
		os.Exit(1)
	}

	if *out == "" {
		fmt.Println(string(body))
		return
	}
	if err := os.WriteFile(*out, body, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "hesha-attest: write %s: %v\n", *out, err)
		os.Exit(1)
	}
	fmt.Printf("wrote %s\n", *out)
}

func loadOrGenerateKey(path string) (heshatypes.PublicKey, heshatypes.PrivateKey, error) {
	if path == "" {
		return heshacrypto.GenerateEd25519Keypair()
	}
	b, err := os.ReadFile(path)
	if err == nil {
		seed, err := heshacrypto.B64URLDecode(string(bytesTrimNewline(b)))
		if err != nil {
			return heshatypes.PublicKey{}, heshatypes.PrivateKey{}, err
		}
		sk, err := heshatypes.NewPrivateKeyFromSeed(seed)
		if err != nil {
			return heshatypes.PublicKey{}, heshatypes.PrivateKey{}, err
		}
		return sk.Public(), sk, nil
	}
	pub, priv, err := heshacrypto.GenerateEd25519Keypair()
	if err != nil {
		return heshatypes.PublicKey{}, heshatypes.PrivateKey{}, err
	}
	_ = os.WriteFile(path, []byte(heshacrypto.B64URLEncode(priv.Seed())), 0o600)
	return pub, priv, nil
}

func bytesTrimNewline(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}
