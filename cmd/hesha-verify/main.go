// hesha-verify verifies a Hesha attestation token offline, discovering
// the issuer's public key over its well-known HTTPS endpoint.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/heshaorg/hesha/internal/discovery"
	"github.com/heshaorg/hesha/internal/verifier"
)

func main() {
	attestationArg := flag.String("attestation", "", "attestation token, or a file containing one")
	subject := flag.String("subject", "", "expected proxy number (sub claim); optional")
	flag.Parse()

	if *attestationArg == "" {
		fmt.Fprintln(os.Stderr, "hesha-verify: -attestation is required")
		os.Exit(1)
	}

	token := *attestationArg
	if b, err := os.ReadFile(*attestationArg); err == nil {
		token = strings.TrimSpace(string(b))
	}

	cache := discovery.NewCache()
	verdict, err := verifier.VerifyAttestation(context.Background(), cache, token, verifier.Options{
		ExpectedSubject: *subject,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "hesha-verify: FAILED: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("OK")
	fmt.Printf("issuer:      %s\n", verdict.Issuer)
	fmt.Printf("subject:     %s\n", verdict.Subject)
	fmt.Printf("user_pubkey: %s\n", verdict.UserPubkey)
	fmt.Printf("expires_at:  %d\n", verdict.ExpiresAt)
	fmt.Printf("key_id:      %s\n", verdict.KeyID)
	fmt.Printf("version:     %s\n", verdict.Version)
}
