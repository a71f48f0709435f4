// hesha-keygen generates a new Ed25519 keypair for use with the Hesha
// Protocol, printed in one of a few wire-compatible encodings.
package main

import (
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/heshaorg/hesha/internal/heshacrypto"
)

func main() {
	format := flag.String("f", "json", "output format: json, hex, base64")
	flag.Parse()

	pub, priv, err := heshacrypto.GenerateEd25519Keypair()
	if err != nil {
		fmt.Fprintf(os.Stderr, "hesha-keygen: %v\n", err)
		os.Exit(1)
	}

	switch *format {
	case "json":
		out := map[string]string{
			"public_key":  pub.Base64(),
			"private_key": heshacrypto.B64URLEncode(priv.Seed()),
		}
		b, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(b))
	case "hex":
		fmt.Printf("Public:  %s\n", hex.EncodeToString(pub.Bytes()))
		fmt.Printf("Private: %s\n", hex.EncodeToString(priv.Seed()))
	case "base64":
		fmt.Printf("Public:  %s\n", pub.Base64())
		fmt.Printf("Private: %s\n", heshacrypto.B64URLEncode(priv.Seed()))
	default:
		fmt.Fprintf(os.Stderr, "hesha-keygen: unknown format %q (want json, hex, or base64)\n", *format)
		os.Exit(1)
	}
}
