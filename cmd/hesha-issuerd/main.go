// hesha-issuerd runs a Hesha Protocol issuer: it serves POST /attest and
// GET /.well-known/hesha/pubkey.json, persisting its signing key across
// restarts. The phone-ownership oracle wired here is a static in-memory
// stub suited to demos and tests, not production carrier integration.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/heshaorg/hesha/internal/config"
	"github.com/heshaorg/hesha/internal/issuer"
	"github.com/heshaorg/hesha/internal/oracle"
)

func main() {
	cfg := config.FromEnv()

	pub, priv, keyID, createdAt, err := issuer.Bootstrap(cfg.KeyPath)
	if err != nil {
		log.Fatalf("hesha-issuerd: bootstrap key: %v", err)
	}

	oc := oracle.NewStaticOracle()
	iss := issuer.New(cfg.IssuerDomain, pub, priv, keyID, oc)
	iss.ValidityWindow = cfg.ValidityWindow

	srv := issuer.NewServer(issuer.DefaultServerConfig(cfg.HTTPAddr), iss, createdAt)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("hesha-issuerd: domain=%s addr=%s key_id=%s", cfg.IssuerDomain, cfg.HTTPAddr, keyID)
	if err := srv.Start(ctx); err != nil {
		log.Fatalf("hesha-issuerd: %v", err)
	}
}
