package issuer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/heshaorg/hesha/internal/heshatypes"
)

// Server exposes the issuer's HTTP surface (§4.9, §6): POST /attest and
// GET /.well-known/hesha/pubkey.json.
type Server struct {
	httpServer  *http.Server
	issuer      *Issuer
	keyCreated  time.Time
	cacheMaxAge int
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	// CacheMaxAge is advertised on the pubkey.json response's
	// Cache-Control header (§4.9).
	CacheMaxAge int
}

// DefaultServerConfig returns conservative timeouts for a
// public-facing listener and a one-hour pubkey.json max-age.
func DefaultServerConfig(addr string) ServerConfig {
	return ServerConfig{
		Addr:         addr,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
		CacheMaxAge:  3600,
	}
}

// NewServer wires an Issuer into an HTTP listener.
func NewServer(cfg ServerConfig, iss *Issuer, keyCreated time.Time) *Server {
	mux := http.NewServeMux()
	s := &Server{
		issuer:      iss,
		keyCreated:  keyCreated,
		cacheMaxAge: cfg.CacheMaxAge,
	}
	mux.HandleFunc("/attest", s.handleAttest)
	mux.HandleFunc("/.well-known/hesha/pubkey.json", s.handlePubkey)

	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

// Start serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("hesha: issuer listening on %s", s.httpServer.Addr)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

type attestRequestBody struct {
	PhoneNumber string `json:"phone_number"`
	UserPubkey  string `json:"user_pubkey"`
	Scope       string `json:"scope"`
	Version     string `json:"version,omitempty"`
}

type attestResponseBody struct {
	ProxyNumber string `json:"proxy_number"`
	Attestation string `json:"attestation"`
	ExpiresAt   int64  `json:"expires_at"`
}

type errorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (s *Server) handleAttest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "invalid_request", "method not allowed")
		return
	}

	var body attestRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}

	result, err := s.issuer.Attest(r.Context(), AttestRequest{
		PhoneNumber: body.PhoneNumber,
		UserPubkey:  body.UserPubkey,
		Scope:       body.Scope,
		Version:     body.Version,
	})
	if err != nil {
		writeAttestError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(attestResponseBody{
		ProxyNumber: result.ProxyNumber,
		Attestation: result.Attestation,
		ExpiresAt:   result.ExpiresAt,
	})
}

func (s *Server) handlePubkey(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "invalid_request", "method not allowed")
		return
	}
	record := s.issuer.KeyRecord(s.keyCreated)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", s.cacheMaxAge))
	json.NewEncoder(w).Encode(record)
}

func writeAttestError(w http.ResponseWriter, err error) {
	herr, ok := err.(*heshatypes.Error)
	if !ok {
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	switch herr.Kind {
	case heshatypes.KindInvalidPhone:
		writeError(w, http.StatusUnprocessableEntity, "invalid_phone_number", herr.Error())
	case heshatypes.KindInvalidPublicKey:
		writeError(w, http.StatusUnprocessableEntity, "invalid_public_key", herr.Error())
	case heshatypes.KindInvalidScope:
		writeError(w, http.StatusUnprocessableEntity, "invalid_scope", herr.Error())
	case heshatypes.KindInvalidVersion:
		writeError(w, http.StatusUnprocessableEntity, "invalid_version", herr.Error())
	case heshatypes.KindVerificationDenied:
		writeError(w, http.StatusUnauthorized, "verification_failed", herr.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal", herr.Error())
	}
}

func writeError(w http.ResponseWriter, status int, code, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorBody{Error: code, ErrorDescription: description})
}
