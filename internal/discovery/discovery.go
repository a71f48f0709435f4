// Package discovery resolves issuer public keys over the well-known
// HTTPS endpoint (§4.7): https://{domain}/.well-known/hesha/pubkey.json,
// cached by domain with TTL and single-flight coalescing of concurrent
// misses.
package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/heshaorg/hesha/internal/heshatypes"
)

const (
	wellKnownPath = "/.well-known/hesha/pubkey.json"

	defaultTTL    = 1 * time.Hour
	maxTTLCap     = 1 * time.Hour
	maxStaleGrace = 5 * time.Minute
	fetchTimeout  = 5 * time.Second

	retryAttempts = 3
	retryBase     = 100 * time.Millisecond
	retryMax      = 1 * time.Second
)

type cacheEntry struct {
	record    heshatypes.IssuerKeyRecord
	publicKey heshatypes.PublicKey
	fetchedAt time.Time
	expiresAt time.Time
}

func (e cacheEntry) fresh(now time.Time) bool {
	return now.Before(e.expiresAt)
}

func (e cacheEntry) withinStaleGrace(now time.Time) bool {
	return now.Before(e.expiresAt.Add(maxStaleGrace))
}

// Cache resolves and caches IssuerKeyRecord documents by issuer domain.
// It is safe for concurrent use; readers never block each other, and
// concurrent misses for the same domain coalesce into a single fetch
// via singleflight.
type Cache struct {
	httpClient *http.Client
	now        func() time.Time

	mu      sync.RWMutex
	entries map[string]cacheEntry

	group singleflight.Group
}

// NewCache builds a Cache with the default HTTP client and clock.
func NewCache() *Cache {
	return &Cache{
		httpClient: &http.Client{Timeout: fetchTimeout},
		now:        time.Now,
		entries:    make(map[string]cacheEntry),
	}
}

// Resolve returns the current public key published by domain, using a
// cached value when fresh, coalescing concurrent misses for the same
// domain, and falling back to a bounded-stale cached value if the
// network fetch fails and a prior record is still within its grace
// window.
func (c *Cache) Resolve(ctx context.Context, domain string) (heshatypes.PublicKey, heshatypes.IssuerKeyRecord, error) {
	now := c.now()

	if e, ok := c.lookup(domain); ok && e.fresh(now) {
		return e.publicKey, e.record, nil
	}

	v, err, _ := c.group.Do(domain, func() (interface{}, error) {
		return c.fetchAndStore(ctx, domain)
	})
	if err == nil {
		e := v.(cacheEntry)
		return e.publicKey, e.record, nil
	}

	if e, ok := c.lookup(domain); ok && e.withinStaleGrace(now) {
		log.Printf("hesha: discovery: serving stale issuer key for %s after fetch error: %v", domain, err)
		return e.publicKey, e.record, nil
	}

	return heshatypes.PublicKey{}, heshatypes.IssuerKeyRecord{}, &heshatypes.Error{
		Kind:    heshatypes.KindKeyDiscoveryFailed,
		Context: domain,
		Err:     err,
	}
}

func (c *Cache) lookup(domain string) (cacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[domain]
	return e, ok
}

func (c *Cache) fetchAndStore(ctx context.Context, domain string) (cacheEntry, error) {
	record, ttl, err := fetchWithRetry(ctx, c.httpClient, domain)
	if err != nil {
		return cacheEntry{}, err
	}
	pub, err := record.Validate()
	if err != nil {
		return cacheEntry{}, err
	}
	now := c.now()
	entry := cacheEntry{
		record:    record,
		publicKey: pub,
		fetchedAt: now,
		expiresAt: now.Add(ttl),
	}
	c.mu.Lock()
	c.entries[domain] = entry
	c.mu.Unlock()
	return entry, nil
}

func fetchWithRetry(ctx context.Context, client *http.Client, domain string) (heshatypes.IssuerKeyRecord, time.Duration, error) {
	delay := retryBase
	var lastErr error
	for attempt := 0; attempt < retryAttempts; attempt++ {
		if attempt > 0 {
			if err := sleepWithContext(ctx, jittered(delay)); err != nil {
				return heshatypes.IssuerKeyRecord{}, 0, err
			}
			delay *= 2
			if delay > retryMax {
				delay = retryMax
			}
		}
		record, ttl, err := fetchOnce(ctx, client, domain)
		if err == nil {
			return record, ttl, nil
		}
		lastErr = err
		// Parse/validation failures (not transport failures) are not
		// retried — a malformed document will not fix itself.
		if _, malformed := err.(*heshatypes.Error); malformed {
			return heshatypes.IssuerKeyRecord{}, 0, err
		}
		if ctx.Err() != nil {
			return heshatypes.IssuerKeyRecord{}, 0, ctx.Err()
		}
	}
	return heshatypes.IssuerKeyRecord{}, 0, lastErr
}

func fetchOnce(ctx context.Context, client *http.Client, domain string) (heshatypes.IssuerKeyRecord, time.Duration, error) {
	url := wellKnownURL(domain)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return heshatypes.IssuerKeyRecord{}, 0, fmt.Errorf("discovery: build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return heshatypes.IssuerKeyRecord{}, 0, fmt.Errorf("discovery: fetch %s: %w", domain, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return heshatypes.IssuerKeyRecord{}, 0, fmt.Errorf("discovery: fetch %s: status %d", domain, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return heshatypes.IssuerKeyRecord{}, 0, fmt.Errorf("discovery: read body: %w", err)
	}

	var record heshatypes.IssuerKeyRecord
	if err := json.Unmarshal(body, &record); err != nil {
		return heshatypes.IssuerKeyRecord{}, 0, &heshatypes.Error{Kind: heshatypes.KindKeyDiscoveryFailed, Context: "invalid JSON", Err: err}
	}

	ttl := ttlFromCacheControl(resp.Header.Get("Cache-Control"))
	return record, ttl, nil
}

// wellKnownURL builds the discovery URL, exempting localhost from the
// TLS requirement so the issuer can be exercised in local development.
func wellKnownURL(domain string) string {
	host := domain
	if h, _, err := net.SplitHostPort(domain); err == nil {
		host = h
	}
	if host == "localhost" || host == "127.0.0.1" || host == "::1" {
		return "http://" + domain + wellKnownPath
	}
	return "https://" + domain + wellKnownPath
}

// ttlFromCacheControl extracts max-age from a Cache-Control header,
// capped at maxTTLCap and defaulting to defaultTTL when absent or
// unparsable (§4.7, §9: "no hard ceiling is stated" beyond the 1-hour
// example — this implementation treats 1 hour as the hard cap).
func ttlFromCacheControl(header string) time.Duration {
	if header == "" {
		return defaultTTL
	}
	for _, directive := range strings.Split(header, ",") {
		directive = strings.TrimSpace(directive)
		if !strings.HasPrefix(directive, "max-age=") {
			continue
		}
		secs, err := strconv.Atoi(strings.TrimPrefix(directive, "max-age="))
		if err != nil || secs <= 0 {
			return defaultTTL
		}
		ttl := time.Duration(secs) * time.Second
		if ttl > maxTTLCap {
			return maxTTLCap
		}
		return ttl
	}
	return defaultTTL
}

func jittered(d time.Duration) time.Duration {
	jitter := time.Duration(rand.Int63n(int64(d) / 2))
	return d/2 + jitter
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
