// Package oracle defines the phone-ownership oracle boundary (§1
// Non-goals: "phone-ownership verification mechanism, treated as an
// opaque oracle") and a trivial in-memory implementation useful for
// local demos and tests. A production issuer wires in its own
// implementation backed by SMS/OTP, carrier lookup, or similar —
// none of that belongs in the protocol core.
package oracle

import (
	"context"
	"sync"

	"github.com/heshaorg/hesha/internal/heshatypes"
)

// PhoneOwnershipOracle asserts whether the caller currently has
// out-of-band proof of ownership of phone. Implementations may block
// on an external system; callers MUST bound the call (§5 suggests 10s).
type PhoneOwnershipOracle interface {
	AssertOwnership(ctx context.Context, phone heshatypes.PhoneNumber) error
}

// StaticOracle is a trivial in-memory oracle that treats a
// pre-registered set of phone numbers as owned and everything else as
// unverified. It exists for demos and tests only — it has no
// out-of-band verification step and must never back a real issuer.
type StaticOracle struct {
	mu    sync.RWMutex
	owned map[string]bool
}

// NewStaticOracle builds a StaticOracle that treats the given phone
// numbers as already verified.
func NewStaticOracle(verified ...heshatypes.PhoneNumber) *StaticOracle {
	o := &StaticOracle{owned: make(map[string]bool, len(verified))}
	for _, p := range verified {
		o.owned[p.Value()] = true
	}
	return o
}

// Register marks phone as owned, as if an out-of-band check had just
// succeeded.
func (o *StaticOracle) Register(phone heshatypes.PhoneNumber) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.owned[phone.Value()] = true
}

// AssertOwnership implements PhoneOwnershipOracle.
func (o *StaticOracle) AssertOwnership(ctx context.Context, phone heshatypes.PhoneNumber) error {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if !o.owned[phone.Value()] {
		return &heshatypes.Error{Kind: heshatypes.KindVerificationDenied, Context: "phone not registered with static oracle"}
	}
	return nil
}
