package heshatypes

import "regexp"

var scopeRe = regexp.MustCompile(`^[1-9]\d{0,3}$`)

// Scope is a 1-4 digit country calling code, independent of the real
// phone's own country code.
type Scope struct {
	value string
}

// NewScope validates and constructs a Scope.
func NewScope(s string) (Scope, error) {
	if !scopeRe.MatchString(s) {
		return Scope{}, newErr(KindInvalidScope, "must match "+scopeRe.String())
	}
	return Scope{value: s}, nil
}

func (s Scope) Value() string {
	return s.value
}

func (s Scope) IsZero() bool {
	return s.value == ""
}

// GlobalScope is the issuer-chosen default calling code used by CLI/demo
// tooling that does not request a specific local scope, matching the
// original implementation's "+990..." global proxy convention.
const GlobalScope = "99"
