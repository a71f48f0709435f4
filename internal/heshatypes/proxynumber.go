package heshatypes

import "regexp"

// proxyNumberRe is the strict ProxyNumber grammar (§3, §6): scope is
// 1-4 digits with no leading zero, followed by the "00" marker and
// 8-10 digits, 15 characters total at most.
var proxyNumberRe = regexp.MustCompile(`^\+[1-9]\d{0,3}00\d{8,10}$`)

// looseProxyNumberRe is the broader detection grammar from §4.2, used to
// recognize arbitrary E.164 input that might be a proxy number even
// when the stricter scope rule isn't known to apply (e.g. classifying
// third-party numbers before a Hesha-specific parse).
var looseProxyNumberRe = regexp.MustCompile(`^\+\d{1,4}00\d{8,10}$`)

// ProxyNumber is a validated E.164 proxy number of the form
// "+{scope}00{digits}".
type ProxyNumber struct {
	value string
}

// NewProxyNumber validates and constructs a ProxyNumber.
func NewProxyNumber(s string) (ProxyNumber, error) {
	if !proxyNumberRe.MatchString(s) || len(s) > 15 {
		return ProxyNumber{}, newErr(KindInvalidProxy, "must match "+proxyNumberRe.String()+" and be <=15 chars")
	}
	return ProxyNumber{value: s}, nil
}

func (p ProxyNumber) Value() string {
	return p.value
}

func (p ProxyNumber) IsZero() bool {
	return p.value == ""
}

func (p ProxyNumber) Equal(other ProxyNumber) bool {
	return p.value == other.value
}

// LooksLikeProxyNumber reports whether s matches the broader detection
// grammar, without requiring it to satisfy the strict scope rule.
func LooksLikeProxyNumber(s string) bool {
	return looseProxyNumberRe.MatchString(s) && len(s) <= 15
}
