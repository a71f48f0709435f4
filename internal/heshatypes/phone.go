package heshatypes

import "regexp"

var phoneRe = regexp.MustCompile(`^\+[1-9]\d{6,14}$`)

// PhoneNumber is a validated E.164 real phone number. It is never logged
// and has no Stringer implementation for that reason — callers that need
// the raw value for hashing or derivation use Value().
type PhoneNumber struct {
	value string
}

// NewPhoneNumber validates and constructs a PhoneNumber. Input must be
// exactly "+" followed by 7-15 decimal digits, first digit non-zero; no
// whitespace or alternative separators are tolerated.
func NewPhoneNumber(s string) (PhoneNumber, error) {
	if !phoneRe.MatchString(s) {
		return PhoneNumber{}, newErr(KindInvalidPhone, "must match "+phoneRe.String())
	}
	return PhoneNumber{value: s}, nil
}

// Value returns the canonical "+digits" form.
func (p PhoneNumber) Value() string {
	return p.value
}

// Normalized returns the decimal-digits-only form used as hashing input.
func (p PhoneNumber) Normalized() string {
	return p.value[1:]
}

func (p PhoneNumber) IsZero() bool {
	return p.value == ""
}
