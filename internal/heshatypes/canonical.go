package heshatypes

import (
	"encoding/json"
	"fmt"
)

// Canonicalize renders v as canonical JSON: marshal, unmarshal into a
// generic structure (which sorts map keys on re-marshal), strip nulls,
// and re-marshal. Because struct values also pass through the generic
// map form, their keys come out sorted too, not in struct field order;
// null-valued fields are dropped.
func Canonicalize(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", wrapErr(KindInternal, "canonicalize marshal", err)
	}

	var generic interface{}
	if err := json.Unmarshal(b, &generic); err != nil {
		return "", wrapErr(KindInternal, "canonicalize unmarshal", err)
	}

	stripped := stripNulls(generic)
	out, err := json.Marshal(stripped)
	if err != nil {
		return "", wrapErr(KindInternal, "canonicalize re-marshal", err)
	}
	return string(out), nil
}

// CanonicalizeBytes is like Canonicalize but returns UTF-8 bytes.
func CanonicalizeBytes(v interface{}) ([]byte, error) {
	s, err := Canonicalize(v)
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

func stripNulls(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		result := make(map[string]interface{}, len(val))
		for k, v := range val {
			if v != nil {
				result[k] = stripNulls(v)
			}
		}
		return result
	case []interface{}:
		result := make([]interface{}, len(val))
		for i, item := range val {
			result[i] = stripNulls(item)
		}
		return result
	default:
		return v
	}
}

// BindingMessage returns the unhashed canonical bytes for the binding
// proof (§4.5): pipe-joined fields terminated by the version tag.
// Callers pass the exact decimal rendering of iat.
func BindingMessage(phoneHash, userPubkeyB64, sub string, iatDecimal string, versionTag string) []byte {
	return []byte(fmt.Sprintf("%s|%s|%s|%s|%s", phoneHash, userPubkeyB64, sub, iatDecimal, versionTag))
}

// BindingVersionV2 is the only version tag current attestations use.
const BindingVersionV2 = "hesha-binding-v2"
