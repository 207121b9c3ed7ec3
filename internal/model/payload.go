package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Payload is the normalized, semi-structured description of a business
// action. Keys vary by category and are never validated against a schema;
// every accessor returns a zero value instead of failing.
type Payload map[string]any

// String returns the trimmed string value for key, or "" when the key is
// missing or not a string.
func (p Payload) String(key string) string {
	if p == nil {
		return ""
	}
	if s, ok := p[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// FirstString returns the first non-empty string among keys.
func (p Payload) FirstString(keys ...string) string {
	for _, k := range keys {
		if s := p.String(k); s != "" {
			return s
		}
	}
	return ""
}

// Truthy reports whether the value for key is set to something truthy.
// Booleans are taken as-is, numbers are true when non-zero, strings parse
// as booleans when they can and otherwise count as true when non-empty,
// and collections are true when non-empty.
func (p Payload) Truthy(key string) bool {
	if p == nil {
		return false
	}
	switch v := p[key].(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		s := strings.TrimSpace(v)
		if b, err := strconv.ParseBool(s); err == nil {
			return b
		}
		return s != ""
	case []any:
		return len(v) > 0
	case []string:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	default:
		if n, ok := toFloat(v); ok {
			return n != 0
		}
		return true
	}
}

// ExplicitBool returns the boolean stored under key and whether the value
// actually is a boolean. Missing keys and non-boolean values report ok=false.
func (p Payload) ExplicitBool(key string) (value bool, ok bool) {
	if p == nil {
		return false, false
	}
	b, ok := p[key].(bool)
	return b, ok
}

// IsExplicitly reports whether key holds exactly the boolean want.
func (p Payload) IsExplicitly(key string, want bool) bool {
	b, ok := p.ExplicitBool(key)
	return ok && b == want
}

// Number returns the numeric value stored under key. Booleans and numeric
// strings are not numbers.
func (p Payload) Number(key string) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return toFloat(p[key])
}

// List returns the value under key as a list: missing or null is empty,
// a list is returned as-is and any other scalar becomes a single element.
func (p Payload) List(key string) []any {
	if p == nil {
		return []any{}
	}
	switch v := p[key].(type) {
	case nil:
		return []any{}
	case []any:
		return v
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out
	default:
		return []any{v}
	}
}

// Has reports whether key is present, even with a null value.
func (p Payload) Has(key string) bool {
	if p == nil {
		return false
	}
	_, ok := p[key]
	return ok
}

// Clone returns a shallow copy.
func (p Payload) Clone() Payload {
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// FormatNumber renders a number without a trailing ".0" for integral values.
func FormatNumber(n float64) string {
	if n == float64(int64(n)) {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// Stringify renders an arbitrary payload value as text.
func Stringify(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		if n, ok := toFloat(s); ok {
			return FormatNumber(n)
		}
		return fmt.Sprint(s)
	}
}
