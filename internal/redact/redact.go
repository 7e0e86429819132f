// Package redact implements input redaction for action-log persistence and
// structured logging: a case-insensitive sensitive-key walk over arbitrary
// JSON-like values, plus the "redact typed text" policy that blanks out the
// {text, value, fields, script} keys actions use to carry user-typed input.
// Grounded on the teacher's redactMap/redactValue recursive walk.
package redact

import "strings"

const redactedPlaceholder = "[REDACTED]"

// sensitiveKeys are credential-shaped keys blanked unconditionally,
// regardless of which policy is requested.
var sensitiveKeys = map[string]bool{
	"password":      true,
	"passwd":        true,
	"secret":        true,
	"token":         true,
	"api_key":       true,
	"apikey":        true,
	"private_key":   true,
	"privatekey":    true,
	"auth":          true,
	"authorization": true,
}

// typedTextKeys additionally blanks keys carrying raw user-typed input,
// applied only when Value is called with TypedText.
var typedTextKeys = map[string]bool{
	"text":   true,
	"value":  true,
	"fields": true,
	"script": true,
}

// Policy selects which additional keys get redacted beyond the always-on
// sensitive-key set.
type Policy int

const (
	// SensitiveOnly redacts only credential-shaped keys.
	SensitiveOnly Policy = iota
	// TypedText additionally redacts {text,value,fields,script} keys,
	// applied to action input before it is persisted to the action log.
	TypedText
)

func normalizeKey(k string) string {
	return strings.ToLower(strings.ReplaceAll(k, "-", "_"))
}

func shouldRedactKey(key string, policy Policy) bool {
	norm := normalizeKey(key)
	if sensitiveKeys[norm] {
		return true
	}
	return policy == TypedText && typedTextKeys[norm]
}

// Value recursively redacts any map[string]any / []any value, preserving
// structure, under the given policy.
func Value(v any, policy Policy) any {
	switch val := v.(type) {
	case map[string]any:
		return Map(val, policy)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Value(item, policy)
		}
		return out
	default:
		return v
	}
}

// Map redacts the top-level and nested keys of m matching the active
// policy, replacing their values with "[REDACTED]" rather than recursing
// into them (a redacted field's children are never meaningfully inspectable
// anyway).
func Map(m map[string]any, policy Policy) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if shouldRedactKey(k, policy) {
			out[k] = redactedPlaceholder
			continue
		}
		out[k] = Value(v, policy)
	}
	return out
}
