package redact

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMap_RedactsSensitiveKeysCaseInsensitive(t *testing.T) {
	m := map[string]any{
		"Password":      "hunter2",
		"api-key":       "abc123",
		"username":      "alice",
		"Authorization": "Bearer xyz",
	}

	out := Map(m, SensitiveOnly)
	require.Equal(t, "[REDACTED]", out["Password"])
	require.Equal(t, "[REDACTED]", out["api-key"])
	require.Equal(t, "[REDACTED]", out["Authorization"])
	require.Equal(t, "alice", out["username"])
}

func TestMap_TypedTextPolicyRedactsTextFields(t *testing.T) {
	m := map[string]any{
		"text":   "my secret message",
		"value":  "42",
		"script": "document.cookie",
		"fields": map[string]any{"email": "a@b.com"},
		"action": "fill",
	}

	out := Map(m, TypedText)
	require.Equal(t, "[REDACTED]", out["text"])
	require.Equal(t, "[REDACTED]", out["value"])
	require.Equal(t, "[REDACTED]", out["script"])
	require.Equal(t, "[REDACTED]", out["fields"])
	require.Equal(t, "fill", out["action"])
}

func TestMap_SensitiveOnlyPolicyLeavesTextFieldsAlone(t *testing.T) {
	m := map[string]any{"text": "hello", "password": "hunter2"}
	out := Map(m, SensitiveOnly)
	require.Equal(t, "hello", out["text"])
	require.Equal(t, "[REDACTED]", out["password"])
}

func TestValue_RecursesIntoNestedMapsAndSlices(t *testing.T) {
	m := map[string]any{
		"fields": []any{
			map[string]any{"password": "x", "name": "a"},
			map[string]any{"password": "y", "name": "b"},
		},
	}

	out := Value(m, SensitiveOnly).(map[string]any)
	fields := out["fields"].([]any)
	require.Len(t, fields, 2)
	first := fields[0].(map[string]any)
	require.Equal(t, "[REDACTED]", first["password"])
	require.Equal(t, "a", first["name"])
}

func TestValue_NonContainerPassesThrough(t *testing.T) {
	require.Equal(t, 42, Value(42, SensitiveOnly))
	require.Equal(t, "plain", Value("plain", SensitiveOnly))
}
