package logger

import (
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"
)

const redacted = "[REDACTED]"

// Access links grant unauthenticated reads and recipients are personal data,
// so any key naming one is redacted.
var redactKeyParts = []string{
	"token", "authorization", "password", "secret", "api_key", "apikey", "email", "recipient_name",
}

var hashKeyParts = []string{"user_id"}

type redactor struct {
	enabled bool
	salt    string
	key     []byte
}

// blake2b keys are limited to 64 bytes; longer salts are folded first.
func newRedactor(o options) *redactor {
	key := []byte(o.hashSalt)
	if len(key) > blake2b.Size {
		sum := blake2b.Sum512(key)
		key = sum[:]
	}
	return &redactor{enabled: o.redaction, salt: o.hashSalt, key: key}
}

func (r *redactor) kvs(kv []any) []any {
	if r == nil || !r.enabled || len(kv) == 0 {
		return kv
	}
	out := make([]any, 0, len(kv))
	for i := 0; i < len(kv); i += 2 {
		if i == len(kv)-1 {
			out = append(out, kv[i])
			break
		}
		key := toString(kv[i])
		out = append(out, key, r.value(normalizeKey(key), kv[i+1]))
	}
	return out
}

func (r *redactor) value(key string, val any) any {
	switch {
	case key == "":
		return val
	case containsAny(key, redactKeyParts):
		return redacted
	case containsAny(key, hashKeyParts):
		return r.hash(val)
	}
	if m, ok := val.(map[string]any); ok {
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[k] = r.value(normalizeKey(k), v)
		}
		return out
	}
	return val
}

func (r *redactor) hash(val any) string {
	raw := toString(val)
	if raw == "" {
		return ""
	}
	h, err := blake2b.New256(r.key)
	if err != nil {
		return redacted
	}
	h.Write([]byte(raw))
	return "hash:" + hex.EncodeToString(h.Sum(nil))[:12]
}

func normalizeKey(k string) string {
	return strings.ToLower(strings.TrimSpace(k))
}

func containsAny(s string, parts []string) bool {
	for _, p := range parts {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case fmt.Stringer:
		return t.String()
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
