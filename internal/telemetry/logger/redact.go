package logger

import (
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// Sensitive key patterns that should be redacted.
var sensitiveKeyPatterns = []string{
	"password",
	"passwd",
	"secret",
	"token",
	"key",
	"credential",
	"auth",
	"bearer",
}

// redactedValue is the placeholder for redacted sensitive data.
const redactedValue = "***REDACTED***"

// redactArgs returns a copy of a key/value argument list with sensitive
// values replaced. Standalone zap.Field arguments pass through untouched.
func redactArgs(args []any) []any {
	if len(args) == 0 {
		return args
	}

	out := make([]any, len(args))
	copy(out, args)

	for i := 0; i < len(out); i++ {
		if _, ok := out[i].(zap.Field); ok {
			continue
		}
		if i+1 >= len(out) {
			break
		}
		if key, ok := out[i].(string); ok {
			out[i+1] = redactValue(key, out[i+1])
		}
		i++
	}
	return out
}

// redactValue redacts a single value given the key it is logged under.
// Any non-empty value under a sensitive key is replaced, whatever its type;
// URL masking applies to strings only.
func redactValue(key string, v any) any {
	if IsSensitiveKey(key) {
		if v == nil || v == "" {
			return v
		}
		return redactedValue
	}

	if s, ok := v.(string); ok {
		return RedactURL(s)
	}
	return v
}

// RedactURL masks the password of a URL-shaped value such as a database DSN.
// Values that are not URLs, or carry no password, are returned unchanged.
func RedactURL(value string) string {
	if !strings.Contains(value, "://") {
		return value
	}
	u, err := url.Parse(value)
	if err != nil || u.User == nil {
		return value
	}
	if _, ok := u.User.Password(); !ok {
		return value
	}
	return u.Redacted()
}

// IsSensitiveKey checks if a key name suggests sensitive content.
// Dotted configuration paths are matched on their full text.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}
