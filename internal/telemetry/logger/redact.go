package logger

import (
	"log/slog"
	"regexp"
	"strings"
)

// Sensitive key patterns that should be redacted.
var sensitiveKeyPatterns = []string{
	"password",
	"passwd",
	"secret",
	"token",
	"credential",
	"auth",
	"bearer",
	"dsn",
}

// redactedValue is the placeholder for redacted sensitive data.
const redactedValue = "***REDACTED***"

var (
	// keyword DSN: "host=db password=s3cret dbname=docs"
	dsnPasswordPattern = regexp.MustCompile(`(?i)(password\s*=\s*)('[^']*'|\S+)`)
	// URL userinfo: "postgres://user:s3cret@db/docs"
	urlPasswordPattern = regexp.MustCompile(`(://[^:/@\s]+:)([^@\s]+)(@)`)
)

// redactSensitive checks if an attribute contains sensitive data
// and redacts it if necessary.
func redactSensitive(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindString {
		strVal := a.Value.String()

		// Key name suggests sensitive data: fully redact non-empty values.
		if IsSensitiveKey(a.Key) {
			if strVal != "" {
				return slog.String(a.Key, redactedValue)
			}
			return a
		}

		// Otherwise mask credentials embedded in connection strings.
		if masked := RedactString(strVal); masked != strVal {
			return slog.String(a.Key, masked)
		}
	}

	// Handle nested groups recursively
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}

	return a
}

// RedactString masks passwords embedded in a value, such as a PostgreSQL
// keyword DSN or a URL with userinfo. Other values are returned unchanged.
func RedactString(value string) string {
	if strings.Contains(strings.ToLower(value), "password") {
		value = dsnPasswordPattern.ReplaceAllString(value, "${1}***")
	}
	if strings.Contains(value, "://") {
		value = urlPasswordPattern.ReplaceAllString(value, "${1}***${3}")
	}
	return value
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}

// IsSensitiveValue reports whether value carries an embedded credential.
func IsSensitiveValue(value string) bool {
	return RedactString(value) != value
}
