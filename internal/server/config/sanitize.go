package config

import "strings"

// Sanitize returns a copy of the config with sensitive fields masked.
//
// This is used for logging configuration without exposing secrets.
func Sanitize(cfg *ServerConfig) *ServerConfig {
	sanitized := *cfg
	sanitized.Peers = append([]PeerConfig(nil), cfg.Peers...)

	if sanitized.Storage.Postgres.Password != "" {
		sanitized.Storage.Postgres.Password = maskSecret(sanitized.Storage.Postgres.Password)
	}
	if sanitized.Storage.Postgres.DSN != "" {
		sanitized.Storage.Postgres.DSN = maskDSN(sanitized.Storage.Postgres.DSN)
	}

	return &sanitized
}

// maskSecret masks a secret value for safe logging.
func maskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}

// maskDSN masks the password field of a key=value or URL style DSN.
func maskDSN(dsn string) string {
	if strings.Contains(dsn, "://") {
		scheme, rest, _ := strings.Cut(dsn, "://")
		userinfo, host, ok := strings.Cut(rest, "@")
		if !ok {
			return dsn
		}
		user, _, hasPass := strings.Cut(userinfo, ":")
		if !hasPass {
			return dsn
		}
		return scheme + "://" + user + ":****@" + host
	}

	fields := strings.Fields(dsn)
	for i, f := range fields {
		if k, _, ok := strings.Cut(f, "="); ok && k == "password" {
			fields[i] = "password=****"
		}
	}
	return strings.Join(fields, " ")
}
