package db

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var supportedPGQueryKeys = map[string]struct{}{
	"application_name":        {},
	"channel_binding":         {},
	"client_encoding":         {},
	"connect_timeout":         {},
	"default_query_exec_mode": {},
	"gssencmode":              {},
	"host":                    {},
	"keepalives":              {},
	"keepalives_count":        {},
	"keepalives_idle":         {},
	"keepalives_interval":     {},
	"options":                 {},
	"passfile":                {},
	"pool_max_conns":          {},
	"port":                    {},
	"service":                 {},
	"sslcert":                 {},
	"sslcrl":                  {},
	"sslkey":                  {},
	"sslmode":                 {},
	"sslpassword":             {},
	"sslrootcert":             {},
	"target_session_attrs":    {},
}

// IsPostgresURL reports whether rawURL names a Postgres database in any of
// the scheme spellings Connect accepts.
func IsPostgresURL(rawURL string) bool {
	normalized := strings.ToLower(strings.TrimSpace(rawURL))
	for _, prefix := range []string{"postgres://", "postgresql://", "postgresql+psycopg://", "prisma+postgres://"} {
		if strings.HasPrefix(normalized, prefix) {
			return true
		}
	}
	return false
}

func Connect(ctx context.Context, rawURL string) (*pgxpool.Pool, error) {
	normalized := normalizeDatabaseURL(rawURL)
	cfg, err := pgxpool.ParseConfig(normalized)
	if err != nil {
		return nil, err
	}
	if cfg.MaxConnIdleTime == 0 {
		cfg.MaxConnIdleTime = 5 * time.Minute
	}
	return pgxpool.NewWithConfig(ctx, cfg)
}

func normalizeDatabaseURL(rawURL string) string {
	normalized := strings.TrimSpace(rawURL)
	if strings.HasPrefix(normalized, "prisma+postgres://") {
		normalized = strings.Replace(normalized, "prisma+postgres://", "postgres://", 1)
	}
	if strings.HasPrefix(normalized, "postgresql+psycopg://") {
		normalized = strings.Replace(normalized, "postgresql+psycopg://", "postgres://", 1)
	}
	if strings.HasPrefix(normalized, "postgresql://") {
		normalized = strings.Replace(normalized, "postgresql://", "postgres://", 1)
	}

	parsed, err := url.Parse(normalized)
	if err != nil {
		return normalized
	}
	if parsed.Scheme != "postgres" {
		return normalized
	}

	queries := parsed.Query()
	filtered := make(url.Values)
	for key, values := range queries {
		if _, ok := supportedPGQueryKeys[key]; ok {
			for _, v := range values {
				filtered.Add(key, v)
			}
		}
	}
	parsed.RawQuery = filtered.Encode()
	return parsed.String()
}

// WithSimpleProtocol forces the simple query protocol, which poolers such
// as PgBouncer in transaction mode require.
func WithSimpleProtocol(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return rawURL
	}
	queries := parsed.Query()
	queries.Set("default_query_exec_mode", "simple_protocol")
	parsed.RawQuery = queries.Encode()
	return parsed.String()
}
