package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/fleet-backoffice/internal/config"
)

func TestLoadFromDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := config.LoadFrom(map[string]string{"JWT_SECRET": "s"})
	require.NoError(t, err)

	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, "sqlite", cfg.DBProvider)
	require.True(t, cfg.IsDevelopment())
	require.Equal(t, 15*time.Minute, cfg.AccessTTL)
	require.Equal(t, 168*time.Hour, cfg.RefreshTTL)
	require.Equal(t, []string{"*"}, cfg.CORSAllowOrigins)
	require.Equal(t, int64(10<<20), cfg.UploadMaxBytes)
	require.True(t, cfg.Cache.Caches("GET"))
	require.False(t, cfg.Cache.Caches("POST"))
	require.Equal(t, "ip_route", cfg.RateLimit.KeyStrategy)
}

func TestLoadFromOverridesAndNormalizes(t *testing.T) {
	t.Parallel()
	cfg, err := config.LoadFrom(map[string]string{
		"JWT_SECRET":                 "s",
		"APP_ENV":                    "production",
		"DB_PROVIDER":                " Postgres ",
		"DB_MAX_OPEN_CONNS":          "0",
		"CORS_ALLOW_ORIGINS":         "https://a.sg,https://b.sg",
		"CACHE_METHODS":              "get, head ,",
		"RATE_LIMIT_CAPACITY":        "0",
		"RATE_LIMIT_REFILL_INTERVAL": "10s",
		"RATE_LIMIT_TTL":             "1s",
	})
	require.NoError(t, err)

	require.False(t, cfg.IsDevelopment())
	require.Equal(t, "postgres", cfg.DBProvider)
	require.Equal(t, 1, cfg.DBMaxOpenConns)
	require.Equal(t, []string{"https://a.sg", "https://b.sg"}, cfg.CORSAllowOrigins)
	require.Equal(t, []string{"GET", "HEAD"}, cfg.Cache.Methods)
	require.Equal(t, 1, cfg.RateLimit.Capacity)
	require.Equal(t, 50*time.Second, cfg.RateLimit.TTL)
}

func TestLoadFromRejects(t *testing.T) {
	t.Parallel()
	cases := map[string]map[string]string{
		"missing secret":   {},
		"unknown provider": {"JWT_SECRET": "s", "DB_PROVIDER": "oracle"},
		"zero token ttl":   {"JWT_SECRET": "s", "ACCESS_TOKEN_TTL": "0s"},
		"bad duration":     {"JWT_SECRET": "s", "REFRESH_TOKEN_TTL": "soon"},
	}
	for name, vars := range cases {
		_, err := config.LoadFrom(vars)
		require.Error(t, err, name)
	}
}
