package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")
	cfg := LoadConfig()

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, "local", cfg.Storage.Type)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigR2Endpoint(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("STORAGE_TYPE", "r2")
	t.Setenv("S3_BUCKET", "archives")
	t.Setenv("R2_ACCOUNT_ID", "acct")
	t.Setenv("S3_ENDPOINT", "")

	cfg := LoadConfig()
	assert.Equal(t, "https://acct.r2.cloudflarestorage.com", cfg.Storage.S3.Endpoint)
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejects(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")

	cases := map[string]func(c *Config){
		"driver":       func(c *Config) { c.DB.Driver = "mysql" },
		"storage type": func(c *Config) { c.Storage.Type = "ftp" },
		"s3 bucket":    func(c *Config) { c.Storage.Type = "s3"; c.Storage.S3.Bucket = "" },
		"r2 endpoint":  func(c *Config) { c.Storage.Type = "r2"; c.Storage.S3.Bucket = "b"; c.Storage.S3.Endpoint = "" },
		"jwt secret":   func(c *Config) { c.JWTSecret = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := LoadConfig()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadConfigReconcile(t *testing.T) {
	t.Setenv("ARCHIVE_RECONCILE_INTERVAL", "6h")
	t.Setenv("ARCHIVE_RECONCILE_PRUNE", "true")

	cfg := LoadConfig()
	assert.Equal(t, 6*time.Hour, cfg.Reconcile.Interval)
	assert.True(t, cfg.Reconcile.Prune)
}

func TestLoadConfigRejectsMalformedReconcileSettings(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")

	cases := map[string][2]string{
		"interval typo":     {"ARCHIVE_RECONCILE_INTERVAL", "5mins"},
		"negative interval": {"ARCHIVE_RECONCILE_INTERVAL", "-1h"},
		"prune":             {"ARCHIVE_RECONCILE_PRUNE", "sometimes"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			err := LoadConfig().Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), kv[0])
			assert.Contains(t, err.Error(), kv[1])
		})
	}
}
