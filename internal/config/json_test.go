package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSON_Success(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	p := filepath.Join(dir, "config.json")

	jsonBody := `{
		"app": {
			"token_sign_key": "jwt_secret",
			"token_issuer": "test_issuer",
			"access_token_duration": "1h",
			"refresh_token_duration": "168h",
			"bcrypt_cost": 11,
			"lockout_threshold": 5,
			"lockout_duration": "30m",
			"reset_token_ttl": "20m",
			"reset_base_url": "https://snippets.example.com",
			"conceal_unknown_email": true
		},
		"server": {
			"http_address": "localhost:8008",
			"request_timeout": "30s",
			"rate_limit_requests": 100,
			"rate_limit_window": "15m"
		},
		"storage": {
			"driver": "sqlite",
			"db": { "dsn": "file:test.db" },
			"mongo": { "uri": "mongodb://localhost", "database": "snippets" },
			"cache": { "redis_address": "localhost:6379", "redis_db": 1 }
		},
		"mailer": {
			"provider": "smtp",
			"from": "no-reply@example.com",
			"smtp": { "host": "smtp.example.com", "port": 587, "username": "u", "password": "p" },
			"mailgun": { "domain": "mg.example.com", "api_key": "k" }
		},
		"workers": { "reset_token_sweep_interval": "1m" }
	}`

	require.NoError(t, os.WriteFile(p, []byte(jsonBody), 0o600))

	// Act
	cfg, err := parseJSON(p)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "jwt_secret", cfg.App.TokenSignKey)
	assert.Equal(t, "test_issuer", cfg.App.TokenIssuer)
	assert.Equal(t, time.Hour, cfg.App.AccessTokenDuration)
	assert.Equal(t, 168*time.Hour, cfg.App.RefreshTokenDuration)
	assert.Equal(t, 11, cfg.App.BcryptCost)
	assert.Equal(t, 5, cfg.App.LockoutThreshold)
	assert.Equal(t, 30*time.Minute, cfg.App.LockoutDuration)
	assert.Equal(t, 20*time.Minute, cfg.App.ResetTokenTTL)
	assert.Equal(t, "https://snippets.example.com", cfg.App.ResetBaseURL)
	assert.True(t, cfg.App.ConcealUnknownEmail)

	assert.Equal(t, "localhost:8008", cfg.Server.HTTPAddress)
	assert.Equal(t, 30*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, 100, cfg.Server.RateLimitRequests)
	assert.Equal(t, 15*time.Minute, cfg.Server.RateLimitWindow)

	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, "file:test.db", cfg.Storage.DB.DSN)
	assert.Equal(t, "mongodb://localhost", cfg.Storage.Mongo.URI)
	assert.Equal(t, "snippets", cfg.Storage.Mongo.Database)
	assert.Equal(t, "localhost:6379", cfg.Storage.Cache.RedisAddress)
	assert.Equal(t, 1, cfg.Storage.Cache.RedisDB)

	assert.Equal(t, "smtp", cfg.Mailer.Provider)
	assert.Equal(t, "no-reply@example.com", cfg.Mailer.From)
	assert.Equal(t, "smtp.example.com", cfg.Mailer.SMTP.Host)
	assert.Equal(t, 587, cfg.Mailer.SMTP.Port)
	assert.Equal(t, "mg.example.com", cfg.Mailer.Mailgun.Domain)

	assert.Equal(t, time.Minute, cfg.Workers.ResetTokenSweepInterval)
	assert.Empty(t, cfg.JSONFilePath)
}

func TestParseJSON_FileNotFound(t *testing.T) {
	_, err := parseJSON(filepath.Join(t.TempDir(), "missing.json"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading a json file")
}

func TestParseJSON_Malformed(t *testing.T) {
	p := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(p, []byte("{not json"), 0o600))

	_, err := parseJSON(p)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "error decoding json configs")
}

func TestDuration_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Duration
		wantErr  bool
	}{
		{"string", `"20m"`, 20 * time.Minute, false},
		{"nanoseconds", `1000000000`, time.Second, false},
		{"bad string", `"twenty"`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration
			err := json.Unmarshal([]byte(tt.input), &d)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, time.Duration(d))
		})
	}
}

func TestDuration_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(Duration(90 * time.Second))

	require.NoError(t, err)
	assert.Equal(t, `"1m30s"`, string(b))
}
