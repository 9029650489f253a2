package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAPIConfig(t *testing.T) {
	tests := []struct {
		name        string
		configFile  string
		expectError bool
		validate    func(*testing.T, *APIConfig)
	}{
		{
			name: "valid config file",
			configFile: `
debug: true
sentry_dsn: "https://sentry.example.com"
denylist_path: "config/denylist.json"
server:
  host: 127.0.0.1
  port: 9090
  read_timeout: 15
  write_timeout: 20
  idle_timeout: 60
database:
  host: localhost
  port: 5432
  user: testuser
  password: testpass
  dbname: testdb
  sslmode: require
nats:
  url: "nats://localhost:4222"
  stream_name: "TEST_STREAM"
  max_reconnects: 5
  reconnect_wait: "5s"
  connection_name: "test-connection"
auth:
  jwt_public_key: "test-key"
  api_keys:
    - key-one
    - key-two
market:
  platform_fee_rate: 0.03
  acceptance_window: "24h"
  min_verification_score: 50
  listing_ttl: "360h"
gateway:
  base_url: "https://sandbox.safaricom.co.ke"
  consumer_key: "ck"
  consumer_secret: "cs"
  short_code: "600000"
  initiator_name: "escrow"
  security_credential: "cred"
  result_url: "https://example.com/result"
  timeout_url: "https://example.com/timeout"
`,
			expectError: false,
			validate: func(t *testing.T, cfg *APIConfig) {
				assert.True(t, cfg.Debug)
				assert.Equal(t, "https://sentry.example.com", cfg.SentryDSN)
				assert.Equal(t, "config/denylist.json", cfg.DenylistPath)
				assert.Equal(t, "127.0.0.1", cfg.Server.Host)
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, 15, cfg.Server.ReadTimeout)
				assert.Equal(t, "localhost", cfg.Database.Host)
				assert.Equal(t, "require", cfg.Database.SSLMode)
				assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
				assert.Equal(t, "TEST_STREAM", cfg.NATS.StreamName)
				assert.Equal(t, "test-key", cfg.Auth.JWTPublicKey)
				assert.Equal(t, []string{"key-one", "key-two"}, cfg.Auth.APIKeys)
				assert.Equal(t, 0.03, cfg.Market.PlatformFeeRate)
				assert.Equal(t, 24*time.Hour, cfg.Market.AcceptanceWindow)
				assert.Equal(t, 50.0, cfg.Market.MinVerificationScore)
				assert.Equal(t, 360*time.Hour, cfg.Market.ListingTTL)
				assert.Equal(t, "https://sandbox.safaricom.co.ke", cfg.Gateway.BaseURL)
				assert.Equal(t, "600000", cfg.Gateway.ShortCode)
			},
		},
		{
			name: "config with defaults",
			configFile: `
database:
  host: localhost
  user: testuser
  password: testpass
  dbname: testdb
`,
			expectError: false,
			validate: func(t *testing.T, cfg *APIConfig) {
				// Check defaults
				assert.False(t, cfg.Debug)
				assert.Equal(t, "0.0.0.0", cfg.Server.Host)
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 120, cfg.Server.IdleTimeout)
				assert.Equal(t, 5432, cfg.Database.Port)
				assert.Equal(t, "disable", cfg.Database.SSLMode)
				assert.Equal(t, "MARKETPLACE_EVENTS", cfg.NATS.StreamName)
				assert.Equal(t, 10, cfg.NATS.MaxReconnects)
				assert.Equal(t, 0.02, cfg.Market.PlatformFeeRate)
				assert.Equal(t, 48*time.Hour, cfg.Market.AcceptanceWindow)
				assert.Equal(t, 40.0, cfg.Market.MinVerificationScore)
				assert.Equal(t, 720*time.Hour, cfg.Market.ListingTTL)
			},
		},
		{
			name: "invalid yaml",
			configFile: `
				database:
				  host: localhost
				  port: invalid
			`,
			expectError: true,
			validate:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			configFile := filepath.Join(tmpDir, "config.yaml")
			err := os.WriteFile(configFile, []byte(tt.configFile), 0600)
			require.NoError(t, err)

			cfg, err := LoadAPIConfig(configFile, tmpDir)

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, cfg)
			} else {
				require.NoError(t, err)
				require.NotNil(t, cfg)
				if tt.validate != nil {
					tt.validate(t, cfg)
				}
			}
		})
	}
}

func TestLoadSweeperConfig(t *testing.T) {
	tests := []struct {
		name        string
		configFile  string
		expectError bool
		validate    func(*testing.T, *SweeperConfig)
	}{
		{
			name: "valid config file",
			configFile: `
database:
  host: localhost
  user: testuser
  password: testpass
  dbname: testdb
auto_release_sweeper:
  batch_size: 250
  worker:
    pool_size: 20
    queue_size: 500
`,
			expectError: false,
			validate: func(t *testing.T, cfg *SweeperConfig) {
				assert.Equal(t, "localhost", cfg.Database.Host)
				assert.Equal(t, 250, cfg.AutoReleaseSweeper.BatchSize)
				assert.Equal(t, 20, cfg.AutoReleaseSweeper.Worker.WorkerPoolSize)
				assert.Equal(t, 500, cfg.AutoReleaseSweeper.Worker.WorkerQueueSize)
				// Sweeper-specific database pool defaults
				assert.Equal(t, 5, cfg.Database.MaxOpenConns)
				assert.Equal(t, 2, cfg.Database.MaxIdleConns)
				assert.Equal(t, time.Hour, cfg.Database.ConnMaxLifetime)
				assert.Equal(t, 10*time.Minute, cfg.Database.ConnMaxIdleTime)
			},
		},
		{
			name: "defaults applied",
			configFile: `
database:
  host: localhost
  user: testuser
  password: testpass
  dbname: testdb
`,
			expectError: false,
			validate: func(t *testing.T, cfg *SweeperConfig) {
				assert.Equal(t, 100, cfg.AutoReleaseSweeper.BatchSize)
				assert.Equal(t, 10, cfg.AutoReleaseSweeper.Worker.WorkerPoolSize)
				assert.Equal(t, 100, cfg.AutoReleaseSweeper.Worker.WorkerQueueSize)
				assert.Equal(t, 48*time.Hour, cfg.Market.AcceptanceWindow)
			},
		},
		{
			name: "missing database host",
			configFile: `
database:
  user: testuser
  dbname: testdb
`,
			expectError: true,
			validate:    nil,
		},
		{
			name: "missing database name",
			configFile: `
database:
  host: localhost
  user: testuser
`,
			expectError: true,
			validate:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			configFile := filepath.Join(tmpDir, "config.yaml")
			err := os.WriteFile(configFile, []byte(tt.configFile), 0600)
			require.NoError(t, err)

			cfg, err := LoadSweeperConfig(configFile, tmpDir)

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, cfg)
			} else {
				require.NoError(t, err)
				require.NotNil(t, cfg)
				if tt.validate != nil {
					tt.validate(t, cfg)
				}
			}
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	tests := []struct {
		name     string
		config   DatabaseConfig
		expected string
	}{
		{
			name: "complete config",
			config: DatabaseConfig{
				Host:     "localhost",
				Port:     5432,
				User:     "testuser",
				Password: "testpass",
				DBName:   "testdb",
				SSLMode:  "require",
			},
			expected: "host=localhost port=5432 user=testuser password=testpass dbname=testdb sslmode=require",
		},
		{
			name: "with special characters in password",
			config: DatabaseConfig{
				Host:     "localhost",
				Port:     5432,
				User:     "testuser",
				Password: "p@ssw0rd!",
				DBName:   "testdb",
				SSLMode:  "disable",
			},
			expected: "host=localhost port=5432 user=testuser password=p@ssw0rd! dbname=testdb sslmode=disable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.config.DSN())
		})
	}
}

func TestConfigWithEnvironmentVariables(t *testing.T) {
	tmpDir := t.TempDir()

	envDir := filepath.Join(tmpDir, "env")
	err := os.MkdirAll(envDir, 0750)
	require.NoError(t, err)

	// The .env file is loaded via godotenv.Overload, which sets actual
	// environment variables; viper's AutomaticEnv picks them up with the
	// AGROPULSE_ prefix
	envFile := filepath.Join(envDir, ".env")
	envContent := `AGROPULSE_DEBUG=true
AGROPULSE_DATABASE_HOST=env-host
AGROPULSE_DATABASE_PORT=3306
AGROPULSE_DATABASE_USER=env-user
AGROPULSE_DATABASE_PASSWORD=env-pass
AGROPULSE_DATABASE_DBNAME=env-db
AGROPULSE_DATABASE_SSLMODE=require
`
	err = os.WriteFile(envFile, []byte(envContent), 0600)
	require.NoError(t, err)

	defer func() {
		for _, key := range []string{
			"AGROPULSE_DEBUG",
			"AGROPULSE_DATABASE_HOST",
			"AGROPULSE_DATABASE_PORT",
			"AGROPULSE_DATABASE_USER",
			"AGROPULSE_DATABASE_PASSWORD",
			"AGROPULSE_DATABASE_DBNAME",
			"AGROPULSE_DATABASE_SSLMODE",
		} {
			_ = os.Unsetenv(key)
		}
	}()

	// Config file carries different values to verify env vars override
	configPath := filepath.Join(tmpDir, "config.yaml")
	configFile := `
debug: false
database:
  host: file-host
  port: 5432
  user: file-user
  password: file-pass
  dbname: file-db
  sslmode: disable
`
	err = os.WriteFile(configPath, []byte(configFile), 0600)
	require.NoError(t, err)

	cfg, err := LoadAPIConfig(configPath, envDir)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.True(t, cfg.Debug)
	assert.Equal(t, "env-host", cfg.Database.Host)
	assert.Equal(t, 3306, cfg.Database.Port)
	assert.Equal(t, "env-user", cfg.Database.User)
	assert.Equal(t, "env-pass", cfg.Database.Password)
	assert.Equal(t, "env-db", cfg.Database.DBName)
	assert.Equal(t, "require", cfg.Database.SSLMode)
}
