package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/pocket-wallet/internal/ledger"
	"github.com/josh-kwaku/pocket-wallet/internal/repository"
	"github.com/josh-kwaku/pocket-wallet/internal/service/transaction"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, repository.DriverFile, cfg.StoreDriver)
	assert.Equal(t, "bkashUserData", cfg.StoreKey)
	assert.Equal(t, 1500*time.Millisecond, cfg.ConfirmDelay)
	assert.True(t, cfg.CashOutFeeRate.Equal(decimal.RequireFromString("0.0185")))
	assert.Equal(t, 5, cfg.MaxPINAttempts)
	assert.Equal(t, 5*time.Minute, cfg.PINLockout)
	assert.True(t, cfg.SeedSampleData)
	assert.Equal(t, ledger.FailurePolicyRollback, cfg.FailurePolicy())
	assert.Equal(t, transaction.StagePolicyReplace, cfg.StagerConfig().Policy)
	assert.Equal(t, "Asia/Dhaka", cfg.Location().String())
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	os.Unsetenv("JWT_SECRET")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_DotenvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("JWT_SECRET=from-file\nCONFIRM_DELAY=0s\nSTAGE_POLICY=reject\n"), 0o600))

	// godotenv writes into the process environment; t.Setenv registers the
	// restore and the unset clears the way for the file value.
	for _, key := range []string{"JWT_SECRET", "CONFIRM_DELAY", "STAGE_POLICY"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	t.Setenv("PORT", "9090")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.JWTSecret)
	assert.Equal(t, time.Duration(0), cfg.ConfirmDelay)
	assert.Equal(t, transaction.StagePolicyReject, cfg.StagerConfig().Policy)
	assert.Equal(t, 9090, cfg.Port)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			StoreDriver:          repository.DriverFile,
			StoreDir:             "./data",
			StoreKey:             "bkashUserData",
			JWTSecret:            "secret",
			ConfirmDelay:         time.Second,
			ConfirmTimeout:       5 * time.Second,
			CashOutFeeRate:       decimal.RequireFromString("0.0185"),
			StagePolicy:          "replace",
			PersistFailurePolicy: "rollback",
			FlushInterval:        time.Second,
			DisplayTZ:            "UTC",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "memory driver", mutate: func(c *Config) { c.StoreDriver = repository.DriverMemory; c.StoreDir = "" }},
		{name: "unknown driver", mutate: func(c *Config) { c.StoreDriver = "redis" }, wantErr: "STORE_DRIVER"},
		{name: "postgres without url", mutate: func(c *Config) { c.StoreDriver = repository.DriverPostgres }, wantErr: "DATABASE_URL"},
		{name: "empty key", mutate: func(c *Config) { c.StoreKey = "" }, wantErr: "STORE_KEY"},
		{name: "bad failure policy", mutate: func(c *Config) { c.PersistFailurePolicy = "ignore" }, wantErr: "PERSIST_FAILURE_POLICY"},
		{name: "bad stage policy", mutate: func(c *Config) { c.StagePolicy = "queue" }, wantErr: "STAGE_POLICY"},
		{name: "negative fee", mutate: func(c *Config) { c.CashOutFeeRate = decimal.RequireFromString("-0.01") }, wantErr: "CASHOUT_FEE_RATE"},
		{name: "timeout below delay", mutate: func(c *Config) { c.ConfirmTimeout = time.Second }, wantErr: "CONFIRM_TIMEOUT"},
		{name: "no timeout", mutate: func(c *Config) { c.ConfirmTimeout = 0 }},
		{name: "bad timezone", mutate: func(c *Config) { c.DisplayTZ = "Mars/Olympus" }, wantErr: "DISPLAY_TZ"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(&cfg)

			err := cfg.Validate()
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
