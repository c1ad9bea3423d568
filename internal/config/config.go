package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"
	_ "time/tzdata"

	env "github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/pocket-wallet/internal/ledger"
	"github.com/josh-kwaku/pocket-wallet/internal/repository"
	"github.com/josh-kwaku/pocket-wallet/internal/service/transaction"
)

type Config struct {
	Port     int    `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv   string `env:"APP_ENV" envDefault:"production"`

	StoreDriver string `env:"STORE_DRIVER" envDefault:"file"`
	StoreDir    string `env:"STORE_DIR" envDefault:"./data"`
	StoreKey    string `env:"STORE_KEY" envDefault:"bkashUserData"`

	DatabaseURL        string `env:"DATABASE_URL"`
	DBMaxOpenConns     int    `env:"DB_MAX_OPEN_CONNS" envDefault:"5"`
	DBMaxIdleConns     int    `env:"DB_MAX_IDLE_CONNS" envDefault:"2"`
	DBConnMaxLifetimeS int    `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int    `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`
	DBConnectAttempts  int    `env:"DB_CONNECT_ATTEMPTS" envDefault:"30"`

	JWTSecret string        `env:"JWT_SECRET,required"`
	JWTExpiry time.Duration `env:"JWT_EXPIRY" envDefault:"24h"`

	ConfirmDelay   time.Duration   `env:"CONFIRM_DELAY" envDefault:"1500ms"`
	ConfirmTimeout time.Duration   `env:"CONFIRM_TIMEOUT" envDefault:"10s"`
	CashOutFeeRate decimal.Decimal `env:"CASHOUT_FEE_RATE" envDefault:"0.0185"`
	StagePolicy    string          `env:"STAGE_POLICY" envDefault:"replace"`

	MaxPINAttempts int           `env:"MAX_PIN_ATTEMPTS" envDefault:"5"`
	PINLockout     time.Duration `env:"PIN_LOCKOUT" envDefault:"5m"`

	PersistFailurePolicy string        `env:"PERSIST_FAILURE_POLICY" envDefault:"rollback"`
	FlushInterval        time.Duration `env:"FLUSH_INTERVAL" envDefault:"30s"`
	SeedSampleData       bool          `env:"SEED_SAMPLE_DATA" envDefault:"true"`
	DisplayTZ            string        `env:"DISPLAY_TZ" envDefault:"Asia/Dhaka"`
}

// Load reads the optional dotenv files (".env" when none are named) into the
// process environment, then parses and validates the configuration. Variables
// already set in the environment win over dotenv values.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config.Load: %w", err)
		}
		slog.Debug("no .env file found, using environment only")
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	switch c.StoreDriver {
	case repository.DriverFile:
		if c.StoreDir == "" {
			errs = append(errs, errors.New("STORE_DIR is required for the file driver"))
		}
	case repository.DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	case repository.DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER %q is not one of file, postgres, memory", c.StoreDriver))
	}
	if c.StoreKey == "" {
		errs = append(errs, errors.New("STORE_KEY must not be empty"))
	}
	if !c.FailurePolicy().IsValid() {
		errs = append(errs, fmt.Errorf("PERSIST_FAILURE_POLICY %q is not one of rollback, flag", c.PersistFailurePolicy))
	}
	if !transaction.StagePolicy(c.StagePolicy).IsValid() {
		errs = append(errs, fmt.Errorf("STAGE_POLICY %q is not one of replace, reject", c.StagePolicy))
	}
	if c.CashOutFeeRate.IsNegative() {
		errs = append(errs, errors.New("CASHOUT_FEE_RATE must not be negative"))
	}
	if c.ConfirmDelay < 0 {
		errs = append(errs, errors.New("CONFIRM_DELAY must not be negative"))
	}
	if c.ConfirmTimeout > 0 && c.ConfirmTimeout <= c.ConfirmDelay {
		errs = append(errs, errors.New("CONFIRM_TIMEOUT must exceed CONFIRM_DELAY"))
	}
	if c.MaxPINAttempts < 0 {
		errs = append(errs, errors.New("MAX_PIN_ATTEMPTS must not be negative"))
	}
	if c.FlushInterval <= 0 {
		errs = append(errs, errors.New("FLUSH_INTERVAL must be positive"))
	}
	if _, err := time.LoadLocation(c.DisplayTZ); err != nil {
		errs = append(errs, fmt.Errorf("DISPLAY_TZ: %w", err))
	}

	return errors.Join(errs...)
}

func (c *Config) FailurePolicy() ledger.FailurePolicy {
	return ledger.FailurePolicy(c.PersistFailurePolicy)
}

func (c *Config) StagerConfig() transaction.StagerConfig {
	return transaction.StagerConfig{
		Policy:  transaction.StagePolicy(c.StagePolicy),
		Delay:   c.ConfirmDelay,
		Timeout: c.ConfirmTimeout,
	}
}

func (c *Config) StoreOptions() repository.StoreOptions {
	return repository.StoreOptions{
		Driver:      c.StoreDriver,
		Dir:         c.StoreDir,
		Key:         c.StoreKey,
		DatabaseURL: c.DatabaseURL,
		Pool: repository.PoolConfig{
			MaxOpenConns:     c.DBMaxOpenConns,
			MaxIdleConns:     c.DBMaxIdleConns,
			ConnMaxLifetimeS: c.DBConnMaxLifetimeS,
			ConnMaxIdleTimeS: c.DBConnMaxIdleTimeS,
			ConnectAttempts:  c.DBConnectAttempts,
		},
	}
}

// Location returns the display timezone. Validate has already checked it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.DisplayTZ)
	if err != nil {
		return time.Local
	}
	return loc
}
