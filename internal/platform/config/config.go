// Package config loads application settings from defaults, an optional config
// file, a .env file and environment variables, and validates the result.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the root configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Market    MarketConfig    `mapstructure:"market"`
	Directory DirectoryConfig `mapstructure:"directory"`
	Risk      RiskConfig      `mapstructure:"risk"`
	Export    ExportConfig    `mapstructure:"export"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"min=1,max=65535"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins" validate:"min=1,dive,required"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// DatabaseConfig holds PostgreSQL connection settings. URL takes precedence over the discrete fields.
type DatabaseConfig struct {
	URL            string        `mapstructure:"url"`
	Host           string        `mapstructure:"host" validate:"required_without=URL"`
	Port           int           `mapstructure:"port" validate:"min=1,max=65535"`
	User           string        `mapstructure:"user" validate:"required_without=URL"`
	Password       string        `mapstructure:"password"`
	Name           string        `mapstructure:"name" validate:"required_without=URL"`
	SSLMode        string        `mapstructure:"ssl_mode" validate:"oneof=disable allow prefer require verify-ca verify-full"`
	RunMigrations  bool          `mapstructure:"run_migrations"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout" validate:"gt=0"`
}

// RedisConfig holds the price cache connection. Disabled means no caching.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host" validate:"required_if=Enabled true"`
	Port     int    `mapstructure:"port" validate:"min=1,max=65535"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"min=0"`
}

// Addr returns host:port.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// MarketConfig holds the market data client settings.
type MarketConfig struct {
	Timeout            time.Duration `mapstructure:"timeout" validate:"gt=0"`
	IngestDays         int           `mapstructure:"ingest_days" validate:"min=1"`
	RequestsPerMinute  int           `mapstructure:"requests_per_minute" validate:"min=0"`
	BreakerMaxFailures uint32        `mapstructure:"breaker_max_failures" validate:"min=1"`
	BreakerOpenTimeout time.Duration `mapstructure:"breaker_open_timeout" validate:"gt=0"`
}

// DirectoryConfig holds the ticker/sector directory source.
type DirectoryConfig struct {
	URL     string        `mapstructure:"url" validate:"required,url"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// RiskConfig holds the analysis parameters.
type RiskConfig struct {
	BenchmarkTicker string  `mapstructure:"benchmark_ticker" validate:"required"`
	LookbackDays    int     `mapstructure:"lookback_days" validate:"min=30,max=5000"`
	ConfidenceLevel float64 `mapstructure:"confidence_level" validate:"gt=0,lt=0.5"`
	Trees           int     `mapstructure:"trees" validate:"min=1,max=1000"`
	Seed            uint64  `mapstructure:"seed"`
	TestRatio       float64 `mapstructure:"test_ratio" validate:"gt=0,lt=1"`
	BatchWorkers    int     `mapstructure:"batch_workers" validate:"min=1,max=64"`
}

// ExportConfig holds batch export settings.
type ExportConfig struct {
	Dir string `mapstructure:"dir" validate:"required"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json text"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.url", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "stock_risk")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.run_migrations", true)
	v.SetDefault("database.connect_timeout", 60*time.Second)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("market.timeout", 10*time.Second)
	v.SetDefault("market.ingest_days", 182)
	v.SetDefault("market.requests_per_minute", 60)
	v.SetDefault("market.breaker_max_failures", 5)
	v.SetDefault("market.breaker_open_timeout", 30*time.Second)

	v.SetDefault("directory.url", "https://en.wikipedia.org/wiki/List_of_S%26P_500_companies")
	v.SetDefault("directory.timeout", 15*time.Second)

	v.SetDefault("risk.benchmark_ticker", "SPY")
	v.SetDefault("risk.lookback_days", 252)
	v.SetDefault("risk.confidence_level", 0.05)
	v.SetDefault("risk.trees", 100)
	v.SetDefault("risk.seed", 42)
	v.SetDefault("risk.test_ratio", 0.3)
	v.SetDefault("risk.batch_workers", 4)

	v.SetDefault("export.dir", "output")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Load builds the configuration. Values are resolved in increasing priority:
// defaults, the optional config file at path, then environment variables
// (SERVER_PORT, DATABASE_URL, RISK_BENCHMARK_TICKER, ...). A .env file in the
// working directory is loaded into the environment first when present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks struct constraints and reports every failing field.
func Validate(cfg *Config) error {
	err := validator.New().Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed on %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
