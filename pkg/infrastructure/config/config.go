package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/vsinha/rxstock/pkg/domain/services/forecast"
	"github.com/vsinha/rxstock/pkg/infrastructure/cache"
)

// EnvPrefix namespaces environment overrides, e.g. RXSTOCK_STORE_DATA_DIR
const EnvPrefix = "RXSTOCK"

type Config struct {
	App struct {
		Env string
	} `mapstructure:"app"`

	Store struct {
		DataDir string `mapstructure:"data_dir"`
	} `mapstructure:"store"`

	Cache struct {
		SweepInterval time.Duration `mapstructure:"sweep_interval"`
		TTL           struct {
			Inventory    time.Duration
			Transactions time.Duration
			Users        time.Duration
			AccessLog    time.Duration `mapstructure:"access_log"`
		} `mapstructure:"ttl"`
	} `mapstructure:"cache"`

	HTTP struct {
		Addr string
	} `mapstructure:"http"`

	Metrics struct {
		Enabled bool
	} `mapstructure:"metrics"`

	Forecast struct {
		Alpha        float64
		ServiceLevel float64 `mapstructure:"service_level"`
		LeadTimeDays float64 `mapstructure:"lead_time_days"`
		HorizonDays  int     `mapstructure:"horizon_days"`
	} `mapstructure:"forecast"`
}

// CacheTTLs converts the configured lifetimes for the cache layer
func (c Config) CacheTTLs() cache.TTLs {
	return cache.TTLs{
		Inventory:    c.Cache.TTL.Inventory,
		Transactions: c.Cache.TTL.Transactions,
		Users:        c.Cache.TTL.Users,
		AccessLog:    c.Cache.TTL.AccessLog,
	}
}

func setDefaults(v *viper.Viper) {
	ttl := cache.DefaultTTLs()
	v.SetDefault("app.env", "prod")
	v.SetDefault("store.data_dir", "data")
	v.SetDefault("cache.sweep_interval", cache.DefaultSweepInterval)
	v.SetDefault("cache.ttl.inventory", ttl.Inventory)
	v.SetDefault("cache.ttl.transactions", ttl.Transactions)
	v.SetDefault("cache.ttl.users", ttl.Users)
	v.SetDefault("cache.ttl.access_log", ttl.AccessLog)
	v.SetDefault("http.addr", ":9090")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("forecast.alpha", forecast.DefaultAlpha)
	v.SetDefault("forecast.service_level", forecast.DefaultServiceLevel)
	v.SetDefault("forecast.lead_time_days", forecast.DefaultLeadTimeDays)
	v.SetDefault("forecast.horizon_days", forecast.DefaultHorizonDays)
}

// Load reads configuration from path (any format viper understands), a .env
// file in the working directory, and RXSTOCK_* environment variables, in
// increasing precedence. An empty or missing path leaves the defaults.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var c Config
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return c, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("decode config: %w", err)
	}
	return c, nil
}
