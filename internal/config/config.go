package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Default source locations for the three civic datasets.
const (
	DefaultCensusURL  = "https://cf-courses-data.s3.us.cloud-object-storage.appdomain.cloud/IBMDeveloperSkillsNetwork-DB0201EN-SkillsNetwork/labs/FinalModule_Coursera_V5/data/ChicagoCensusData.csv"
	DefaultSchoolsURL = "https://cf-courses-data.s3.us.cloud-object-storage.appdomain.cloud/IBMDeveloperSkillsNetwork-DB0201EN-SkillsNetwork/labs/FinalModule_Coursera_V5/data/ChicagoPublicSchools.csv"
	DefaultCrimeURL   = "https://cf-courses-data.s3.us.cloud-object-storage.appdomain.cloud/IBMDeveloperSkillsNetwork-DB0201EN-SkillsNetwork/labs/FinalModule_Coursera_V5/data/ChicagoCrimeData.csv"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Sources   SourcesConfig   `yaml:"sources" mapstructure:"sources"`
	Fetch     FetchConfig     `yaml:"fetch" mapstructure:"fetch"`
	Dashboard DashboardConfig `yaml:"dashboard" mapstructure:"dashboard"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// SourcesConfig holds the location (URL or local path) of each dataset.
type SourcesConfig struct {
	Census   string `yaml:"census" mapstructure:"census"`
	Schools  string `yaml:"schools" mapstructure:"schools"`
	Crime    string `yaml:"crime" mapstructure:"crime"`
	Encoding string `yaml:"encoding" mapstructure:"encoding"`
}

// FetchConfig configures source downloads.
type FetchConfig struct {
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int     `yaml:"max_retries" mapstructure:"max_retries"`
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
	TempDir     string  `yaml:"temp_dir" mapstructure:"temp_dir"`
	InsecureTLS bool    `yaml:"insecure_tls" mapstructure:"insecure_tls"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// DashboardConfig configures the analytical views.
type DashboardConfig struct {
	TopN         int `yaml:"top_n" mapstructure:"top_n"`
	HotspotLimit int `yaml:"hotspot_limit" mapstructure:"hotspot_limit"`
	CacheSize    int `yaml:"cache_size" mapstructure:"cache_size"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "FinalDB.db")
	v.SetDefault("sources.census", DefaultCensusURL)
	v.SetDefault("sources.schools", DefaultSchoolsURL)
	v.SetDefault("sources.crime", DefaultCrimeURL)
	v.SetDefault("sources.encoding", "utf-8")
	v.SetDefault("fetch.timeout_secs", 60)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.user_agent", "chicago-civic/1.0")
	v.SetDefault("fetch.temp_dir", os.TempDir())
	v.SetDefault("fetch.insecure_tls", false)
	v.SetDefault("fetch.rate_per_sec", 5.0)
	v.SetDefault("dashboard.top_n", 10)
	v.SetDefault("dashboard.hotspot_limit", 15)
	v.SetDefault("dashboard.cache_size", 256)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Load reads configuration from .env, config.yaml, and CHICAGO_* environment variables.
func Load() (*Config, error) {
	// .env is optional; real environment variables win over it.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, eris.Wrap(err, "config: read .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CHICAGO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Defaults returns the configuration used when no file or environment overrides exist.
func Defaults() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Validate checks the settings a command mode depends on.
func (c *Config) Validate(mode string) error {
	var problems []string
	switch mode {
	case "ingest":
		if strings.TrimSpace(c.Sources.Census) == "" {
			problems = append(problems, "sources.census is required")
		}
		if strings.TrimSpace(c.Sources.Schools) == "" {
			problems = append(problems, "sources.schools is required")
		}
		if strings.TrimSpace(c.Sources.Crime) == "" {
			problems = append(problems, "sources.crime is required")
		}
		if c.Fetch.MaxRetries < 0 {
			problems = append(problems, "fetch.max_retries must be >= 0")
		}
		if c.Fetch.RatePerSec < 0 {
			problems = append(problems, "fetch.rate_per_sec must be >= 0")
		}
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			problems = append(problems, "server.port must be > 0 and <= 65535")
		}
		problems = append(problems, c.dashboardProblems()...)
	case "dashboard":
		problems = append(problems, c.dashboardProblems()...)
	case "report", "migrate":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}
	if c.Store.Driver == "postgres" && strings.TrimSpace(c.Store.DatabaseURL) == "" {
		problems = append(problems, "store.database_url is required for postgres")
	}

	if len(problems) > 0 {
		return eris.Errorf("config: invalid for %s: %s", mode, strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) dashboardProblems() []string {
	var problems []string
	if c.Dashboard.TopN < 1 {
		problems = append(problems, "dashboard.top_n must be >= 1")
	}
	if c.Dashboard.HotspotLimit < 1 {
		problems = append(problems, "dashboard.hotspot_limit must be >= 1")
	}
	if c.Dashboard.CacheSize < 0 {
		problems = append(problems, "dashboard.cache_size must be >= 0")
	}
	return problems
}

// WriteFile writes cfg as YAML to path. An existing file is kept unless overwrite is set.
func WriteFile(cfg *Config, path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return eris.Errorf("config: %s already exists", path)
		}
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return eris.Wrap(err, "config: marshal")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "config: write %s", path)
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
