package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable, e.g. REVFC_FORECAST_HORIZON.
const EnvPrefix = "REVFC"

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Loader    LoaderConfig    `yaml:"loader" envconfig:"LOADER"`
	Forecast  ForecastConfig  `yaml:"forecast" envconfig:"FORECAST"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port             int           `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout      time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout     time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout      time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout  time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	OperationTimeout time.Duration `yaml:"operation_timeout" envconfig:"OPERATION_TIMEOUT" validate:"gt=0"`
	// MaxConcurrentRuns bounds the forecast runs served at the same time.
	MaxConcurrentRuns int `yaml:"max_concurrent_runs" envconfig:"MAX_CONCURRENT_RUNS" validate:"min=1"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"gte=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"gte=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" validate:"omitempty,oneof=debug info warn warning error"`
	Format      string `yaml:"format" envconfig:"FORMAT"`
	Output      string `yaml:"output" envconfig:"OUTPUT" validate:"omitempty,oneof=console stdout file both"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// PathsConfig contains file system paths configuration. Relative paths are
// resolved against BaseDir, which defaults to the working directory.
type PathsConfig struct {
	BaseDir    string `yaml:"base_dir" envconfig:"BASE_DIR"`
	DataDir    string `yaml:"data_dir" envconfig:"DATA_DIR" validate:"required"`
	RawDir     string `yaml:"raw_dir" envconfig:"RAW_DIR" validate:"required"`
	ReportsDir string `yaml:"reports_dir" envconfig:"REPORTS_DIR" validate:"required"`
	LogsDir    string `yaml:"logs_dir" envconfig:"LOGS_DIR" validate:"required"`
}

// LoaderConfig controls how the raw tables are read.
type LoaderConfig struct {
	// Format is "csv" for one file per table or "xlsx" for one workbook
	// with a sheet per table.
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=csv xlsx"`
	Workbook string `yaml:"workbook" envconfig:"WORKBOOK"`
	// Files overrides the file (or sheet) name of individual tables.
	Files       map[string]string `yaml:"files" envconfig:"FILES"`
	Concurrency int               `yaml:"concurrency" envconfig:"CONCURRENCY" validate:"min=1,max=16"`
}

// ForecastConfig holds the feature-construction and evaluation settings.
type ForecastConfig struct {
	Horizon         int      `yaml:"horizon" envconfig:"HORIZON" validate:"min=1"`
	Model           string   `yaml:"model" envconfig:"MODEL" validate:"required"`
	CompareModels   []string `yaml:"compare_models" envconfig:"COMPARE_MODELS"`
	Variant         string   `yaml:"variant" envconfig:"VARIANT" validate:"oneof=revenue orders"`
	TargetColumn    string   `yaml:"target_column" envconfig:"TARGET_COLUMN" validate:"oneof=y order_count avg_order_value"`
	RollingPolicy   string   `yaml:"rolling_policy" envconfig:"ROLLING_POLICY" validate:"oneof=full partial"`
	TimestampColumn string   `yaml:"timestamp_column" envconfig:"TIMESTAMP_COLUMN" validate:"required"`
	EntityScope     string   `yaml:"entity_scope" envconfig:"ENTITY_SCOPE" validate:"oneof=train all"`
	MAPE            bool     `yaml:"mape" envconfig:"MAPE"`
	Baseline        bool     `yaml:"baseline" envconfig:"BASELINE"`
	PlotWindow      int      `yaml:"plot_window" envconfig:"PLOT_WINDOW" validate:"min=0"`

	SeasonLength        int     `yaml:"season_length" envconfig:"SEASON_LENGTH" validate:"min=1"`
	MovingAverageWindow int     `yaml:"moving_average_window" envconfig:"MOVING_AVERAGE_WINDOW" validate:"min=1"`
	Alpha               float64 `yaml:"alpha" envconfig:"ALPHA" validate:"gt=0,lte=1"`
	Beta                float64 `yaml:"beta" envconfig:"BETA" validate:"gte=0,lte=1"`
	Gamma               float64 `yaml:"gamma" envconfig:"GAMMA" validate:"gte=0,lte=1"`
}

// TelemetryConfig selects the OpenTelemetry exporters.
type TelemetryConfig struct {
	ServiceName    string  `yaml:"service_name" envconfig:"SERVICE_NAME"`
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout none"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER" validate:"oneof=prometheus none"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"gte=0,lte=1"`
}

var validate = validator.New()

// Load builds the configuration from defaults, the optional YAML file and
// the environment, in increasing order of precedence.
func Load() (*Config, error) {
	return LoadFile(getConfigFilePath())
}

// LoadFile is Load with an explicit config file path. An empty path skips
// the file.
func LoadFile(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays a YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks struct constraints and normalizes the logging section.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}

	for _, name := range c.Forecast.CompareModels {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("compare_models contains an empty model name")
		}
	}

	if c.Forecast.Variant == "revenue" && c.Forecast.TargetColumn != "y" {
		return fmt.Errorf("target column %q requires the orders variant", c.Forecast.TargetColumn)
	}

	if c.Loader.Format == "xlsx" && c.Loader.Workbook == "" {
		return fmt.Errorf("loader workbook must be set for xlsx format")
	}

	// Logs are always structured JSON.
	c.Logging.Format = "json"
	if c.Logging.Output == "" {
		c.Logging.Output = "console"
	}
	if c.Logging.Output != "console" && c.Logging.Output != "stdout" && c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/app.log"
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if p := os.Getenv(EnvPrefix + "_CONFIG_FILE"); p != "" {
		return p
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              8080,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      5 * time.Minute,
			IdleTimeout:       60 * time.Second,
			ShutdownTimeout:   30 * time.Second,
			OperationTimeout:  5 * time.Minute,
			MaxConcurrentRuns: 2,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     5,
				Burst:   10,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/app.log",
		},
		Paths: PathsConfig{
			DataDir:    "data",
			RawDir:     "data/raw",
			ReportsDir: "data/reports",
			LogsDir:    "logs",
		},
		Loader: LoaderConfig{
			Format:      "csv",
			Concurrency: 4,
		},
		Forecast: ForecastConfig{
			Horizon:             30,
			Model:               "holt_winters",
			Variant:             "orders",
			TargetColumn:        "y",
			RollingPolicy:       "full",
			TimestampColumn:     "order_purchase_timestamp",
			EntityScope:         "train",
			MAPE:                true,
			Baseline:            true,
			PlotWindow:          60,
			SeasonLength:        7,
			MovingAverageWindow: 7,
			Alpha:               0.3,
			Beta:                0.05,
			Gamma:               0.2,
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "revforecast",
			Environment:    "development",
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			SampleRatio:    1.0,
		},
	}
}
