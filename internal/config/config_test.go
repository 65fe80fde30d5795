package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnvVars = []string{
	"REVFC_SERVER_PORT", "REVFC_SERVER_READ_TIMEOUT",
	"REVFC_LOGGING_LEVEL", "REVFC_LOGGING_OUTPUT",
	"REVFC_PATHS_RAW_DIR", "REVFC_LOADER_FORMAT", "REVFC_LOADER_WORKBOOK",
	"REVFC_FORECAST_HORIZON", "REVFC_FORECAST_MODEL", "REVFC_FORECAST_COMPARE_MODELS",
	"REVFC_FORECAST_VARIANT", "REVFC_FORECAST_TARGET_COLUMN", "REVFC_FORECAST_ROLLING_POLICY",
	"REVFC_FORECAST_ENTITY_SCOPE", "REVFC_FORECAST_ALPHA", "REVFC_CONFIG_FILE",
}

func TestLoadFile(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		fileContent string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults with no env vars",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, 30, cfg.Forecast.Horizon)
				assert.Equal(t, "holt_winters", cfg.Forecast.Model)
				assert.Equal(t, "orders", cfg.Forecast.Variant)
				assert.Equal(t, "full", cfg.Forecast.RollingPolicy)
				assert.Equal(t, "train", cfg.Forecast.EntityScope)
				assert.Equal(t, "order_purchase_timestamp", cfg.Forecast.TimestampColumn)
				assert.Equal(t, 60, cfg.Forecast.PlotWindow)
				assert.True(t, cfg.Forecast.MAPE)
				assert.Equal(t, "csv", cfg.Loader.Format)
				assert.Equal(t, "json", cfg.Logging.Format)
				assert.Equal(t, "data/raw", cfg.Paths.RawDir)
			},
		},
		{
			name: "environment overrides",
			env: map[string]string{
				"REVFC_SERVER_PORT":             "9090",
				"REVFC_FORECAST_HORIZON":        "60",
				"REVFC_FORECAST_MODEL":          "seasonal_naive",
				"REVFC_FORECAST_COMPARE_MODELS": "naive,moving_average",
				"REVFC_LOGGING_LEVEL":           "debug",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, 60, cfg.Forecast.Horizon)
				assert.Equal(t, "seasonal_naive", cfg.Forecast.Model)
				assert.Equal(t, []string{"naive", "moving_average"}, cfg.Forecast.CompareModels)
				assert.Equal(t, "debug", cfg.Logging.Level)
			},
		},
		{
			name: "file values apply and env wins",
			env:  map[string]string{"REVFC_FORECAST_HORIZON": "14"},
			fileContent: `
server:
  port: 6060
forecast:
  horizon: 45
  rolling_policy: partial
  entity_scope: all
paths:
  raw_dir: /srv/olist
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 6060, cfg.Server.Port)
				assert.Equal(t, 14, cfg.Forecast.Horizon)
				assert.Equal(t, "partial", cfg.Forecast.RollingPolicy)
				assert.Equal(t, "all", cfg.Forecast.EntityScope)
				assert.Equal(t, "/srv/olist", cfg.Paths.RawDir)
				// untouched sections keep their defaults
				assert.Equal(t, "holt_winters", cfg.Forecast.Model)
			},
		},
		{
			name:    "invalid port",
			env:     map[string]string{"REVFC_SERVER_PORT": "99999"},
			wantErr: true,
		},
		{
			name:    "zero horizon",
			env:     map[string]string{"REVFC_FORECAST_HORIZON": "0"},
			wantErr: true,
		},
		{
			name:    "unknown rolling policy",
			env:     map[string]string{"REVFC_FORECAST_ROLLING_POLICY": "sometimes"},
			wantErr: true,
		},
		{
			name: "order target on revenue variant",
			env: map[string]string{
				"REVFC_FORECAST_VARIANT":       "revenue",
				"REVFC_FORECAST_TARGET_COLUMN": "order_count",
			},
			wantErr: true,
		},
		{
			name:    "xlsx without workbook",
			env:     map[string]string{"REVFC_LOADER_FORMAT": "xlsx"},
			wantErr: true,
		},
		{
			name:    "alpha out of range",
			env:     map[string]string{"REVFC_FORECAST_ALPHA": "1.5"},
			wantErr: true,
		},
		{
			name:        "malformed yaml",
			fileContent: "forecast: [unclosed",
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, envVar := range configEnvVars {
				t.Setenv(envVar, "")
				os.Unsetenv(envVar)
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			var configFile string
			if tt.fileContent != "" {
				configFile = filepath.Join(t.TempDir(), "config.yaml")
				require.NoError(t, os.WriteFile(configFile, []byte(tt.fileContent), 0644))
			}

			cfg, err := LoadFile(configFile)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)
			if tt.validateCfg != nil {
				tt.validateCfg(t, cfg)
			}
		})
	}
}

func TestLoad_ConfigFileFromEnv(t *testing.T) {
	for _, envVar := range configEnvVars {
		t.Setenv(envVar, "")
		os.Unsetenv(envVar)
	}

	configFile := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("forecast:\n  horizon: 21\n"), 0644))
	t.Setenv("REVFC_CONFIG_FILE", configFile)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 21, cfg.Forecast.Horizon)
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestValidate_FillsLogFilePath(t *testing.T) {
	cfg := Default()
	cfg.Logging.Output = "both"
	cfg.Logging.FilePath = ""

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "logs/app.log", cfg.Logging.FilePath)
}

func TestResolvePaths(t *testing.T) {
	base := t.TempDir()

	cfg := Default()
	cfg.Paths.BaseDir = base
	cfg.Paths.RawDir = "/abs/raw"

	paths, err := cfg.ResolvePaths()
	require.NoError(t, err)

	assert.Equal(t, base, paths.BaseDir)
	assert.Equal(t, filepath.Join(base, "data"), paths.DataDir)
	assert.Equal(t, filepath.Clean("/abs/raw"), paths.RawDir)
	assert.Equal(t, filepath.Join(base, "data", "reports"), paths.ReportsDir)
	assert.Equal(t, filepath.Join(base, "data", "reports", "run-1"), paths.GetRunReportDir("run-1"))
	assert.Equal(t, filepath.Join(base, "logs", "app.log"), paths.GetLogPath("app.log"))

	require.NoError(t, paths.EnsureDirectories())
	assert.True(t, FileExists(paths.ReportsDir))
	assert.True(t, FileExists(paths.LogsDir))
	assert.False(t, FileExists(paths.RawDir))
}

func TestLoaderConfig_TableFiles(t *testing.T) {
	l := LoaderConfig{Files: map[string]string{"orders": "orders_2018.csv"}}
	files := l.TableFiles()

	assert.Equal(t, "orders_2018.csv", files["orders"])
	assert.Equal(t, CustomersFile, files["customers"])
	assert.Len(t, files, 8)
}
