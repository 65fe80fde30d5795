package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"revforecast/internal/config"
	apperrors "revforecast/internal/errors"
	"revforecast/internal/shared/testutil"
	api "revforecast/pkg/contracts/api/v1"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		check   func(t *testing.T, o *cliOptions)
		wantErr bool
	}{
		{
			name: "defaults leave the request empty",
			args: nil,
			check: func(t *testing.T, o *cliOptions) {
				assert.Equal(t, api.ForecastRequest{}, o.request)
				assert.Empty(t, o.configFile)
			},
		},
		{
			name: "all overrides",
			args: []string{
				"-config", "cfg.yaml", "-data", "raw", "-reports", "out",
				"-model", "naive", "-horizon", "14", "-compare", "seasonal_naive, moving_average,",
				"-variant", "revenue", "-target", "y", "-rolling", "partial",
				"-entity-scope", "all", "-export",
			},
			check: func(t *testing.T, o *cliOptions) {
				assert.Equal(t, "cfg.yaml", o.configFile)
				assert.Equal(t, "raw", o.rawDir)
				assert.Equal(t, "out", o.reportsDir)
				assert.Equal(t, "naive", o.request.Model)
				assert.Equal(t, 14, o.request.Horizon)
				assert.Equal(t, []string{"seasonal_naive", "moving_average"}, o.request.CompareModels)
				assert.Equal(t, "revenue", o.request.Variant)
				assert.Equal(t, "partial", o.request.RollingPolicy)
				assert.Equal(t, "all", o.request.EntityScope)
				assert.True(t, o.request.Export)
				assert.Nil(t, o.request.MAPE)
			},
		},
		{
			name: "explicit mape flag is forwarded",
			args: []string{"-mape=false"},
			check: func(t *testing.T, o *cliOptions) {
				require.NotNil(t, o.request.MAPE)
				assert.False(t, *o.request.MAPE)
			},
		},
		{name: "unknown flag", args: []string{"-bogus"}, wantErr: true},
		{name: "bad horizon", args: []string{"-horizon", "seven"}, wantErr: true},
		{name: "positional argument", args: []string{"extra"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := parseFlags(tt.args, io.Discard)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, opts)
		})
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte("forecast:\n  horizon: 14\n  model: naive\n"), 0644))

	cfg, err := loadConfig(&cliOptions{configFile: file, rawDir: "/srv/raw", reportsDir: "/srv/out"})
	require.NoError(t, err)

	assert.Equal(t, 14, cfg.Forecast.Horizon)
	assert.Equal(t, "naive", cfg.Forecast.Model)
	assert.Equal(t, "/srv/raw", cfg.Paths.RawDir)
	assert.Equal(t, "/srv/out", cfg.Paths.ReportsDir)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := loadConfig(&cliOptions{configFile: filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.BaseDir = t.TempDir()
	cfg.Forecast.Horizon = 7
	cfg.Forecast.PlotWindow = 20

	raw := filepath.Join(cfg.Paths.BaseDir, cfg.Paths.RawDir)
	require.NoError(t, os.MkdirAll(raw, 0755))
	return cfg
}

func TestRun_PrintsForecast(t *testing.T) {
	cfg := testConfig(t)
	testutil.WriteTablesCSV(t, filepath.Join(cfg.Paths.BaseDir, cfg.Paths.RawDir), testutil.SyntheticTables(60))
	logger, handler := testutil.NewTestLogger(t)

	var out bytes.Buffer
	req := api.ForecastRequest{CompareModels: []string{"naive"}, Export: true}
	require.NoError(t, run(context.Background(), cfg, req, &out, logger))

	var resp api.ForecastResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.NotEmpty(t, resp.RunID)
	assert.Equal(t, "holt_winters", resp.Model)
	assert.Equal(t, 7, resp.Horizon)
	assert.Equal(t, 53, resp.TrainSize)
	assert.GreaterOrEqual(t, len(resp.Forecast), 7)
	require.Len(t, resp.Comparisons, 1)
	assert.Equal(t, "naive", resp.Comparisons[0].Model)
	assert.NotEmpty(t, resp.ReportFiles)

	runDir := filepath.Join(cfg.Paths.BaseDir, cfg.Paths.ReportsDir, resp.RunID)
	assert.FileExists(t, filepath.Join(runDir, "metrics.csv"))
	testutil.AssertLogContains(t, handler, slog.LevelInfo, "Forecast completed")
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name    string
		days    int
		req     api.ForecastRequest
		errType apperrors.ErrorType
	}{
		{name: "missing tables", days: 0, errType: apperrors.ErrTypeSchema},
		{name: "too little history", days: 10, errType: apperrors.ErrTypeInsufficientData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			if tt.days > 0 {
				testutil.WriteTablesCSV(t, filepath.Join(cfg.Paths.BaseDir, cfg.Paths.RawDir), testutil.SyntheticTables(tt.days))
			}
			logger, _ := testutil.NewTestLogger(t)

			var out bytes.Buffer
			err := run(context.Background(), cfg, tt.req, &out, logger)
			require.Error(t, err)

			var appErr *apperrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.errType, appErr.Type)
			assert.Zero(t, out.Len())
		})
	}
}

func TestNewLogger_Console(t *testing.T) {
	logger, err := newLogger(config.LoggingConfig{Level: "debug", Output: "console"})
	require.NoError(t, err)
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
}
