package services

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"revforecast/internal/config"
	"revforecast/internal/shared/testutil"
	"revforecast/pkg/contracts"
)

func TestHealthService_HealthCheck(t *testing.T) {
	hs := NewHealthService(&config.Paths{}, nil)
	status := hs.HealthCheck(context.Background())

	assert.Equal(t, StatusOK, status.Status)
	assert.Equal(t, contracts.Version, status.Version)
	assert.False(t, status.Timestamp.IsZero())
}

func TestHealthService_ReadinessCheck(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(t *testing.T, root string) *config.Paths
		wantStatus string
		wantChecks map[string]string
	}{
		{
			name: "ready",
			setup: func(t *testing.T, root string) *config.Paths {
				raw := filepath.Join(root, "raw")
				require.NoError(t, os.MkdirAll(raw, 0755))
				return &config.Paths{RawDir: raw, ReportsDir: filepath.Join(root, "reports")}
			},
			wantStatus: StatusReady,
			wantChecks: map[string]string{"raw_data": StatusOK, "reports": StatusOK},
		},
		{
			name: "raw data missing",
			setup: func(t *testing.T, root string) *config.Paths {
				return &config.Paths{RawDir: filepath.Join(root, "raw"), ReportsDir: filepath.Join(root, "reports")}
			},
			wantStatus: StatusNotReady,
			wantChecks: map[string]string{"reports": StatusOK},
		},
		{
			name: "raw data is a file",
			setup: func(t *testing.T, root string) *config.Paths {
				raw := filepath.Join(root, "raw")
				require.NoError(t, os.WriteFile(raw, nil, 0644))
				return &config.Paths{RawDir: raw, ReportsDir: filepath.Join(root, "reports")}
			},
			wantStatus: StatusNotReady,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := testutil.NewTestLogger(t)
			hs := NewHealthService(tt.setup(t, t.TempDir()), logger)

			status := hs.ReadinessCheck(context.Background())
			assert.Equal(t, tt.wantStatus, status.Status)
			for check, want := range tt.wantChecks {
				assert.Equal(t, want, status.Checks[check], check)
			}
			if tt.wantStatus == StatusNotReady {
				assert.NotEqual(t, StatusOK, status.Checks["raw_data"])
				testutil.AssertLogContains(t, logs, slog.LevelWarn, "Readiness check failed")
			}
		})
	}
}

func TestHealthService_ReadinessLeavesNoProbeFiles(t *testing.T) {
	root := t.TempDir()
	reports := filepath.Join(root, "reports")
	hs := NewHealthService(&config.Paths{RawDir: root, ReportsDir: reports}, nil)
	hs.ReadinessCheck(context.Background())

	entries, err := os.ReadDir(reports)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestHealthService_Version(t *testing.T) {
	v := NewHealthService(&config.Paths{}, nil).Version()
	assert.Equal(t, contracts.Version, v["version"])
	assert.Equal(t, contracts.APIVersion, v["api_version"])
	assert.Contains(t, v, "uptime")
}
