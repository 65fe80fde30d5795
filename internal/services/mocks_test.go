package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"revforecast/internal/exporter"
	"revforecast/internal/pipeline"
	"revforecast/pkg/contracts/domain"
)

type mockLoader struct {
	mock.Mock
}

func (m *mockLoader) Load(ctx context.Context) (*domain.TableSet, error) {
	args := m.Called(ctx)
	ts, _ := args.Get(0).(*domain.TableSet)
	return ts, args.Error(1)
}

type mockExporter struct {
	mock.Mock
}

func (m *mockExporter) ExportRun(ctx context.Context, result *pipeline.Result) (*exporter.Manifest, error) {
	args := m.Called(ctx, result)
	manifest, _ := args.Get(0).(*exporter.Manifest)
	return manifest, args.Error(1)
}
