package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"revforecast/internal/config"
	apperrors "revforecast/internal/errors"
	api "revforecast/pkg/contracts/api/v1"
)

// ReportService gives access to the exported run reports
type ReportService struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewReportService creates a report service over paths.ReportsDir
func NewReportService(paths *config.Paths, logger *slog.Logger) *ReportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportService{
		paths:  paths,
		logger: logger.With(slog.String("component", "report_service")),
	}
}

// ListRuns returns every exported run, newest first. A missing reports
// directory yields an empty list.
func (s *ReportService) ListRuns(ctx context.Context) (api.ReportsResponse, error) {
	resp := api.ReportsResponse{Runs: []api.RunReport{}}

	entries, err := os.ReadDir(s.paths.ReportsDir)
	if errors.Is(err, fs.ErrNotExist) {
		return resp, nil
	}
	if err != nil {
		return resp, apperrors.NewStorageError("failed to read reports directory", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}

		files, err := os.ReadDir(filepath.Join(s.paths.ReportsDir, entry.Name()))
		if err != nil {
			s.logger.WarnContext(ctx, "Skipping unreadable run directory",
				slog.String("run_id", entry.Name()),
				slog.String("error", err.Error()))
			continue
		}

		run := api.RunReport{RunID: entry.Name(), Files: []string{}, ModifiedAt: info.ModTime().UTC()}
		for _, f := range files {
			if !f.IsDir() {
				run.Files = append(run.Files, f.Name())
			}
		}
		resp.Runs = append(resp.Runs, run)
	}

	sort.Slice(resp.Runs, func(i, j int) bool {
		if !resp.Runs[i].ModifiedAt.Equal(resp.Runs[j].ModifiedAt) {
			return resp.Runs[i].ModifiedAt.After(resp.Runs[j].ModifiedAt)
		}
		return resp.Runs[i].RunID < resp.Runs[j].RunID
	})

	s.logger.DebugContext(ctx, "Listed run reports", slog.Int("runs", len(resp.Runs)))
	return resp, nil
}

// ReportPath resolves one file of one run. Names containing path
// separators or dot segments are rejected.
func (s *ReportService) ReportPath(ctx context.Context, runID, file string) (string, error) {
	if !validName(runID) || !validName(file) {
		return "", ErrInvalidName
	}

	path := filepath.Join(s.paths.GetRunReportDir(runID), file)
	info, err := os.Stat(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.ErrorContext(ctx, "Failed to stat report",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return "", apperrors.FileSystemError("report lookup", err)
	}
	if err != nil || info.IsDir() {
		s.logger.DebugContext(ctx, "Report not found",
			slog.String("run_id", runID),
			slog.String("file", file))
		return "", fmt.Errorf("%s/%s: %w", runID, file, ErrReportNotFound)
	}
	return path, nil
}

func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && filepath.Base(name) == name
}
