package services

import (
	apperrors "revforecast/internal/errors"
)

// Service errors
var (
	ErrTooManyRuns    = apperrors.ErrServiceUnavailable.WithMessage("too many forecast runs in progress")
	ErrExportDisabled = apperrors.ErrServiceUnavailable.WithMessage("report export is not configured")
	ErrReportNotFound = apperrors.NotFoundError("report")
	ErrInvalidName    = apperrors.ErrValidationFailed.WithMessage("invalid run id or file name")
)
