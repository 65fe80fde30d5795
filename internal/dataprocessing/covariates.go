package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"

	apperrors "revforecast/internal/errors"
	"revforecast/pkg/contracts/domain"
)

const stageCovariates = "covariates"

// RollingPolicy decides how a rolling mean treats windows with fewer than
// w observations.
type RollingPolicy string

const (
	// RollingFull requires w observations; the first w-1 rows are missing.
	RollingFull RollingPolicy = "full"
	// RollingPartial averages whatever observations the window holds.
	RollingPartial RollingPolicy = "partial"
)

// CovariateBuilder derives calendar flags and lag/rolling covariates of a
// target column from a gap-free daily series.
type CovariateBuilder struct {
	target string
	policy RollingPolicy
	logger *slog.Logger
}

// NewCovariateBuilder creates a covariate builder
func NewCovariateBuilder(target string, policy RollingPolicy, logger *slog.Logger) *CovariateBuilder {
	if logger == nil {
		logger = slog.Default()
	}
	if target == "" {
		target = domain.ColumnY
	}
	if policy == "" {
		policy = RollingFull
	}
	return &CovariateBuilder{
		target: target,
		policy: policy,
		logger: logger.With(slog.String("component", "covariates")),
	}
}

// Build returns one feature row per input point. The input must be sorted
// with exactly one day between consecutive points; run the gap filler
// first. lag_k at row i reads only row i-k and rolling_w at row i reads
// only rows i-w+1..i, so no covariate sees a later value.
func (b *CovariateBuilder) Build(ctx context.Context, points []domain.DailyPoint) ([]domain.FeatureRow, error) {
	if b.policy != RollingFull && b.policy != RollingPartial {
		return nil, apperrors.NewAppValidationError(fmt.Sprintf("unknown rolling policy %q", b.policy)).
			WithContext(apperrors.CtxStage, stageCovariates)
	}
	if len(points) == 0 {
		return []domain.FeatureRow{}, nil
	}
	if _, ok := points[0].Value(b.target); !ok {
		return nil, apperrors.NewMissingColumnError(stageCovariates, b.target, availableColumns(points[0]))
	}
	if err := checkContiguous(points); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	values := make([]*float64, len(points))
	for i, p := range points {
		values[i], _ = p.Value(b.target)
	}

	rows := make([]domain.FeatureRow, len(points))
	for i, p := range points {
		cal := CalendarFor(p.DS)
		row := domain.FeatureRow{
			DailyPoint: p,
			Month:      cal.Month,
			ISOWeek:    cal.ISOWeek,
			DayOfWeek:  cal.DayOfWeek,
			Weekend:    cal.Weekend,
		}
		for _, k := range domain.LagSteps {
			row.SetLag(k, lag(values, i, k))
		}
		for _, w := range domain.RollingWindows {
			row.SetRollingMean(w, rollingMean(values, i, w, b.policy))
		}
		rows[i] = row
	}

	b.logger.DebugContext(ctx, "Temporal covariates built",
		slog.String("target", b.target),
		slog.String("rolling_policy", string(b.policy)),
		slog.Int("rows", len(rows)))

	return rows, nil
}

func lag(values []*float64, i, k int) *float64 {
	if i < k || values[i-k] == nil {
		return nil
	}
	v := *values[i-k]
	return &v
}

func rollingMean(values []*float64, i, w int, policy RollingPolicy) *float64 {
	start := i - w + 1
	if start < 0 {
		if policy == RollingFull {
			return nil
		}
		start = 0
	}

	var sum float64
	n := 0
	for j := start; j <= i; j++ {
		if values[j] == nil {
			if policy == RollingFull {
				return nil
			}
			continue
		}
		sum += *values[j]
		n++
	}
	if n == 0 {
		return nil
	}
	mean := sum / float64(n)
	return &mean
}

// checkContiguous reports the first date that breaks the one-day spacing.
func checkContiguous(points []domain.DailyPoint) error {
	for i := 1; i < len(points); i++ {
		want := points[i-1].DS.AddDate(0, 0, 1)
		if !points[i].DS.Equal(want) {
			return apperrors.NewAppValidationError(
				fmt.Sprintf("daily series is not gap-free: expected %s after %s, got %s",
					want.Format(domain.DateLayout),
					points[i-1].DS.Format(domain.DateLayout),
					points[i].DS.Format(domain.DateLayout))).
				WithContext(apperrors.CtxStage, stageCovariates).
				WithContext(apperrors.CtxDate, points[i].DS.Format(domain.DateLayout))
		}
	}
	return nil
}

func availableColumns(p domain.DailyPoint) []string {
	cols := []string{domain.ColumnDS}
	for _, c := range []string{domain.ColumnY, domain.ColumnOrderCount, domain.ColumnAvgOrderValue} {
		if _, ok := p.Value(c); ok {
			cols = append(cols, c)
		}
	}
	return cols
}
