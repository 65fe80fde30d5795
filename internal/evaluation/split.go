package evaluation

import (
	"fmt"
	"sort"
	"time"

	apperrors "revforecast/internal/errors"
	"revforecast/pkg/contracts/domain"
)

const (
	stageSplit   = "split"
	stageAlign   = "align"
	stageMetrics = "metrics"
	seriesTable  = "daily_series"
)

// Split returns a sorted copy of series cut into a training prefix of
// N-h points and a test suffix of h points. It fails with an insufficient
// data error unless N > h, and with a schema error when two points share
// a date. The input is not modified.
func Split(series []domain.SeriesPoint, h int) (train, test []domain.SeriesPoint, err error) {
	if h < 1 {
		return nil, nil, apperrors.NewAppValidationError(fmt.Sprintf("horizon must be positive, got %d", h)).
			WithContext(apperrors.CtxStage, stageSplit)
	}
	if len(series) <= h {
		return nil, nil, apperrors.NewInsufficientDataError(stageSplit, h, len(series))
	}

	sorted := append([]domain.SeriesPoint(nil), series...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].DS.Before(sorted[j].DS) })
	for i := 1; i < len(sorted); i++ {
		if sorted[i].DS.Equal(sorted[i-1].DS) {
			return nil, nil, apperrors.NewSchemaError(stageSplit, seriesTable, domain.ColumnDS).
				WithContext(apperrors.CtxDate, sorted[i].DS.Format(domain.DateLayout)).
				WithContext("reason", "duplicate date")
		}
	}

	cut := len(sorted) - h
	return sorted[:cut:cut], sorted[cut:], nil
}

// TestStart returns the first held-out date of series for horizon h.
func TestStart(series []domain.SeriesPoint, h int) (time.Time, error) {
	_, test, err := Split(series, h)
	if err != nil {
		return time.Time{}, err
	}
	return test[0].DS, nil
}
