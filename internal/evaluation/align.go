package evaluation

import (
	"time"

	apperrors "revforecast/internal/errors"
	"revforecast/pkg/contracts/domain"
)

// Align pairs every test point with the forecast for the same calendar
// day. A test day without a forecast is an alignment error; forecast days
// outside the test range are ignored. When a day has both an in-sample
// and an out-of-sample forecast the out-of-sample value wins.
func Align(test []domain.SeriesPoint, forecast []domain.ForecastPoint) ([]domain.AlignedPoint, error) {
	type entry struct {
		yhat     float64
		inSample bool
	}
	byDay := make(map[time.Time]entry, len(forecast))
	for _, p := range forecast {
		key := dayKey(p.DS)
		if prev, ok := byDay[key]; ok && !prev.inSample {
			continue
		}
		byDay[key] = entry{yhat: p.YHat, inSample: p.InSample}
	}

	aligned := make([]domain.AlignedPoint, len(test))
	for i, p := range test {
		e, ok := byDay[dayKey(p.DS)]
		if !ok {
			return nil, apperrors.NewAlignmentError(stageAlign, p.DS.Format(domain.DateLayout))
		}
		aligned[i] = domain.AlignedPoint{DS: p.DS, Actual: p.Y, Predicted: e.yhat}
	}
	return aligned, nil
}

func dayKey(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
