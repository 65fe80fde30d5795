package evaluation

import (
	"time"

	"revforecast/pkg/contracts/domain"
)

// ComparisonWindow returns the last window days of series with the
// forecast for each day when there is one. Days on or after testStart are
// flagged Test. A non-positive window returns the whole series.
func ComparisonWindow(series []domain.SeriesPoint, forecast []domain.ForecastPoint, testStart time.Time, window int) []domain.ComparisonPoint {
	start := 0
	if window > 0 && len(series) > window {
		start = len(series) - window
	}

	yhat := make(map[time.Time]float64, len(forecast))
	for _, p := range forecast {
		key := dayKey(p.DS)
		if _, ok := yhat[key]; ok && p.InSample {
			continue
		}
		yhat[key] = p.YHat
	}

	out := make([]domain.ComparisonPoint, 0, len(series)-start)
	for _, p := range series[start:] {
		cp := domain.ComparisonPoint{DS: p.DS, Y: p.Y, Test: !p.DS.Before(testStart)}
		if v, ok := yhat[dayKey(p.DS)]; ok {
			cp.YHat = &v
		}
		out = append(out, cp)
	}
	return out
}
