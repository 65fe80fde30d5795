package forecast

import (
	"context"

	"revforecast/pkg/contracts/domain"
)

// HoltWinters is additive triple exponential smoothing with a fixed season.
type HoltWinters struct {
	Alpha        float64
	Beta         float64
	Gamma        float64
	SeasonLength int
}

func (hw HoltWinters) Name() string { return NameHoltWinters }

// Fit needs two full seasons to initialize. The level starts at the mean
// of the first season, the trend at the per-day change between the first
// two season means, and each seasonal index at its first-season deviation
// from the level.
func (hw HoltWinters) Fit(ctx context.Context, history []domain.SeriesPoint) (Model, error) {
	m := hw.SeasonLength
	if m < 1 {
		m = 1
	}
	dates, y, err := checkHistory(ctx, history, 2*m)
	if err != nil {
		return nil, err
	}

	level := mean(y[:m])
	trend := (mean(y[m:2*m]) - level) / float64(m)
	season := make([]float64, m)
	for i := 0; i < m; i++ {
		season[i] = y[i] - level
	}

	fitted := make([]*float64, len(y))
	for t, obs := range y {
		s := t % m
		v := level + trend + season[s]
		fitted[t] = &v

		prevLevel := level
		level = hw.Alpha*(obs-season[s]) + (1-hw.Alpha)*(level+trend)
		trend = hw.Beta*(level-prevLevel) + (1-hw.Beta)*trend
		season[s] = hw.Gamma*(obs-level) + (1-hw.Gamma)*season[s]
	}

	n := len(y)
	return &fittedModel{
		dates:  dates,
		fitted: fitted,
		ahead: func(h int) float64 {
			return level + float64(h)*trend + season[(n+h-1)%m]
		},
	}, nil
}
