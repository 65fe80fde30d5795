package forecast

import (
	"context"

	"revforecast/pkg/contracts/domain"
)

// Naive repeats the last observed value.
type Naive struct{}

func (Naive) Name() string { return NameNaive }

// Fit uses y(t-1) as the in-sample fit and the last value for every future day.
func (Naive) Fit(ctx context.Context, history []domain.SeriesPoint) (Model, error) {
	dates, y, err := checkHistory(ctx, history, 1)
	if err != nil {
		return nil, err
	}

	fitted := make([]*float64, len(y))
	for t := 1; t < len(y); t++ {
		v := y[t-1]
		fitted[t] = &v
	}
	last := y[len(y)-1]

	return &fittedModel{
		dates:  dates,
		fitted: fitted,
		ahead:  func(int) float64 { return last },
	}, nil
}

// SeasonalNaive repeats the value observed one season earlier.
type SeasonalNaive struct {
	Period int
}

func (s SeasonalNaive) Name() string { return NameSeasonalNaive }

func (s SeasonalNaive) Fit(ctx context.Context, history []domain.SeriesPoint) (Model, error) {
	m := s.Period
	if m < 1 {
		m = 1
	}
	dates, y, err := checkHistory(ctx, history, m)
	if err != nil {
		return nil, err
	}

	fitted := make([]*float64, len(y))
	for t := m; t < len(y); t++ {
		v := y[t-m]
		fitted[t] = &v
	}
	lastSeason := append([]float64(nil), y[len(y)-m:]...)

	return &fittedModel{
		dates:  dates,
		fitted: fitted,
		ahead:  func(h int) float64 { return lastSeason[(h-1)%m] },
	}, nil
}

// MovingAverage forecasts the mean of the trailing window.
type MovingAverage struct {
	Window int
}

func (a MovingAverage) Name() string { return NameMovingAverage }

func (a MovingAverage) Fit(ctx context.Context, history []domain.SeriesPoint) (Model, error) {
	w := a.Window
	if w < 1 {
		w = 1
	}
	dates, y, err := checkHistory(ctx, history, w)
	if err != nil {
		return nil, err
	}

	fitted := make([]*float64, len(y))
	for t := w; t < len(y); t++ {
		v := mean(y[t-w : t])
		fitted[t] = &v
	}
	level := mean(y[len(y)-w:])

	return &fittedModel{
		dates:  dates,
		fitted: fitted,
		ahead:  func(int) float64 { return level },
	}, nil
}
