package forecast

import (
	"context"
	"fmt"
	"time"

	apperrors "revforecast/internal/errors"
	"revforecast/pkg/contracts/domain"
)

const (
	stageFit     = "fit"
	stagePredict = "predict"
)

// Forecaster fits a model on a daily history.
type Forecaster interface {
	Name() string
	Fit(ctx context.Context, history []domain.SeriesPoint) (Model, error)
}

// Model produces point forecasts. Predict returns the in-sample fitted
// values (InSample=true) followed by periods future days.
type Model interface {
	Predict(ctx context.Context, periods int) ([]domain.ForecastPoint, error)
}

// fittedModel is the Model shared by every engine: a set of in-sample
// fitted values plus a function giving the forecast h days ahead.
type fittedModel struct {
	dates  []time.Time
	fitted []*float64
	ahead  func(h int) float64
}

func (m *fittedModel) Predict(ctx context.Context, periods int) ([]domain.ForecastPoint, error) {
	if periods < 1 {
		return nil, apperrors.NewAppValidationError(fmt.Sprintf("periods must be positive, got %d", periods)).
			WithContext(apperrors.CtxStage, stagePredict)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]domain.ForecastPoint, 0, len(m.dates)+periods)
	for i, d := range m.dates {
		if m.fitted[i] == nil {
			continue
		}
		out = append(out, domain.ForecastPoint{DS: d, YHat: *m.fitted[i], InSample: true})
	}

	last := m.dates[len(m.dates)-1]
	for h := 1; h <= periods; h++ {
		out = append(out, domain.ForecastPoint{DS: last.AddDate(0, 0, h), YHat: m.ahead(h)})
	}
	return out, nil
}

// checkHistory verifies history has at least minPoints points with strictly
// increasing dates, and splits it into dates and values.
func checkHistory(ctx context.Context, history []domain.SeriesPoint, minPoints int) ([]time.Time, []float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if minPoints < 1 {
		minPoints = 1
	}
	if len(history) < minPoints {
		return nil, nil, apperrors.NewInsufficientDataError(stageFit, minPoints-1, len(history))
	}

	dates := make([]time.Time, len(history))
	values := make([]float64, len(history))
	for i, p := range history {
		if i > 0 && !p.DS.After(history[i-1].DS) {
			return nil, nil, apperrors.NewAppValidationError("history dates must be strictly increasing").
				WithContext(apperrors.CtxStage, stageFit).
				WithContext(apperrors.CtxDate, p.DS.Format(domain.DateLayout))
		}
		dates[i] = p.DS
		values[i] = p.Y
	}
	return dates, values, nil
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
