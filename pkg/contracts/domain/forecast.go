package domain

import "time"

// Metric keys of the metrics mapping.
const (
	MetricMAE  = "mae"
	MetricRMSE = "rmse"
	MetricMAPE = "mape"
)

// ForecastPoint is one predicted value. InSample marks fitted values for
// dates that were part of the training history.
type ForecastPoint struct {
	DS       time.Time `json:"ds"`
	YHat     float64   `json:"yhat"`
	InSample bool      `json:"in_sample"`
}

// AlignedPoint pairs an actual test value with the forecast for its date.
type AlignedPoint struct {
	DS        time.Time `json:"ds"`
	Actual    float64   `json:"y"`
	Predicted float64   `json:"yhat"`
}

// Error returns actual minus predicted.
func (a AlignedPoint) Error() float64 {
	return a.Actual - a.Predicted
}

// Metrics summarizes forecast accuracy over the held-out horizon.
type Metrics struct {
	MAE  float64  `json:"mae"`
	RMSE float64  `json:"rmse"`
	MAPE *float64 `json:"mape,omitempty"`
	// MAPEExcluded counts pairs left out of MAPE because the actual was zero.
	MAPEExcluded int `json:"mape_excluded"`
	N            int `json:"n"`
}

// AsMap returns the metrics mapping with string keys.
func (m Metrics) AsMap() map[string]float64 {
	out := map[string]float64{
		MetricMAE:  m.MAE,
		MetricRMSE: m.RMSE,
	}
	if m.MAPE != nil {
		out[MetricMAPE] = *m.MAPE
	}
	return out
}

// Evaluation is the Split/Evaluate Engine result for one model.
type Evaluation struct {
	Model     string          `json:"model"`
	Horizon   int             `json:"horizon"`
	TrainSize int             `json:"train_size"`
	TestSize  int             `json:"test_size"`
	TrainEnd  time.Time       `json:"train_end"`
	TestStart time.Time       `json:"test_start"`
	Forecast  []ForecastPoint `json:"forecast"`
	Aligned   []AlignedPoint  `json:"aligned"`
	Metrics   Metrics         `json:"metrics"`
	// Baseline holds the one-step naive metrics over the same test days.
	Baseline *Metrics `json:"baseline,omitempty"`
}

// ComparisonPoint is one day of the actual-versus-forecast window handed
// to reporting. YHat is nil for days the forecast does not cover.
type ComparisonPoint struct {
	DS   time.Time `json:"ds"`
	Y    float64   `json:"y"`
	YHat *float64  `json:"yhat,omitempty"`
	Test bool      `json:"test"`
}
