package evaluation

import "revforecast/pkg/contracts/domain"

// NaiveBaseline predicts each test day with the actual of the day before,
// the first one with the last training value. It needs a non-empty train.
func NaiveBaseline(train, test []domain.SeriesPoint) []domain.AlignedPoint {
	if len(train) == 0 || len(test) == 0 {
		return nil
	}
	out := make([]domain.AlignedPoint, len(test))
	prev := train[len(train)-1].Y
	for i, p := range test {
		out[i] = domain.AlignedPoint{DS: p.DS, Actual: p.Y, Predicted: prev}
		prev = p.Y
	}
	return out
}
