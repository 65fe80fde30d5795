package evaluation

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestSplit_Exhaustive verifies the split partitions the series.
// Property: len(train)+len(test) == N, test has h points, and every test
// date is strictly after every train date with no day in both.
func TestSplit_Exhaustive(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("train and test are contiguous and disjoint", prop.ForAll(
		func(n, h int) bool {
			ys := make([]float64, n)
			for i := range ys {
				ys[i] = float64(i)
			}
			train, test, err := Split(points(ys...), h)
			if n <= h {
				return err != nil
			}
			if err != nil {
				return false
			}
			if len(train)+len(test) != n || len(test) != h {
				return false
			}
			if !train[len(train)-1].DS.Before(test[0].DS) {
				return false
			}
			seen := make(map[int64]bool, n)
			for _, p := range append(train[:len(train):len(train)], test...) {
				key := p.DS.Unix()
				if seen[key] {
					return false
				}
				seen[key] = true
			}
			return len(seen) == n
		},
		gen.IntRange(0, 400),
		gen.IntRange(1, 120),
	))

	properties.TestingRun(t)
}

// TestMetrics_Bounds verifies MAE <= RMSE and both are zero only for a
// perfect forecast.
func TestMetrics_Bounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("MAE never exceeds RMSE", prop.ForAll(
		func(actual []float64, offset float64) bool {
			if len(actual) == 0 {
				return true
			}
			predicted := make([]float64, len(actual))
			for i, a := range actual {
				predicted[i] = a + offset*float64(i%3-1)
			}
			m, err := ComputeMetrics(aligned(actual, predicted), true)
			if err != nil {
				return false
			}
			return m.MAE <= m.RMSE+1e-9 && m.MAE >= 0
		},
		gen.SliceOf(gen.Float64Range(-1000, 1000)),
		gen.Float64Range(-50, 50),
	))

	properties.TestingRun(t)
}
