package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFeatureRow_Covariates(t *testing.T) {
	tests := []struct {
		name  string
		set   func(*FeatureRow, *float64) bool
		get   func(FeatureRow) *float64
		known bool
	}{
		{name: "lag 7", set: func(r *FeatureRow, v *float64) bool { return r.SetLag(7, v) }, get: func(r FeatureRow) *float64 { return r.Lag7 }, known: true},
		{name: "lag 30", set: func(r *FeatureRow, v *float64) bool { return r.SetLag(30, v) }, get: func(r FeatureRow) *float64 { return r.Lag(30) }, known: true},
		{name: "rolling 90", set: func(r *FeatureRow, v *float64) bool { return r.SetRollingMean(90, v) }, get: func(r FeatureRow) *float64 { return r.Rolling90Mean }, known: true},
		{name: "unknown lag", set: func(r *FeatureRow, v *float64) bool { return r.SetLag(14, v) }, get: func(r FeatureRow) *float64 { return r.Lag(14) }},
		{name: "unknown window", set: func(r *FeatureRow, v *float64) bool { return r.SetRollingMean(3, v) }, get: func(r FeatureRow) *float64 { return r.RollingMean(3) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := 4.5
			var row FeatureRow
			assert.Equal(t, tt.known, tt.set(&row, &v))
			if tt.known {
				assert.Equal(t, &v, tt.get(row))
			} else {
				assert.Nil(t, tt.get(row))
			}
		})
	}
}

func TestFeatureRow_EveryStepHasAField(t *testing.T) {
	v := 1.0
	for _, k := range LagSteps {
		var row FeatureRow
		assert.True(t, row.SetLag(k, &v), "lag %d", k)
	}
	for _, w := range RollingWindows {
		var row FeatureRow
		assert.True(t, row.SetRollingMean(w, &v), "window %d", w)
	}
	assert.Equal(t, "lag_1", LagColumn(1))
	assert.Equal(t, "rolling_30_mean", RollingColumn(30))
}
