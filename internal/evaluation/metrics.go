package evaluation

import (
	"math"

	apperrors "revforecast/internal/errors"
	"revforecast/pkg/contracts/domain"
)

// ComputeMetrics scores aligned pairs. MAE and RMSE use every pair. MAPE,
// when requested, is expressed in percent and skips pairs whose actual is
// zero; the skipped pairs are counted in MAPEExcluded and MAPE stays nil
// when no pair is left.
func ComputeMetrics(aligned []domain.AlignedPoint, withMAPE bool) (domain.Metrics, error) {
	if len(aligned) == 0 {
		return domain.Metrics{}, apperrors.NewInsufficientDataError(stageMetrics, 0, 0)
	}

	var absSum, sqSum, pctSum float64
	pctN := 0
	m := domain.Metrics{N: len(aligned)}

	for _, p := range aligned {
		e := p.Error()
		absSum += math.Abs(e)
		sqSum += e * e
		if !withMAPE {
			continue
		}
		if p.Actual == 0 {
			m.MAPEExcluded++
			continue
		}
		pctSum += math.Abs(e) / math.Abs(p.Actual)
		pctN++
	}

	n := float64(len(aligned))
	m.MAE = absSum / n
	m.RMSE = math.Sqrt(sqSum / n)
	if withMAPE && pctN > 0 {
		mape := pctSum / float64(pctN) * 100
		m.MAPE = &mape
	}
	return m, nil
}
