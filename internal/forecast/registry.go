package forecast

import (
	"fmt"
	"sort"
	"strings"

	"revforecast/internal/config"
	apperrors "revforecast/internal/errors"
)

// Engine names
const (
	NameNaive         = "naive"
	NameSeasonalNaive = "seasonal_naive"
	NameMovingAverage = "moving_average"
	NameHoltWinters   = "holt_winters"
)

// Options carries the tunables of every engine.
type Options struct {
	SeasonLength int
	Window       int
	Alpha        float64
	Beta         float64
	Gamma        float64
}

// DefaultOptions returns weekly seasonality and conservative smoothing.
func DefaultOptions() Options {
	return Options{SeasonLength: 7, Window: 7, Alpha: 0.3, Beta: 0.05, Gamma: 0.2}
}

// OptionsFromConfig maps the forecast configuration onto engine options.
func OptionsFromConfig(cfg config.ForecastConfig) Options {
	return Options{
		SeasonLength: cfg.SeasonLength,
		Window:       cfg.MovingAverageWindow,
		Alpha:        cfg.Alpha,
		Beta:         cfg.Beta,
		Gamma:        cfg.Gamma,
	}
}

var constructors = map[string]func(Options) Forecaster{
	NameNaive:         func(Options) Forecaster { return Naive{} },
	NameSeasonalNaive: func(o Options) Forecaster { return SeasonalNaive{Period: o.SeasonLength} },
	NameMovingAverage: func(o Options) Forecaster { return MovingAverage{Window: o.Window} },
	NameHoltWinters: func(o Options) Forecaster {
		return HoltWinters{Alpha: o.Alpha, Beta: o.Beta, Gamma: o.Gamma, SeasonLength: o.SeasonLength}
	},
}

// New returns the named engine.
func New(name string, opts Options) (Forecaster, error) {
	ctor, ok := constructors[name]
	if !ok {
		return nil, apperrors.NewAppValidationError(
			fmt.Sprintf("unknown model %q (available: %s)", name, strings.Join(Names(), ", ")))
	}
	return ctor(opts), nil
}

// Names lists the registered engines in alphabetical order.
func Names() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
