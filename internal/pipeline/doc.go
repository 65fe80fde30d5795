// Package pipeline runs one forecast from a loaded table set to an
// evaluated forecast: merge, normalize, aggregate, gap fill, entity
// features, temporal covariates, evaluation and, optionally, a concurrent
// comparison of further engines. Each stage is timed, traced and logged.
package pipeline
