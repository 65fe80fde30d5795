// Package evaluation holds the split/evaluate discipline: a daily series
// is cut into a training prefix and a held-out suffix of h days, a model
// is fitted on the prefix only, and its forecast is scored against the
// suffix by exact date match.
package evaluation
