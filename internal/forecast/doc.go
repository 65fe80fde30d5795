// Package forecast defines the contract between the evaluation engine and
// a forecasting model, and provides a few interchangeable engines.
//
// A Forecaster is fitted on a history of (ds, y) points and yields a Model.
// Model.Predict returns the in-sample fitted values followed by one point
// per requested future day. Engines are looked up by name through New.
package forecast
