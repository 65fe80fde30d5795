// Package config provides centralized configuration management for the
// revenue forecasting pipeline. It loads settings from defaults, an optional
// YAML file and the environment, validates them, and resolves the data,
// report and log directories.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//  1. Environment variables (highest priority)
//  2. YAML file (config.yaml, configs/config.yaml or REVFC_CONFIG_FILE)
//  3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern REVFC_<SECTION>_<FIELD>:
//
//	REVFC_FORECAST_HORIZON=60
//	REVFC_FORECAST_MODEL=seasonal_naive
//	REVFC_FORECAST_COMPARE_MODELS=naive,moving_average
//	REVFC_PATHS_RAW_DIR=/data/olist
//	REVFC_LOGGING_LEVEL=debug
//
// # Path Management
//
// Relative directories are resolved against paths.base_dir (the working
// directory when unset):
//
//	paths, err := cfg.ResolvePaths()
//	reportPath := paths.GetReportPath("forecast.csv")
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//
// # Testing
//
// Use config.Default() for a configuration that needs no environment
// variables or files.
package config
