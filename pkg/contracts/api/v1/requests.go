// Package api contains the request and response contracts of the forecast
// HTTP API. Version v1 is the current stable API version.
package api

// ForecastRequest runs one forecast over the configured dataset. Every
// field is optional and overrides the server's forecast configuration.
type ForecastRequest struct {
	Horizon       int      `json:"horizon,omitempty" validate:"omitempty,min=1,max=366"`
	Model         string   `json:"model,omitempty" validate:"omitempty,max=64"`
	CompareModels []string `json:"compare_models,omitempty" validate:"omitempty,max=8,dive,required"`
	Variant       string   `json:"variant,omitempty" validate:"omitempty,oneof=revenue orders"`
	TargetColumn  string   `json:"target_column,omitempty" validate:"omitempty,oneof=y order_count avg_order_value"`
	RollingPolicy string   `json:"rolling_policy,omitempty" validate:"omitempty,oneof=full partial"`
	EntityScope   string   `json:"entity_scope,omitempty" validate:"omitempty,oneof=train all"`
	MAPE          *bool    `json:"mape,omitempty"`
	// Export writes the run's report files next to the other reports.
	Export bool `json:"export"`
}
