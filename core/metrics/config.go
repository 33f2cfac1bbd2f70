package metrics

import "github.com/harsheyeditor/OneBlood/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks             []factory.ModuleConfig `json:"sinks"`
	PrometheusEnabled bool                   `json:"prometheus_enabled"`
	PrometheusPort    string                 `json:"prometheus_port"`
}
