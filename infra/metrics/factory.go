package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/harsheyeditor/OneBlood/core/factory"
	coremetrics "github.com/harsheyeditor/OneBlood/core/metrics"
)

// init registers built-in match sinks.
func init() {
	_ = coremetrics.RegisterMatchSink("nop", func(map[string]any) (coremetrics.MatchSink, error) {
		return coremetrics.NopSink{}, nil
	})

	_ = coremetrics.RegisterMatchSink("prometheus", func(map[string]any) (coremetrics.MatchSink, error) {
		// The HTTP server is started separately from Config.PrometheusPort.
		return NewPromSinkWithRegistry(coremetrics.Config{}, prometheus.DefaultRegisterer)
	})

	_ = coremetrics.RegisterMatchSink("influx", func(conf map[string]any) (coremetrics.MatchSink, error) {
		var c struct {
			URL    string `json:"url"`
			Token  string `json:"token"`
			Org    string `json:"org"`
			Bucket string `json:"bucket"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewInfluxSinkWithFallback(c.URL, c.Token, c.Org, c.Bucket), nil
	})
}
