package monitoring

import (
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/harsheyeditor/OneBlood/config"
	coremon "github.com/harsheyeditor/OneBlood/core/monitoring"
)

type sentryReporter struct{}

// NewSentryReporter initializes the Sentry SDK from cfg. An empty DSN yields
// the discarding reporter so callers never need to special-case it.
func NewSentryReporter(cfg config.SentryConfig) (coremon.Reporter, error) {
	if cfg.DSN == "" {
		return coremon.Discard{}, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		TracesSampleRate: cfg.TracesSampleRate,
	})
	if err != nil {
		return nil, err
	}
	return sentryReporter{}, nil
}

func (sentryReporter) ReportError(err error, tags coremon.Tags) {
	if err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("service", "oneblood")
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		sentry.CaptureException(err)
	})
}

func (sentryReporter) CapturePanic() {
	if r := recover(); r != nil {
		sentry.CurrentHub().Recover(r)
		sentry.Flush(2 * time.Second)
		panic(r)
	}
}

func (sentryReporter) Flush(timeout time.Duration) { sentry.Flush(timeout) }
