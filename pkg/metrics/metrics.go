// Package metrics reports traces, custom events and custom metrics to New
// Relic. Every function is a no-op when the context carries no application
// or transaction, so callers never check whether reporting is enabled.
package metrics

import (
	"context"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
)

type applicationKey struct{}

// WithApplication returns a context whose events and metrics are reported to
// app. A nil app leaves ctx unchanged.
func WithApplication(ctx context.Context, app *newrelic.Application) context.Context {
	if app == nil {
		return ctx
	}
	return context.WithValue(ctx, applicationKey{}, app)
}

func application(ctx context.Context) *newrelic.Application {
	app, _ := ctx.Value(applicationKey{}).(*newrelic.Application)
	return app
}

// RecordEvent records a custom event named eventName.
func RecordEvent(ctx context.Context, eventName string, attributes map[string]interface{}) {
	if app := application(ctx); app != nil {
		app.RecordCustomEvent(eventName, attributes)
	}
}

// RecordCount records a count metric.
func RecordCount(ctx context.Context, metricName string, count uint64) {
	if app := application(ctx); app != nil {
		app.RecordCustomMetric(metricName, float64(count))
	}
}

// RecordDuration records a duration metric in milliseconds.
func RecordDuration(ctx context.Context, metricName string, duration time.Duration) {
	if app := application(ctx); app != nil {
		app.RecordCustomMetric(metricName, float64(duration)/float64(time.Millisecond))
	}
}
