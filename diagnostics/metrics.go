// Package diagnostics exposes an HTTP server reporting subscription and
// provider health, grounded on the teacher's router/v1 + go-metrics
// conventions (gorilla/mux routing, armon/go-metrics in-memory sink).
package diagnostics

import (
	"time"

	gometrics "github.com/armon/go-metrics"

	"github.com/bidfx-oss/pricing-go/pricing"
)

// Metrics wraps an in-memory go-metrics sink, recording counters for price,
// subscription and provider events raised through a pricing.Callbacks,
// mirroring the teacher's telemetry.Gather-backed metrics registration.
type Metrics struct {
	sink *gometrics.InmemSink
}

// NewMetrics constructs a Metrics instance that aggregates samples into
// ten-second intervals and retains the last 5 minutes of them, and installs
// it as the process-wide default go-metrics sink.
func NewMetrics(serviceName string) *Metrics {
	sink := gometrics.NewInmemSink(10*time.Second, 5*time.Minute)
	cfg := gometrics.DefaultConfig(serviceName)
	cfg.EnableHostname = false
	_, _ = gometrics.NewGlobal(cfg, sink)
	return &Metrics{sink: sink}
}

// Sink returns the underlying in-memory sink, used by the diagnostics server
// to render the /metrics endpoint.
func (m *Metrics) Sink() *gometrics.InmemSink { return m.sink }

// Instrument wires counters into cb's handlers, calling through to any
// handler already set so Instrument can be layered onto existing callbacks.
func (m *Metrics) Instrument(cb *pricing.Callbacks) {
	prevPrice := cb.PriceEventFn
	cb.PriceEventFn = func(e pricing.PriceEvent) {
		gometrics.IncrCounter([]string{"pricing", "price_event"}, 1)
		if prevPrice != nil {
			prevPrice(e)
		}
	}

	prevSub := cb.SubscriptionEventFn
	cb.SubscriptionEventFn = func(e pricing.SubscriptionEvent) {
		gometrics.IncrCounter([]string{"pricing", "subscription_event", e.Status.String()}, 1)
		if prevSub != nil {
			prevSub(e)
		}
	}

	prevProvider := cb.ProviderEventFn
	cb.ProviderEventFn = func(e pricing.ProviderEvent) {
		gometrics.IncrCounter([]string{"pricing", "provider_event", e.Status.String()}, 1)
		if prevProvider != nil {
			prevProvider(e)
		}
	}
}
