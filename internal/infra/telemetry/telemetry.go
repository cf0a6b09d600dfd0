package telemetry

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dhanush432-code/tradescope-auth/internal/infra/config"
)

// Provider is the telemetry handle returned by Attach.
type Provider struct {
	info prometheus.Gauge
}

// Attach registers the static service-info gauge. Request-level metrics live
// in the HTTP middleware; this only identifies the running build.
func Attach(_ context.Context, cfg *config.AppConfig) (*Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	info := promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "auth",
		Name:      "service_info",
		Help:      "Static service metadata; always 1.",
		ConstLabels: prometheus.Labels{
			"service":     cfg.App.Name,
			"environment": cfg.App.Env,
		},
	})
	info.Set(1)

	return &Provider{info: info}, nil
}
