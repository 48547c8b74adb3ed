//go:build !no_telemetry

package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

// SetupTelemetry installs a prometheus-backed meter provider as the
// global otel provider. The returned handler serves the scrape
// endpoint and the returned func shuts the provider down.
func SetupTelemetry(name string, version string) (http.Handler, func()) {
	exporter, err := otelprom.New()
	if err != nil {
		zap.L().Error("prometheus exporter init failed", zap.Error(err))
		return promhttp.Handler(), func() {}
	}
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(provider)
	return promhttp.Handler(), func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			zap.L().Error("meter provider shutdown failed", zap.Error(err))
		}
	}
}
