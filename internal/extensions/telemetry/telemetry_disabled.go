//go:build no_telemetry

package telemetry

import "net/http"

func SetupTelemetry(name string, version string) (http.Handler, func()) {
	return http.NotFoundHandler(), func() {}
}
