package system

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewMetricsRegistry is the registry every counter of the service is added to
func NewMetricsRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

type MetricsApi struct {
	registry *prometheus.Registry
}

func NewMetricsApi(registry *prometheus.Registry) *MetricsApi {
	return &MetricsApi{registry: registry}
}

func (h *MetricsApi) Setup(app *fiber.App) {
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{})))
}
