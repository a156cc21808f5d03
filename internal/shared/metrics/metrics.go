package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every collector exposed on /metrics.
var Registry = prometheus.NewRegistry()

var (
	ingestRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ingest_requests_total",
		Help: "Upload ingestions by result and failing step.",
	}, []string{"result", "step"})

	ingestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ingest_duration_seconds",
		Help:    "End-to-end ingestion duration.",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
	}, []string{"result"})

	tenantsProvisioned = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tenants_provisioned_total",
		Help: "Directory entries created on first use.",
	})

	provisionRaces = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tenant_provision_races_total",
		Help: "First-use inserts that lost a duplicate-key race and re-read the directory.",
	})
)

func init() {
	Registry.MustRegister(
		ingestRequests,
		ingestDuration,
		tenantsProvisioned,
		provisionRaces,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// ObserveIngest records one finished ingestion. step is empty on success.
func ObserveIngest(step string, elapsed time.Duration) {
	result := "success"
	if step != "" {
		result = "failure"
	}
	ingestRequests.WithLabelValues(result, step).Inc()
	ingestDuration.WithLabelValues(result).Observe(elapsed.Seconds())
}

// IncTenantProvisioned increments the provisioned tenants counter.
func IncTenantProvisioned() {
	tenantsProvisioned.Inc()
}

// IncProvisionRace increments the lost-race counter.
func IncProvisionRace() {
	provisionRaces.Inc()
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(Registry, promhttp.HandlerOpts{}))
}
