package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/soaringjerry/medscore/internal/models"
)

var (
	assessmentsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medscore_assessments_completed_total",
			Help: "Completed assessments by form and risk level",
		},
		[]string{"form_id", "risk_level"},
	)

	percentageScore = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "medscore_percentage_score",
			Help:    "Distribution of assessment percentage scores",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
		[]string{"form_id"},
	)

	scoreRequests = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "medscore_stateless_score_requests_total",
			Help: "Stateless scoring requests served",
		},
	)

	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medscore_http_requests_total",
			Help: "HTTP requests by route and status code",
		},
		[]string{"method", "route", "status"},
	)
)

// ObserveResult records one completed assessment.
func ObserveResult(formID string, r models.AssessmentResult) {
	assessmentsCompleted.WithLabelValues(formID, string(r.RiskLevel)).Inc()
	percentageScore.WithLabelValues(formID).Observe(r.PercentageScore)
}

func ObserveScoreRequest() { scoreRequests.Inc() }

func ObserveHTTP(method, route, status string) {
	httpRequests.WithLabelValues(method, route, status).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler { return promhttp.Handler() }
