package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/soaringjerry/medscore/internal/models"
)

func TestObserveResult(t *testing.T) {
	before := testutil.ToFloat64(assessmentsCompleted.WithLabelValues("m-test", "low"))
	ObserveResult("m-test", models.AssessmentResult{PercentageScore: 82, RiskLevel: models.RiskLow})
	assert.Equal(t, before+1, testutil.ToFloat64(assessmentsCompleted.WithLabelValues("m-test", "low")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	ObserveScoreRequest()
	ObserveHTTP("GET", "/health", "200")
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "medscore_stateless_score_requests_total"))
	assert.Contains(t, body, `medscore_http_requests_total{method="GET",route="/health",status="200"}`)
}
