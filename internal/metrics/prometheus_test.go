package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T) string {
	t.Helper()
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestRecordHTTPRequest_StatusClass(t *testing.T) {
	RecordHTTPRequest("POST", "/decide", 403, 5*time.Millisecond)
	RecordHTTPRequest("GET", "/health", 200, time.Millisecond)

	body := scrape(t)
	assert.Contains(t, body, `funding_workflow_http_requests_total{method="POST",route="/decide",status="4xx"}`)
	assert.Contains(t, body, `funding_workflow_http_requests_total{method="GET",route="/health",status="2xx"}`)
	assert.Contains(t, body, "funding_workflow_http_request_duration_seconds_bucket")
}

func TestRecordDecision_EmptyDecisionLabel(t *testing.T) {
	RecordDecision("", "validation")
	assert.Contains(t, scrape(t), `funding_workflow_decisions_total{decision="invalid",outcome="validation"}`)
}

func TestHandler_ExposesCounters(t *testing.T) {
	RecordSubmission(OutcomeSuccess)
	RecordNotification("approver", OutcomeFailure)

	body := scrape(t)
	assert.Contains(t, body, `funding_workflow_submissions_total{outcome="success"}`)
	assert.Contains(t, body, `funding_workflow_notifications_total{audience="approver",result="failure"}`)
}
