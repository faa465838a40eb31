package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.ObserveSubmission(OutcomeCreated, "yes")
	m.ObserveSubmission(OutcomeCreated, "yes")
	m.ObserveSubmission(OutcomeInvalid, "")
	m.ObserveExport(http.StatusForbidden)
	m.ObserveNotification("email", errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Submissions.WithLabelValues(OutcomeCreated, "yes")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Submissions.WithLabelValues(OutcomeInvalid, "unknown")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Exports.WithLabelValues("403")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues("email", "error")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveRequest("/api/rsvp", http.MethodPost, http.StatusCreated, 15*time.Millisecond)

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	body, err := io.ReadAll(rr.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `wedding_http_request_duration_seconds_count{method="POST",route="/api/rsvp",status="201"} 1`))
}
