package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Handler(t *testing.T) {
	m := New(prometheus.Labels{"instance": "test"})
	m.MessagesRouted.WithLabelValues("public").Inc()
	m.OnlineUsers.Set(3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `gobychat_messages_routed_total{instance="test",kind="public"} 1`)
	assert.Contains(t, body, `gobychat_online_users{instance="test"} 3`)
}

func TestMetrics_Counters(t *testing.T) {
	m := New(nil)
	m.RouteFailures.WithLabelValues("group", "not_found").Inc()
	m.RouteFailures.WithLabelValues("group", "not_found").Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RouteFailures.WithLabelValues("group", "not_found")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.FramesDropped))
}
