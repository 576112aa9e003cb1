package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kaizen/internal/models"
)

func TestMiddleware_UsesRouteTemplate(t *testing.T) {
	t.Parallel()

	m := New()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/api/projects/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	for _, path := range []string{"/api/projects/1", "/api/projects/2", "/nowhere"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "/api/projects/:id", "4xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "unmatched", "4xx")))
}

func TestStatusChanged(t *testing.T) {
	t.Parallel()

	m := New()
	m.StatusChanged(models.StatusWaiting, models.StatusApproved)
	m.StatusChanged(models.StatusWaiting, models.StatusApproved)
	m.StatusChanged(models.StatusApproved, models.StatusBestKaizen)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.transitions.WithLabelValues("WAITING", "APPROVED")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.transitions))
}

func TestHandler(t *testing.T) {
	t.Parallel()

	m := New()
	m.StatusChanged(models.StatusEdit, models.StatusWaiting)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.True(t, strings.Contains(string(body), `kaizen_project_status_transitions_total{from="EDIT",to="WAITING"} 1`))
	assert.True(t, strings.Contains(string(body), "go_goroutines"))
}

func TestResultClass(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "2xx", resultClass(201))
	assert.Equal(t, "5xx", resultClass(503))
}
