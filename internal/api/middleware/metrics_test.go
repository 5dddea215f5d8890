package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

// observed returns the sample count recorded for one route/code pair.
func observed(t *testing.T, route, code string) uint64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != "auth_http_request_duration_seconds" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["route"] == route && labels["code"] == code {
				return m.GetHistogram().GetSampleCount()
			}
		}
	}
	return 0
}

func TestMetrics_ObservesRoutePattern(t *testing.T) {
	e := echo.New()
	e.Use(Metrics())
	e.GET("/api/auth/check", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	e.GET("/api/auth/me", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	})

	okBefore := observed(t, "/api/auth/check", "200")
	deniedBefore := observed(t, "/api/auth/me", "401")

	for _, path := range []string{"/api/auth/check", "/api/auth/me"} {
		e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	if got := observed(t, "/api/auth/check", "200"); got != okBefore+1 {
		t.Fatalf("expected one 200 observation, had %d now %d", okBefore, got)
	}
	if got := observed(t, "/api/auth/me", "401"); got != deniedBefore+1 {
		t.Fatalf("expected one 401 observation, had %d now %d", deniedBefore, got)
	}
}
