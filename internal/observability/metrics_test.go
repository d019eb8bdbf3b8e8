package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func TestMetricsHandlerExposesEngineCollectors(t *testing.T) {
	AttemptStarts().WithLabelValues("START").Inc()
	FinalScoreCache().WithLabelValues("miss").Inc()

	app := fiber.New()
	app.Get("/metrics", MetricsHandler())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `assessment_attempt_starts_total{decision="START"}`)
	require.Contains(t, string(body), `assessment_final_score_cache_total{result="miss"}`)
}
