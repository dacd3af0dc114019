package middleware

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/contentpilot/contentpilot-backend/internal/http/response"
	"github.com/contentpilot/contentpilot-backend/internal/observability"
)

func TestMetricsCountsErrorEnvelopesByCode(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := observability.NewMetrics()

	r := gin.New()
	r.Use(Metrics(m))
	r.POST("/api/plan/:day/schedule", func(c *gin.Context) {
		response.RespondError(c, http.StatusNotFound, "plan_item_not_found", errors.New("no plan item for day"))
	})
	for _, day := range []string{"8", "9"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/plan/"+day+"/schedule", nil))
	}

	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	for _, want := range []string{
		`cp_api_errors_total{route="/api/plan/:day/schedule",code="plan_item_not_found"} 2`,
		`cp_api_requests_total{method="POST",route="/api/plan/:day/schedule",status="404"} 2`,
	} {
		if !strings.Contains(buf.String(), want) {
			t.Fatalf("exposition missing %q\n%s", want, buf.String())
		}
	}
}
