package observability

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

func TestProm_NilSafeHelpers(t *testing.T) {
	var p *Prom
	p.Transition("event_created")
	p.CacheResult("all", "hit")
	p.NotifyResult("registration", errors.New("down"))
}

func TestProm_MetricsEndpointExposesTransitions(t *testing.T) {
	gin.SetMode(gin.TestMode)
	p := NewProm(prometheus.NewRegistry())

	p.Transition("event_approved")
	p.Transition("event_approved")

	r := gin.New()
	r.Use(p.GinHandleMiddleware())
	r.GET("/metrics", p.MetricsHandler())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `collegeevents_domain_transitions_total{transition="event_approved"} 2`) {
		t.Fatalf("transition counter missing from exposition:\n%s", w.Body.String())
	}
}

func TestLogger_AddsNoTraceIDsWithoutSpan(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "dev")

	log.InfoContext(context.Background(), "hello")

	out := buf.String()
	if strings.Contains(out, "trace_id") {
		t.Fatalf("unexpected trace id without a span: %s", out)
	}
	if !strings.Contains(out, `"service":"collegeevents"`) {
		t.Fatalf("missing service attr: %s", out)
	}
}
