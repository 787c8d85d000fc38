package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewRegistersCollectorsWithoutPanic(t *testing.T) {
	m := New()
	m.RoomsActive.Set(3)
	m.ConnectionsActive.Inc()
	m.PacketsIn.WithLabelValues("1").Inc()
	m.PacketsOut.WithLabelValues("2").Inc()
	m.MatchesFinished.WithLabelValues("flag_capture").Inc()
}

func TestHandlerServesExpositionFormat(t *testing.T) {
	m := New()
	m.RoomsActive.Set(2)
	m.PacketsIn.WithLabelValues("1").Inc()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from the metrics handler, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "pigwar_rooms_active 2") {
		t.Fatalf("expected rooms_active gauge in exposition output, got:\n%s", body)
	}
	if !strings.Contains(body, `pigwar_packets_in_total{msg_id="1"} 1`) {
		t.Fatalf("expected packets_in_total counter in exposition output, got:\n%s", body)
	}
}
