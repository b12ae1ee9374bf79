package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() == name {
			var total float64
			for _, m := range mf.GetMetric() {
				total += m.GetCounter().GetValue()
			}
			return total
		}
	}
	t.Fatalf("%s metric not found", name)
	return 0
}

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	if c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

// TestRecordHTTPStatus_IncrementsCounter はステータスコード別カウンタが増加することを検証する。
func TestRecordHTTPStatus_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(404)

	if got := counterValue(t, reg, "statusdeck_http_status_total"); got != 3 {
		t.Errorf("http_status_total = %v, want 3", got)
	}
}

// TestRecordDomainCounters はドメインイベントのカウンタが増加することを検証する。
func TestRecordDomainCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSignup()
	c.RecordIncidentOpened()
	c.RecordIncidentOpened()
	c.RecordIncidentResolved()
	c.RecordPublicPageRender()
	c.RecordSubscription()

	tests := []struct {
		name string
		want float64
	}{
		{"statusdeck_signups_total", 1},
		{"statusdeck_incidents_opened_total", 2},
		{"statusdeck_incidents_resolved_total", 1},
		{"statusdeck_public_page_renders_total", 1},
		{"statusdeck_subscriptions_total", 1},
	}
	for _, tt := range tests {
		if got := counterValue(t, reg, tt.name); got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, got, tt.want)
		}
	}
}

// TestRecordRequestLatency_Observes はレイテンシヒストグラムが記録されることを検証する。
func TestRecordRequestLatency_Observes(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRequestLatency(150 * time.Millisecond)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() == "statusdeck_request_latency_seconds" {
			if count := mf.GetMetric()[0].GetHistogram().GetSampleCount(); count != 1 {
				t.Errorf("sample count = %d, want 1", count)
			}
			return
		}
	}
	t.Error("statusdeck_request_latency_seconds metric not found")
}

// TestHandler_ServesPrometheusFormat は/metricsがPrometheus形式で応答することを検証する。
func TestHandler_ServesPrometheusFormat(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordHTTPStatus(200)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "statusdeck_http_status_total") {
		t.Error("レスポンスにstatusdeck_http_status_totalが含まれていません")
	}
}
