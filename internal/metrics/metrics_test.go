package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewCollector_RegistersMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	if c == nil {
		t.Fatal("expected non-nil collector")
	}

	// 二重登録はpanicするため、同一レジストリへの再登録で検証
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	NewCollector(reg)
}

func TestCollector_RecordHTTPRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPRequest(200, 50*time.Millisecond)
	c.RecordHTTPRequest(200, 30*time.Millisecond)
	c.RecordHTTPRequest(404, 10*time.Millisecond)

	if got := testutil.ToFloat64(c.httpStatus.WithLabelValues("200")); got != 2 {
		t.Errorf("status 200 count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.httpStatus.WithLabelValues("404")); got != 1 {
		t.Errorf("status 404 count = %v, want 1", got)
	}
}

func TestCollector_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordAuthFailure()
	c.RecordAuthFailure()
	c.RecordTaskCreated()
	c.RecordLinkCheckSuccess()
	c.RecordLinkCheckFailure()

	if got := testutil.ToFloat64(c.authFailures); got != 2 {
		t.Errorf("authFailures = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.tasksCreated); got != 1 {
		t.Errorf("tasksCreated = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.linkCheckOK); got != 1 {
		t.Errorf("linkCheckOK = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.linkCheckBroken); got != 1 {
		t.Errorf("linkCheckBroken = %v, want 1", got)
	}
}

func TestHandler_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordTaskCreated()

	h := Handler(reg)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	h.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body := w.Body.String()
	if !strings.Contains(body, "studydesk_tasks_created_total 1") {
		t.Errorf("metrics output missing task counter:\n%s", body)
	}
}
