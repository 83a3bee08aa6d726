package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/jsonl/internal/protocol/stream"
	"github.com/danmuck/jsonl/internal/testutil/testlog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	testlog.Start(t)
	RegisterMetrics()
	RegisterMetrics()
	RecordHTTPRequest("GET", "/healthz", "200", 12*time.Millisecond)
}

func TestRecorderCountsAndTimers(t *testing.T) {
	testlog.Start(t)
	reg := prometheus.NewRegistry()
	rec, err := NewRecorder(reg, "test", "conn-a")
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	rec.Add(stream.CounterMessagesRead, 1)
	rec.Add(stream.CounterBytesRead, 8)
	rec.Add(stream.CounterBytesRead, 4)
	stop := rec.StartTimer(stream.TimerDecode)
	stop()

	if got := testutil.ToFloat64(rec.counters.WithLabelValues("conn-a", stream.CounterBytesRead)); got != 12 {
		t.Fatalf("unexpected bytes_read: %v", got)
	}
	if got := testutil.ToFloat64(rec.counters.WithLabelValues("conn-a", stream.CounterMessagesRead)); got != 1 {
		t.Fatalf("unexpected messages_read: %v", got)
	}
	if n := testutil.CollectAndCount(rec.timers); n != 1 {
		t.Fatalf("expected one timer series, got %d", n)
	}
}

func TestNewRecorderReusesRegisteredCollectors(t *testing.T) {
	testlog.Start(t)
	reg := prometheus.NewRegistry()
	a, err := NewRecorder(reg, "test", "a")
	if err != nil {
		t.Fatalf("first recorder: %v", err)
	}
	b, err := NewRecorder(reg, "test", "b")
	if err != nil {
		t.Fatalf("second recorder: %v", err)
	}
	if a.counters != b.counters || a.timers != b.timers {
		t.Fatalf("expected shared collectors")
	}
	c := a.ForStream("c")
	c.Add(stream.CounterMessagesWritten, 2)
	if got := testutil.ToFloat64(a.counters.WithLabelValues("c", stream.CounterMessagesWritten)); got != 2 {
		t.Fatalf("unexpected messages_written: %v", got)
	}
}

func TestAdminRouterServesHealthAndMetrics(t *testing.T) {
	testlog.Start(t)
	reg := prometheus.NewRegistry()
	rec, err := NewRecorder(reg, "test", "conn-a")
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	rec.Add(stream.CounterMessagesRead, 3)
	router := NewAdminRouter(zerolog.Nop(), reg)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok"`) {
		t.Fatalf("unexpected healthz: %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("unexpected metrics status: %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `test_stream_events_total{counter="messages_read",stream="conn-a"} 3`) {
		t.Fatalf("metrics missing counter:\n%s", w.Body.String())
	}
}
