package observability

import (
	"errors"
	"sync"
	"time"

	"github.com/danmuck/jsonl/internal/protocol/stream"
	"github.com/prometheus/client_golang/prometheus"
)

const DefaultNamespace = "jsonl"

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: DefaultNamespace,
			Subsystem: "admin_http",
			Name:      "requests_total",
			Help:      "Total admin HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: DefaultNamespace,
			Subsystem: "admin_http",
			Name:      "request_duration_seconds",
			Help:      "Admin HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration)
	})
}

func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	RegisterMetrics()
	httpRequests.WithLabelValues(method, path, status).Inc()
	httpDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// Recorder implements stream.Recorder on prometheus collectors. Timers are
// observed into a histogram and counters are added to a counter vector,
// both labelled by stream name.
type Recorder struct {
	name     string
	timers   *prometheus.HistogramVec
	counters *prometheus.CounterVec
}

var _ stream.Recorder = (*Recorder)(nil)

// NewRecorder builds a Recorder for the named stream and registers its
// collectors with reg. Registering the same collectors twice reuses the
// already registered ones, so several streams can share one registry.
func NewRecorder(reg prometheus.Registerer, namespace, name string) (*Recorder, error) {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	timers := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "timer_seconds",
			Help:      "Duration of stream encode/decode spans in seconds.",
			Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05},
		},
		[]string{"stream", "timer"},
	)
	counters := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "events_total",
			Help:      "Stream message, byte and backpressure counters.",
		},
		[]string{"stream", "counter"},
	)
	var err error
	if timers, err = registerOrReuse(reg, timers); err != nil {
		return nil, err
	}
	if counters, err = registerOrReuse(reg, counters); err != nil {
		return nil, err
	}
	return &Recorder{name: name, timers: timers, counters: counters}, nil
}

func registerOrReuse[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if reg == nil {
		return c, nil
	}
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// ForStream returns a Recorder sharing r's collectors under another stream label.
func (r *Recorder) ForStream(name string) *Recorder {
	return &Recorder{name: name, timers: r.timers, counters: r.counters}
}

func (r *Recorder) StartTimer(name string) func() {
	start := time.Now()
	return func() {
		r.timers.WithLabelValues(r.name, name).Observe(time.Since(start).Seconds())
	}
}

func (r *Recorder) Add(name string, delta float64) {
	r.counters.WithLabelValues(r.name, name).Add(delta)
}
