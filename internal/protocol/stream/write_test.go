package stream

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/danmuck/jsonl/internal/testutil/testlog"
	"github.com/danmuck/jsonl/internal/transport"
	"github.com/google/go-cmp/cmp"
)

type fakeRecorder struct {
	mu       sync.Mutex
	counters map[string]float64
	timers   map[string]int
	open     int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{counters: map[string]float64{}, timers: map[string]int{}}
}

func (r *fakeRecorder) StartTimer(name string) func() {
	r.mu.Lock()
	r.open++
	r.mu.Unlock()
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.open--
		r.timers[name]++
	}
}

func (r *fakeRecorder) Add(name string, delta float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters[name] += delta
}

// saturatedSink records writes and always reports backpressure.
type saturatedSink struct {
	writes [][]byte
}

func (s *saturatedSink) Write(p []byte, done func(error)) bool {
	s.writes = append(s.writes, p)
	if done != nil {
		done(nil)
	}
	return false
}

func (s *saturatedSink) OnError(func(error)) {}

func TestWriteRoundTrip(t *testing.T) {
	testlog.Start(t)
	values := []map[string]any{
		{"a": float64(1)},
		{"nested": map[string]any{"list": []any{"x", float64(2), nil, true}}, "s": "line\nbreak"},
		{},
	}
	p := transport.NewPipe()
	s, err := New(p, nil, DefaultConfig())
	if err != nil {
		t.Fatalf("new stream: %v", err)
	}
	var got []map[string]any
	s.OnJSON(func(v map[string]any) { got = append(got, v) })

	for _, v := range values {
		ok, err := s.Write(v, nil)
		if err != nil {
			t.Fatalf("write: %v", err)
		}
		if !ok {
			t.Fatalf("pipe should not report backpressure")
		}
	}
	if diff := cmp.Diff(values, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteRoundTripStruct(t *testing.T) {
	testlog.Start(t)
	type record struct {
		ID    string   `json:"id"`
		Count int      `json:"count"`
		Tags  []string `json:"tags"`
	}
	p := transport.NewPipe()
	s, err := New(p, nil, DefaultConfig())
	if err != nil {
		t.Fatalf("new stream: %v", err)
	}
	var raw string
	s.Subscribe(func(e Event) {
		if e.Kind == KindJSON {
			raw = e.Text
		}
	})
	in := record{ID: "r1", Count: 3, Tags: []string{"a"}}
	if _, err := s.Write(in, nil); err != nil {
		t.Fatalf("write: %v", err)
	}
	var out record
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		t.Fatalf("decode raw line: %v", err)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Fatalf("struct mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteFramesWithDelimiterAndCounts(t *testing.T) {
	testlog.Start(t)
	sink := &saturatedSink{}
	s, err := New(&inputOnly{}, sink, Config{Delimiter: "\r\n", MaxBufferSize: 64})
	if err != nil {
		t.Fatalf("new stream: %v", err)
	}
	rec := newFakeRecorder()
	s.SetRecorder(rec)

	var doneCalls int
	ok, err := s.Write(map[string]any{"k": "v"}, func(err error) {
		if err != nil {
			t.Fatalf("unexpected done error: %v", err)
		}
		doneCalls++
	})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if ok {
		t.Fatalf("expected backpressure signal to propagate")
	}
	if doneCalls != 1 {
		t.Fatalf("done should be forwarded to the handle, calls=%d", doneCalls)
	}
	if len(sink.writes) != 1 || string(sink.writes[0]) != "{\"k\":\"v\"}\r\n" {
		t.Fatalf("unexpected written bytes: %q", sink.writes)
	}
	if rec.counters[CounterMessagesWritten] != 1 {
		t.Fatalf("unexpected messages_written: %v", rec.counters[CounterMessagesWritten])
	}
	if rec.counters[CounterBytesWritten] != float64(len(sink.writes[0])) {
		t.Fatalf("unexpected bytes_written: %v", rec.counters[CounterBytesWritten])
	}
	if rec.counters[CounterBackpressure] != 1 {
		t.Fatalf("unexpected backpressure count: %v", rec.counters[CounterBackpressure])
	}
	if rec.timers[TimerEncode] != 1 || rec.open != 0 {
		t.Fatalf("unexpected encode timers: %v open=%d", rec.timers, rec.open)
	}
}

func TestWriteSerializationErrorIsReturned(t *testing.T) {
	testlog.Start(t)
	sink := &saturatedSink{}
	s, err := New(&inputOnly{}, sink, DefaultConfig())
	if err != nil {
		t.Fatalf("new stream: %v", err)
	}
	rec := newFakeRecorder()
	s.SetRecorder(rec)

	cyclic := map[string]any{}
	cyclic["self"] = cyclic
	for _, v := range []any{map[string]any{"ch": make(chan int)}, cyclic} {
		ok, err := s.Write(v, nil)
		if err == nil || ok {
			t.Fatalf("expected serialization error for %T", v)
		}
		var unsupportedType *json.UnsupportedTypeError
		var unsupportedValue *json.UnsupportedValueError
		if !errors.As(err, &unsupportedType) && !errors.As(err, &unsupportedValue) {
			t.Fatalf("unexpected error type %T: %v", err, err)
		}
	}
	if len(sink.writes) != 0 {
		t.Fatalf("nothing should be written on serialization failure")
	}
	if rec.counters[CounterMessagesWritten] != 0 {
		t.Fatalf("failed writes should not be counted")
	}
}

func TestReadCountersAndDecodeTimer(t *testing.T) {
	testlog.Start(t)
	s, p, _ := newPipeStream(t, DefaultConfig())
	rec := newFakeRecorder()
	s.SetRecorder(rec)
	p.Push([]byte("{\"a\":1}\n{bad}\ntext line\n"))

	if rec.counters[CounterMessagesRead] != 2 {
		t.Fatalf("unexpected messages_read: %v", rec.counters[CounterMessagesRead])
	}
	want := float64(len(`{"a":1}`) + 1 + len(`{bad}`) + 1)
	if rec.counters[CounterBytesRead] != want {
		t.Fatalf("unexpected bytes_read: %v want=%v", rec.counters[CounterBytesRead], want)
	}
	if rec.timers[TimerDecode] != 2 || rec.open != 0 {
		t.Fatalf("unexpected decode timers: %v open=%d", rec.timers, rec.open)
	}

	s.SetRecorder(nil)
	p.Push([]byte("{\"b\":2}\n"))
	if rec.counters[CounterMessagesRead] != 2 {
		t.Fatalf("detached recorder should not be called")
	}
}
