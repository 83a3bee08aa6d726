package stream

import (
	"bytes"
	"encoding/json"

	"github.com/valyala/bytebufferpool"
)

var encodePool bytebufferpool.Pool

// Write serializes v, appends the delimiter and hands the record to the
// output handle. The returned bool is the handle's backpressure signal:
// false means the caller should pause until the handle drains.
// Serialization errors are returned and nothing is written.
func (s *Stream) Write(v any, done func(err error)) (bool, error) {
	s.mu.Lock()
	delim := s.splitter.Delimiter()
	rec := s.recorder
	s.mu.Unlock()

	if s.out == nil {
		return false, ErrNotWritable
	}

	buf := encodePool.Get()
	defer encodePool.Put(buf)

	stop := rec.StartTimer(TimerEncode)
	err := encodeRecord(buf, v)
	stop()
	if err != nil {
		return false, err
	}
	buf.WriteString(delim)

	// the handle may retain p after Write returns
	p := bytes.Clone(buf.B)
	ok := s.out.Write(p, done)

	rec.Add(CounterMessagesWritten, 1)
	rec.Add(CounterBytesWritten, float64(len(p)))
	if !ok {
		rec.Add(CounterBackpressure, 1)
	}
	return ok, nil
}

func encodeRecord(buf *bytebufferpool.ByteBuffer, v any) error {
	if err := json.NewEncoder(buf).Encode(v); err != nil {
		return err
	}
	// Encode terminates every value with '\n'
	buf.B = buf.B[:len(buf.B)-1]
	return nil
}
