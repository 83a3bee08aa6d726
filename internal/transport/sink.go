package transport

import (
	"io"
	"sync"
)

const DefaultHighWaterMark = 16 * 1024

type pendingWrite struct {
	p    []byte
	done func(error)
}

// Sink queues writes to an io.Writer and flushes them in order from a
// background goroutine. Write reports false once the queued bytes reach the
// high-water mark; drain listeners fire when that backlog has been flushed.
type Sink struct {
	w   io.Writer
	hwm int
	ls  listeners

	mu        sync.Mutex
	queue     []pendingWrite
	queued    int
	needDrain bool
	closed    bool

	wake     chan struct{}
	finished chan struct{}
}

func WriterSink(w io.Writer, highWaterMark int) *Sink {
	if highWaterMark <= 0 {
		highWaterMark = DefaultHighWaterMark
	}
	s := &Sink{
		w:        w,
		hwm:      highWaterMark,
		wake:     make(chan struct{}, 1),
		finished: make(chan struct{}),
	}
	go s.flushLoop()
	return s
}

func (s *Sink) OnError(fn func(err error)) { s.ls.addError(fn) }

// OnDrain registers fn to run after a saturated queue has been flushed.
func (s *Sink) OnDrain(fn func()) { s.ls.addDrain(fn) }

func (s *Sink) Write(p []byte, done func(err error)) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		if done != nil {
			done(ErrClosed)
		}
		s.ls.emitError(ErrClosed)
		return false
	}
	s.queue = append(s.queue, pendingWrite{p: p, done: done})
	s.queued += len(p)
	ok := s.queued < s.hwm
	if !ok {
		s.needDrain = true
	}
	s.mu.Unlock()
	s.signal()
	return ok
}

// Buffered returns the number of queued bytes not yet written.
func (s *Sink) Buffered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queued
}

// Close flushes queued writes and stops the flusher. It does not close w.
func (s *Sink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		<-s.finished
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	s.signal()
	<-s.finished
	return nil
}

func (s *Sink) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Sink) flushLoop() {
	defer close(s.finished)
	for {
		s.mu.Lock()
		for len(s.queue) == 0 {
			if s.closed {
				s.mu.Unlock()
				return
			}
			s.mu.Unlock()
			<-s.wake
			s.mu.Lock()
		}
		next := s.queue[0]
		s.queue[0] = pendingWrite{}
		s.queue = s.queue[1:]
		s.mu.Unlock()

		_, err := s.w.Write(next.p)

		s.mu.Lock()
		s.queued -= len(next.p)
		drained := len(s.queue) == 0 && s.needDrain
		if drained {
			s.needDrain = false
		}
		s.mu.Unlock()

		if next.done != nil {
			next.done(err)
		}
		if err != nil {
			s.ls.emitError(err)
		}
		if drained {
			s.ls.emitDrain()
		}
	}
}
