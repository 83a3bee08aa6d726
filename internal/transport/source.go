package transport

import (
	"context"
	"errors"
	"io"
	"sync"
)

const DefaultChunkSize = 32 * 1024

// Source pushes chunks read from an io.Reader to its listeners.
type Source struct {
	r         io.Reader
	chunkSize int
	ls        listeners
	startOnce sync.Once
}

func ReaderSource(r io.Reader, chunkSize int) *Source {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Source{r: r, chunkSize: chunkSize}
}

func (s *Source) OnData(fn func(chunk []byte)) { s.ls.addData(fn) }

func (s *Source) OnEnd(fn func()) { s.ls.addEnd(fn) }

func (s *Source) OnError(fn func(err error)) { s.ls.addError(fn) }

// Start runs the pump in its own goroutine. Only the first call has effect.
func (s *Source) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		go func() {
			_ = s.Run(ctx)
		}()
	})
}

// Run pumps r until EOF, a read error or ctx cancellation. EOF notifies end
// listeners and returns nil. A read error notifies error listeners and is
// returned. Errors observed after ctx is done are not reported.
func (s *Source) Run(ctx context.Context) error {
	buf := make([]byte, s.chunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := s.r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			s.ls.emitData(chunk)
		}
		if err == nil {
			continue
		}
		if errors.Is(err, io.EOF) {
			s.ls.emitEnd()
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.ls.emitError(err)
		return err
	}
}
