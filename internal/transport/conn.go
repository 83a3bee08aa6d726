package transport

import (
	"context"
	"io"
	"sync"
)

// ConnConfig sizes the read chunks and write backlog of a Conn.
type ConnConfig struct {
	ChunkSize     int
	HighWaterMark int
}

func DefaultConnConfig() ConnConfig {
	return ConnConfig{
		ChunkSize:     DefaultChunkSize,
		HighWaterMark: DefaultHighWaterMark,
	}
}

// Conn is a duplex handle over one connection. Reads and writes share the
// same error listeners, so a stream attached to a Conn sees each fault once
// and untagged.
type Conn struct {
	c      io.ReadWriteCloser
	source *Source
	sink   *Sink

	mu        sync.Mutex
	cancel    context.CancelFunc
	closeOnce sync.Once
	closeErr  error
}

func NewConn(c io.ReadWriteCloser, cfg ConnConfig) *Conn {
	return &Conn{
		c:      c,
		source: ReaderSource(c, cfg.ChunkSize),
		sink:   WriterSink(c, cfg.HighWaterMark),
	}
}

func (c *Conn) OnData(fn func(chunk []byte)) { c.source.OnData(fn) }

func (c *Conn) OnEnd(fn func()) { c.source.OnEnd(fn) }

func (c *Conn) OnError(fn func(err error)) {
	c.source.OnError(fn)
	c.sink.OnError(fn)
}

func (c *Conn) OnDrain(fn func()) { c.sink.OnDrain(fn) }

func (c *Conn) Write(p []byte, done func(err error)) bool { return c.sink.Write(p, done) }

// Start begins reading. Close stops reading without reporting the
// resulting read error.
func (c *Conn) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()
	c.source.Start(ctx)
}

// Close flushes pending writes then closes the connection.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		cancel := c.cancel
		c.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		_ = c.sink.Close()
		c.closeErr = c.c.Close()
	})
	return c.closeErr
}
