package main

import (
	"context"
	"io"
	"net"
	"strings"
	"sync"

	"github.com/danmuck/jsonl/internal/config"
	"github.com/danmuck/jsonl/internal/protocol/stream"
	"github.com/danmuck/jsonl/internal/transport"
)

// input is a Readable that can be started.
type input interface {
	stream.Readable
	Start(ctx context.Context)
}

func openInput(rt *runtime, stdin io.Reader) (input, func(), error) {
	if strings.TrimSpace(rt.cfg.Connect) == "" {
		return transport.ReaderSource(stdin, rt.cfg.ChunkSize), func() {}, nil
	}
	nc, err := transport.Dial(rt.ctx, rt.cfg.Connect, rt.cfg.TLS)
	if err != nil {
		return nil, nil, err
	}
	conn := transport.NewConn(nc, rt.cfg.ConnConfig())
	return conn, func() { _ = conn.Close() }, nil
}

func runTail(rt *runtime, stdin io.Reader, stdout io.Writer) error {
	in, closeIn, err := openInput(rt, stdin)
	if err != nil {
		return err
	}
	defer closeIn()

	s, err := rt.newStream(in, nil, rt.cfg.App)
	if err != nil {
		return err
	}
	r := newRenderer(stdout)

	var once sync.Once
	finished := make(chan error, 1)
	finish := func(err error) {
		once.Do(func() { finished <- err })
	}
	s.Subscribe(func(e stream.Event) {
		var werr error
		switch e.Kind {
		case stream.KindJSON:
			werr = r.JSON(e.Value)
		case stream.KindText:
			werr = r.Text(e.Text)
		case stream.KindError:
			if !isRecordError(e.Err) {
				finish(e.Err)
				return
			}
			rt.logger.Debug().Err(e.Err).Msg("record skipped")
			werr = r.RecordError(e.Err)
		case stream.KindEnd:
			finish(nil)
		}
		if werr != nil {
			finish(werr)
		}
	})

	in.Start(rt.ctx)
	select {
	case err := <-finished:
		return err
	case <-rt.ctx.Done():
		return nil
	}
}

func listen(cfg config.Config) (net.Listener, error) {
	return transport.Listen(cfg.Listen, cfg.TLS)
}
