package main

import (
	"io"
	"strings"
	"sync"

	"github.com/danmuck/jsonl/internal/protocol/stream"
	"github.com/danmuck/jsonl/internal/transport"
)

// runSend reads stdin through one stream and re-frames every record onto
// a separate output handle. Text lines are wrapped as {"text": line}
// unless dropText is set.
func runSend(rt *runtime, stdin io.Reader, stdout io.Writer, dropText bool) error {
	w := stdout
	if strings.TrimSpace(rt.cfg.Connect) != "" {
		nc, err := transport.Dial(rt.ctx, rt.cfg.Connect, rt.cfg.TLS)
		if err != nil {
			return err
		}
		defer nc.Close()
		w = nc
	}
	sink := transport.WriterSink(w, rt.cfg.HighWaterMark)
	src := transport.ReaderSource(stdin, rt.cfg.ChunkSize)

	s, err := rt.newStream(src, sink, rt.cfg.App)
	if err != nil {
		_ = sink.Close()
		return err
	}
	drain := newDrainWaiter()
	sink.OnDrain(drain.notify)

	closed := make(chan struct{})
	var once sync.Once
	var failure error
	finish := func(err error) {
		once.Do(func() {
			failure = err
			close(closed)
		})
	}
	write := func(v any) {
		ok, err := s.Write(v, nil)
		if err != nil {
			rt.logger.Warn().Err(err).Msg("send write failed")
			return
		}
		if !ok {
			if err := drain.wait(rt.ctx, closed); err != nil {
				rt.logger.Debug().Err(err).Msg("stopped waiting for drain")
			}
		}
	}

	s.Subscribe(func(e stream.Event) {
		switch e.Kind {
		case stream.KindJSON:
			write(e.Value)
		case stream.KindText:
			if !dropText {
				write(map[string]any{"text": strings.TrimSuffix(e.Text, s.Delimiter())})
			}
		case stream.KindError:
			if isRecordError(e.Err) {
				rt.logger.Warn().Err(e.Err).Msg("record skipped")
				return
			}
			finish(e.Err)
		case stream.KindEnd:
			finish(nil)
		}
	})

	src.Start(rt.ctx)
	select {
	case <-closed:
	case <-rt.ctx.Done():
		finish(nil)
	}
	if err := sink.Close(); err != nil && failure == nil {
		failure = err
	}
	return failure
}
