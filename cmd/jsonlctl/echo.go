package main

import (
	"errors"
	"net"
	"sync"

	"github.com/danmuck/jsonl/internal/protocol/stream"
	"github.com/danmuck/jsonl/internal/transport"
	"github.com/google/uuid"
)

// serveEcho accepts connections until rt.ctx is done. Each connection gets
// a duplex stream that writes every decoded record back.
func serveEcho(rt *runtime, ln net.Listener) error {
	rt.logger.Info().Str("addr", ln.Addr().String()).Msg("echo listening")

	var (
		mu    sync.Mutex
		conns = make(map[string]*transport.Conn)
		wg    sync.WaitGroup
	)
	go func() {
		<-rt.ctx.Done()
		_ = ln.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			_ = c.Close()
		}
	}()

	for {
		nc, err := ln.Accept()
		if err != nil {
			wg.Wait()
			if rt.ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		id := uuid.NewString()
		conn := transport.NewConn(nc, rt.cfg.ConnConfig())
		mu.Lock()
		conns[id] = conn
		mu.Unlock()

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				mu.Lock()
				delete(conns, id)
				mu.Unlock()
				_ = conn.Close()
			}()
			if err := echoConn(rt, id, conn); err != nil {
				rt.logger.Warn().Err(err).Str("conn", id).Msg("echo connection failed")
			}
		}()
	}
}

// echoConn runs one connection to completion.
func echoConn(rt *runtime, id string, conn *transport.Conn) error {
	s, err := rt.newStream(conn, nil, id)
	if err != nil {
		return err
	}
	log := rt.logger.With().Str("conn", id).Logger()
	log.Info().Bool("aliased", s.Aliased()).Msg("connection opened")

	drain := newDrainWaiter()
	conn.OnDrain(drain.notify)
	closed := make(chan struct{})
	var once sync.Once
	var failure error
	finish := func(err error) {
		once.Do(func() {
			failure = err
			close(closed)
		})
	}

	s.Subscribe(func(e stream.Event) {
		switch e.Kind {
		case stream.KindJSON:
			ok, err := s.Write(e.Value, nil)
			if err != nil {
				log.Warn().Err(err).Msg("echo write failed")
				return
			}
			if !ok {
				if err := drain.wait(rt.ctx, closed); err != nil {
					log.Debug().Err(err).Msg("stopped waiting for drain")
				}
			}
		case stream.KindText:
			log.Debug().Str("text", e.Text).Msg("ignoring text line")
		case stream.KindError:
			if isRecordError(e.Err) {
				log.Debug().Err(e.Err).Msg("record skipped")
				return
			}
			finish(e.Err)
		case stream.KindEnd:
			finish(nil)
		}
	})

	conn.Start(rt.ctx)
	select {
	case <-closed:
	case <-rt.ctx.Done():
		finish(nil)
	}
	log.Info().Msg("connection closed")
	return failure
}
