package main

import (
	"context"
	"errors"

	"github.com/danmuck/jsonl/internal/config"
	"github.com/danmuck/jsonl/internal/observability"
	"github.com/danmuck/jsonl/internal/protocol/stream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// runtime is the shared state handed to a command body.
type runtime struct {
	ctx      context.Context
	cfg      config.Config
	logger   zerolog.Logger
	recorder *observability.Recorder
}

// runWithAdmin runs fn alongside the optional admin server. The admin server
// stops when fn returns.
func runWithAdmin(ctx context.Context, cfg config.Config, fn func(rt *runtime) error) error {
	logger := observability.InitLogger(cfg.App)
	return runWith(ctx, cfg, logger, prometheus.DefaultRegisterer, prometheus.DefaultGatherer, fn)
}

func runWith(
	ctx context.Context,
	cfg config.Config,
	logger zerolog.Logger,
	reg prometheus.Registerer,
	gatherer prometheus.Gatherer,
	fn func(rt *runtime) error,
) error {
	recorder, err := observability.NewRecorder(reg, observability.DefaultNamespace, cfg.App)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	rt := &runtime{ctx: gctx, cfg: cfg, logger: logger, recorder: recorder}

	if cfg.MetricsAddr != "" {
		g.Go(func() error {
			return observability.ServeAdmin(gctx, cfg.MetricsAddr, logger, gatherer)
		})
	}
	g.Go(func() error {
		defer cancel()
		return fn(rt)
	})
	return g.Wait()
}

// newStream builds a Stream configured from rt with a per-stream logger and
// recorder label.
func (rt *runtime) newStream(in stream.Readable, out stream.Writable, name string) (*stream.Stream, error) {
	sc, err := rt.cfg.StreamConfig()
	if err != nil {
		return nil, err
	}
	s, err := stream.New(in, out, sc)
	if err != nil {
		return nil, err
	}
	s.SetLogger(rt.logger.With().Str("stream", name).Logger())
	s.SetRecorder(rt.recorder.ForStream(name))
	return s, nil
}

// isRecordError reports whether err concerns one record rather than the transport.
func isRecordError(err error) bool {
	return errors.Is(err, stream.ErrMalformedRecord) || errors.Is(err, stream.ErrPartialRecord)
}

// drainWaiter turns drain notifications into a wait point for writers that
// hit backpressure.
type drainWaiter struct {
	ch chan struct{}
}

func newDrainWaiter() *drainWaiter {
	return &drainWaiter{ch: make(chan struct{}, 1)}
}

func (d *drainWaiter) notify() {
	select {
	case d.ch <- struct{}{}:
	default:
	}
}

// wait blocks until a drain, ctx cancellation or closed is closed.
func (d *drainWaiter) wait(ctx context.Context, closed <-chan struct{}) error {
	select {
	case <-d.ch:
		return nil
	case <-closed:
		return errors.New("output closed while waiting for drain")
	case <-ctx.Done():
		return ctx.Err()
	}
}
