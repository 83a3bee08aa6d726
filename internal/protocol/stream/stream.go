package stream

import (
	"encoding/json"
	"sync"

	"github.com/danmuck/jsonl/internal/protocol/frame"
	"github.com/rs/zerolog"
)

type itemKind int

const (
	itemData itemKind = iota
	itemError
	itemEnd
)

// item is one queued notification from a handle.
type item struct {
	kind  itemKind
	chunk []byte
	err   error
}

// Stream frames newline-delimited JSON over an input and an output handle.
type Stream struct {
	in      Readable
	out     Writable
	aliased bool

	mu        sync.Mutex
	splitter  *frame.Splitter
	preserve  bool
	endPolicy EndPolicy
	recorder  Recorder
	logger    zerolog.Logger
	handlers  []Handler

	queue   []item
	running bool
}

// New attaches a Stream to in. A nil out defaults to in when in is also
// Writable. Subscribe before the handle starts delivering chunks; chunks
// delivered earlier have no observer.
func New(in Readable, out Writable, cfg Config) (*Stream, error) {
	if in == nil {
		return nil, ErrNilInput
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if out == nil {
		if w, ok := in.(Writable); ok {
			out = w
		}
	}
	s := &Stream{
		in:  in,
		out: out,
		splitter: frame.NewSplitter(frame.Config{
			Delimiter:     cfg.Delimiter,
			MaxBufferSize: cfg.MaxBufferSize,
		}),
		preserve:  cfg.PreserveWhitespace,
		endPolicy: cfg.EndPolicy,
		recorder:  nopRecorder{},
		logger:    zerolog.Nop(),
	}
	if out != nil {
		s.aliased = sameHandle(in, out)
	}
	s.attach()
	return s, nil
}

func (s *Stream) attach() {
	s.in.OnData(func(chunk []byte) {
		s.enqueue(item{kind: itemData, chunk: chunk})
	})
	s.in.OnEnd(func() {
		s.enqueue(item{kind: itemEnd})
	})
	if s.aliased || s.out == nil {
		s.in.OnError(func(err error) {
			s.enqueue(item{kind: itemError, err: err})
		})
		return
	}
	s.in.OnError(func(err error) {
		s.enqueue(item{kind: itemError, err: &TransportError{Origin: OriginInput, Err: err}})
	})
	s.out.OnError(func(err error) {
		s.enqueue(item{kind: itemError, err: &TransportError{Origin: OriginOutput, Err: err}})
	})
}

// Aliased reports whether input and output are the same handle.
func (s *Stream) Aliased() bool { return s.aliased }

func (s *Stream) SetDelimiter(delim string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.splitter.SetDelimiter(delim)
}

func (s *Stream) SetMaxBufferSize(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.splitter.SetMaxBufferSize(n)
}

func (s *Stream) SetPreserveWhitespace(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preserve = v
}

func (s *Stream) SetEndPolicy(p EndPolicy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endPolicy = p
}

// SetRecorder attaches a shared performance recorder. nil detaches it.
func (s *Stream) SetRecorder(r Recorder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r == nil {
		r = nopRecorder{}
	}
	s.recorder = r
}

func (s *Stream) SetLogger(l zerolog.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger = l
}

func (s *Stream) Delimiter() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.splitter.Delimiter()
}

// Pending returns a copy of the buffered unterminated tail.
func (s *Stream) Pending() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.splitter.Pending()
}

// Subscribe registers h. Handlers run in registration order.
func (s *Stream) Subscribe(h Handler) {
	if h == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, h)
}

func (s *Stream) OnJSON(fn func(value map[string]any)) {
	s.Subscribe(func(e Event) {
		if e.Kind == KindJSON {
			fn(e.Value)
		}
	})
}

func (s *Stream) OnText(fn func(line string)) {
	s.Subscribe(func(e Event) {
		if e.Kind == KindText {
			fn(e.Text)
		}
	})
}

func (s *Stream) OnError(fn func(err error)) {
	s.Subscribe(func(e Event) {
		if e.Kind == KindError {
			fn(e.Err)
		}
	})
}

func (s *Stream) OnEnd(fn func()) {
	s.Subscribe(func(e Event) {
		if e.Kind == KindEnd {
			fn()
		}
	})
}

// enqueue runs it to completion unless another notification is being
// processed, in which case the active caller picks it up in order.
func (s *Stream) enqueue(it item) {
	s.mu.Lock()
	s.queue = append(s.queue, it)
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	for len(s.queue) > 0 {
		next := s.queue[0]
		s.queue[0] = item{}
		s.queue = s.queue[1:]
		s.mu.Unlock()
		s.process(next)
		s.mu.Lock()
	}
	s.queue = nil
	s.running = false
	s.mu.Unlock()
}

// snapshot is the configuration one notification is processed with.
type snapshot struct {
	delim     string
	preserve  bool
	endPolicy EndPolicy
	recorder  Recorder
	logger    zerolog.Logger
	handlers  []Handler
}

func (s *Stream) snapshotLocked() snapshot {
	return snapshot{
		delim:     s.splitter.Delimiter(),
		preserve:  s.preserve,
		endPolicy: s.endPolicy,
		recorder:  s.recorder,
		logger:    s.logger,
		handlers:  s.handlers,
	}
}

func (s *Stream) process(it item) {
	switch it.kind {
	case itemData:
		s.handleChunk(it.chunk)
	case itemError:
		s.mu.Lock()
		snap := s.snapshotLocked()
		s.mu.Unlock()
		snap.logger.Warn().Err(it.err).Msg("stream transport error")
		snap.emit(Event{Kind: KindError, Err: it.err})
	case itemEnd:
		s.handleEnd()
	}
}

func (s *Stream) handleChunk(chunk []byte) {
	s.mu.Lock()
	before := s.splitter.Dropped()
	records := s.splitter.Feed(chunk)
	dropped := s.splitter.Dropped() - before
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if dropped > 0 {
		snap.logger.Debug().Int64("dropped", dropped).Msg("pending buffer overflow truncated")
	}
	for _, line := range records {
		snap.classify(line, true)
	}
}

func (s *Stream) handleEnd() {
	s.mu.Lock()
	tail := s.splitter.Drain()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if len(tail) > 0 {
		switch snap.endPolicy {
		case EndFlushPartial:
			snap.classify(tail, false)
		case EndErrorPartial:
			snap.emit(Event{Kind: KindError, Err: &PartialRecordError{Tail: string(tail)}})
		default:
			snap.logger.Debug().Int("bytes", len(tail)).Msg("dropping unterminated record at end of input")
		}
	}
	snap.emit(Event{Kind: KindEnd})
}

// classify emits one event for line. terminated reports whether line was
// followed by a delimiter in the input.
func (snap snapshot) classify(line []byte, terminated bool) {
	size := len(line)
	if terminated {
		size += len(snap.delim)
	}
	if frame.LooksLikeObject(line) {
		var value map[string]any
		stop := snap.recorder.StartTimer(TimerDecode)
		err := json.Unmarshal(line, &value)
		stop()
		snap.recorder.Add(CounterMessagesRead, 1)
		snap.recorder.Add(CounterBytesRead, float64(size))
		if err != nil {
			snap.logger.Debug().Err(err).Int("bytes", len(line)).Msg("malformed json record")
			snap.emit(Event{Kind: KindError, Err: &ParseError{Line: string(line), Err: err}})
			return
		}
		snap.emit(Event{Kind: KindJSON, Value: value, Text: string(line)})
		return
	}
	if !snap.preserve && frame.IsBlank(line) {
		return
	}
	text := string(line)
	if terminated {
		text += snap.delim
	}
	snap.emit(Event{Kind: KindText, Text: text})
}

func (snap snapshot) emit(e Event) {
	for _, h := range snap.handlers {
		h(e)
	}
}
